package chat

import "time"

// Session describes a live conversation to API clients.
type Session struct {
	ID           string    `json:"id"`
	PersonaID    string    `json:"personaId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	Turns        int       `json:"turns"`
}
