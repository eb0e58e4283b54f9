package chat

// Reply is the outcome of processing one user turn.
type Reply struct {
	User           Turn   `json:"user"`
	Assistant      Turn   `json:"assistant"`
	Sentiment      string `json:"sentiment"`
	Acknowledgment string `json:"acknowledgment,omitempty"`
	Identity       bool   `json:"identity"`
	Fallback       bool   `json:"fallback"`
}
