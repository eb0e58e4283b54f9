package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bagesh/luna-chat/backend/internal/analysis/sentiment"
	"github.com/bagesh/luna-chat/backend/internal/model/chat"
	"github.com/bagesh/luna-chat/backend/internal/model/persona"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")

	errNoCompleter = errors.New("no model completer configured")
)

// Config tunes the sessions created by Service.
type Config struct {
	DefaultPersona string
	Timeout        time.Duration
	Classifier     *sentiment.Classifier
	Now            func() time.Time
}

// Service is the registry of live sessions owned by the host application.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	personas  persona.Store
	completer ai.Completer
	prompts   *ai.PersonaPromptManager
	cfg       Config
}

// NewService bootstraps the in-memory session registry.
func NewService(personas persona.Store, completer ai.Completer, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Classifier == nil {
		cfg.Classifier = sentiment.NewClassifier(nil)
	}
	return &Service{
		sessions:  make(map[string]*Session),
		personas:  personas,
		completer: completer,
		prompts:   ai.NewPersonaPromptManager(),
		cfg:       cfg,
	}
}

// CreateSession provisions a session bound to a persona. An empty personaID
// selects the configured default.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	if personaID == "" {
		personaID = s.cfg.DefaultPersona
	}
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return chat.Session{}, ErrPersonaNotFound
	}

	session := NewSession(SessionOptions{
		ID:             uuid.NewString(),
		Persona:        p,
		Completer:      s.completer,
		Classifier:     s.cfg.Classifier,
		IdentityPrompt: s.prompts.BuildIdentityPrompt(&p),
		Timeout:        s.cfg.Timeout,
		Now:            s.cfg.Now,
	})

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	return session.Info(), nil
}

// Session returns the live session value.
func (s *Service) Session(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetSession retrieves a session summary by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return session.Info(), nil
}

// Send forwards one user turn to the session. The only error is ErrSessionNotFound;
// model failures are reported inside the Reply.
func (s *Service) Send(ctx context.Context, sessionID, text string) (chat.Reply, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return chat.Reply{}, err
	}
	return session.Send(ctx, text), nil
}

// LoadTranscript returns the visible turns of the session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return session.History(), nil
}

// DeleteSession discards a session and its transcript.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// EvictIdle removes sessions inactive for longer than ttl and returns how many went.
func (s *Service) EvictIdle(ttl time.Duration) int {
	cutoff := s.cfg.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
