package chat

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bagesh/luna-chat/backend/internal/analysis/identity"
	"github.com/bagesh/luna-chat/backend/internal/analysis/sanitize"
	"github.com/bagesh/luna-chat/backend/internal/analysis/sentiment"
	"github.com/bagesh/luna-chat/backend/internal/model/chat"
	"github.com/bagesh/luna-chat/backend/internal/model/persona"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
)

// FallbackMessage replaces the assistant turn when the model call fails.
const FallbackMessage = "I'm sorry, I couldn't process that request right now. Please try again."

const defaultTimeout = 30 * time.Second

// SessionOptions configures a Session.
type SessionOptions struct {
	ID             string
	Persona        persona.Persona
	Completer      ai.Completer
	Classifier     *sentiment.Classifier
	IdentityPrompt string
	Timeout        time.Duration
	Now            func() time.Time
}

// Session owns one conversation: the visible transcript and the history the
// model has seen. Calls are serialized, so at most one model request is in
// flight per session.
type Session struct {
	mu sync.Mutex

	id         string
	persona    persona.Persona
	completer  ai.Completer
	detector   *identity.Detector
	sanitizer  *sanitize.Sanitizer
	classifier *sentiment.Classifier
	acks       sentiment.Acknowledgments
	timeout    time.Duration
	now        func() time.Time

	identityPrompt string
	initialized    bool

	turns []chat.Turn
	wire  []ai.Message

	createdAt  time.Time
	lastActive atomic.Int64
	turnCount  atomic.Int64
}

// NewSession builds a session around the persona's identity rules.
func NewSession(opts SessionOptions) *Session {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = sentiment.NewClassifier(nil)
	}

	acks := sentiment.DefaultAcknowledgments
	if opts.Persona.PositiveAck != "" {
		acks.Positive = opts.Persona.PositiveAck
	}
	if opts.Persona.NegativeAck != "" {
		acks.Negative = opts.Persona.NegativeAck
	}

	s := &Session{
		id:             opts.ID,
		persona:        opts.Persona,
		completer:      opts.Completer,
		detector:       identity.NewDetector(opts.Persona.IdentityKeywords),
		sanitizer:      sanitize.New(opts.Persona.Replacements),
		classifier:     classifier,
		acks:           acks,
		timeout:        timeout,
		now:            now,
		identityPrompt: opts.IdentityPrompt,
		initialized:    opts.IdentityPrompt == "",
		turns:          make([]chat.Turn, 0, 16),
		createdAt:      now(),
	}
	s.lastActive.Store(s.createdAt.UnixNano())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Persona returns the persona the session speaks as.
func (s *Session) Persona() persona.Persona { return s.persona }

// Send processes one user turn and never fails: model errors become the
// fallback assistant turn and the session stays usable.
func (s *Session) Send(ctx context.Context, userText string) chat.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	label := s.classifier.Classify(ctx, userText)
	isIdentity := s.detector.IsIdentityQuestion(userText)

	reply := chat.Reply{
		Sentiment:      string(label),
		Acknowledgment: s.acks.For(label),
		Identity:       isIdentity,
	}
	reply.User = s.appendTurn(chat.RoleUser, userText, false)

	if err := s.ensureInitialized(ctx); err != nil {
		log.Printf("[session] identity setup failed session=%s: %v", s.id, err)
		return s.fail(reply)
	}

	outbound := s.outbound(userText, isIdentity)
	raw, err := s.complete(ctx, s.wire, outbound)
	if err != nil {
		log.Printf("[session] model call failed session=%s identity=%t: %v", s.id, isIdentity, err)
		return s.fail(reply)
	}

	s.wire = append(s.wire,
		ai.Message{Role: ai.RoleUser, Content: outbound},
		ai.Message{Role: ai.RoleAssistant, Content: raw},
	)
	reply.Assistant = s.appendTurn(chat.RoleAssistant, s.sanitizer.Sanitize(raw), false)
	s.touch()
	return reply
}

// History returns a copy of the visible transcript. The hidden identity
// exchange and outbound prefixes never appear here.
func (s *Session) History() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]chat.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Info summarises the session without waiting for an in-flight turn.
func (s *Session) Info() chat.Session {
	return chat.Session{
		ID:           s.id,
		PersonaID:    s.persona.ID,
		CreatedAt:    s.createdAt,
		LastActiveAt: s.LastActive(),
		Turns:        int(s.turnCount.Load()),
	}
}

// LastActive reports when the session last started or finished a turn.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}

// ensureInitialized sends the hidden identity message once. A failure leaves
// the session uninitialized so the next turn retries.
func (s *Session) ensureInitialized(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	ack, err := s.complete(ctx, nil, s.identityPrompt)
	if err != nil {
		return err
	}

	s.wire = append(s.wire,
		ai.Message{Role: ai.RoleUser, Content: s.identityPrompt},
		ai.Message{Role: ai.RoleAssistant, Content: ack},
	)
	s.initialized = true
	return nil
}

// outbound applies the prefix policy: only the payload sent to the model is
// prefixed, the visible user turn keeps the original text.
func (s *Session) outbound(userText string, isIdentity bool) string {
	if isIdentity {
		return s.persona.IdentityPrefix + userText
	}
	return s.persona.ReminderPrefix + userText
}

func (s *Session) complete(ctx context.Context, history []ai.Message, outbound string) (string, error) {
	if s.completer == nil {
		return "", errNoCompleter
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.completer.Complete(callCtx, history, outbound)
}

func (s *Session) fail(reply chat.Reply) chat.Reply {
	reply.Fallback = true
	reply.Assistant = s.appendTurn(chat.RoleAssistant, FallbackMessage, true)
	s.touch()
	return reply
}

func (s *Session) appendTurn(role chat.Role, text string, fallback bool) chat.Turn {
	turn := chat.Turn{
		ID:        ulid.Make().String(),
		Role:      role,
		Text:      text,
		Fallback:  fallback,
		CreatedAt: s.now(),
	}
	s.turns = append(s.turns, turn)
	s.turnCount.Add(1)
	return turn
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}
