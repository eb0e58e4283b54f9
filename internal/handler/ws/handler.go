package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/bagesh/luna-chat/backend/internal/service/chat"
	"github.com/bagesh/luna-chat/backend/pkg/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Limiter decides whether the client at addr may submit another turn.
type Limiter interface {
	Allow(addr string) bool
}

// Options configures the upgrade and per-frame admission.
type Options struct {
	// CheckOrigin validates the Origin header; nil accepts any origin.
	CheckOrigin func(*http.Request) bool
	// Limiter is consulted for every text frame; nil disables it.
	Limiter Limiter
}

// Handler runs chat turns over a WebSocket bound to one session.
type Handler struct {
	chatSvc  *chatService.Service
	limiter  Limiter
	upgrader websocket.Upgrader
}

// New creates a WebSocket handler.
func New(chatSvc *chatService.Service, opts Options) *Handler {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		chatSvc: chatSvc,
		limiter: opts.Limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage is a client frame.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage is the payload of a "text" frame.
type TextMessage struct {
	Text string `json:"text"`
}

// OutboundMessage is a server frame.
type OutboundMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.Session(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, sessionID, "connected", map[string]any{
		"persona": session.Persona().ID,
	})

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		h.handleMessage(ctx, conn, sessionID, r.RemoteAddr, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID, remoteAddr string, msg InboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(conn, "invalid text payload")
			return
		}
		if strings.TrimSpace(text.Text) == "" {
			h.sendError(conn, "text is required")
			return
		}
		if h.limiter != nil && !h.limiter.Allow(remoteAddr) {
			log.Printf("[websocket] rate limited session=%s addr=%s", sessionID, remoteAddr)
			h.sendError(conn, "rate limit exceeded")
			return
		}
		h.processUserText(ctx, conn, sessionID, text.Text)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) processUserText(ctx context.Context, conn *websocket.Conn, sessionID, userText string) {
	reply, err := h.chatSvc.Send(ctx, sessionID, userText)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.send(conn, sessionID, "sentiment", map[string]any{
		"label":          reply.Sentiment,
		"acknowledgment": reply.Acknowledgment,
	})
	h.send(conn, sessionID, "reply", reply)
}

func (h *Handler) send(conn *websocket.Conn, sessionID, kind string, data interface{}) {
	msg := OutboundMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", kind, err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "", "error", map[string]string{"message": message})
}

// pingLoop keeps idle connections alive. WriteControl is safe alongside the
// reader goroutine's writes.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
