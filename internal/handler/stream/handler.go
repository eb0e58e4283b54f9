package stream

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bagesh/luna-chat/backend/internal/model/chat"
	chatService "github.com/bagesh/luna-chat/backend/internal/service/chat"
	"github.com/bagesh/luna-chat/backend/pkg/utils"
)

// Handler delivers a turn's reply as Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// StartEvent opens the stream.
type StartEvent struct {
	SessionID string `json:"sessionId"`
	Persona   string `json:"persona"`
}

// SentimentEvent carries the classification of the user text.
type SentimentEvent struct {
	Label          string `json:"label"`
	Acknowledgment string `json:"acknowledgment,omitempty"`
}

// EndEvent closes the stream.
type EndEvent struct {
	SessionID string `json:"sessionId"`
	Finished  bool   `json:"finished"`
}

// ErrorEvent reports a failure after the stream has started.
type ErrorEvent struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the SSE route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	session, err := h.chatSvc.Session(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEEvent(w, flusher, "start", StartEvent{
		SessionID: sessionID,
		Persona:   session.Persona().Name,
	})

	reply, err := h.chatSvc.Send(r.Context(), sessionID, userMessage)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			log.Printf("[stream] session=%s evicted mid-stream", sessionID)
		}
		utils.SendSSEEvent(w, flusher, "error", ErrorEvent{Error: err.Error()})
		return
	}

	h.sendReply(w, flusher, reply)
	utils.SendSSEEvent(w, flusher, "end", EndEvent{SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed response for session=%s fallback=%t", sessionID, reply.Fallback)
}

func (h *Handler) sendReply(w http.ResponseWriter, flusher http.Flusher, reply chat.Reply) {
	utils.SendSSEEvent(w, flusher, "sentiment", SentimentEvent{
		Label:          reply.Sentiment,
		Acknowledgment: reply.Acknowledgment,
	})
	utils.SendSSEEvent(w, flusher, "message", reply.Assistant)
}
