package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bagesh/luna-chat/backend/internal/model/persona"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
	chatservice "github.com/bagesh/luna-chat/backend/internal/service/chat"
)

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, []ai.Message, string) (string, error) {
	return "Gemini says hi", nil
}

func setup(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	store := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService(store, stubCompleter{}, chatservice.Config{DefaultPersona: persona.DefaultID})

	session, err := chatSvc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)
	return r, session.ID
}

func TestStreamEmitsEventsInOrder(t *testing.T) {
	r, id := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/stream/"+id+"?message="+url.QueryEscape("I love this"), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	body := resp.Body.String()
	order := []string{"event: start", "event: sentiment", "event: message", "event: end"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		if idx < 0 || idx < last {
			t.Fatalf("missing or out-of-order %q in:\n%s", marker, body)
		}
		last = idx
	}
	if !strings.Contains(body, "Luna says hi") || strings.Contains(body, "Gemini") {
		t.Fatalf("expected sanitized reply in stream:\n%s", body)
	}
	if !strings.Contains(body, `"label":"positive"`) {
		t.Fatalf("expected positive sentiment:\n%s", body)
	}
}

func TestStreamValidation(t *testing.T) {
	r, id := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/stream/"+id, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without message, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream/missing?message=hi", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}
}
