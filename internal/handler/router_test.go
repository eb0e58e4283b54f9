package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bagesh/luna-chat/backend/internal/config"
	"github.com/bagesh/luna-chat/backend/internal/model/persona"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
	chatService "github.com/bagesh/luna-chat/backend/internal/service/chat"
)

type countingCompleter struct {
	calls atomic.Int64
}

func (c *countingCompleter) Complete(context.Context, []ai.Message, string) (string, error) {
	c.calls.Add(1)
	return "hello", nil
}

type testEnv struct {
	router    http.Handler
	chatSvc   *chatService.Service
	completer *countingCompleter
}

func newTestEnv(cfg config.ServerConfig) testEnv {
	store := persona.NewMemoryStore(persona.Seed())
	completer := &countingCompleter{}
	chatSvc := chatService.NewService(store, completer, chatService.Config{DefaultPersona: persona.DefaultID})
	return testEnv{
		router:    NewRouter(store, chatSvc, cfg),
		chatSvc:   chatSvc,
		completer: completer,
	}
}

func newTestRouter(perMinute, burst int) http.Handler {
	return newTestEnv(config.ServerConfig{
		RatePerMinute:  perMinute,
		RateBurst:      burst,
		AllowedOrigins: []string{"*"},
	}).router
}

func wsURL(srv *httptest.Server, sessionID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/" + sessionID
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(60, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header")
	}
}

func TestSessionRoutesAreRateLimited(t *testing.T) {
	r := newTestRouter(1, 1)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// Persona listing is outside the limited group.
	req := httptest.NewRequest(http.MethodGet, "/api/personas", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected personas to bypass the limiter, got %d", resp.Code)
	}
}

func TestWebSocketFramesAreRateLimited(t *testing.T) {
	env := newTestEnv(config.ServerConfig{
		RatePerMinute:  1,
		RateBurst:      3,
		AllowedOrigins: []string{"*"},
	})
	session, err := env.chatSvc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, session.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() string {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var frame struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		return frame.Type
	}
	if kind := read(); kind != "connected" {
		t.Fatalf("expected connected frame, got %s", kind)
	}

	// The upgrade spends one token of the burst; two text frames remain.
	replies, refused := 0, 0
	for i := 0; i < 10; i++ {
		if err := conn.WriteJSON(map[string]any{
			"type": "text",
			"data": map[string]string{"text": "hi"},
		}); err != nil {
			t.Fatalf("write: %v", err)
		}
		switch kind := read(); kind {
		case "sentiment":
			if next := read(); next != "reply" {
				t.Fatalf("expected reply after sentiment, got %s", next)
			}
			replies++
		case "error":
			refused++
		default:
			t.Fatalf("unexpected frame %s", kind)
		}
	}

	if replies != 2 || refused != 8 {
		t.Fatalf("replies=%d refused=%d, want 2 and 8", replies, refused)
	}
	// One hidden identity call plus one call per admitted turn.
	if calls := env.completer.calls.Load(); calls != 3 {
		t.Fatalf("expected 3 model calls, got %d", calls)
	}
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	env := newTestEnv(config.ServerConfig{
		RatePerMinute:  60,
		RateBurst:      10,
		AllowedOrigins: []string{"http://luna.local"},
	})
	session, err := env.chatSvc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.local")
	if conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, session.ID), header); err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for a disallowed origin")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v (%v)", resp, err)
	}

	header.Set("Origin", "http://luna.local")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, session.ID), header)
	if err != nil {
		t.Fatalf("expected allowed origin to connect: %v", err)
	}
	conn.Close()
}
