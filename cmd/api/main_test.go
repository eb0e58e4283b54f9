package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bagesh/luna-chat/backend/internal/config"
)

func TestLoadPersonasSeed(t *testing.T) {
	store, err := loadPersonas(config.PersonaConfig{DefaultID: "luna"})
	if err != nil {
		t.Fatalf("loadPersonas err: %v", err)
	}
	if _, ok := store.FindByID("luna"); !ok {
		t.Fatal("expected seeded persona")
	}
}

func TestLoadPersonasFileMissingDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	if err := os.WriteFile(path, []byte("personas:\n  - id: nova\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadPersonas(config.PersonaConfig{File: path, DefaultID: "luna"}); err == nil {
		t.Fatal("expected error when default persona is absent from file")
	}
	if _, err := loadPersonas(config.PersonaConfig{File: path, DefaultID: "nova"}); err != nil {
		t.Fatalf("loadPersonas err: %v", err)
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}
