package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bagesh/luna-chat/backend/internal/analysis/sentiment"
	"github.com/bagesh/luna-chat/backend/internal/config"
	"github.com/bagesh/luna-chat/backend/internal/handler"
	"github.com/bagesh/luna-chat/backend/internal/model/persona"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
	"github.com/bagesh/luna-chat/backend/internal/service/chat"
	sentimentservice "github.com/bagesh/luna-chat/backend/internal/service/sentiment"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore, err := loadPersonas(cfg.Persona)
	if err != nil {
		log.Fatalf("failed to load personas: %v", err)
	}

	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize model client: %v", err)
	}
	log.Printf("model client ready provider=%s model=%s", cfg.AI.Provider, cfg.AI.Model)

	scorer := sentimentservice.NewModelScorer(completer, sentimentservice.Config{
		Enabled: cfg.AI.SentimentLLMEnabled,
	})
	if scorer.Enabled() {
		log.Println("sentiment scorer uses the model with VADER fallback")
	} else {
		log.Println("sentiment scorer uses VADER")
	}

	chatService := chat.NewService(personaStore, completer, chat.Config{
		DefaultPersona: cfg.Persona.DefaultID,
		Timeout:        cfg.AI.Timeout,
		Classifier:     sentiment.NewClassifier(scorer),
	})

	sweeper := chat.NewSweeper(chatService, cfg.Session.SweepInterval, cfg.Session.IdleTTL)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	router := handler.NewRouter(personaStore, chatService, cfg.Server)

	startServer(ctx, cfg.Server, router)
}

func loadPersonas(cfg config.PersonaConfig) (persona.Store, error) {
	items := persona.Seed()
	if cfg.File != "" {
		loaded, err := persona.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		items = loaded
		log.Printf("loaded %d personas from %s", len(items), cfg.File)
	}

	store := persona.NewMemoryStore(items)
	if _, ok := store.FindByID(cfg.DefaultID); !ok {
		return nil, fmt.Errorf("default persona %q is not defined", cfg.DefaultID)
	}
	return store, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Luna backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
