package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/parentpass/adminchat/backend/internal/config"
	"github.com/parentpass/adminchat/backend/internal/handler"
	"github.com/parentpass/adminchat/backend/internal/service/ai"
	"github.com/parentpass/adminchat/backend/internal/service/analytics"
	"github.com/parentpass/adminchat/backend/internal/service/chat"
	"github.com/parentpass/adminchat/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.Server.APIKey == "" {
		log.Println("warning: PP_API_KEY is not set, all API requests will be rejected")
	}

	store := session.NewStore(cfg.Chat.SessionTTL)
	store.StartJanitor(ctx, cfg.Chat.JanitorInterval)

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v (检查 Ark 模型相关环境变量)", err)
	}
	log.Println("AI service initialized successfully")

	provider := analytics.NewProvider(cfg.Analytics.ReportsDir, cfg.Analytics.MaxAge)
	compactor := chat.NewCompactor(aiService, cfg.Chat.CompactThreshold, cfg.Chat.CompactKeep)
	engine := chat.NewService(store, aiService, provider, compactor, cfg.Chat)

	router := handler.NewRouter(cfg.Server.APIKey, store, engine)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("ParentPass admin chatbot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
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
