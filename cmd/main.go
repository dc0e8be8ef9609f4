package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	convRepo := postgres.NewConversationRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	groupRepo := postgres.NewGroupRepository(db.Pool)

	// --- WS hub, presence, router ---
	hub := ws.NewHub()
	presence := ws.NewPresence()
	notifier := ws.NewRouter(hub, presence)

	// --- services ---
	convSvc := service.NewConversationService(convRepo)
	msgSvc := service.NewMessageService(msgRepo, userRepo, groupRepo, convSvc, presence, notifier)
	annotationSvc := service.NewAnnotationService(msgRepo, groupRepo, notifier)
	groupSvc := service.NewGroupService(groupRepo, userRepo, msgRepo, notifier)

	// --- auth ---
	signer := security.NewJWTSigner(cfg.Auth.JWTSecret, cfg.TokenTTLDuration())

	// --- WS server ---
	wsServer := ws.NewServer(hub, presence, signer, userRepo, groupSvc, msgSvc, annotationSvc, cfg.Auth.CookieName)

	// --- HTTP ---
	handler := httpx.NewHandler(msgSvc, annotationSvc, groupSvc, convSvc)
	router := httpx.NewRouter(handler, signer, cfg.Auth.CookieName, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
