package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/handler"
	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/service/ai"
	"github.com/zhouzirui/chat-widget/internal/service/assistant"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	restore := zap.ReplaceGlobals(logger)
	defer restore()

	p := buildProfile(cfg.Widget)
	renderer := view.NewRenderer(nil, p.SearchingLabel)

	deps := handler.Deps{
		Server:   cfg.Server,
		Widget:   cfg.Widget,
		Profile:  p,
		Renderer: renderer,
		Logger:   logger,
	}

	var chatSvc *chatService.Service
	if cfg.Widget.Embedded() {
		logger.Info("embed mode, conversation handled by hosted webchat", zap.String("url", cfg.Widget.EmbedURL))
	} else {
		if !cfg.Endpoint.Configured() {
			logger.Warn("CHAT_API_ENDPOINT not configured, every message will fail")
		}
		client := assistant.NewClient(cfg.Endpoint, assistant.WithLogger(logger))
		chatSvc = chatService.NewService(ctx, client, logger, chatService.WithGreeting(p.Greeting))
		deps.ChatSvc = chatSvc

		if idle := cfg.Server.SessionIdleTimeout; idle > 0 {
			go chatSvc.ExpireIdle(ctx, idle, time.Minute)
		}
	}

	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, p, cfg.AI, logger)
		if err != nil {
			logger.Warn("failed to initialize AI service, reference endpoint disabled", zap.Error(err))
		} else {
			deps.Assistant = aiSvc
			logger.Info("AI service initialized successfully")
		}
	} else {
		logger.Info("Ark credentials not configured, reference endpoint disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("chat widget listening", zap.String("addr", cfg.Server.Addr), zap.String("mode", cfg.Widget.Mode))
	if err := runServer(ctx, srv); err != nil {
		return err
	}

	if chatSvc != nil {
		chatSvc.Wait()
	}
	logger.Info("server stopped")
	return nil
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

