package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/service/assistant"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/tui"
	"github.com/zhouzirui/chat-widget/internal/view"
)

var errEmbedMode = errors.New("terminal chat is unavailable in embed mode")

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Widget.Embedded() {
		return errEmbedMode
	}

	logger := zap.NewNop()
	if logFile != "" {
		logger, err = logging.NewFile(cfg.Log.Level, logFile)
		if err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	p := buildProfile(cfg.Widget)
	client := assistant.NewClient(cfg.Endpoint, assistant.WithLogger(logger))
	session := chatService.NewSession(ctx, client,
		chatService.WithGreeting(p.Greeting),
		chatService.WithLogger(logger))

	err = tui.Run(ctx, session, p, view.NewRenderer(nil, p.SearchingLabel))
	// abandon a call still in flight
	cancel()
	session.Wait()
	return err
}
