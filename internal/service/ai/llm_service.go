package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/config"
	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/chat"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
)

// Service answers endpoint requests with an LLM chain.
type Service struct {
	chatModel model.ChatModel
	profile   profile.Profile
	chain     compose.Runnable[map[string]any, *schema.Message]
	logger    *zap.Logger
}

// NewService creates a new AI service instance backed by Ark.
func NewService(ctx context.Context, p profile.Profile, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, p, chatModel, logger)
}

// NewServiceWithModel compiles the chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, p profile.Profile, chatModel model.ChatModel, logger *zap.Logger) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		profile:   p,
		chain:     runnable,
		logger:    logging.OrNop(logger).Named("ai"),
	}, nil
}

// Reply answers a single endpoint request. Requests carry no history.
func (s *Service) Reply(ctx context.Context, req chat.SessionRequest) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": BuildSystemPrompt(s.profile),
		"query":  req.Message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.logger.Info("generated response",
		zap.String("sessionId", req.SessionID),
		zap.Int("length", len(response.Content)))
	return response.Content, nil
}
