package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/config"
	"github.com/mait-chat/backend/internal/model/persona"
	"github.com/mait-chat/backend/internal/service/history"
)

var ErrEmptyMessage = errors.New("message is required")

// Service answers visitor messages with the configured chat model.
type Service struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	assistant persona.Persona
	history   *history.Store
	logger    *zap.Logger
}

// NewService creates a reply service backed by the Ark model in cfg.
func NewService(ctx context.Context, cfg config.AIConfig, assistant persona.Persona, store *history.Store, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, assistant, store, logger)
}

// NewServiceWithModel wires an existing chat model into the reply chain.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, assistant persona.Persona, store *history.Store, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = history.NewStore(10)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
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
		chain:     runnable,
		assistant: assistant,
		history:   store,
		logger:    logger,
	}, nil
}

// GenerateReply answers message in the context of the visitor's recent turns
// and remembers both sides of the exchange.
func (s *Service) GenerateReply(ctx context.Context, visitorID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	var turns []history.Turn
	if visitorID != "" {
		turns = s.history.Recent(ctx, visitorID)
	}

	response, err := s.chain.Invoke(ctx, s.buildChainInput(turns, message))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	if visitorID != "" {
		if err := s.history.Append(ctx, visitorID, history.RoleUser, message); err != nil {
			s.logger.Warn("failed to record user turn", zap.Error(err))
		}
		if err := s.history.Append(ctx, visitorID, history.RoleAssistant, response.Content); err != nil {
			s.logger.Warn("failed to record assistant turn", zap.Error(err))
		}
	}

	s.logger.Info("generated reply",
		zap.String("visitor", visitorID),
		zap.Int("history", len(turns)),
		zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// ForgetVisitor drops the remembered turns of a visitor.
func (s *Service) ForgetVisitor(visitorID string) {
	s.history.Forget(visitorID)
}

func (s *Service) buildChainInput(turns []history.Turn, userMessage string) map[string]any {
	return map[string]any{
		"system":  NewPersonaPromptManager().BuildSystemPrompt(&s.assistant),
		"history": buildHistoryMessages(turns),
		"query":   userMessage,
	}
}

func buildHistoryMessages(turns []history.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case history.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case history.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}
