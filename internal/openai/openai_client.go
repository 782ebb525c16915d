package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"whereabouts/internal/prompt"
)

// Sampling profile for every request. Not configurable.
const (
	Model            = goopenai.GPT3Dot5Turbo
	Temperature      = 0.5
	TopP             = 1
	FrequencyPenalty = 0
	PresencePenalty  = 0
	MaxTokens        = 1024
)

// ErrEmptyCompletion is returned when the response carries no choices.
var ErrEmptyCompletion = errors.New("openai returned no completion")

// ChatCompleter is the part of *goopenai.Client the invoker needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Invoker sends composed prompts to the chat-completion API.
type Invoker struct {
	client ChatCompleter
	logger *zap.Logger
}

func NewInvoker(client ChatCompleter, logger *zap.Logger) *Invoker {
	return &Invoker{client: client, logger: logger}
}

// NewRequest builds the fixed-profile request for a system/user prompt pair.
func NewRequest(p prompt.Prompts) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model: Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: p.System},
			{Role: goopenai.ChatMessageRoleUser, Content: p.User},
		},
		MaxTokens:        MaxTokens,
		Temperature:      Temperature,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
		Stream:           false,
	}
}

// Invoke makes one chat-completion call and returns the first choice's text.
// Upstream failures are returned as is, wrapped; there is no retry.
func (i *Invoker) Invoke(ctx context.Context, system, user string) (string, error) {
	req := NewRequest(prompt.Prompts{System: system, User: user})

	i.logger.Info("Sending request to OpenAI",
		zap.String("model", req.Model),
		zap.Int("system_prompt_chars", len(system)),
		zap.Int("user_prompt_chars", len(user)))

	resp, err := i.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	i.logger.Info("Completion received",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}
