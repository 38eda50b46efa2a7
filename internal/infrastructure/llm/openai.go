package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const OpenAIBackendName = "openai-chat"

type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAIGenerator implements ports.TextGenerator on an OpenAI-compatible chat model.
type OpenAIGenerator struct {
	chat         chatGenerator
	systemPrompt string
	limiter      *rate.Limiter
	retryDelay   time.Duration
}

var _ ports.TextGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds the chat model from configuration.
func NewOpenAIGenerator(ctx context.Context, cfg config.OpenAIConfig, limiter *rate.Limiter) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("openai generator misconfigured: %w", domain.ErrCapabilityUnavailable)
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return newOpenAIGenerator(chatModel, cfg.SystemPrompt, limiter), nil
}

func newOpenAIGenerator(chat chatGenerator, prompt string, limiter *rate.Limiter) *OpenAIGenerator {
	return &OpenAIGenerator{
		chat:         chat,
		systemPrompt: systemPrompt(prompt),
		limiter:      limiter,
		retryDelay:   baseDelay,
	}
}

func (g *OpenAIGenerator) Name() string {
	return OpenAIBackendName
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if g == nil || g.chat == nil {
		return "", fmt.Errorf("openai generator not configured: %w", domain.ErrCapabilityUnavailable)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: g.systemPrompt},
		{Role: schema.User, Content: req.Prompt},
	}
	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	return callWithRetry(ctx, g.limiter, g.retryDelay, func() (string, error) {
		resp, err := g.chat.Generate(ctx, messages, opts...)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if resp == nil {
			return "", fmt.Errorf("chat completion returned no message")
		}
		return strings.TrimSpace(resp.Content), nil
	})
}
