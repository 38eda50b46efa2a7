package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"golang.org/x/time/rate"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const CohereBackendName = "cohere-chat"

type cohereChatFunc func(ctx context.Context, req *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error)

// CohereGenerator implements ports.TextGenerator on the Cohere chat API.
type CohereGenerator struct {
	chat       cohereChatFunc
	model      string
	preamble   string
	limiter    *rate.Limiter
	retryDelay time.Duration
}

var _ ports.TextGenerator = (*CohereGenerator)(nil)

func NewCohereGenerator(cfg config.CohereConfig, limiter *rate.Limiter) (*CohereGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere generator misconfigured: %w", domain.ErrCapabilityUnavailable)
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.APIKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
	chat := func(ctx context.Context, req *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error) {
		return client.Chat(ctx, req)
	}
	return newCohereGenerator(chat, cfg.Model, cfg.Preamble, limiter), nil
}

func newCohereGenerator(chat cohereChatFunc, model, preamble string, limiter *rate.Limiter) *CohereGenerator {
	return &CohereGenerator{
		chat:       chat,
		model:      model,
		preamble:   systemPrompt(preamble),
		limiter:    limiter,
		retryDelay: baseDelay,
	}
}

func (g *CohereGenerator) Name() string {
	return CohereBackendName
}

func (g *CohereGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if g == nil || g.chat == nil {
		return "", fmt.Errorf("cohere generator not configured: %w", domain.ErrCapabilityUnavailable)
	}

	request := &cohere.ChatRequest{
		Message:  req.Prompt,
		Preamble: &g.preamble,
	}
	if g.model != "" {
		request.Model = &g.model
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		request.MaxTokens = &maxTokens
	}
	if req.Seed != nil {
		seed := int(*req.Seed)
		request.Seed = &seed
	}

	return callWithRetry(ctx, g.limiter, g.retryDelay, func() (string, error) {
		resp, err := g.chat(ctx, request)
		if err != nil {
			return "", fmt.Errorf("cohere chat: %w", err)
		}
		if resp == nil {
			return "", fmt.Errorf("cohere chat returned empty response")
		}
		return strings.TrimSpace(resp.Text), nil
	})
}
