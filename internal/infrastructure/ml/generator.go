package ml

import (
	"context"

	"ContentPipeline/internal/ports"
)

const GPT2BackendName = "gpt2-small"

// TextGenerator exposes a model hosted by the inference service as a
// generation backend.
type TextGenerator struct {
	client   *Client
	name     string
	model    string
	maxInput int
}

var (
	_ ports.TextGenerator = (*TextGenerator)(nil)
	_ ports.InputLimiter  = (*TextGenerator)(nil)
)

func NewTextGenerator(client *Client, name, model string, maxInputTokens int) *TextGenerator {
	return &TextGenerator{client: client, name: name, model: model, maxInput: maxInputTokens}
}

func (g *TextGenerator) Name() string {
	return g.name
}

func (g *TextGenerator) MaxInputTokens() int {
	return g.maxInput
}

func (g *TextGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	return g.client.Complete(ctx, g.model, req)
}
