package stage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// DefaultMaxTokens bounds generated output when no budget is configured.
const DefaultMaxTokens = 500

type GenerationOptions struct {
	MaxTokens int
	Seed      *int64
}

// GenerationStage dispatches generation to a named backend.
// Backends are registered once at startup and shared by all workers.
type GenerationStage struct {
	generators map[string]ports.TextGenerator
	maxTokens  int
	seed       *int64
}

func NewGenerationStage(opts GenerationOptions, generators ...ports.TextGenerator) *GenerationStage {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	g := &GenerationStage{
		generators: make(map[string]ports.TextGenerator, len(generators)),
		maxTokens:  opts.MaxTokens,
		seed:       opts.Seed,
	}
	for _, gen := range generators {
		g.Register(gen)
	}
	return g
}

// Register adds or replaces a backend under its Name.
func (g *GenerationStage) Register(gen ports.TextGenerator) {
	if gen == nil {
		return
	}
	g.generators[gen.Name()] = gen
}

// Backends lists registered backend ids.
func (g *GenerationStage) Backends() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, 0, len(g.generators))
	for id := range g.generators {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether backend is registered.
func (g *GenerationStage) Has(backend string) bool {
	if g == nil {
		return false
	}
	_, ok := g.generators[backend]
	return ok
}

func (g *GenerationStage) MaxTokens() int {
	return g.maxTokens
}

// Generate produces derived text for the article body using backend.
func (g *GenerationStage) Generate(ctx context.Context, text, backend string) (domain.GeneratedContent, error) {
	if g == nil {
		return domain.GeneratedContent{}, fmt.Errorf("generation not configured: %w", domain.ErrCapabilityUnavailable)
	}
	gen, ok := g.generators[backend]
	if !ok {
		return domain.GeneratedContent{}, fmt.Errorf("backend %q: %w", backend, domain.ErrUnsupportedBackend)
	}
	if strings.TrimSpace(text) == "" {
		return domain.GeneratedContent{Backend: backend}, nil
	}

	if limiter, ok := gen.(ports.InputLimiter); ok && limiter.MaxInputTokens() > 0 {
		if n := CountTokens(text); n > limiter.MaxInputTokens() {
			return domain.GeneratedContent{}, fmt.Errorf("backend %s accepts %d input tokens, got %d: %w",
				backend, limiter.MaxInputTokens(), n, domain.ErrGenerationFailed)
		}
	}

	out, err := gen.Generate(ctx, ports.GenerationRequest{
		Prompt:    text,
		MaxTokens: g.maxTokens,
		Seed:      g.seed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapabilityUnavailable) {
			return domain.GeneratedContent{}, fmt.Errorf("backend %s: %w", backend, err)
		}
		return domain.GeneratedContent{}, fmt.Errorf("backend %s: %w: %w", backend, domain.ErrGenerationFailed, err)
	}

	return domain.GeneratedContent{
		Text:    TruncateTokens(out, g.maxTokens),
		Backend: backend,
	}, nil
}

// CountTokens counts whitespace-delimited tokens.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// TruncateTokens keeps at most limit whitespace-delimited tokens. Text within
// the budget is returned as is.
func TruncateTokens(text string, limit int) string {
	fields := strings.Fields(text)
	if limit <= 0 || len(fields) <= limit {
		return text
	}
	return strings.Join(fields[:limit], " ")
}
