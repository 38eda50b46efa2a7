package stage

import (
	"context"
	"fmt"
	"strings"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// SentimentStage scores the affect of an article body.
type SentimentStage struct {
	backend ports.SentimentBackend
}

func NewSentimentStage(backend ports.SentimentBackend) *SentimentStage {
	return &SentimentStage{backend: backend}
}

// Score returns the backend's scores unmodified. Blank text scores zero without
// touching the backend.
func (s *SentimentStage) Score(ctx context.Context, text string) (domain.SentimentScore, error) {
	if s == nil || s.backend == nil {
		return domain.SentimentScore{}, fmt.Errorf("sentiment backend not configured: %w", domain.ErrCapabilityUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return domain.SentimentScore{}, nil
	}
	score, err := s.backend.Score(ctx, text)
	if err != nil {
		return domain.SentimentScore{}, fmt.Errorf("score text: %w", err)
	}
	return score, nil
}
