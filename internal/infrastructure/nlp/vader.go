package nlp

import (
	"context"
	"fmt"

	"github.com/jonreiter/govader"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// VaderBackend scores sentiment with the VADER lexicon.
// The analyzer is read-only after construction and shared across workers.
type VaderBackend struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ ports.SentimentBackend = (*VaderBackend)(nil)

func NewVaderBackend() *VaderBackend {
	return &VaderBackend{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderBackend) Score(ctx context.Context, text string) (domain.SentimentScore, error) {
	if v == nil || v.analyzer == nil {
		return domain.SentimentScore{}, fmt.Errorf("vader analyzer not loaded: %w", domain.ErrCapabilityUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return domain.SentimentScore{}, err
	}
	s := v.analyzer.PolarityScores(text)
	return domain.SentimentScore{
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
	}, nil
}
