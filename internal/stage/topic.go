package stage

import (
	"context"
	"fmt"
	"strings"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// TopicStage extracts common nouns from an article body.
type TopicStage struct {
	backend ports.TopicBackend
}

func NewTopicStage(backend ports.TopicBackend) *TopicStage {
	return &TopicStage{backend: backend}
}

// Extract keeps the backend's source order and duplicates.
func (s *TopicStage) Extract(ctx context.Context, text string) (domain.TopicSet, error) {
	if s == nil || s.backend == nil {
		return domain.TopicSet{}, fmt.Errorf("topic backend not configured: %w", domain.ErrCapabilityUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return domain.TopicSet{Terms: []string{}}, nil
	}
	nouns, err := s.backend.Nouns(ctx, text)
	if err != nil {
		return domain.TopicSet{}, fmt.Errorf("extract nouns: %w", err)
	}
	terms := make([]string, 0, len(nouns))
	for _, n := range nouns {
		if n = strings.TrimSpace(n); n != "" {
			terms = append(terms, n)
		}
	}
	return domain.TopicSet{Terms: terms}, nil
}
