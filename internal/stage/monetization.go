package stage

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"ContentPipeline/internal/domain"
)

// MonetizationStage picks one opportunity uniformly at random.
// It is safe for concurrent use.
type MonetizationStage struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMonetizationStage seeds the selector; a nil seed draws one at random.
func NewMonetizationStage(seed *int64) *MonetizationStage {
	var src rand.Source
	if seed != nil {
		src = rand.NewPCG(uint64(*seed), 0)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &MonetizationStage{rng: rand.New(src)}
}

// Find returns an offer drawn from catalog with template as its proposal text.
func (s *MonetizationStage) Find(catalog []string, template string) (domain.MonetizationOffer, error) {
	if len(catalog) == 0 {
		return domain.MonetizationOffer{}, fmt.Errorf("select opportunity: %w", domain.ErrNoOpportunitiesAvailable)
	}
	if s == nil {
		return domain.MonetizationOffer{}, fmt.Errorf("opportunity selector not configured: %w", domain.ErrCapabilityUnavailable)
	}

	s.mu.Lock()
	i := s.rng.IntN(len(catalog))
	s.mu.Unlock()

	return domain.MonetizationOffer{
		OpportunityID: catalog[i],
		ProposalText:  template,
	}, nil
}
