package stage

import (
	"context"
	"strings"
	"sync/atomic"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

type fakeSentiment struct {
	score domain.SentimentScore
	err   error
	calls atomic.Int32
}

func (f *fakeSentiment) Score(context.Context, string) (domain.SentimentScore, error) {
	f.calls.Add(1)
	return f.score, f.err
}

type fakeTopics struct {
	calls atomic.Int32
}

// Nouns treats every lowercase word as a noun.
func (f *fakeTopics) Nouns(_ context.Context, text string) ([]string, error) {
	f.calls.Add(1)
	var out []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,")
		if w != "" && strings.ToLower(w) == w {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	name     string
	output   string
	err      error
	maxInput int
	calls    atomic.Int32
	lastReq  ports.GenerationRequest
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(_ context.Context, req ports.GenerationRequest) (string, error) {
	f.calls.Add(1)
	f.lastReq = req
	return f.output, f.err
}

type limitedGenerator struct {
	*fakeGenerator
}

func (l limitedGenerator) MaxInputTokens() int { return l.maxInput }
