package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/stage"
)

type fakeFetcher struct {
	articles []domain.Article
	err      error
}

func (f fakeFetcher) Scrape(context.Context, string) ([]domain.Article, error) {
	return f.articles, f.err
}

type fakeContacts struct {
	bundle domain.ContactBundle
	err    error
	calls  atomic.Int32
}

func (f *fakeContacts) Scrape(context.Context, string) (domain.ContactBundle, error) {
	f.calls.Add(1)
	return f.bundle, f.err
}

type fakeCatalog []string

func (c fakeCatalog) List(context.Context) ([]string, error) { return c, nil }

// lengthSentiment derives scores from the text so equal bodies score equally.
type lengthSentiment struct {
	err error
}

func (s lengthSentiment) Score(_ context.Context, text string) (domain.SentimentScore, error) {
	if s.err != nil {
		return domain.SentimentScore{}, s.err
	}
	n := float64(len(text)%10) / 10
	return domain.SentimentScore{Positive: n, Negative: 1 - n, Neutral: 0.5}, nil
}

type wordTopics struct{}

func (wordTopics) Nouns(_ context.Context, text string) ([]string, error) {
	return strings.Fields(strings.ToLower(text)), nil
}

// echoGenerator prefixes the prompt; a body containing "slow-N" sleeps N ms.
// With failOn set, only prompts containing that word fail.
type echoGenerator struct {
	fail    bool
	failOn  string
	started chan struct{}
	block   bool
}

func (echoGenerator) Name() string { return "echo" }

func (g echoGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if g.started != nil {
		select {
		case g.started <- struct{}{}:
		default:
		}
	}
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.fail || (g.failOn != "" && strings.Contains(req.Prompt, g.failOn)) {
		return "", errors.New("model crashed")
	}
	for _, w := range strings.Fields(req.Prompt) {
		if ms, ok := strings.CutPrefix(w, "slow-"); ok {
			d, _ := time.ParseDuration(ms + "ms")
			time.Sleep(d)
		}
	}
	return "generated " + req.Prompt, nil
}

type recordingAnalyzer struct {
	mu   sync.Mutex
	seen []string
}

func (a *recordingAnalyzer) Keywords(_ context.Context, content string) ([]string, error) {
	a.mu.Lock()
	a.seen = append(a.seen, content)
	a.mu.Unlock()
	return []string{"kw"}, nil
}

func (a *recordingAnalyzer) saw(content string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.seen {
		if s == content {
			return true
		}
	}
	return false
}

type pipelineFixture struct {
	deps     PipelineDeps
	contacts *fakeContacts
	analyzer *recordingAnalyzer
}

func newFixture(gen ports.TextGenerator) *pipelineFixture {
	seed := int64(1)
	contacts := &fakeContacts{bundle: domain.ContactBundle{
		Domain:  "news.example.com",
		Emails:  []string{"desk@news.example.com"},
		Handles: []string{"x:newsdesk"},
	}}
	analyzer := &recordingAnalyzer{}
	return &pipelineFixture{
		contacts: contacts,
		analyzer: analyzer,
		deps: PipelineDeps{
			Contacts:             contacts,
			Catalog:              fakeCatalog{"banner", "newsletter"},
			Sentiment:            stage.NewSentimentStage(lengthSentiment{}),
			Topics:               stage.NewTopicStage(wordTopics{}),
			Generation:           stage.NewGenerationStage(stage.GenerationOptions{}, gen),
			SEO:                  stage.NewSEOStage(analyzer),
			Outreach:             stage.NewOutreachStage(stage.OutreachOptions{SenderName: "Sam", Topic: "news"}),
			Monetization:         stage.NewMonetizationStage(&seed),
			Backend:              gen.Name(),
			OutreachTemplate:     stage.DefaultProposalTemplate,
			MonetizationTemplate: "Sponsor us",
			Workers:              3,
		},
	}
}
