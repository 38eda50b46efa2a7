package ports

import (
	"context"
	"time"

	"ContentPipeline/internal/domain"
)

// Fetcher scrapes a news site into articles.
type Fetcher interface {
	Scrape(ctx context.Context, siteURL string) ([]domain.Article, error)
}

// ContactExtractor finds contact identifiers published on a site.
type ContactExtractor interface {
	Scrape(ctx context.Context, siteURL string) (domain.ContactBundle, error)
}

// OpportunityCatalog lists monetization opportunities.
type OpportunityCatalog interface {
	List(ctx context.Context) ([]string, error)
}

// SentimentBackend scores affect of a text.
type SentimentBackend interface {
	Score(ctx context.Context, text string) (domain.SentimentScore, error)
}

// TopicBackend returns the common nouns of a text in source order.
type TopicBackend interface {
	Nouns(ctx context.Context, text string) ([]string, error)
}

// GenerationRequest carries the prompt and limits for one generation call.
type GenerationRequest struct {
	Prompt    string
	MaxTokens int
	Seed      *int64
}

// TextGenerator is a pluggable generative model.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// InputLimiter is implemented by generators with a bounded prompt size, in tokens.
type InputLimiter interface {
	MaxInputTokens() int
}

// KeywordAnalyzer suggests SEO keywords for generated content.
type KeywordAnalyzer interface {
	Keywords(ctx context.Context, content string) ([]string, error)
}

// ResultSink receives a finished run (database, broker, object store, chat).
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, run domain.Run) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
