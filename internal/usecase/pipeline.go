package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/stage"
)

const defaultWorkers = 4

// PipelineDeps wires stages and collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher  ports.Fetcher
	Contacts ports.ContactExtractor
	Catalog  ports.OpportunityCatalog

	Sentiment    *stage.SentimentStage
	Topics       *stage.TopicStage
	Generation   *stage.GenerationStage
	SEO          *stage.SEOStage
	Outreach     *stage.OutreachStage
	Monetization *stage.MonetizationStage

	// Backend selects the generation backend by id.
	Backend              string
	OutreachTemplate     string
	MonetizationTemplate string
	Workers              int
	Logger               *slog.Logger
}

// Pipeline turns articles into Results, one per article, in input order.
type Pipeline struct {
	fetcher  ports.Fetcher
	contacts ports.ContactExtractor
	catalog  ports.OpportunityCatalog

	sentiment    *stage.SentimentStage
	topics       *stage.TopicStage
	generation   *stage.GenerationStage
	seo          *stage.SEOStage
	outreach     *stage.OutreachStage
	monetization *stage.MonetizationStage

	backend              string
	outreachTemplate     string
	monetizationTemplate string
	workers              int
	logger               *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		fetcher:              deps.Fetcher,
		contacts:             deps.Contacts,
		catalog:              deps.Catalog,
		sentiment:            deps.Sentiment,
		topics:               deps.Topics,
		generation:           deps.Generation,
		seo:                  deps.SEO,
		outreach:             deps.Outreach,
		monetization:         deps.Monetization,
		backend:              deps.Backend,
		outreachTemplate:     deps.OutreachTemplate,
		monetizationTemplate: deps.MonetizationTemplate,
		workers:              workers,
		logger:               logger.With("component", "pipeline"),
	}
}

// Process fetches the site and runs every article through the stages.
// A fetch failure aborts the batch.
func (p *Pipeline) Process(ctx context.Context, siteURL string) ([]domain.Result, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("scrape %s: fetcher not configured: %w", siteURL, domain.ErrFetchFailed)
	}
	articles, err := p.fetcher.Scrape(ctx, siteURL)
	if err != nil {
		if !errors.Is(err, domain.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
		}
		return nil, fmt.Errorf("scrape %s: %w", siteURL, err)
	}
	p.logger.Info("articles fetched", "site", siteURL, "count", len(articles))
	return p.Run(ctx, articles, siteURL)
}

// Run collects the Results of Each.
func (p *Pipeline) Run(ctx context.Context, articles []domain.Article, siteURL string) ([]domain.Result, error) {
	results := make([]domain.Result, 0, len(articles))
	err := p.Each(ctx, articles, siteURL, func(r domain.Result) {
		results = append(results, r)
	})
	return results, err
}

// Each emits one Result per article in input order, from the calling goroutine.
// Once ctx is done no further articles are started; the ones already started
// complete, so the emitted Results always form a prefix of articles. In that
// case ctx.Err() is returned.
func (p *Pipeline) Each(ctx context.Context, articles []domain.Article, siteURL string, emit func(domain.Result)) error {
	if len(articles) == 0 {
		return nil
	}

	shared := p.prepare(ctx, siteURL)

	slots := make([]chan domain.Result, len(articles))
	for i := range slots {
		slots[i] = make(chan domain.Result, 1)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, len(articles)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] <- p.processArticle(ctx, articles[i], shared)
			}
		}()
	}

	go func() {
		defer close(jobs)
		next := 0
	dispatch:
		for ; next < len(articles); next++ {
			if ctx.Err() != nil {
				break
			}
			select {
			case jobs <- next:
			case <-ctx.Done():
				break dispatch
			}
		}
		for i := next; i < len(articles); i++ {
			close(slots[i])
		}
	}()

	emitted := 0
	for _, slot := range slots {
		res, ok := <-slot
		if !ok {
			break
		}
		emit(res)
		emitted++
	}
	wg.Wait()

	p.logger.Info("batch processed", "site", siteURL, "articles", len(articles), "emitted", emitted)
	if emitted < len(articles) {
		return fmt.Errorf("process articles: %w", ctx.Err())
	}
	return nil
}

// runState is computed once per run and shared read-only by all articles.
type runState struct {
	domain     string
	contacts   domain.Outcome[domain.ContactBundle]
	catalog    []string
	catalogErr error
}

func (p *Pipeline) prepare(ctx context.Context, siteURL string) runState {
	state := runState{domain: hostOf(siteURL)}

	if p.contacts == nil {
		state.contacts = domain.Failed[domain.ContactBundle](domain.StageContacts,
			fmt.Errorf("contact extractor not configured: %w", domain.ErrCapabilityUnavailable))
	} else {
		bundle, err := p.contacts.Scrape(ctx, siteURL)
		if err == nil && bundle.Domain == "" {
			bundle.Domain = state.domain
		}
		state.contacts = domain.Resolve(domain.StageContacts, bundle, err)
		if err != nil {
			p.logger.Warn("contact extraction failed", "site", siteURL, "error", err)
		}
	}

	if p.catalog == nil {
		state.catalogErr = fmt.Errorf("opportunity catalog not configured: %w", domain.ErrCapabilityUnavailable)
	} else if state.catalog, state.catalogErr = p.catalog.List(ctx); state.catalogErr != nil {
		state.catalogErr = fmt.Errorf("list opportunities: %w", state.catalogErr)
	}

	return state
}

func (p *Pipeline) processArticle(ctx context.Context, article domain.Article, state runState) domain.Result {
	res := domain.Result{Article: article, Contacts: state.contacts}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		score, err := p.sentiment.Score(ctx, article.Body)
		res.Sentiment = domain.Resolve(domain.StageSentiment, score, err)
	}()

	go func() {
		defer wg.Done()
		topics, err := p.topics.Extract(ctx, article.Body)
		res.Topics = domain.Resolve(domain.StageTopics, topics, err)
	}()

	go func() {
		defer wg.Done()
		generated, err := p.generation.Generate(ctx, article.Body, p.backend)
		res.Generated = domain.Resolve(domain.StageGeneration, generated, err)
		if err != nil {
			res.SEO = domain.Failed[domain.SEOKeywords](domain.StageSEO,
				fmt.Errorf("generated content unavailable: %w", domain.ErrDependencyFailed))
			return
		}
		keywords, err := p.seo.Analyze(ctx, generated.Text)
		res.SEO = domain.Resolve(domain.StageSEO, keywords, err)
	}()

	go func() {
		defer wg.Done()
		if state.contacts.OK() {
			msg, err := p.outreach.Build(state.domain, state.contacts.Value, p.outreachTemplate)
			res.Outreach = domain.Resolve(domain.StageOutreach, msg, err)
		} else {
			res.Outreach = domain.Failed[string](domain.StageOutreach,
				fmt.Errorf("contacts unavailable: %w", domain.ErrDependencyFailed))
		}

		if state.catalogErr != nil {
			res.Monetization = domain.Failed[domain.MonetizationOffer](domain.StageMonetization, state.catalogErr)
			return
		}
		offer, err := p.monetization.Find(state.catalog, p.monetizationTemplate)
		res.Monetization = domain.Resolve(domain.StageMonetization, offer, err)
	}()

	wg.Wait()

	for _, err := range res.Failures() {
		var se *domain.StageError
		stageName := ""
		if errors.As(err, &se) {
			stageName = string(se.Stage)
		}
		p.logger.Warn("stage failed", "stage", stageName, "article", article.Title, "error", err)
	}
	return res
}

func hostOf(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return u.Host
}
