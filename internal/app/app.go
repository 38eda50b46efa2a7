package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"ContentPipeline/internal/api"
	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/infrastructure/cache"
	"ContentPipeline/internal/infrastructure/catalog"
	"ContentPipeline/internal/infrastructure/contacts"
	"ContentPipeline/internal/infrastructure/kafka"
	"ContentPipeline/internal/infrastructure/llm"
	"ContentPipeline/internal/infrastructure/ml"
	"ContentPipeline/internal/infrastructure/nlp"
	"ContentPipeline/internal/infrastructure/objectstore"
	"ContentPipeline/internal/infrastructure/parser"
	"ContentPipeline/internal/infrastructure/scheduler"
	"ContentPipeline/internal/infrastructure/storage"
	"ContentPipeline/internal/infrastructure/telegram"
	"ContentPipeline/internal/logging"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/scanner"
	"ContentPipeline/internal/stage"
	"ContentPipeline/internal/usecase"
)

const (
	backendRemote   = "remote"
	shutdownTimeout = 10 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	runner    *usecase.Runner
	scheduler *usecase.Scheduler
	store     api.RunStore

	closers []func() error
}

// New builds the application. Optional integrations (database, broker,
// object store, chat, cache, hosted LLMs) are only wired when configured;
// a failure to reach one of them is logged and the integration is skipped.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	httpClient := &http.Client{Timeout: cfg.Fetcher.Timeout}
	limiter := newLimiter(cfg.Generation.RequestsPerMinute)
	mlClient := ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, cfg.ML.Timeout, limiter)

	sentiment, err := a.sentimentBackend(cfg.Sentiment.Backend, mlClient)
	if err != nil {
		return nil, err
	}
	topics, err := a.topicBackend(cfg.Topics.Backend, mlClient)
	if err != nil {
		return nil, err
	}
	analyzer, err := stage.NewKeywordAnalyzer(cfg.SEO.Analyzer, cfg.SEO.Limit)
	if err != nil {
		return nil, fmt.Errorf("seo analyzer: %w", err)
	}

	generation := stage.NewGenerationStage(
		stage.GenerationOptions{MaxTokens: cfg.Generation.MaxTokens, Seed: cfg.Generation.Seed},
		nlp.LeadGenerator{},
		ml.NewTextGenerator(mlClient, ml.GPT2BackendName, cfg.Generation.GPT2.Model, cfg.Generation.GPT2.MaxInputTokens),
	)
	a.registerHostedGenerators(ctx, generation, limiter)
	if !generation.Has(cfg.Generation.Backend) {
		a.logger.Warn("generation backend not registered, articles will fail generation",
			"backend", cfg.Generation.Backend, "available", generation.Backends())
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHTMLScanner(httpClient, parser.HTMLOptions{
		UserAgent:   cfg.Fetcher.UserAgent,
		FollowLinks: cfg.Fetcher.FollowLinks,
	}, baseLogger.With("component", "scanner.html")))
	registry.Register(parser.NewFeedScanner(httpClient, cfg.Fetcher.UserAgent, baseLogger.With("component", "scanner.rss")))
	source := parser.NewSiteSource(registry, cfg.Fetcher.Strategy, nil, baseLogger.With("component", "source"))

	outreachTemplate := cfg.Outreach.Template
	if outreachTemplate == "" {
		outreachTemplate = stage.DefaultProposalTemplate
	}
	monetizationTemplate := cfg.Monetization.Template
	if monetizationTemplate == "" {
		monetizationTemplate = outreachTemplate
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:    source,
		Contacts:   a.contactExtractor(ctx, httpClient, baseLogger),
		Catalog:    catalog.New(cfg.Monetization.Catalog, cfg.Monetization.CatalogFile),
		Sentiment:  stage.NewSentimentStage(sentiment),
		Topics:     stage.NewTopicStage(topics),
		Generation: generation,
		SEO:        stage.NewSEOStage(analyzer),
		Outreach: stage.NewOutreachStage(stage.OutreachOptions{
			SenderName:   cfg.Outreach.SenderName,
			Topic:        cfg.Outreach.Topic,
			FallbackName: cfg.Outreach.FallbackName,
		}),
		Monetization:         stage.NewMonetizationStage(cfg.Generation.Seed),
		Backend:              cfg.Generation.Backend,
		OutreachTemplate:     outreachTemplate,
		MonetizationTemplate: monetizationTemplate,
		Workers:              cfg.Pipeline.Workers,
		Logger:               baseLogger,
	})

	a.runner = usecase.NewRunner(pipeline, a.sinks(ctx), baseLogger)

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	if err := cron.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	a.scheduler = usecase.NewScheduler(cron, a.runner, cfg.Scheduler.Sites, baseLogger)

	return a, nil
}

// RunOnce executes the pipeline for a single site.
func (a *Application) RunOnce(ctx context.Context, siteURL string) (domain.Run, error) {
	if siteURL == "" {
		siteURL = a.cfg.Pipeline.SiteURL
	}
	if siteURL == "" {
		return domain.Run{}, errors.New("run: no site url configured")
	}
	return a.runner.Execute(ctx, siteURL)
}

// Schedule starts the cron driver and blocks until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	if len(a.cfg.Scheduler.Sites) == 0 {
		return errors.New("schedule: no sites configured")
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "sites", len(a.cfg.Scheduler.Sites))
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Serve exposes the HTTP API until ctx is done.
func (a *Application) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.HTTP.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(a.runner, a.store, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Close releases connections opened by New.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Application) sentimentBackend(name string, remote *ml.Client) (ports.SentimentBackend, error) {
	switch name {
	case "", "vader":
		return nlp.NewVaderBackend(), nil
	case backendRemote:
		return remote, nil
	default:
		return nil, fmt.Errorf("sentiment backend %q: %w", name, domain.ErrUnsupportedBackend)
	}
}

func (a *Application) topicBackend(name string, remote *ml.Client) (ports.TopicBackend, error) {
	switch name {
	case "", "prose":
		return nlp.NewProseBackend(), nil
	case backendRemote:
		return remote, nil
	default:
		return nil, fmt.Errorf("topics backend %q: %w", name, domain.ErrUnsupportedBackend)
	}
}

func (a *Application) registerHostedGenerators(ctx context.Context, generation *stage.GenerationStage, limiter *rate.Limiter) {
	gen := a.cfg.Generation
	if gen.OpenAI.APIKey != "" {
		openAI, err := llm.NewOpenAIGenerator(ctx, gen.OpenAI, limiter)
		if err != nil {
			a.logger.Warn("openai generator disabled", "error", err)
		} else {
			generation.Register(openAI)
		}
	}
	if gen.Cohere.APIKey != "" {
		cohere, err := llm.NewCohereGenerator(gen.Cohere, limiter)
		if err != nil {
			a.logger.Warn("cohere generator disabled", "error", err)
		} else {
			generation.Register(cohere)
		}
	}
}

func (a *Application) contactExtractor(ctx context.Context, client *http.Client, baseLogger *slog.Logger) ports.ContactExtractor {
	var extractor ports.ContactExtractor = contacts.NewScraper(client, a.cfg.Fetcher.UserAgent, baseLogger.With("component", "contacts"))
	if a.cfg.Cache.RedisAddr == "" {
		return extractor
	}

	rdb, err := cache.NewRedisClient(ctx, a.cfg.Cache.RedisAddr, a.cfg.Cache.Password, a.cfg.Cache.DB)
	if err != nil {
		a.logger.Warn("contact cache disabled", "error", err)
		return extractor
	}
	a.closers = append(a.closers, closeRedis(rdb))
	return cache.NewContactCache(rdb, extractor, a.cfg.Cache.TTL, baseLogger.With("component", "cache"))
}

func (a *Application) sinks(ctx context.Context) []ports.ResultSink {
	var sinks []ports.ResultSink

	if dsn := a.cfg.Database.DSN; dsn != "" {
		if repo, err := a.openRepository(ctx, dsn); err != nil {
			a.logger.Warn("postgres sink disabled", "error", err)
		} else {
			sinks = append(sinks, repo)
			a.store = repo
		}
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: a.cfg.Kafka.Brokers, Topic: a.cfg.Kafka.Topic})
		if err != nil {
			a.logger.Warn("kafka sink disabled", "error", err)
		} else {
			sinks = append(sinks, pub)
			a.closers = append(a.closers, pub.Close)
		}
	}

	if s3cfg := a.cfg.S3; s3cfg.Bucket != "" {
		up, err := objectstore.NewUploader(ctx, objectstore.Config{
			Bucket:       s3cfg.Bucket,
			Region:       s3cfg.Region,
			Prefix:       s3cfg.Prefix,
			Endpoint:     s3cfg.Endpoint,
			UsePathStyle: s3cfg.UsePathStyle,
		})
		if err != nil {
			a.logger.Warn("s3 sink disabled", "error", err)
		} else {
			sinks = append(sinks, up)
		}
	}

	if tg := a.cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		sinks = append(sinks, telegram.NewNotifier(tg.BotToken, tg.ChatID))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	a.logger.Info("result sinks configured", "sinks", names)
	return sinks
}

func (a *Application) openRepository(ctx context.Context, dsn string) (*storage.PostgresRepository, error) {
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if a.cfg.Database.Migrate {
		version, err := storage.RunMigrations(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.logger.Info("database migrated", "version", version)
	}
	a.closers = append(a.closers, closeDB(db))
	return storage.NewPostgresRepository(db), nil
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
}

func closeDB(db *sql.DB) func() error {
	return db.Close
}

func closeRedis(rdb *redis.Client) func() error {
	return rdb.Close
}
