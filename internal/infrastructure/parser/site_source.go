package parser

import (
	"context"
	"fmt"
	"log/slog"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/scanner"
)

// SiteSource implements Fetcher via a registered scanner strategy.
type SiteSource struct {
	registry *scanner.Registry
	strategy string
	options  map[string]string
	logger   *slog.Logger
}

var _ ports.Fetcher = (*SiteSource)(nil)

// NewSiteSource wires the scanner registry with the configured strategy name.
func NewSiteSource(reg *scanner.Registry, strategy string, options map[string]string, log *slog.Logger) *SiteSource {
	return &SiteSource{
		registry: reg,
		strategy: strategy,
		options:  options,
		logger:   log,
	}
}

// Scrape runs the configured strategy over siteURL.
func (s *SiteSource) Scrape(ctx context.Context, siteURL string) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured: %w", domain.ErrFetchFailed)
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return nil, fmt.Errorf("resolve strategy: %w: %w", domain.ErrFetchFailed, err)
	}

	s.debug("scrape site", "site", siteURL, "scanner", strategy.Name())
	articles, err := strategy.Scan(ctx, scanner.Request{SiteURL: siteURL, Options: s.options})
	if err != nil {
		return nil, fmt.Errorf("scan site %s: %w", siteURL, err)
	}

	s.debug("site produced articles", "site", siteURL, "count", len(articles))
	return articles, nil
}

func (s *SiteSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
