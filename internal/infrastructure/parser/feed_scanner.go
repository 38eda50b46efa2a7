package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/scanner"
)

// FeedScanner reads RSS, Atom and JSON feeds.
type FeedScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewFeedScanner(client *http.Client, userAgent string, log *slog.Logger) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &FeedScanner{client: client, userAgent: userAgent, logger: log}
}

func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan maps feed items to articles in feed order. Item HTML is reduced to text.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = f.userAgent

	feed, err := fp.ParseURLWithContext(req.SiteURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w: %w", req.SiteURL, domain.ErrFetchFailed, err)
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}
		articles = append(articles, domain.Article{
			Title:       cleanText(item.Title),
			Author:      itemAuthor(item),
			PublishedAt: strings.TrimSpace(item.Published),
			Body:        htmlToText(body),
			URL:         strings.TrimSpace(item.Link),
		})
	}

	if f.logger != nil {
		f.logger.Debug("feed parsed", "site", req.SiteURL, "title", feed.Title, "articles", len(articles))
	}
	return articles, nil
}

func itemAuthor(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return cleanText(a.Name)
		}
	}
	if item.Author != nil {
		return cleanText(item.Author.Name)
	}
	return ""
}

func htmlToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return cleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanText(fragment)
	}
	return cleanText(doc.Text())
}
