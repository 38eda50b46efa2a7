package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/scanner"
)

const (
	titleSelector   = "a.article-title"
	authorSelector  = "span.author-name"
	dateSelector    = "span.publication-date"
	contentSelector = "div.article-content"

	defaultUserAgent = "ContentPipeline/1.0"
)

// HTMLOptions tunes the listing scanner.
type HTMLOptions struct {
	UserAgent string
	// FollowLinks fetches the linked page for articles whose listing body is empty.
	FollowLinks bool
}

// HTMLScanner reads a news listing page with fixed article selectors.
type HTMLScanner struct {
	client *http.Client
	opts   HTMLOptions
	logger *slog.Logger
}

// NewHTMLScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewHTMLScanner(client *http.Client, opts HTMLOptions, log *slog.Logger) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &HTMLScanner{client: client, opts: opts, logger: log}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches the listing page and zips titles, authors, dates and bodies by position.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	base, err := url.Parse(req.SiteURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid site url %q: %w", req.SiteURL, domain.ErrFetchFailed)
	}

	doc, err := fetchDocument(ctx, h.client, req.SiteURL, h.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	articles := extractArticles(doc, base)
	h.debug("listing parsed", "site", req.SiteURL, "articles", len(articles))

	if h.opts.FollowLinks || req.Options["followLinks"] == "true" {
		for i := range articles {
			if articles[i].Body != "" || articles[i].URL == "" {
				continue
			}
			body, err := h.readArticle(ctx, articles[i].URL)
			if err != nil {
				h.debug("follow link failed", "url", articles[i].URL, "error", err)
				continue
			}
			articles[i].Body = body
		}
	}

	return articles, nil
}

func (h *HTMLScanner) readArticle(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}

	resp, err := get(ctx, h.client, link, h.opts.UserAgent)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("extract readable text: %w", err)
	}
	return cleanBody(article.TextContent), nil
}

func (h *HTMLScanner) debug(msg string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

// extractArticles tolerates short lists: missing fields become empty strings.
func extractArticles(doc *goquery.Document, base *url.URL) []domain.Article {
	titles := doc.Find(titleSelector)
	authors := doc.Find(authorSelector)
	dates := doc.Find(dateSelector)
	bodies := doc.Find(contentSelector)

	articles := make([]domain.Article, 0, titles.Length())
	titles.Each(func(i int, title *goquery.Selection) {
		article := domain.Article{
			Title:       cleanText(title.Text()),
			Author:      cleanText(textAt(authors, i)),
			PublishedAt: cleanText(textAt(dates, i)),
			Body:        cleanBody(textAt(bodies, i)),
		}
		if href, ok := title.Attr("href"); ok {
			article.URL = resolveLink(base, href)
		}
		articles = append(articles, article)
	})
	return articles
}

func textAt(sel *goquery.Selection, i int) string {
	if i >= sel.Length() {
		return ""
	}
	return sel.Eq(i).Text()
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanBody collapses whitespace within each line but keeps line breaks;
// runs of blank lines become one paragraph break.
func cleanBody(s string) string {
	var (
		b     strings.Builder
		blank bool
	)
	for _, line := range strings.Split(s, "\n") {
		line = cleanText(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(line)
		blank = false
	}
	return b.String()
}
