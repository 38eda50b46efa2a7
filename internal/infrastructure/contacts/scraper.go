package contacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const maxPageBytes = 4 << 20

var emailExpr = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

// Asset names such as logo@2x.png match the email pattern.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// socialHosts maps link hosts to the platform prefix used in handles.
var socialHosts = map[string]string{
	"twitter.com":   "x",
	"x.com":         "x",
	"instagram.com": "instagram",
	"facebook.com":  "facebook",
	"linkedin.com":  "linkedin",
	"tiktok.com":    "tiktok",
	"youtube.com":   "youtube",
}

// Scraper extracts email addresses and social handles from a site's page.
type Scraper struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.ContactExtractor = (*Scraper)(nil)

func NewScraper(client *http.Client, userAgent string, log *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{client: client, userAgent: userAgent, logger: log}
}

// Scrape returns the contact bundle for siteURL. Domain is the URL host.
func (s *Scraper) Scrape(ctx context.Context, siteURL string) (domain.ContactBundle, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return domain.ContactBundle{}, fmt.Errorf("invalid site url %q", siteURL)
	}

	page, err := s.fetch(ctx, siteURL)
	if err != nil {
		return domain.ContactBundle{}, err
	}

	emails := findEmails(string(page))
	var handles []string

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.ContactBundle{}, fmt.Errorf("parse page: %w", err)
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if addr, ok := strings.CutPrefix(strings.ToLower(href), "mailto:"); ok {
			addr, _, _ = strings.Cut(addr, "?")
			if addr != "" {
				emails = append(emails, addr)
			}
			return
		}
		if h := socialHandle(href); h != "" {
			handles = append(handles, h)
		}
	})

	bundle := domain.ContactBundle{
		Domain:  u.Host,
		Emails:  toSet(emails),
		Handles: toSet(handles),
	}
	if s.logger != nil {
		s.logger.Debug("contacts scraped", "site", siteURL, "emails", len(bundle.Emails), "handles", len(bundle.Handles))
	}
	return bundle, nil
}

func (s *Scraper) fetch(ctx context.Context, siteURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request contacts page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contacts page returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read contacts page: %w", err)
	}
	return body, nil
}

func findEmails(text string) []string {
	var out []string
	for _, m := range emailExpr.FindAllString(text, -1) {
		m = strings.ToLower(strings.Trim(m, ".-"))
		local, host, ok := strings.Cut(m, "@")
		if !ok || local == "" || !strings.Contains(host, ".") {
			continue
		}
		if slices.ContainsFunc(assetSuffixes, func(suffix string) bool { return strings.HasSuffix(host, suffix) }) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// socialHandle turns a profile link into "platform:name".
func socialHandle(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	platform, ok := socialHosts[host]
	if !ok {
		return ""
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return ""
	}
	name := segments[0]
	switch {
	case platform == "linkedin" && len(segments) > 1:
		// linkedin.com/company/<name>, linkedin.com/in/<name>
		name = segments[1]
	case platform == "youtube" && (name == "c" || name == "channel" || name == "user") && len(segments) > 1:
		name = segments[1]
	case name == "share" || name == "intent" || name == "sharer.php" || name == "sharer":
		return ""
	}
	name = strings.TrimPrefix(path.Clean(name), "@")
	if name == "" || name == "." {
		return ""
	}
	return platform + ":" + name
}

func toSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
