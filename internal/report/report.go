package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ContentPipeline/internal/domain"
)

const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Field is the serialized form of one Result outcome. A failed field carries
// its reason and no value, so it never reads as an empty success.
type Field[T any] struct {
	Status string `json:"status"`
	Value  *T     `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

func fieldOf[T any](o domain.Outcome[T]) Field[T] {
	if o.Err != nil {
		return Field[T]{Status: StatusUnavailable, Error: reason(o.Err)}
	}
	v := o.Value
	return Field[T]{Status: StatusOK, Value: &v}
}

// Record is one article's Result as stored and published.
type Record struct {
	Position     int                             `json:"position"`
	Title        string                          `json:"title"`
	Author       string                          `json:"author"`
	PublishedAt  string                          `json:"publishedAt"`
	URL          string                          `json:"url,omitempty"`
	Sentiment    Field[domain.SentimentScore]    `json:"sentiment"`
	Topics       Field[domain.TopicSet]          `json:"topics"`
	Generated    Field[domain.GeneratedContent]  `json:"generated"`
	SEO          Field[domain.SEOKeywords]       `json:"seo"`
	Contacts     Field[domain.ContactBundle]     `json:"contacts"`
	Outreach     Field[string]                   `json:"outreach"`
	Monetization Field[domain.MonetizationOffer] `json:"monetization"`
	FailedStages []string                        `json:"failedStages,omitempty"`
}

func NewRecord(position int, r domain.Result) Record {
	return Record{
		Position:     position,
		Title:        r.Article.Title,
		Author:       r.Article.Author,
		PublishedAt:  r.Article.PublishedAt,
		URL:          r.Article.URL,
		Sentiment:    fieldOf(r.Sentiment),
		Topics:       fieldOf(r.Topics),
		Generated:    fieldOf(r.Generated),
		SEO:          fieldOf(r.SEO),
		Contacts:     fieldOf(r.Contacts),
		Outreach:     fieldOf(r.Outreach),
		Monetization: fieldOf(r.Monetization),
		FailedStages: FailedStages(r),
	}
}

// Document is a whole run in serializable form.
type Document struct {
	RunID     string    `json:"runId"`
	SiteURL   string    `json:"siteUrl"`
	StartedAt time.Time `json:"startedAt"`
	Records   []Record  `json:"records"`
}

func NewDocument(run domain.Run) Document {
	records := make([]Record, 0, len(run.Results))
	for i, res := range run.Results {
		records = append(records, NewRecord(i, res))
	}
	return Document{
		RunID:     run.ID,
		SiteURL:   run.SiteURL,
		StartedAt: run.StartedAt,
		Records:   records,
	}
}

// FailedStages names the stages that failed for r, in pipeline order.
func FailedStages(r domain.Result) []string {
	var out []string
	for _, err := range r.Failures() {
		var se *domain.StageError
		if errors.As(err, &se) {
			out = append(out, string(se.Stage))
		}
	}
	return out
}

// reason strips the stage prefix; the field name already says which stage.
func reason(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

// Digest renders a run as plain text, one block per article.
func Digest(run domain.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s for %s (%d articles)\n\n", run.ID, run.SiteURL, len(run.Results))
	for i, res := range run.Results {
		writeArticle(&b, i+1, res)
	}
	return b.String()
}

func writeArticle(b *strings.Builder, n int, r domain.Result) {
	fmt.Fprintf(b, "Article %d:\n", n)
	fmt.Fprintf(b, "Title: %s\n", r.Article.Title)
	fmt.Fprintf(b, "Author: %s\n", r.Article.Author)
	fmt.Fprintf(b, "Publication Date: %s\n", r.Article.PublishedAt)

	b.WriteString("Sentiment Scores: ")
	if r.Sentiment.OK() {
		s := r.Sentiment.Value
		fmt.Fprintf(b, "positive=%.3f negative=%.3f neutral=%.3f\n", s.Positive, s.Negative, s.Neutral)
	} else {
		b.WriteString(unavailable(r.Sentiment.Err) + "\n")
	}

	fmt.Fprintf(b, "Topics: %s\n", render(r.Topics, func(t domain.TopicSet) string { return list(t.Terms) }))
	fmt.Fprintf(b, "Generated Content: %s\n", render(r.Generated, func(g domain.GeneratedContent) string {
		return fmt.Sprintf("[%s] %s", g.Backend, g.Text)
	}))
	fmt.Fprintf(b, "Keywords: %s\n", render(r.SEO, func(k domain.SEOKeywords) string { return list(k.Terms) }))

	b.WriteString("Contact Information:\n")
	if r.Contacts.OK() {
		c := r.Contacts.Value
		fmt.Fprintf(b, "  Domain: %s\n", c.Domain)
		fmt.Fprintf(b, "  Email Addresses: %s\n", list(c.Emails))
		fmt.Fprintf(b, "  Social Media Handles: %s\n", list(c.Handles))
	} else {
		fmt.Fprintf(b, "  %s\n", unavailable(r.Contacts.Err))
	}

	fmt.Fprintf(b, "Outreach Proposal: %s\n", render(r.Outreach, func(s string) string { return s }))
	fmt.Fprintf(b, "Monetization Opportunity: %s\n", render(r.Monetization, func(m domain.MonetizationOffer) string {
		return m.OpportunityID
	}))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
}

func render[T any](o domain.Outcome[T], ok func(T) string) string {
	if !o.OK() {
		return unavailable(o.Err)
	}
	return ok(o.Value)
}

func unavailable(err error) string {
	return fmt.Sprintf("%s (%s)", StatusUnavailable, reason(err))
}

func list(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
