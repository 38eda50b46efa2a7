package stage

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const (
	AnalyzerNone      = "none"
	AnalyzerFrequency = "frequency"

	defaultKeywordLimit = 10
)

// SEOStage suggests metadata keywords for generated content.
type SEOStage struct {
	analyzer ports.KeywordAnalyzer
}

func NewSEOStage(analyzer ports.KeywordAnalyzer) *SEOStage {
	return &SEOStage{analyzer: analyzer}
}

// NewKeywordAnalyzer resolves an analyzer by its configured name.
func NewKeywordAnalyzer(name string, limit int) (ports.KeywordAnalyzer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AnalyzerNone:
		return NoopAnalyzer{}, nil
	case AnalyzerFrequency:
		return FrequencyAnalyzer{Limit: limit}, nil
	default:
		return nil, fmt.Errorf("keyword analyzer %q: %w", name, domain.ErrUnsupportedBackend)
	}
}

// Analyze returns a sorted, deduplicated keyword set.
func (s *SEOStage) Analyze(ctx context.Context, content string) (domain.SEOKeywords, error) {
	if s == nil || s.analyzer == nil {
		return domain.SEOKeywords{}, fmt.Errorf("keyword analyzer not configured: %w", domain.ErrCapabilityUnavailable)
	}
	if strings.TrimSpace(content) == "" {
		return domain.SEOKeywords{Terms: []string{}}, nil
	}
	keywords, err := s.analyzer.Keywords(ctx, content)
	if err != nil {
		return domain.SEOKeywords{}, fmt.Errorf("analyze keywords: %w", err)
	}
	return domain.SEOKeywords{Terms: sortedSet(keywords)}, nil
}

// NoopAnalyzer never suggests anything.
type NoopAnalyzer struct{}

func (NoopAnalyzer) Keywords(context.Context, string) ([]string, error) {
	return nil, nil
}

var reKeywordToken = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'-]*`)

var keywordStopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true, "been": true, "but": true,
	"by": true, "can": true, "could": true, "did": true, "do": true, "does": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "he": true, "her": true, "his": true,
	"how": true, "if": true, "in": true, "into": true, "is": true, "it": true, "its": true,
	"more": true, "most": true, "no": true, "not": true, "of": true, "on": true, "one": true,
	"or": true, "our": true, "out": true, "over": true, "said": true, "she": true, "so": true,
	"some": true, "than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true, "those": true,
	"to": true, "up": true, "was": true, "we": true, "were": true, "what": true, "when": true,
	"which": true, "while": true, "who": true, "will": true, "with": true, "would": true,
	"you": true, "your": true,
}

// FrequencyAnalyzer picks the most frequent non-stopword tokens.
// Ties keep first-occurrence order.
type FrequencyAnalyzer struct {
	Limit int
}

func (a FrequencyAnalyzer) Keywords(ctx context.Context, content string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultKeywordLimit
	}

	counts := map[string]int{}
	var order []string
	for _, tok := range tokenizeKeywords(content) {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	first := make(map[string]int, len(order))
	for i, tok := range order {
		first[tok] = i
	}
	slices.SortStableFunc(order, func(x, y string) int {
		if c := cmp.Compare(counts[y], counts[x]); c != 0 {
			return c
		}
		return cmp.Compare(first[x], first[y])
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

func tokenizeKeywords(raw string) []string {
	folder := cases.Fold()
	parts := reKeywordToken.FindAllString(norm.NFKC.String(raw), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.Trim(folder.String(p), "'-")
		if len([]rune(t)) <= 2 || keywordStopwords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortedSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
