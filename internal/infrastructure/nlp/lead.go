package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"ContentPipeline/internal/ports"
)

const LeadBackendName = "lead"

// LeadGenerator is an extractive generator: it returns the opening sentences
// of the prompt that fit the token budget. Output is deterministic.
type LeadGenerator struct{}

var _ ports.TextGenerator = LeadGenerator{}

func (LeadGenerator) Name() string {
	return LeadBackendName
}

func (LeadGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := prose.NewDocument(req.Prompt,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return "", fmt.Errorf("segment text: %w", err)
	}

	var (
		out    []string
		tokens int
	)
	for _, sent := range doc.Sentences() {
		n := len(strings.Fields(sent.Text))
		if req.MaxTokens > 0 && tokens+n > req.MaxTokens {
			break
		}
		out = append(out, strings.TrimSpace(sent.Text))
		tokens += n
	}
	return strings.Join(out, " "), nil
}
