package nlp

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"

	"ContentPipeline/internal/ports"
)

// ProseBackend tags parts of speech and keeps common nouns (NN, NNS).
// The tagging model is loaded once and only read afterwards, so one backend
// serves every worker.
type ProseBackend struct {
	model *prose.Model
}

var _ ports.TopicBackend = (*ProseBackend)(nil)

func NewProseBackend() *ProseBackend {
	return &ProseBackend{model: prose.ModelFromData("content-pipeline")}
}

func (b *ProseBackend) Nouns(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := []prose.DocOpt{
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	}
	if b != nil && b.model != nil {
		opts = append(opts, prose.UsingModel(b.model))
	}
	doc, err := prose.NewDocument(text, opts...)
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}

	var nouns []string
	for _, tok := range doc.Tokens() {
		if tok.Tag == "NN" || tok.Tag == "NNS" {
			nouns = append(nouns, tok.Text)
		}
	}
	return nouns, nil
}
