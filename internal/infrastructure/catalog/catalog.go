package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ContentPipeline/internal/ports"
)

// Static serves a fixed list of opportunities.
type Static []string

var _ ports.OpportunityCatalog = Static(nil)

func (s Static) List(context.Context) ([]string, error) {
	return clean(s), nil
}

// File reads opportunities from a YAML document on every List, so edits are
// picked up by the next run.
//
//	opportunities:
//	  - sponsored-post
//	  - newsletter-banner
type File struct {
	Path string
}

var _ ports.OpportunityCatalog = File{}

type fileDocument struct {
	Opportunities []string `yaml:"opportunities"`
}

func (f File) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.Path, err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", f.Path, err)
	}
	return clean(doc.Opportunities), nil
}

// New picks the file catalog when a path is set, otherwise the inline list.
func New(inline []string, path string) ports.OpportunityCatalog {
	if strings.TrimSpace(path) != "" {
		return File{Path: path}
	}
	return Static(inline)
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
