// Package catalog loads the tool catalog seed file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// File is the layout of the seed file.
type File struct {
	Tools []Entry `yaml:"tools"`
}

// Entry is one tool of the seed file. Active defaults to true.
type Entry struct {
	domain.Tool `yaml:",inline"`
	Active      *bool `yaml:"active"`
}

// Loader reads the YAML seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and validates the seed file.
func (l *Loader) Load() ([]*domain.Tool, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Sync loads the seed file and upserts it into repo.
func (l *Loader) Sync(ctx context.Context, repo ports.ToolRepository) (int, error) {
	tools, err := l.Load()
	if err != nil {
		return 0, err
	}
	if err := repo.UpsertMany(ctx, tools); err != nil {
		return 0, fmt.Errorf("failed to store catalog: %w", err)
	}
	return len(tools), nil
}

// Parse decodes seed data. Slugs must be present and unique.
func Parse(data []byte) ([]*domain.Tool, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Tools))
	tools := make([]*domain.Tool, 0, len(f.Tools))
	for i, e := range f.Tools {
		t := e.Tool
		t.Slug = strings.TrimSpace(t.Slug)
		if t.Slug == "" {
			return nil, fmt.Errorf("catalog entry %d: missing slug", i)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("catalog entry %q: missing name", t.Slug)
		}
		if _, dup := seen[t.Slug]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate slug", t.Slug)
		}
		seen[t.Slug] = struct{}{}

		t.IsActive = e.Active == nil || *e.Active
		if t.Href == "" {
			t.Href = "/tools/" + t.Slug
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		tools = append(tools, &t)
	}
	return tools, nil
}
