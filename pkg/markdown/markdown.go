package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts markdown text to HTML. Implementations must be pure.
type Renderer interface {
	Render(text string) (string, error)
}

// GoldmarkRenderer renders CommonMark plus the GitHub extensions.
// Raw HTML in the source is dropped.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

func NewRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *GoldmarkRenderer) Render(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
