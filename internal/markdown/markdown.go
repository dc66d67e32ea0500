// Package markdown converts Markdown text into document blocks.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/markup"
)

// Importer renders Markdown with goldmark (GitHub flavored, raw HTML
// escaped) and classifies the resulting elements as blocks.
type Importer struct {
	md      goldmark.Markdown
	factory *block.Factory
}

// New returns an Importer that marks blocks with f.
func New(f *block.Factory) *Importer {
	return &Importer{
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		factory: f,
	}
}

// Blocks converts src and returns its root blocks in order. Elements with a
// catalog equivalent (headings, lists, tables, ...) are typed; others are
// kept untyped. A YAML front matter header is dropped; its title becomes
// the leading heading when the body has none.
func (i *Importer) Blocks(src []byte) ([]*block.Node, error) {
	var buf bytes.Buffer
	if err := i.md.Convert(withTitle(src), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	roots := markup.FromSource(buf.String()).Roots()
	for _, n := range roots {
		i.factory.Adopt(n)
	}
	return roots, nil
}
