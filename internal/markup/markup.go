// Package markup converts a document to and from its canonical HTML source:
// one root block per line, rendered and parsed with golang.org/x/net/html.
package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/document"
)

// LineSeparator terminates every root block in the canonical source.
const LineSeparator = "\n"

// htmlSpace is the HTML definition of whitespace; unlike unicode.IsSpace it
// excludes the non-breaking space that blank table cells hold.
const htmlSpace = " \t\n\f\r"

// Elements whose element children are laid out one per line. The parser
// keeps that whitespace as text, so it is discarded again on import.
var lineLayout = map[string]bool{
	"table": true,
	"thead": true,
	"tbody": true,
	"tfoot": true,
}

// Elements inside which whitespace-only text carries no content.
var stripWhitespace = map[string]bool{
	"table":    true,
	"thead":    true,
	"tbody":    true,
	"tfoot":    true,
	"tr":       true,
	"colgroup": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// ToSource serializes d: each root's markup followed by LineSeparator, in
// document order.
func ToSource(d *document.Document) string {
	var buf bytes.Buffer
	for _, n := range d.Roots() {
		buf.WriteString(Render(n))
		buf.WriteString(LineSeparator)
	}
	return buf.String()
}

// Render returns the markup of a single node.
func Render(n *block.Node) string {
	var buf bytes.Buffer
	// Void elements never get children from toHTML, the only error
	// html.Render can report for a well-formed tree.
	_ = html.Render(&buf, toHTML(n))
	return buf.String()
}

// FromSource parses src as a body fragment and rebuilds the root blocks.
// Interpretation is structural: whatever the HTML5 parser makes of the
// input is taken as-is, with no schema validation. Root-level text and
// comments are dropped.
func FromSource(src string) *document.Document {
	nodes, err := html.ParseFragment(strings.NewReader(src), bodyContext())
	if err != nil {
		// Only reader errors surface here; a strings.Reader has none.
		return document.New()
	}
	var roots []*block.Node
	for _, hn := range nodes {
		if hn.Type != html.ElementNode {
			continue
		}
		roots = append(roots, fromHTML(hn))
	}
	return document.New(roots...)
}

// Normalize runs src through FromSource and ToSource.
func Normalize(src string) string {
	return ToSource(FromSource(src))
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

func toHTML(n *block.Node) *html.Node {
	if n.Kind == block.TextNode {
		return &html.Node{Type: html.TextNode, Data: n.Data}
	}
	hn := &html.Node{
		Type:      html.ElementNode,
		Data:      n.Tag,
		DataAtom:  atom.Lookup([]byte(n.Tag)),
		Namespace: n.Namespace,
	}
	for _, a := range n.Attrs {
		hn.Attr = append(hn.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if voidElements[n.Tag] && n.Namespace == "" {
		return hn
	}
	layout := lineLayout[n.Tag] && n.Namespace == ""
	for _, c := range n.Children {
		if layout && c.Kind == block.ElementNode {
			hn.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
		}
		hn.AppendChild(toHTML(c))
	}
	if layout && hn.FirstChild != nil {
		hn.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
	}
	return hn
}

func fromHTML(hn *html.Node) *block.Node {
	n := &block.Node{
		Kind:      block.ElementNode,
		Tag:       hn.Data,
		Namespace: hn.Namespace,
	}
	for _, a := range hn.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		n.Attrs = append(n.Attrs, block.Attr{Key: key, Val: a.Val})
	}
	strip := stripWhitespace[hn.Data] && hn.Namespace == ""
	for c := hn.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			n.Children = append(n.Children, fromHTML(c))
		case html.TextNode:
			if strip && strings.Trim(c.Data, htmlSpace) == "" {
				continue
			}
			n.Children = append(n.Children, block.NewText(c.Data))
		}
	}
	return n
}
