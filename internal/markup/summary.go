package markup

import (
	"strings"

	"github.com/starford/blockpress/internal/block"
)

// Summary is the indexable digest of a canonical source.
type Summary struct {
	Title  string
	Text   string
	Blocks int
	Types  map[string]int
}

// Summarize parses src and extracts the title (text of the first heading),
// the plain text of all blocks and the number of root blocks per type.
// Untyped roots are counted under their element name.
func Summarize(src string) *Summary {
	d := FromSource(src)
	s := &Summary{Types: make(map[string]int), Blocks: d.Len()}

	var parts []string
	for _, root := range d.Roots() {
		key := string(root.Type())
		if key == "" {
			key = root.Tag
		}
		s.Types[key]++

		if s.Title == "" {
			if h := firstHeading(root); h != nil {
				s.Title = strings.TrimSpace(h.Text())
			}
		}
		if txt := strings.Join(strings.Fields(root.Text()), " "); txt != "" {
			parts = append(parts, txt)
		}
	}
	s.Text = strings.Join(parts, "\n")
	return s
}

func firstHeading(n *block.Node) *block.Node {
	if n.IsElement("h1", "h2", "h3", "h4", "h5", "h6") {
		return n
	}
	for _, c := range n.Children {
		if h := firstHeading(c); h != nil {
			return h
		}
	}
	return nil
}
