package editor

import (
	"strings"

	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/markup"
)

// BlockView describes one root block for clients.
type BlockView struct {
	Index     int    `json:"index"`
	Type      string `json:"type,omitempty"`
	Tag       string `json:"tag"`
	Text      string `json:"text,omitempty"`
	HTML      string `json:"html"`
	Deletable bool   `json:"deletable"`
}

// Blocks lists the root blocks in document order. Deletable marks the
// blocks that carry the member class.
func (e *Editor) Blocks() []BlockView {
	roots := e.doc.Roots()
	out := make([]BlockView, 0, len(roots))
	for i, n := range roots {
		out = append(out, BlockView{
			Index:     i,
			Type:      string(n.Type()),
			Tag:       n.Tag,
			Text:      strings.Join(strings.Fields(n.Text()), " "),
			HTML:      markup.Render(n),
			Deletable: n.HasClass(block.MemberClass),
		})
	}
	return out
}
