package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/blockpress/internal/block"
)

// CatalogURI addresses the block catalog resource.
const CatalogURI = "blockpress://block-catalog"

// documentFormat describes the canonical document format that LLM
// consumers should follow when creating or editing documents.
const documentFormat = `# Blockpress Document Format

A document is an HTML fragment stored as ` + "`<name>.html`" + `. Its canonical form
has exactly one root block per line.

## Rules

1. Root content is elements only. Loose text and comments at the root are dropped.
2. Blocks created from the catalog carry ` + "`data-block-type=\"<type>\"`" + ` and the
   classes ` + "`blockpress-block block-<type>`" + `. Documents may also contain plain
   untyped elements; they are kept but cannot be deleted through the editor.
3. Tables are laid out over several lines, one row per line. Empty cells hold a
   non-breaking space.
4. Images are embedded as data URIs with an inline ` + "`width`/`height`" + ` style and
   ` + "`data-natural-width`/`data-natural-height`" + ` attributes.
5. Prefer the tools (` + "`insert_block`, `edit_table`, `insert_image`, `import_markdown`" + `)
   over writing markup by hand; the server normalizes whatever it receives.
6. Document names use forward slashes, no extension, no leading dots.

## Table anchors

` + "`edit_table`" + ` addresses a cell by its child-index path from the root block,
e.g. ` + "`[0, 0, 1, 0]`" + ` is root 0 → tbody → second row → first cell.
`

// catalogContract renders the format rules followed by the block catalog.
func catalogContract(groups []block.Group) string {
	var b strings.Builder
	b.WriteString(documentFormat)
	b.WriteString("\n## Block catalog\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n### %s\n\n", g.Category)
		for _, s := range g.Blocks {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.Type, s.Name)
		}
	}
	return b.String()
}
