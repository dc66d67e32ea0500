// Package table implements row and column editing on table blocks. Every
// operation takes an anchor path (the cursor position), resolves it against
// the live document and is a silent no-op when the anchor is not inside a
// table row or cell.
package table

import (
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/document"
)

var sections = []string{"thead", "tbody", "tfoot"}

// anchor is a resolved cursor position inside a table.
type anchor struct {
	path  document.Path
	chain document.Chain
	table int // chain position of the enclosing table
	row   int // chain position of the row
	cell  int // chain position of the cell, -1 for row ops
}

func (a anchor) tableNode() *block.Node { return a.chain[a.table] }
func (a anchor) rowNode() *block.Node   { return a.chain[a.row] }

// rowParent returns the node holding the row and the row's raw position in it.
func (a anchor) rowParent() (*block.Node, int) {
	return a.chain[a.row-1], a.path[a.row]
}

func locateRow(d *document.Document, p document.Path) (anchor, bool) {
	chain := d.Resolve(p)
	ri := chain.Nearest("tr")
	if ri < 1 {
		return anchor{}, false
	}
	ti := chain.NearestBefore(ri, "table")
	if ti < 0 {
		return anchor{}, false
	}
	return anchor{path: p, chain: chain, table: ti, row: ri, cell: -1}, true
}

func locateCell(d *document.Document, p document.Path) (anchor, bool) {
	chain := d.Resolve(p)
	ci := chain.Nearest("td", "th")
	if ci < 0 {
		return anchor{}, false
	}
	ri := chain.NearestBefore(ci, "tr")
	if ri < 1 {
		return anchor{}, false
	}
	ti := chain.NearestBefore(ri, "table")
	if ti < 0 {
		return anchor{}, false
	}
	return anchor{path: p, chain: chain, table: ti, row: ri, cell: ci}, true
}

// Rows returns the rows of t in document order: its direct tr children and
// the tr children of its thead, tbody and tfoot sections. Rows of nested
// tables are not included.
func Rows(t *block.Node) []*block.Node {
	var rows []*block.Node
	for _, c := range t.Children {
		switch {
		case c.IsElement("tr"):
			rows = append(rows, c)
		case c.IsElement(sections...):
			for _, r := range c.Children {
				if r.IsElement("tr") {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

// Cells returns the td and th children of row.
func Cells(row *block.Node) []*block.Node {
	var cells []*block.Node
	for _, c := range row.Children {
		if c.IsElement("td", "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

// AddRow inserts a row of blank cells right after the anchor's row. The new
// row has as many cells as the anchor row.
func AddRow(d *document.Document, p document.Path) bool {
	a, ok := locateRow(d, p)
	if !ok {
		return false
	}
	parent, pos := a.rowParent()
	parent.InsertAfter(pos, block.BlankRow(len(Cells(a.rowNode()))))
	return true
}

// AddColumn inserts a blank cell after the anchor cell's column in every
// row. Rows too short to have that position get the cell appended.
func AddColumn(d *document.Document, p document.Path) bool {
	a, ok := locateCell(d, p)
	if !ok {
		return false
	}
	k := a.rowNode().ElementIndex(a.chain[a.cell])
	for _, row := range Rows(a.tableNode()) {
		row.InsertElementAt(k+1, block.BlankCell())
	}
	return true
}

// DeleteRow removes the anchor's row. When it is the table's only row the
// whole table is removed instead: from the document when the table is a
// root block, otherwise from its parent.
func DeleteRow(d *document.Document, p document.Path) bool {
	a, ok := locateRow(d, p)
	if !ok {
		return false
	}
	if len(Rows(a.tableNode())) > 1 {
		parent, pos := a.rowParent()
		parent.RemoveAt(pos)
		return true
	}
	if a.table == 0 {
		return d.Remove(a.path[0])
	}
	a.chain[a.table-1].RemoveAt(a.path[a.table])
	return true
}

// DeleteColumn removes the anchor cell's column from every row that has a
// cell at that position. Shorter rows are left alone.
func DeleteColumn(d *document.Document, p document.Path) bool {
	a, ok := locateCell(d, p)
	if !ok {
		return false
	}
	k := a.rowNode().ElementIndex(a.chain[a.cell])
	for _, row := range Rows(a.tableNode()) {
		row.RemoveElementAt(k)
	}
	return true
}

// Insert builds a rows×cols table block of blank cells. Sizes below one are
// raised to one.
func Insert(f *block.Factory, rows, cols int) *block.Node {
	return f.Create(block.TypeTable, block.WithTableSize(max(rows, 1), max(cols, 1)))
}
