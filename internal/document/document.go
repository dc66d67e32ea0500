// Package document holds the ordered sequence of root blocks mounted in an
// editor and positional addressing into it.
package document

import "github.com/starford/blockpress/internal/block"

// Document is the ordered list of root block nodes. Insertion order is the
// only order; there is no separate index.
type Document struct {
	roots []*block.Node
}

// New returns a document holding roots in order.
func New(roots ...*block.Node) *Document {
	return &Document{roots: roots}
}

// Len returns the number of root blocks.
func (d *Document) Len() int {
	return len(d.roots)
}

// At returns the root at index i, or nil when out of range.
func (d *Document) At(i int) *block.Node {
	if i < 0 || i >= len(d.roots) {
		return nil
	}
	return d.roots[i]
}

// Roots returns the root blocks. The slice must not be modified.
func (d *Document) Roots() []*block.Node {
	return d.roots
}

// Append adds n at the end and returns its root index.
func (d *Document) Append(n *block.Node) int {
	d.roots = append(d.roots, n)
	return len(d.roots) - 1
}

// Remove deletes the root at index i and reports whether it existed.
func (d *Document) Remove(i int) bool {
	if i < 0 || i >= len(d.roots) {
		return false
	}
	d.roots = append(d.roots[:i], d.roots[i+1:]...)
	return true
}

// IndexOf returns the root index of n, or -1.
func (d *Document) IndexOf(n *block.Node) int {
	for i, r := range d.roots {
		if r == n {
			return i
		}
	}
	return -1
}

// Replace swaps the whole root sequence, e.g. after a source-view commit.
func (d *Document) Replace(roots []*block.Node) {
	d.roots = roots
}
