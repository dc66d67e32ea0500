package document

import "github.com/starford/blockpress/internal/block"

// Path addresses a node by position: Path[0] is the root index and every
// following element indexes into the previous node's Children, text nodes
// included. Paths are resolved against the live tree on every use.
type Path []int

// Chain is the ancestor chain of a resolved Path, root first. Chain[i] is
// the node addressed by Path[:i+1].
type Chain []*block.Node

// Resolve walks p through d. It returns nil when p is empty or any index
// is out of range.
func (d *Document) Resolve(p Path) Chain {
	if len(p) == 0 {
		return nil
	}
	n := d.At(p[0])
	if n == nil {
		return nil
	}
	chain := Chain{n}
	for _, i := range p[1:] {
		if i < 0 || i >= len(n.Children) {
			return nil
		}
		n = n.Children[i]
		chain = append(chain, n)
	}
	return chain
}

// Nearest returns the chain position of the deepest node that is an element
// with one of tags, searching upward from the end of the chain. It returns
// -1 when no such ancestor exists.
func (c Chain) Nearest(tags ...string) int {
	return c.NearestBefore(len(c), tags...)
}

// NearestBefore is Nearest restricted to positions strictly below end.
func (c Chain) NearestBefore(end int, tags ...string) int {
	if end > len(c) {
		end = len(c)
	}
	for i := end - 1; i >= 0; i-- {
		if c[i].IsElement(tags...) {
			return i
		}
	}
	return -1
}
