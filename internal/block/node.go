package block

import (
	"strings"
)

// Marker attributes stamped on every factory-built block.
const (
	TypeAttr    = "data-block-type"
	MemberClass = "blockpress-block"
	ClassPrefix = "block-"
)

// Blank is the content of a freshly inserted table cell (a non-breaking space).
const Blank = "\u00a0"

// Kind distinguishes element nodes from text nodes.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
)

// Attr is a single markup attribute. Attribute order is preserved so that
// serialization is deterministic.
type Attr struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

// Node is one element or text node of the document tree. A root-level
// element is a block; nested nodes are its markup.
type Node struct {
	Kind      Kind
	Tag       string
	Namespace string
	Attrs     []Attr
	Children  []*Node
	Data      string
}

// NewElement returns an element node with the given attributes.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs}
}

// NewText returns a text node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// IsElement reports whether n is an element whose tag is one of tags.
// With no tags it reports whether n is an element at all.
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Kind != ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// Type returns the block type recorded in the data-block-type attribute.
func (n *Node) Type() Type {
	v, _ := n.Attr(TypeAttr)
	return Type(v)
}

// Attr returns the value of attribute key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key, appending it when absent.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// RemoveAttr deletes attribute key if present.
func (n *Node) RemoveAttr(key string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Classes returns the whitespace-separated entries of the class attribute.
func (n *Node) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether class is listed in the class attribute.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not already present.
func (n *Node) AddClass(classes ...string) {
	current := n.Classes()
	for _, c := range classes {
		found := false
		for _, have := range current {
			if have == c {
				found = true
				break
			}
		}
		if !found {
			current = append(current, c)
		}
	}
	n.SetAttr("class", strings.Join(current, " "))
}

// Append adds children at the end of n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Elements returns the element children of n, skipping text.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ElementIndex returns the position of child among n's element children,
// or -1 when child is not an element child of n.
func (n *Node) ElementIndex(child *Node) int {
	i := 0
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if c == child {
			return i
		}
		i++
	}
	return -1
}

// InsertElementAt inserts child before the k-th element child of n. When n
// has k or fewer element children the child is appended.
func (n *Node) InsertElementAt(k int, child *Node) {
	i := 0
	for pos, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if i == k {
			n.insertAt(pos, child)
			return
		}
		i++
	}
	n.Children = append(n.Children, child)
}

// RemoveElementAt removes the k-th element child of n and reports whether
// one existed.
func (n *Node) RemoveElementAt(k int) bool {
	i := 0
	for pos, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if i == k {
			n.RemoveAt(pos)
			return true
		}
		i++
	}
	return false
}

// InsertAfter inserts child right after the raw child position pos.
func (n *Node) InsertAfter(pos int, child *Node) {
	n.insertAt(pos+1, child)
}

// RemoveAt removes the child at raw position pos.
func (n *Node) RemoveAt(pos int) {
	if pos < 0 || pos >= len(n.Children) {
		return
	}
	n.Children = append(n.Children[:pos], n.Children[pos+1:]...)
}

func (n *Node) insertAt(pos int, child *Node) {
	if pos >= len(n.Children) {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[pos+1:], n.Children[pos:])
	n.Children[pos] = child
}

// Text returns the concatenated text content of n and its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	if n.Kind == TextNode {
		sb.WriteString(n.Data)
		return
	}
	for _, c := range n.Children {
		c.collectText(sb)
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		Kind:      n.Kind,
		Tag:       n.Tag,
		Namespace: n.Namespace,
		Data:      n.Data,
	}
	if len(n.Attrs) > 0 {
		cp.Attrs = append([]Attr(nil), n.Attrs...)
	}
	for _, c := range n.Children {
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}
