package resize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blockpress/internal/block"
)

func image(style string, nw, nh string) *block.Node {
	n := block.NewElement("img", block.Attr{Key: "src", Val: "data:image/png;base64,"})
	if style != "" {
		n.SetAttr("style", style)
	}
	if nw != "" {
		n.SetAttr(block.NaturalWidthAttr, nw)
		n.SetAttr(block.NaturalHeightAttr, nh)
	}
	return n
}

func TestMoveKeepsAspectRatio(t *testing.T) {
	n := image("width: 300px; height: 150px;", "600", "300")
	c := NewController(n)

	s := c.Begin(Point{X: 100, Y: 100})
	require.NotNil(t, s)
	assert.Equal(t, Dragging, c.State())
	assert.Equal(t, 0.5, s.Ratio)

	size, ok := c.Move(Point{X: 150, Y: 40})
	require.True(t, ok)
	assert.Equal(t, Size{W: 350, H: 175}, size)

	style, _ := n.Attr("style")
	assert.Equal(t, "width: 350px; height: 175px;", style)
}

func TestMoveBelowFloorKeepsPreviousSize(t *testing.T) {
	n := image("width: 100px; height: 50px;", "200", "100")
	c := NewController(n)
	c.Begin(Point{})

	// 70x35 clears the floor, 30x15 does not.
	_, ok := c.Move(Point{X: -30})
	require.True(t, ok)
	before, _ := n.Attr("style")

	size, ok := c.Move(Point{X: -70})
	assert.False(t, ok)
	assert.Equal(t, Size{W: 70, H: 35}, size)
	after, _ := n.Attr("style")
	assert.Equal(t, before, after)
}

func TestMoveBelowFloorFromStart(t *testing.T) {
	n := image("width: 100px; height: 100px;", "100", "100")
	c := NewController(n)
	c.Begin(Point{X: 50})

	_, ok := c.Move(Point{X: -40})
	assert.False(t, ok)
	style, _ := n.Attr("style")
	assert.Equal(t, "width: 100px; height: 100px;", style)
}

func TestBeginFallsBackToNaturalSize(t *testing.T) {
	n := image("", "80", "40")
	s := NewController(n).Begin(Point{})
	require.NotNil(t, s)
	assert.Equal(t, Size{W: 80, H: 40}, s.StartSize)
}

func TestBeginWithoutSizeStaysIdle(t *testing.T) {
	c := NewController(image("", "", ""))
	assert.Nil(t, c.Begin(Point{}))
	assert.Equal(t, Idle, c.State())
	_, ok := c.Move(Point{X: 10})
	assert.False(t, ok)
}

func TestEndIsIdempotent(t *testing.T) {
	c := NewController(image("width: 40px; height: 40px;", "", ""))
	c.Begin(Point{})
	assert.True(t, c.End())
	assert.False(t, c.End())
	assert.Equal(t, Idle, c.State())
}

func TestTrackerEndsStaleDrag(t *testing.T) {
	var tr Tracker
	a := NewController(image("width: 40px; height: 40px;", "", ""))
	b := NewController(image("width: 60px; height: 30px;", "", ""))

	require.NotNil(t, tr.Begin(a, Point{}))
	require.NotNil(t, tr.Begin(b, Point{}))
	assert.Equal(t, Idle, a.State())
	assert.Same(t, b, tr.Active())

	size, ok := tr.Move(Point{X: 20})
	require.True(t, ok)
	assert.Equal(t, Size{W: 80, H: 40}, size)

	assert.Same(t, b, tr.End())
	assert.Nil(t, tr.End())
}

func TestSetSizeKeepsOtherDeclarations(t *testing.T) {
	n := image("border: 0; Width: 10px", "", "")
	SetSize(n, Size{W: 33.5, H: 21})
	style, _ := n.Attr("style")
	assert.Equal(t, "border: 0; width: 33.5px; height: 21px;", style)

	s, ok := CurrentSize(n)
	require.True(t, ok)
	assert.Equal(t, Size{W: 33.5, H: 21}, s)
}
