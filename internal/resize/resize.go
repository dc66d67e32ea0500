// Package resize implements drag-to-resize for image blocks: a per-image
// Controller with an explicit drag Session, and a Tracker that keeps at
// most one drag active.
package resize

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/blockpress/internal/block"
)

// MinSize is the floor below which neither displayed dimension may fall.
const MinSize = 20.0

// Point is a pointer position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a displayed width and height in CSS pixels.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// State is the controller's drag state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Session is one drag, from pointer-down to pointer-up. The aspect ratio
// is frozen when the drag begins.
type Session struct {
	ID        string  `json:"id"`
	Start     Point   `json:"start"`
	StartSize Size    `json:"start_size"`
	Ratio     float64 `json:"ratio"`
	Current   Size    `json:"current"`
}

// Controller resizes one image node.
type Controller struct {
	node    *block.Node
	min     float64
	logger  *slog.Logger
	session *Session
}

// Option configures a Controller.
type Option func(*Controller)

// WithMinSize overrides MinSize.
func WithMinSize(v float64) Option {
	return func(c *Controller) {
		if v > 0 {
			c.min = v
		}
	}
}

// WithLogger sets the logger used for clamped moves.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns an idle controller for the image node n.
func NewController(n *block.Node, opts ...Option) *Controller {
	c := &Controller{node: n, min: MinSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Node returns the controlled image node.
func (c *Controller) Node() *block.Node { return c.node }

// State reports whether a drag is in progress.
func (c *Controller) State() State {
	if c.session != nil {
		return Dragging
	}
	return Idle
}

// Session returns the active drag, or nil when idle.
func (c *Controller) Session() *Session { return c.session }

// Begin starts a drag at p. The start size is read from the node's style,
// falling back to its natural size. It returns nil, leaving the controller
// idle, when the node has no usable size. Beginning while already dragging
// restarts the drag.
func (c *Controller) Begin(p Point) *Session {
	start, ok := CurrentSize(c.node)
	if !ok {
		start, ok = NaturalSize(c.node)
	}
	if !ok {
		c.logger.Debug("resize without size", slog.String("tag", c.node.Tag))
		return nil
	}
	ratio := start.H / start.W
	if nat, ok := NaturalSize(c.node); ok {
		ratio = nat.H / nat.W
	}
	c.session = &Session{
		ID:        uuid.NewString(),
		Start:     p,
		StartSize: start,
		Ratio:     ratio,
		Current:   start,
	}
	return c.session
}

// Move applies the width implied by the pointer's horizontal travel and the
// frozen aspect ratio. A candidate where either dimension is not above the
// floor is ignored and the previous size kept. It reports whether the size
// changed.
func (c *Controller) Move(p Point) (Size, bool) {
	s := c.session
	if s == nil {
		return Size{}, false
	}
	w := s.StartSize.W + (p.X - s.Start.X)
	h := w * s.Ratio
	if w <= c.min || h <= c.min {
		c.logger.Debug("resize clamped",
			slog.Float64("width", w),
			slog.Float64("height", h),
		)
		return s.Current, false
	}
	s.Current = Size{W: w, H: h}
	SetSize(c.node, s.Current)
	return s.Current, true
}

// End finishes the drag. It reports whether a drag was actually active, so
// repeated releases are harmless.
func (c *Controller) End() bool {
	if c.session == nil {
		return false
	}
	c.session = nil
	return true
}

// Tracker holds the single active drag.
type Tracker struct {
	mu     sync.Mutex
	active *Controller
}

// Begin starts a drag on c, ending any other active drag first.
func (t *Tracker) Begin(c *Controller, p Point) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.End()
		t.active = nil
	}
	s := c.Begin(p)
	if s != nil {
		t.active = c
	}
	return s
}

// Move forwards p to the active drag.
func (t *Tracker) Move(p Point) (Size, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return Size{}, false
	}
	return t.active.Move(p)
}

// End finishes the active drag and returns its controller, or nil when no
// drag was active.
func (t *Tracker) End() *Controller {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.active
	if c == nil {
		return nil
	}
	c.End()
	t.active = nil
	return c
}

// Active returns the controller of the active drag, or nil.
func (t *Tracker) Active() *Controller {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// NaturalSize reads the data-natural-width/height attributes.
func NaturalSize(n *block.Node) (Size, bool) {
	w, okW := attrFloat(n, block.NaturalWidthAttr)
	h, okH := attrFloat(n, block.NaturalHeightAttr)
	if !okW || !okH || w <= 0 || h <= 0 {
		return Size{}, false
	}
	return Size{W: w, H: h}, true
}

func attrFloat(n *block.Node, key string) (float64, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
