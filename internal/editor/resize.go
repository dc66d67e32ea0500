package editor

import (
	"log/slog"

	"github.com/starford/blockpress/internal/resize"
)

// BeginResize starts dragging the image at root index at pointer p. Any
// drag still active in this editor is ended first. It returns nil when the
// root is not an image or has no usable size.
func (e *Editor) BeginResize(index int, p resize.Point) (*resize.Session, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	n := e.doc.At(index)
	if !n.IsElement("img") {
		return nil, nil
	}
	if e.tracker.Active() != nil {
		e.EndResize()
	}
	c := resize.NewController(n, resize.WithMinSize(e.minSize), resize.WithLogger(e.logger))
	s := e.tracker.Begin(c, p)
	if s != nil {
		e.logger.Debug("resize started", slog.Int("index", index), slog.String("session", s.ID))
	}
	return s, nil
}

// MoveResize applies pointer p to the active drag. The source is not
// recomputed until the drag ends.
func (e *Editor) MoveResize(p resize.Point) (resize.Size, bool, error) {
	if err := e.guard(); err != nil {
		return resize.Size{}, false, err
	}
	size, ok := e.tracker.Move(p)
	return size, ok, nil
}

// EndResize releases the active drag and recomputes the source once. It
// reports whether a drag was active; releasing twice is harmless.
func (e *Editor) EndResize() bool {
	if e.tracker.End() == nil {
		return false
	}
	e.sync()
	return true
}

// ActiveResize returns the active drag session, or nil.
func (e *Editor) ActiveResize() *resize.Session {
	if c := e.tracker.Active(); c != nil {
		return c.Session()
	}
	return nil
}
