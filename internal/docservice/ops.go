package docservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/checksum"
	"github.com/starford/blockpress/internal/document"
	"github.com/starford/blockpress/internal/editor"
	"github.com/starford/blockpress/internal/resize"
)

// Result describes the outcome of one editing gesture.
type Result struct {
	Name     string          `json:"name"`
	Index    int             `json:"index"`
	Count    int             `json:"count,omitempty"`
	Changed  bool            `json:"changed"`
	Source   string          `json:"source"`
	Checksum string          `json:"checksum"`
	Mode     editor.ViewMode `json:"mode"`
}

// ResizeResult is the outcome of a resize phase.
type ResizeResult struct {
	Result
	Session *resize.Session `json:"session,omitempty"`
	Size    *resize.Size    `json:"size,omitempty"`
}

func (sess *session) result(index int, changed bool) *Result {
	src := sess.ed.Source()
	return &Result{
		Name:     sess.name,
		Index:    index,
		Changed:  changed,
		Source:   src,
		Checksum: checksum.Source(src),
		Mode:     sess.ed.Mode(),
	}
}

// Insert appends a block of type t.
func (s *Service) Insert(ctx context.Context, name string, t block.Type, opts ...block.Option) (*Result, error) {
	if t == "" {
		return nil, fmt.Errorf("block type: %w", apperr.ErrInvalidInput)
	}
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		i, err := sess.ed.Insert(t, opts...)
		if err != nil {
			return err
		}
		out = sess.result(i, true)
		return nil
	})
	return out, err
}

// InsertImage runs the image flow with p. A cancelled pick reports
// Changed false and Index -1.
func (s *Service) InsertImage(ctx context.Context, name string, p block.Picker) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		i, err := sess.ed.InsertImage(ctx, p)
		if err != nil {
			return err
		}
		out = sess.result(i, i >= 0)
		return nil
	})
	return out, err
}

// InsertTable appends a rows×cols table.
func (s *Service) InsertTable(ctx context.Context, name string, rows, cols int) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		i, err := sess.ed.InsertTable(rows, cols)
		if err != nil {
			return err
		}
		out = sess.result(i, true)
		return nil
	})
	return out, err
}

// DeleteBlock removes the root block at index. A missing index is
// ErrNotFound.
func (s *Service) DeleteBlock(ctx context.Context, name string, index int) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		ok, err := sess.ed.Delete(index)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("block %d: %w", index, apperr.ErrNotFound)
		}
		out = sess.result(index, true)
		return nil
	})
	return out, err
}

// TableOp applies the named table operation at anchor. An anchor outside
// any table reports Changed false.
func (s *Service) TableOp(ctx context.Context, name, op string, anchor []int) (*Result, error) {
	fn, ok := editor.TableOps[op]
	if !ok {
		return nil, fmt.Errorf("table operation %q: %w", op, apperr.ErrInvalidInput)
	}
	if len(anchor) == 0 {
		return nil, fmt.Errorf("table anchor: %w", apperr.ErrInvalidInput)
	}
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		changed, err := sess.ed.ApplyTable(fn, document.Path(anchor))
		if err != nil {
			return err
		}
		out = sess.result(anchor[0], changed)
		return nil
	})
	return out, err
}

// SetMode switches the session between visual and source views.
func (s *Service) SetMode(ctx context.Context, name string, m editor.ViewMode) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		before := sess.ed.Mode()
		if err := sess.ed.SetMode(m); err != nil {
			return err
		}
		out = sess.result(-1, before != m)
		return nil
	})
	return out, err
}

// SetDraft replaces the source-view text. A non-empty ifMatch must equal
// the checksum of the canonical source.
func (s *Service) SetDraft(ctx context.Context, name, draft, ifMatch string) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		if !checksum.Match(ifMatch, []byte(sess.ed.Source())) {
			return apperr.ErrConflict
		}
		if err := sess.ed.SetDraft(draft); err != nil {
			return err
		}
		out = sess.result(-1, true)
		return nil
	})
	return out, err
}

// ImportMarkdown appends the blocks converted from md.
func (s *Service) ImportMarkdown(ctx context.Context, name string, md []byte) (*Result, error) {
	var out *Result
	err := s.withSession(ctx, name, func(sess *session) error {
		start := sess.ed.Document().Len()
		n, err := sess.ed.ImportMarkdown(md)
		if err != nil {
			return err
		}
		out = sess.result(start, n > 0)
		out.Count = n
		return nil
	})
	return out, err
}

// BeginResize starts dragging the image at root index. Only one drag is
// active across all documents; a drag in another document is ended
// first. A root that is not a resizable image yields a nil Session.
func (s *Service) BeginResize(ctx context.Context, name string, index int, p resize.Point) (*ResizeResult, error) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()

	if s.dragOwner != "" && s.dragOwner != name {
		s.endDrag(s.dragOwner)
		s.dragOwner = ""
	}
	var out *ResizeResult
	err := s.withSession(ctx, name, func(sess *session) error {
		rs, err := sess.ed.BeginResize(index, p)
		if err != nil {
			return err
		}
		out = &ResizeResult{Result: *sess.result(index, false), Session: rs}
		if rs != nil {
			size := rs.Current
			out.Size = &size
		}
		return nil
	})
	if err == nil && out.Session != nil {
		s.dragOwner = name
	}
	return out, err
}

// MoveResize applies pointer p to the active drag of name. Changed
// reports whether the size moved.
func (s *Service) MoveResize(ctx context.Context, name string, p resize.Point) (*ResizeResult, error) {
	var out *ResizeResult
	err := s.withSession(ctx, name, func(sess *session) error {
		size, ok, err := sess.ed.MoveResize(p)
		if err != nil {
			return err
		}
		out = &ResizeResult{Result: *sess.result(-1, ok), Session: sess.ed.ActiveResize()}
		if out.Session != nil {
			out.Size = &size
		}
		return nil
	})
	return out, err
}

// EndResize releases the drag of name and persists the final size.
func (s *Service) EndResize(ctx context.Context, name string) (*ResizeResult, error) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()

	var out *ResizeResult
	err := s.withSession(ctx, name, func(sess *session) error {
		ended := sess.ed.EndResize()
		out = &ResizeResult{Result: *sess.result(-1, ended)}
		return nil
	})
	if s.dragOwner == name {
		s.dragOwner = ""
	}
	return out, err
}

// endDrag ends the drag of an open session without loading closed ones.
// Callers hold dragMu.
func (s *Service) endDrag(name string) {
	s.mu.Lock()
	sess, ok := s.sessions[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	if sess.ed.EndResize() {
		s.logger.Debug("resize ended by another drag", slog.String("name", name))
	}
	if err := sess.takeErr(); err != nil {
		s.logger.Warn("persist ended drag", slog.String("name", name), slog.String("error", err.Error()))
	}
}
