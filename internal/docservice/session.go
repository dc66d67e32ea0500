package docservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/blockpress/internal/checksum"
	"github.com/starford/blockpress/internal/editor"
	"github.com/starford/blockpress/internal/markup"
)

// session is one live editor over a document file. All access goes
// through sess.mu.
type session struct {
	mu        sync.Mutex
	svc       *Service
	name      string
	ed        *editor.Editor
	persisted string
	updatedAt time.Time
	closed    bool
	err       error
}

// SetValue is the editor surface: it writes the canonical source to the
// document file and re-indexes it. Unchanged sources are not rewritten.
func (sess *session) SetValue(src string) {
	if sess.closed {
		return
	}
	sum := checksum.Source(src)
	if sum == sess.persisted {
		return
	}
	if err := sess.svc.persist(sess.name, src); err != nil {
		sess.svc.logger.Error("persist document",
			slog.String("name", sess.name),
			slog.String("error", err.Error()),
		)
		sess.err = err
		return
	}
	sess.persisted = sum
	sess.updatedAt = time.Now().UTC()
	sess.svc.notify("updated", sess.name)
}

func (sess *session) takeErr() error {
	err := sess.err
	sess.err = nil
	return err
}

func (sess *session) detail() *DocumentDetail {
	src := sess.ed.Source()
	sum := markup.Summarize(src)
	return &DocumentDetail{
		Name:       sess.name,
		Title:      sum.Title,
		Source:     src,
		Checksum:   checksum.Source(src),
		Mode:       sess.ed.Mode(),
		Draft:      sess.ed.Draft(),
		Blocks:     sess.ed.Blocks(),
		BlockTypes: sum.Types,
		Resizing:   sess.ed.ActiveResize() != nil,
		UpdatedAt:  sess.updatedAt,
	}
}

// open returns the live session for name, loading the file on first use.
func (s *Service) open(name string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}
	updated := time.Now().UTC()
	if row, err := s.db.GetDocument(name); err == nil {
		updated = row.UpdatedAt
	}
	sess := &session{
		svc:       s,
		name:      name,
		persisted: checksum.Sum(data),
		updatedAt: updated,
	}
	sess.ed = editor.New(string(data), sess,
		editor.WithFactory(s.factory),
		editor.WithMinImageSize(s.minImage),
		editor.WithLogger(s.logger.With(slog.String("document", name))),
	)
	s.sessions[name] = sess
	s.logger.Debug("session opened", slog.String("name", name))
	return sess, nil
}

// withSession runs fn under the session lock of name. A persistence
// failure raised by the surface during fn is returned as fn's error.
func (s *Service) withSession(ctx context.Context, name string, fn func(*session) error) error {
	if err := checkName(name); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess, err := s.open(name)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.closed {
			// Dropped between open and lock; load again.
			sess.mu.Unlock()
			continue
		}
		err = fn(sess)
		if perr := sess.takeErr(); err == nil {
			err = perr
		}
		sess.mu.Unlock()
		return err
	}
}

// drop closes the session of name, if any. Pending drags are discarded
// without being written.
func (s *Service) drop(name string) {
	s.mu.Lock()
	sess, ok := s.sessions[name]
	delete(s.sessions, name)
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
}
