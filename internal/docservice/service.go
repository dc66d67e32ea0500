// Package docservice coordinates document storage, the index and live
// editor sessions.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/checksum"
	"github.com/starford/blockpress/internal/editor"
	"github.com/starford/blockpress/internal/index"
	"github.com/starford/blockpress/internal/markup"
	"github.com/starford/blockpress/internal/models"
	"github.com/starford/blockpress/internal/storage"
)

// DocumentDetail is the full representation of a document and its session.
type DocumentDetail struct {
	Name       string             `json:"name"`
	Title      string             `json:"title"`
	Source     string             `json:"source"`
	Checksum   string             `json:"checksum"`
	Mode       editor.ViewMode    `json:"mode"`
	Draft      string             `json:"draft,omitempty"`
	Blocks     []editor.BlockView `json:"blocks"`
	BlockTypes map[string]int     `json:"block_types"`
	Resizing   bool               `json:"resizing"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Notifier is told about document changes; kind is "created", "updated"
// or "deleted".
type Notifier func(kind, name string)

// Service coordinates storage, index and editor sessions.
type Service struct {
	store    storage.Provider
	db       *index.DB
	factory  *block.Factory
	minImage float64
	notify   Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	// One drag at a time across all documents.
	dragMu    sync.Mutex
	dragOwner string
}

// Option configures a Service.
type Option func(*Service)

// WithFactory sets the block factory used by every session.
func WithFactory(f *block.Factory) Option {
	return func(s *Service) { s.factory = f }
}

// WithMinImageSize sets the resize floor used by every session.
func WithMinImageSize(v float64) Option {
	return func(s *Service) { s.minImage = v }
}

// WithNotifier registers a change callback, e.g. the SSE broker.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new document service.
func NewService(store storage.Provider, db *index.DB, opts ...Option) *Service {
	s := &Service{
		store:    store,
		db:       db,
		logger:   slog.Default(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = block.NewFactory(block.WithLogger(s.logger))
	}
	if s.notify == nil {
		s.notify = func(string, string) {}
	}
	return s
}

// Catalog returns the block catalog grouped by category.
func (s *Service) Catalog() []block.Group {
	return s.factory.Registry().Groups()
}

// ValidName reports whether name can address a document: non-empty,
// relative, without traversal or the document extension.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasSuffix(name, storage.Ext) || strings.Contains(name, "\\") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("document name %q: %w", name, apperr.ErrInvalidInput)
	}
	return nil
}

func (s *Service) read(name string) ([]byte, error) {
	data, err := s.store.Read(storage.PathFor(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// persist writes src as the document file and re-indexes it.
func (s *Service) persist(name, src string) error {
	data := []byte(src)
	if err := s.store.Write(storage.PathFor(name), data); err != nil {
		return err
	}
	if err := index.IndexDocument(s.db, name, data, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// List returns a page of indexed documents, optionally only those
// containing blockType.
func (s *Service) List(_ context.Context, limit, offset int, blockType, sort string) ([]models.DocumentMetadata, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, blockType, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.DocumentMetadata, len(rows))
	for i, r := range rows {
		items[i] = models.DocumentMetadata{
			Name:       r.Name,
			Title:      r.Title,
			Checksum:   r.Checksum,
			Blocks:     r.Blocks,
			BlockTypes: r.Types,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Get opens the document's session and describes it.
func (s *Service) Get(ctx context.Context, name string) (*DocumentDetail, error) {
	var out *DocumentDetail
	err := s.withSession(ctx, name, func(sess *session) error {
		out = sess.detail()
		return nil
	})
	return out, err
}

// Create writes a new document. The initial source is normalized to the
// canonical form before it is stored.
func (s *Service) Create(ctx context.Context, name, src string) (*DocumentDetail, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(storage.PathFor(name)); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.persist(name, markup.Normalize(src)); err != nil {
		return nil, err
	}
	s.logger.Info("document created", slog.String("name", name))
	s.notify("created", name)
	return s.Get(ctx, name)
}

// Replace overwrites a document's source with optimistic concurrency: a
// non-empty ifMatch must equal the checksum of the current source. The
// live session is discarded and reopened from the new source.
func (s *Service) Replace(ctx context.Context, name, src, ifMatch string) (*DocumentDetail, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	existing, err := s.read(name)
	if err != nil {
		return nil, err
	}
	if !checksum.Match(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}
	s.drop(name)
	if err := s.persist(name, markup.Normalize(src)); err != nil {
		return nil, err
	}
	s.notify("updated", name)
	return s.Get(ctx, name)
}

// Delete removes a document from storage and index and closes its session.
func (s *Service) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.drop(name)
	if err := s.store.Delete(storage.PathFor(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDocument(name); err != nil {
		return err
	}
	s.notify("deleted", name)
	return nil
}

// Rename moves a document to a new name. The session of the old name is
// closed; the next access under the new name opens a fresh one.
func (s *Service) Rename(ctx context.Context, from, to string) (*DocumentDetail, error) {
	if err := checkName(from); err != nil {
		return nil, err
	}
	if err := checkName(to); err != nil {
		return nil, err
	}
	if _, err := s.read(from); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(storage.PathFor(to)); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	s.drop(from)
	if err := s.store.Move(storage.PathFor(from), storage.PathFor(to)); err != nil {
		return nil, err
	}
	if err := s.db.DeleteDocument(from); err != nil {
		return nil, err
	}
	data, err := s.read(to)
	if err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, to, data, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.notify("deleted", from)
	s.notify("created", to)
	return s.Get(ctx, to)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	hits, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = models.SearchResult{Name: h.Name, Title: h.Title, Snippet: h.Snippet}
	}
	return out, nil
}

// BlockTypeUsage returns block counts per type across all documents.
func (s *Service) BlockTypeUsage(_ context.Context) (map[string]int, error) {
	return s.db.BlockTypeUsage()
}

// Invalidate reacts to an external change of a document file. The live
// session is dropped when the file no longer holds the session's source,
// so the next access reloads it; the service's own writes leave the
// session alone.
func (s *Service) Invalidate(name string) {
	s.mu.Lock()
	sess, ok := s.sessions[name]
	s.mu.Unlock()
	if !ok {
		return
	}

	data, err := s.read(name)
	sess.mu.Lock()
	stale := err != nil || checksum.Sum(data) != checksum.Source(sess.ed.Source())
	sess.mu.Unlock()
	if !stale {
		return
	}
	s.drop(name)
	s.logger.Debug("session invalidated", slog.String("name", name))
}

// Sessions returns the number of open editor sessions.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
