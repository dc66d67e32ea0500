// Package editor ties a document, its canonical source and the output
// surface together. An Editor is one editing session; it is not safe for
// concurrent use and callers serialize gestures.
package editor

import (
	"context"
	"log/slog"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/document"
	"github.com/starford/blockpress/internal/markdown"
	"github.com/starford/blockpress/internal/markup"
	"github.com/starford/blockpress/internal/resize"
	"github.com/starford/blockpress/internal/table"
)

// ViewMode selects which view owns the content.
type ViewMode string

const (
	ModeVisual ViewMode = "visual"
	ModeSource ViewMode = "source"
)

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	return m == ModeVisual || m == ModeSource
}

// Surface receives the canonical source after every change.
type Surface interface {
	SetValue(src string)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(src string)

// SetValue implements Surface.
func (f SurfaceFunc) SetValue(src string) { f(src) }

// Editor is one editing session over a document.
type Editor struct {
	doc     *document.Document
	source  string
	mode    ViewMode
	draft   string
	surface Surface

	factory  *block.Factory
	importer *markdown.Importer
	tracker  *resize.Tracker
	minSize  float64
	logger   *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithFactory sets the block factory.
func WithFactory(f *block.Factory) Option {
	return func(e *Editor) { e.factory = f }
}

// WithMinImageSize overrides the resize floor.
func WithMinImageSize(v float64) Option {
	return func(e *Editor) {
		if v > 0 {
			e.minSize = v
		}
	}
}

// WithLogger sets the editor logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New starts a session in visual mode. initial is read once and taken as
// the first canonical source as-is; it is not pushed to the surface.
func New(initial string, surface Surface, opts ...Option) *Editor {
	e := &Editor{
		source:  initial,
		mode:    ModeVisual,
		surface: surface,
		minSize: resize.MinSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = block.NewFactory(block.WithLogger(e.logger))
	}
	e.tracker = &resize.Tracker{}
	if e.surface == nil {
		e.surface = SurfaceFunc(func(string) {})
	}
	e.importer = markdown.New(e.factory)
	e.doc = markup.FromSource(initial)
	return e
}

// Source returns the current canonical source.
func (e *Editor) Source() string { return e.source }

// Mode returns the active view mode.
func (e *Editor) Mode() ViewMode { return e.mode }

// Draft returns the source-view text. It is empty in visual mode.
func (e *Editor) Draft() string { return e.draft }

// Document exposes the tree for reading.
func (e *Editor) Document() *document.Document { return e.doc }

// Factory returns the block factory.
func (e *Editor) Factory() *block.Factory { return e.factory }

func (e *Editor) guard() error {
	if e.mode == ModeSource {
		return apperr.ErrSourceMode
	}
	return nil
}

func (e *Editor) sync() {
	e.source = markup.ToSource(e.doc)
	e.surface.SetValue(e.source)
}

// Insert appends a new block of type t and returns its root index.
func (e *Editor) Insert(t block.Type, opts ...block.Option) (int, error) {
	if err := e.guard(); err != nil {
		return -1, err
	}
	return e.append(e.factory.Create(t, opts...)), nil
}

func (e *Editor) append(n *block.Node) int {
	i := e.doc.Append(n)
	e.sync()
	return i
}

// InsertImage runs the image flow with p and appends the result. It
// returns -1 and no error when the pick is cancelled or unreadable.
func (e *Editor) InsertImage(ctx context.Context, p block.Picker) (int, error) {
	if err := e.guard(); err != nil {
		return -1, err
	}
	n, err := e.factory.CreateImage(ctx, p)
	if err != nil {
		return -1, err
	}
	if n == nil {
		return -1, nil
	}
	if err := e.guard(); err != nil {
		return -1, err
	}
	return e.append(n), nil
}

// InsertTable appends a rows×cols table of blank cells.
func (e *Editor) InsertTable(rows, cols int) (int, error) {
	if err := e.guard(); err != nil {
		return -1, err
	}
	return e.append(table.Insert(e.factory, rows, cols)), nil
}

// Delete removes the root block at index and reports whether it existed.
func (e *Editor) Delete(index int) (bool, error) {
	if err := e.guard(); err != nil {
		return false, err
	}
	n := e.doc.At(index)
	if n == nil {
		return false, nil
	}
	if c := e.tracker.Active(); c != nil && c.Node() == n {
		e.tracker.End()
	}
	e.doc.Remove(index)
	e.sync()
	return true, nil
}

// TableOp is a positional table edit.
type TableOp func(d *document.Document, p document.Path) bool

// Table operations by name, as used by the HTTP and MCP surfaces.
var TableOps = map[string]TableOp{
	"add-row":       table.AddRow,
	"add-column":    table.AddColumn,
	"delete-row":    table.DeleteRow,
	"delete-column": table.DeleteColumn,
}

// ApplyTable runs op at anchor. It reports false, leaving the source
// untouched, when the anchor is not inside a table.
func (e *Editor) ApplyTable(op TableOp, anchor document.Path) (bool, error) {
	if err := e.guard(); err != nil {
		return false, err
	}
	if !op(e.doc, anchor) {
		e.logger.Debug("table op outside table", slog.Any("anchor", []int(anchor)))
		return false, nil
	}
	e.sync()
	return true, nil
}

// AddRow inserts a blank row after the anchor's row.
func (e *Editor) AddRow(anchor document.Path) (bool, error) {
	return e.ApplyTable(table.AddRow, anchor)
}

// AddColumn inserts a blank column after the anchor's column.
func (e *Editor) AddColumn(anchor document.Path) (bool, error) {
	return e.ApplyTable(table.AddColumn, anchor)
}

// DeleteRow removes the anchor's row, or the table with its last row.
func (e *Editor) DeleteRow(anchor document.Path) (bool, error) {
	return e.ApplyTable(table.DeleteRow, anchor)
}

// DeleteColumn removes the anchor's column.
func (e *Editor) DeleteColumn(anchor document.Path) (bool, error) {
	return e.ApplyTable(table.DeleteColumn, anchor)
}

// ImportMarkdown appends the blocks of md and returns how many were added.
func (e *Editor) ImportMarkdown(md []byte) (int, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	blocks, err := e.importer.Blocks(md)
	if err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, nil
	}
	for _, n := range blocks {
		e.doc.Append(n)
	}
	e.sync()
	return len(blocks), nil
}
