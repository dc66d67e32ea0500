package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/document"
	"github.com/starford/blockpress/internal/resize"
	"github.com/starford/blockpress/internal/table"
)

type recorder struct {
	values []string
}

func (r *recorder) SetValue(src string) { r.values = append(r.values, src) }

func (r *recorder) last() string {
	if len(r.values) == 0 {
		return ""
	}
	return r.values[len(r.values)-1]
}

func pngPicker(t *testing.T, w, h int) block.Picker {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	data := buf.Bytes()
	return block.PickerFunc(func(context.Context, string) (*block.Selection, error) {
		return &block.Selection{Name: "pic.png", Body: bytes.NewReader(data)}, nil
	})
}

func TestNew_InitialValueIsFirstSource(t *testing.T) {
	rec := &recorder{}
	initial := "<p>hello</p>   <p>world</p>"
	e := New(initial, rec)

	assert.Equal(t, initial, e.Source())
	assert.Empty(t, rec.values)
	assert.Equal(t, 2, e.Document().Len())
	assert.Equal(t, ModeVisual, e.Mode())
}

func TestScenario(t *testing.T) {
	rec := &recorder{}
	e := New("", rec)

	_, err := e.Insert(block.TypeParagraph)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(rec.last(), "\n"))
	assert.True(t, strings.HasPrefix(rec.last(), "<p "))
	assert.Contains(t, rec.last(), "New P")

	idx, err := e.Insert(block.TypeTable)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, rec.last(), "<table ")

	ok, err := e.AddRow(document.Path{1, 0, 0, 0})
	require.NoError(t, err)
	require.True(t, ok)
	rows := table.Rows(e.Document().At(1))
	require.Len(t, rows, 2)
	assert.Len(t, table.Cells(rows[1]), len(table.Cells(rows[0])))
	for _, c := range table.Cells(rows[1]) {
		assert.Equal(t, block.Blank, c.Text())
	}

	ok, err = e.DeleteColumn(document.Path{1, 0, 0, 0})
	require.NoError(t, err)
	require.True(t, ok)
	for _, r := range table.Rows(e.Document().At(1)) {
		assert.Len(t, table.Cells(r), 1)
	}
	assert.Equal(t, e.Source(), rec.last())
	assert.NotContains(t, e.Source(), "Cell 1")
}

func TestInsertThenDelete(t *testing.T) {
	e := New("", nil)
	_, _ = e.Insert(block.TypeParagraph, block.WithText("one"))
	_, _ = e.Insert(block.TypeHeading2, block.WithText("two"))

	ok, err := e.Delete(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, e.Document().Len())
	assert.Equal(t, "two", e.Document().At(0).Text())

	ok, err = e.Delete(7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableOpOutsideTableLeavesSource(t *testing.T) {
	rec := &recorder{}
	e := New("", rec)
	_, _ = e.Insert(block.TypeParagraph)
	pushes := len(rec.values)

	ok, err := e.AddRow(document.Path{0, 0})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, rec.values, pushes)
}

func TestSourceModeRejectsMutations(t *testing.T) {
	e := New("<p>a</p>\n", nil)
	require.NoError(t, e.SetMode(ModeSource))
	assert.Equal(t, "<p>a</p>\n", e.Draft())

	_, err := e.Insert(block.TypeParagraph)
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	_, err = e.Delete(0)
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	_, err = e.AddRow(document.Path{0})
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	_, err = e.InsertImage(context.Background(), pngPicker(t, 4, 4))
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	_, err = e.BeginResize(0, resize.Point{})
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	_, err = e.ImportMarkdown([]byte("# x"))
	assert.ErrorIs(t, err, apperr.ErrSourceMode)
	assert.Equal(t, 1, e.Document().Len())
}

func TestSetDraftRequiresSourceMode(t *testing.T) {
	e := New("", nil)
	assert.ErrorIs(t, e.SetDraft("<p>x</p>"), apperr.ErrVisualMode)
	assert.ErrorIs(t, e.SetMode("split"), apperr.ErrInvalidInput)
}

func TestSourceCommitNormalizes(t *testing.T) {
	rec := &recorder{}
	e := New("", rec)
	require.NoError(t, e.SetMode(ModeSource))
	require.NoError(t, e.SetDraft("stray <p>one</p>\n\n  <h2 class=\"x\">two</h2><!-- gone -->"))
	require.NoError(t, e.SetMode(ModeVisual))

	want := "<p>one</p>\n<h2 class=\"x\">two</h2>\n"
	assert.Equal(t, want, e.Source())
	assert.Equal(t, want, rec.last())
	assert.Empty(t, e.Draft())
	assert.Equal(t, 2, e.Document().Len())
}

func TestInsertImageCancelled(t *testing.T) {
	rec := &recorder{}
	e := New("", rec)
	cancel := block.PickerFunc(func(context.Context, string) (*block.Selection, error) { return nil, nil })

	idx, err := e.InsertImage(context.Background(), cancel)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
	assert.Empty(t, rec.values)
}

func TestResizeFlow(t *testing.T) {
	rec := &recorder{}
	e := New("", rec)
	idx, err := e.InsertImage(context.Background(), pngPicker(t, 600, 300))
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	assert.Contains(t, e.Source(), "width: 300px; height: 150px;")

	s, err := e.BeginResize(idx, resize.Point{X: 10, Y: 10})
	require.NoError(t, err)
	require.NotNil(t, s)
	pushes := len(rec.values)

	size, ok, err := e.MoveResize(resize.Point{X: 110, Y: 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resize.Size{W: 400, H: 200}, size)
	assert.Len(t, rec.values, pushes)

	// Below the floor: previous size kept.
	_, ok, _ = e.MoveResize(resize.Point{X: -300})
	assert.False(t, ok)

	assert.True(t, e.EndResize())
	assert.False(t, e.EndResize())
	assert.Len(t, rec.values, pushes+1)
	assert.Contains(t, e.Source(), "width: 400px; height: 200px;")
}

func TestResizeWebP(t *testing.T) {
	// 1x1 lossless WebP.
	data, err := base64.StdEncoding.DecodeString("UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA==")
	require.NoError(t, err)
	picker := block.PickerFunc(func(context.Context, string) (*block.Selection, error) {
		return &block.Selection{Name: "pic.webp", Body: bytes.NewReader(data)}, nil
	})

	e := New("", nil)
	idx, err := e.InsertImage(context.Background(), picker)
	require.NoError(t, err)

	s, err := e.BeginResize(idx, resize.Point{})
	require.NoError(t, err)
	require.NotNil(t, s)
	size, ok, err := e.MoveResize(resize.Point{X: 99})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resize.Size{W: 100, H: 100}, size)
	assert.True(t, e.EndResize())
	assert.Contains(t, e.Source(), "width: 100px; height: 100px;")
}

func TestBeginResizeOnNonImage(t *testing.T) {
	e := New("", nil)
	_, _ = e.Insert(block.TypeParagraph)
	s, err := e.BeginResize(0, resize.Point{})
	require.NoError(t, err)
	assert.Nil(t, s)
	s, err = e.BeginResize(4, resize.Point{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSourceModeEndsDrag(t *testing.T) {
	e := New("", nil)
	idx, _ := e.InsertImage(context.Background(), pngPicker(t, 100, 100))
	_, _ = e.BeginResize(idx, resize.Point{})
	require.NotNil(t, e.ActiveResize())

	require.NoError(t, e.SetMode(ModeSource))
	assert.Nil(t, e.ActiveResize())
}

func TestImportMarkdown(t *testing.T) {
	e := New("<p>existing</p>\n", nil)
	n, err := e.ImportMarkdown([]byte("## Heading\n\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Equal(t, 3, e.Document().Len())
	assert.Equal(t, block.TypeHeading2, e.Document().At(1).Type())
	assert.Contains(t, e.Source(), `data-block-type="h2"`)
}

func TestBlocks(t *testing.T) {
	e := New("<p>plain</p>\n", nil)
	_, _ = e.Insert(block.TypeQuote)
	views := e.Blocks()
	require.Len(t, views, 2)
	assert.False(t, views[0].Deletable)
	assert.Equal(t, "blockquote", views[1].Type)
	assert.True(t, views[1].Deletable)
	assert.Equal(t, "Sample quote", views[1].Text)
}
