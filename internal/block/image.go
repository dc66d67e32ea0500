package block

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"  // register decoder for natural size
	_ "image/jpeg" // register decoder for natural size
	_ "image/png"  // register decoder for natural size
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // register decoder for natural size
	_ "golang.org/x/image/webp" // register decoder for natural size
)

// ImageAccept is the selection filter offered to pickers. It is a hint only;
// the picked content type is not re-validated.
const ImageAccept = "image/*"

// Natural (unscaled) image size, recorded at insertion time.
const (
	NaturalWidthAttr  = "data-natural-width"
	NaturalHeightAttr = "data-natural-height"
)

// Selection is a file chosen through a Picker.
type Selection struct {
	Name string
	Body io.Reader
}

// Picker is the file-selection surface. Pick blocks until the user chooses
// a file or declines; a nil Selection with a nil error means cancelled.
type Picker interface {
	Pick(ctx context.Context, accept string) (*Selection, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context, accept string) (*Selection, error)

// Pick implements Picker.
func (f PickerFunc) Pick(ctx context.Context, accept string) (*Selection, error) {
	return f(ctx, accept)
}

// CreateImage runs the interactive image flow: pick a file, read it, encode
// it as a data URI and build the img block. A cancelled pick or a failed read
// yields a nil node and a nil error. Only context cancellation is reported.
func (f *Factory) CreateImage(ctx context.Context, p Picker) (*Node, error) {
	sel, err := p.Pick(ctx, ImageAccept)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		f.logger.Debug("image pick failed", slog.String("error", err.Error()))
		return nil, nil
	}
	if sel == nil || sel.Body == nil {
		f.logger.Debug("image pick cancelled")
		return nil, nil
	}
	data, err := io.ReadAll(sel.Body)
	if err != nil {
		f.logger.Debug("image read failed", slog.String("name", sel.Name), slog.String("error", err.Error()))
		return nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return f.ImageFromBytes(data), nil
}

// ImageFromBytes builds an img block for already-loaded image bytes.
func (f *Factory) ImageFromBytes(data []byte) *Node {
	n := f.Create(TypeImage, WithSource(DataURI(data)))
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		// SVG and other undecodable formats: no natural size, no display size.
		return n
	}
	nw, nh := float64(cfg.Width), float64(cfg.Height)
	w := nw
	if w > f.imageWidth {
		w = f.imageWidth
	}
	h := w * (nh / nw)
	n.SetAttr("style", "width: "+FormatPx(w)+"; height: "+FormatPx(h)+";")
	n.SetAttr(NaturalWidthAttr, strconv.Itoa(cfg.Width))
	n.SetAttr(NaturalHeightAttr, strconv.Itoa(cfg.Height))
	return n
}

// DataURI encodes data as a self-contained base64 data URI using the
// sniffed media type.
func DataURI(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FormatPx renders a CSS pixel length without trailing zeros.
func FormatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
