package editor

import (
	"log/slog"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/markup"
)

// SetMode switches views. Entering source mode ends any drag and seeds the
// draft with the canonical source. Returning to visual mode rebuilds the
// document from the draft and normalizes it by serializing again. Setting
// the current mode is a no-op.
func (e *Editor) SetMode(m ViewMode) error {
	if !m.Valid() {
		return apperr.ErrInvalidInput
	}
	if m == e.mode {
		return nil
	}
	switch m {
	case ModeSource:
		e.tracker.End()
		e.sync()
		e.draft = e.source
	case ModeVisual:
		e.doc.Replace(markup.FromSource(e.draft).Roots())
		e.draft = ""
		e.sync()
	}
	e.logger.Debug("editor mode changed", slog.String("mode", string(m)))
	e.mode = m
	return nil
}

// SetDraft replaces the source-view text. It is only accepted in source
// mode; nothing is parsed until the switch back to visual.
func (e *Editor) SetDraft(src string) error {
	if e.mode != ModeSource {
		return apperr.ErrVisualMode
	}
	e.draft = src
	return nil
}
