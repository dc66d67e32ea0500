package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/editor"
)

// InsertBlock handles POST /api/documents/{name}/blocks.
//
//	@Summary		Append a block from the catalog
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Document name"
//	@Param			body	body		InsertBlockRequest	true	"Block to insert"
//	@Success		201		{object}	EditResult
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse	"Document is in source mode"
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks [post]
func (h *Handler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req InsertBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var opts []block.Option
	if req.Text != "" {
		opts = append(opts, block.WithText(req.Text))
	}
	if req.Source != "" {
		opts = append(opts, block.WithSource(req.Source))
	}
	res, err := h.svc.Insert(r.Context(), name, block.Type(req.Type), opts...)
	if err != nil {
		writeError(w, "insert block", err, slog.String("name", name), slog.String("type", req.Type))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// DeleteBlock handles DELETE /api/documents/{name}/blocks/{index}.
//
//	@Summary		Delete a root block by index
//	@Tags			blocks
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Param			index	path		int		true	"Root block index"
//	@Success		200		{object}	EditResult
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks/{index} [delete]
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	res, err := h.svc.DeleteBlock(r.Context(), name, index)
	if err != nil {
		writeError(w, "delete block", err, slog.String("name", name), slog.Int("index", index))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// InsertTable handles POST /api/documents/{name}/tables.
//
//	@Summary		Append a table of blank cells
//	@Tags			tables
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Document name"
//	@Param			body	body		InsertTableRequest	true	"Table size"
//	@Success		201		{object}	EditResult
//	@Security		BearerAuth
//	@Router			/documents/{name}/tables [post]
func (h *Handler) InsertTable(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req InsertTableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.InsertTable(r.Context(), name, req.Rows, req.Cols)
	if err != nil {
		writeError(w, "insert table", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// TableOp handles POST /api/documents/{name}/tables/{op}.
//
//	@Summary		Edit the rows or columns of a table
//	@Tags			tables
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Document name"
//	@Param			op		path		string			true	"Operation"	Enums(add-row, add-column, delete-row, delete-column)
//	@Param			body	body		TableOpRequest	true	"Anchor path"
//	@Success		200		{object}	EditResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/tables/{op} [post]
func (h *Handler) TableOp(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	op := chi.URLParam(r, "op")
	var req TableOpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.TableOp(r.Context(), name, op, req.Anchor)
	if err != nil {
		writeError(w, "table op", err, slog.String("name", name), slog.String("op", op))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Resize handles POST /api/documents/{name}/resize/{phase}.
//
//	@Summary		Drive an image resize drag
//	@Description	begin selects the image by index and records the pointer; move updates the size
//	@Description	in memory; end persists the final size.
//	@Tags			resize
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Document name"
//	@Param			phase	path		string			true	"Drag phase"	Enums(begin, move, end)
//	@Param			body	body		ResizeRequest	false	"Pointer position"
//	@Success		200		{object}	ResizeResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/resize/{phase} [post]
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	phase := chi.URLParam(r, "phase")

	var (
		res *ResizeResult
		err error
		req ResizeRequest
	)
	switch phase {
	case "begin":
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err = h.svc.BeginResize(r.Context(), name, req.Index, req.point())
	case "move":
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err = h.svc.MoveResize(r.Context(), name, req.point())
	case "end":
		res, err = h.svc.EndResize(r.Context(), name)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("phase must be begin, move or end"))
		return
	}
	if err != nil {
		writeError(w, "resize "+phase, err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetMode handles PUT /api/documents/{name}/mode.
//
//	@Summary		Switch between the visual and source views
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string		true	"Document name"
//	@Param			body	body		ModeRequest	true	"Target mode"
//	@Success		200		{object}	EditResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/mode [put]
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req ModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SetMode(r.Context(), name, editor.ViewMode(req.Mode))
	if err != nil {
		writeError(w, "set mode", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetDraft handles PUT /api/documents/{name}/draft.
//
//	@Summary		Replace the source-view draft
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string			true	"Document name"
//	@Param			If-Match	header		string			false	"Checksum of the canonical source"
//	@Param			body		body		DraftRequest	true	"Draft text"
//	@Success		200			{object}	EditResult
//	@Failure		409			{object}	errResponse	"Checksum mismatch or visual mode"
//	@Security		BearerAuth
//	@Router			/documents/{name}/draft [put]
func (h *Handler) SetDraft(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SetDraft(r.Context(), name, req.Draft, ifMatch(r))
	if err != nil {
		writeError(w, "set draft", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ImportMarkdown handles POST /api/documents/{name}/markdown.
//
//	@Summary		Append blocks converted from Markdown
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Document name"
//	@Param			body	body		MarkdownRequest	true	"Markdown text"
//	@Success		201		{object}	EditResult
//	@Security		BearerAuth
//	@Router			/documents/{name}/markdown [post]
func (h *Handler) ImportMarkdown(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req MarkdownRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Markdown == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("markdown is required"))
		return
	}
	res, err := h.svc.ImportMarkdown(r.Context(), name, []byte(req.Markdown))
	if err != nil {
		writeError(w, "import markdown", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
