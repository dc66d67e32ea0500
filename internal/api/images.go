package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/docservice"
)

const defaultMaxUpload = 10 << 20 // 10 MB

// ImageHandler accepts image uploads and inserts them as image blocks.
type ImageHandler struct {
	svc       *docservice.Service
	maxUpload int64
}

// NewImageHandler creates a handler capping uploads at maxUpload bytes.
func NewImageHandler(svc *docservice.Service, maxUpload int64) *ImageHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &ImageHandler{svc: svc, maxUpload: maxUpload}
}

// uploadPicker hands an already received file to the image flow.
func uploadPicker(filename string, data []byte) block.Picker {
	return block.PickerFunc(func(context.Context, string) (*block.Selection, error) {
		return &block.Selection{Name: filename, Body: bytes.NewReader(data)}, nil
	})
}

// Upload handles POST /api/documents/{name}/images (multipart/form-data, field "file").
//
//	@Summary		Insert an uploaded image
//	@Description	A request without a file is a cancelled pick and changes nothing.
//	@Tags			blocks
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Param			file	formData	file	false	"Image file"
//	@Success		201		{object}	EditResult
//	@Success		204		"Cancelled or unreadable image"
//	@Failure		413		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/images [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
		return
	}

	res, err := h.svc.InsertImage(r.Context(), name, uploadPicker(header.Filename, data))
	if err != nil {
		writeError(w, "insert image", err, slog.String("name", name), slog.String("file", header.Filename))
		return
	}
	if !res.Changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
