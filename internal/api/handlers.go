package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpress/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentName extracts the document name from the URL. Supports encoded
// slashes from OpenAPI clients (e.g. guides%2Fintro).
func documentName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Catalog handles GET /api/catalog.
//
//	@Summary		List block types grouped by category
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	CatalogResponse
//	@Security		BearerAuth
//	@Router			/catalog [get]
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	usage, err := h.svc.BlockTypeUsage(r.Context())
	if err != nil {
		writeError(w, "block type usage", err)
		return
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Groups: h.svc.Catalog(), Usage: usage})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and filtering
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			type	query		string	false	"Only documents containing this block type"
//	@Param			sort	query		string	false	"Sort field"	Enums(name, title, updated)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset, q.Get("type"), q.Get("sort"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/{name}.
//
//	@Summary		Get a document with its blocks and editor state
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	doc, err := h.svc.Get(r.Context(), name)
	if err != nil {
		writeError(w, "get document", err, slog.String("name", name))
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Name, req.Source)
	if err != nil {
		writeError(w, "create document", err, slog.String("name", req.Name))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ReplaceDocument handles PUT /api/documents/{name}.
//
//	@Summary		Replace a document's source with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string					true	"Document name"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		ReplaceDocumentRequest	true	"New source"
//	@Success		200			{object}	DocumentDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [put]
func (h *Handler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req ReplaceDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := h.svc.Replace(r.Context(), name, req.Source, ifMatch(r))
	if err != nil {
		writeError(w, "replace document", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{name}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			name	path	string	true	"Document name"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	if err := h.svc.Delete(r.Context(), name); err != nil {
		writeError(w, "delete document", err, slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameDocument handles POST /api/documents/{name}/rename.
//
//	@Summary		Move a document to a new name
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Document name"
//	@Param			body	body		RenameDocumentRequest	true	"Target name"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/rename [post]
func (h *Handler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	var req RenameDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := h.svc.Rename(r.Context(), name, req.To)
	if err != nil {
		writeError(w, "rename document", err, slog.String("name", name), slog.String("to", req.To))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
