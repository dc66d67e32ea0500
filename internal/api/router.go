package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpress/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// maxUpload caps image uploads in bytes; zero selects the default.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler, maxUpload int64) chi.Router {
	h := NewHandler(svc)
	ih := NewImageHandler(svc, maxUpload)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/catalog", h.Catalog)

	// Documents. Names containing "/" are sent URL-escaped.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Route("/documents/{name}", func(r chi.Router) {
		r.Get("/", h.GetDocument)
		r.Put("/", h.ReplaceDocument)
		r.Delete("/", h.DeleteDocument)
		r.Post("/rename", h.RenameDocument)

		r.Post("/blocks", h.InsertBlock)
		r.Delete("/blocks/{index}", h.DeleteBlock)
		r.Post("/images", ih.Upload)
		r.Post("/tables", h.InsertTable)
		r.Post("/tables/{op}", h.TableOp)
		r.Post("/resize/{phase}", h.Resize)
		r.Put("/mode", h.SetMode)
		r.Put("/draft", h.SetDraft)
		r.Post("/markdown", h.ImportMarkdown)
	})

	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
