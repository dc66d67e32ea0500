package api

import (
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/docservice"
	"github.com/starford/blockpress/internal/models"
	"github.com/starford/blockpress/internal/resize"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Name   string `json:"name" example:"guides/intro" validate:"required"`
	Source string `json:"source" example:"<h1>Intro</h1>"`
}

// ReplaceDocumentRequest is the request body for replacing a document's source.
type ReplaceDocumentRequest struct {
	Source string `json:"source" example:"<p>Replaced</p>"`
}

// RenameDocumentRequest is the request body for moving a document.
type RenameDocumentRequest struct {
	To string `json:"to" example:"guides/renamed" validate:"required"`
}

// InsertBlockRequest is the request body for appending a block.
type InsertBlockRequest struct {
	Type   string `json:"type" example:"h2" validate:"required"`
	Text   string `json:"text,omitempty" example:"Section"`
	Source string `json:"source,omitempty" example:"https://www.youtube.com/watch?v=abc"`
}

// InsertTableRequest is the request body for appending a sized table.
type InsertTableRequest struct {
	Rows int `json:"rows" example:"3"`
	Cols int `json:"cols" example:"2"`
}

// TableOpRequest addresses a cell or row by its child-index path.
type TableOpRequest struct {
	Anchor []int `json:"anchor" example:"0,0,0,0" validate:"required"`
}

// ResizeRequest carries the pointer for a resize phase. Index selects the
// image on begin.
type ResizeRequest struct {
	Index int     `json:"index" example:"0"`
	X     float64 `json:"x" example:"120"`
	Y     float64 `json:"y" example:"40"`
}

func (r ResizeRequest) point() resize.Point {
	return resize.Point{X: r.X, Y: r.Y}
}

// ModeRequest selects the view mode.
type ModeRequest struct {
	Mode string `json:"mode" example:"source" validate:"required"`
}

// DraftRequest carries the source-view text.
type DraftRequest struct {
	Draft string `json:"draft" example:"<p>edited</p>"`
}

// MarkdownRequest carries Markdown to append as blocks.
type MarkdownRequest struct {
	Markdown string `json:"markdown" example:"# Title" validate:"required"`
}

// DocumentDetail is the full document response (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// EditResult is the outcome of an editing gesture.
type EditResult = docservice.Result

// ResizeResult is the outcome of a resize phase.
type ResizeResult = docservice.ResizeResult

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.DocumentMetadata `json:"documents" validate:"required"`
	Total     int                       `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
}

// CatalogResponse lists the block types grouped by category.
type CatalogResponse struct {
	Groups []block.Group  `json:"groups" validate:"required"`
	Usage  map[string]int `json:"usage"`
}
