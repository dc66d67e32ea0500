// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Blockpress tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/block"
	"github.com/starford/blockpress/internal/docservice"
)

// Server wraps the MCP server with Blockpress tools.
type Server struct {
	mcp          *server.MCPServer
	svc          *docservice.Service
	fetchTimeout time.Duration
	maxImage     int64
}

// Option configures a Server.
type Option func(*Server)

// WithFetchTimeout bounds remote image downloads.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Server) { s.fetchTimeout = d }
}

// WithMaxImageBytes caps the size of inserted images.
func WithMaxImageBytes(n int64) Option {
	return func(s *Server) { s.maxImage = n }
}

// New creates a new MCP server with all Blockpress tools registered.
func New(svc *docservice.Service, opts ...Option) *Server {
	s := &Server{svc: svc, fetchTimeout: 30 * time.Second, maxImage: 10 << 20}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"Blockpress",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the insertable block types grouped by category. "+
			"Read the "+CatalogURI+" resource for the document format rules."),
	), s.listBlockTypes)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document: its canonical source and its root blocks with their indexes."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name without extension (e.g. guides/intro)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document. The source is normalized to one root block per line."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name without extension")),
		mcp.WithString("source", mcp.Description("Initial HTML source (may be empty)")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Append a block of a catalog type to a document."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Block type from list_block_types (e.g. h2, quote, youtube)")),
		mcp.WithString("text", mcp.Description("Text replacing the template placeholder")),
		mcp.WithString("source", mcp.Description("URL for media and embed blocks")),
	), s.insertBlock)

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete the root block at an index, as listed by read_document."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Root block index")),
	), s.deleteBlock)

	s.mcp.AddTool(mcp.NewTool("edit_table",
		mcp.WithDescription("Add or delete a table row or column at an anchor cell. "+
			"With rows and cols and no op, append a new table instead."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("op", mcp.Description("Table operation"),
			mcp.Enum("add-row", "add-column", "delete-row", "delete-column")),
		mcp.WithArray("anchor", mcp.Description("Child-index path of the anchor cell, e.g. [0,0,0,0]"),
			mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithNumber("rows", mcp.Description("Rows of a new table")),
		mcp.WithNumber("cols", mcp.Description("Columns of a new table")),
	), s.editTable)

	s.mcp.AddTool(mcp.NewTool("insert_image",
		mcp.WithDescription("Insert an image from a base64 data URI or an http(s) URL. "+
			"The image is embedded in the document and scaled to the default width."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/...;base64,... or http(s) URL")),
		mcp.WithString("filename", mcp.Description("Optional filename used for type checks")),
	), s.insertImage)

	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Convert Markdown (GFM) to blocks and append them to a document."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown text")),
	), s.importMarkdown)

	// Resource: block catalog and document format.
	s.mcp.AddResource(
		mcp.NewResource(CatalogURI, "Block Catalog",
			mcp.WithResourceDescription("Document format rules and the insertable block types."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool error result.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("document already exists")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listBlockTypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Catalog()), nil
}

func (s *Server) readCatalogResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogURI,
			MIMEType: "text/markdown",
			Text:     catalogContract(s.svc.Catalog()),
		},
	}, nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

type blockLine struct {
	Index int    `json:"index"`
	Type  string `json:"type,omitempty"`
	Tag   string `json:"tag"`
	Text  string `json:"text,omitempty"`
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Get(ctx, name)
	if err != nil {
		return toolError(err), nil
	}
	blocks := make([]blockLine, len(doc.Blocks))
	for i, b := range doc.Blocks {
		blocks[i] = blockLine{Index: b.Index, Type: b.Type, Tag: b.Tag, Text: b.Text}
	}
	return jsonResult(map[string]any{
		"name":     doc.Name,
		"title":    doc.Title,
		"checksum": doc.Checksum,
		"mode":     doc.Mode,
		"source":   doc.Source,
		"blocks":   blocks,
	}), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Create(ctx, name, req.GetString("source", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d blocks)", doc.Name, len(doc.Blocks))), nil
}

func (s *Server) insertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var opts []block.Option
	if text := req.GetString("text", ""); text != "" {
		opts = append(opts, block.WithText(text))
	}
	if src := req.GetString("source", ""); src != "" {
		opts = append(opts, block.WithSource(src))
	}
	res, err := s.svc.Insert(ctx, name, block.Type(t), opts...)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("inserted %s at index %d", t, res.Index)), nil
}

func (s *Server) deleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.DeleteBlock(ctx, name, index); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted block %d", index)), nil
}

func (s *Server) editTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op := req.GetString("op", "")
	if op == "" {
		rows, cols := req.GetInt("rows", 0), req.GetInt("cols", 0)
		if rows <= 0 || cols <= 0 {
			return mcp.NewToolResultError("either op with anchor, or rows and cols, is required"), nil
		}
		res, err := s.svc.InsertTable(ctx, name, rows, cols)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("inserted %dx%d table at index %d", rows, cols, res.Index)), nil
	}

	anchor := req.GetIntSlice("anchor", nil)
	res, err := s.svc.TableOp(ctx, name, op, anchor)
	if err != nil {
		return toolError(err), nil
	}
	if !res.Changed {
		return mcp.NewToolResultError(fmt.Sprintf("anchor %v is not inside a table", anchor)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s applied at %s", op, formatPath(anchor))), nil
}

func formatPath(p []int) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *Server) importMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ImportMarkdown(ctx, name, []byte(md))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported %d blocks starting at index %d", res.Count, res.Index)), nil
}
