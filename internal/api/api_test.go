package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/blockpress/internal/docservice"
	"github.com/starford/blockpress/internal/testutil"
)

// testEnv sets up a temp documents dir, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode; a non-empty one means token mode.
func testEnv(t *testing.T, authToken string) (*docservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithDir(t, authToken != "", authToken, nil)
	return svc, router
}

func testEnvWithDir(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*docservice.Service, http.Handler, string) {
	t.Helper()
	dir, store := testutil.TestDocuments(t)
	db := testutil.TestDB(t)
	svc := docservice.NewService(store, db)
	router := NewRouter(svc, authEnabled, authToken, sseHandler, 1<<20)
	return svc, router, dir
}

func do(t *testing.T, router http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createDoc(t *testing.T, router http.Handler, name, src string) DocumentDetail {
	t.Helper()
	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: name, Source: src})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[DocumentDetail](t, w)
}

func TestCreateAndGetDocument(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "hello", "<h1>Hello</h1>  <p>World</p>")

	w := do(t, router, http.MethodGet, "/documents/hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	doc := decode[DocumentDetail](t, w)
	if doc.Name != "hello" {
		t.Errorf("name = %q", doc.Name)
	}
	if doc.Title != "Hello" {
		t.Errorf("title = %q, want Hello", doc.Title)
	}
	if doc.Source != "<h1>Hello</h1>\n<p>World</p>\n" {
		t.Errorf("source = %q", doc.Source)
	}
	if len(doc.Blocks) != 2 {
		t.Errorf("blocks = %d, want 2", len(doc.Blocks))
	}
	if got := w.Header().Get("ETag"); got != `"`+doc.Checksum+`"` {
		t.Errorf("etag = %q", got)
	}
}

func TestNestedNameEscaped(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "guides/intro", "<p>x</p>")

	w := do(t, router, http.MethodGet, "/documents/guides%2Fintro", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	if doc := decode[DocumentDetail](t, w); doc.Name != "guides/intro" {
		t.Errorf("name = %q", doc.Name)
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "dup", "")

	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: "dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateInvalid(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: "../escape"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("traversal name = %d, want 400", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestReplaceWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "lock", "<p>v1</p>")

	w := do(t, router, http.MethodPut, "/documents/lock", ReplaceDocumentRequest{Source: "<p>v2</p>"}, "If-Match", `"wrong"`)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale replace = %d, want 409", w.Code)
	}
	w = do(t, router, http.MethodPut, "/documents/lock", ReplaceDocumentRequest{Source: "<p>v2</p>"}, "If-Match", `"`+doc.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("replace = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[DocumentDetail](t, w).Source; got != "<p>v2</p>\n" {
		t.Errorf("source = %q", got)
	}
}

func TestDeleteDocument(t *testing.T) {
	_, router, dir := testEnvWithDir(t, false, "", nil)
	createDoc(t, router, "del", "<p>x</p>")

	w := do(t, router, http.MethodDelete, "/documents/del", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "del.html")); !os.IsNotExist(err) {
		t.Error("file still exists after delete")
	}
	w = do(t, router, http.MethodGet, "/documents/del", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/documents/del", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestRenameDocument(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "old", "<p>x</p>")

	w := do(t, router, http.MethodPost, "/documents/old/rename", RenameDocumentRequest{To: "archive/new"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/documents/old", nil); w.Code != http.StatusNotFound {
		t.Errorf("old name = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents/archive%2Fnew", nil); w.Code != http.StatusOK {
		t.Errorf("new name = %d, want 200", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "a", "<p>a</p>")
	createDoc(t, router, "b", `<table data-block-type="table"><tbody><tr><td>x</td></tr></tbody></table>`)
	createDoc(t, router, "c", "<p>c</p>")

	w := do(t, router, http.MethodGet, "/documents?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	resp := decode[DocumentListResponse](t, w)
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Documents) != 2 {
		t.Errorf("page = %d, want 2", len(resp.Documents))
	}

	resp = decode[DocumentListResponse](t, do(t, router, http.MethodGet, "/documents?type=table", nil))
	if resp.Total != 1 || resp.Documents[0].Name != "b" {
		t.Errorf("type filter = %+v", resp)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "fruit", "<h1>Fruit</h1><p>banana smoothie</p>")

	w := do(t, router, http.MethodGet, "/search?q=banana", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	resp := decode[SearchResponse](t, w)
	if len(resp.Results) != 1 || resp.Results[0].Name != "fruit" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search without q = %d, want 400", w.Code)
	}
}

func TestCatalog(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "a", "<p>a</p><p>b</p>")

	w := do(t, router, http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog = %d", w.Code)
	}
	resp := decode[CatalogResponse](t, w)
	if len(resp.Groups) == 0 || resp.Groups[0].Category != "content" {
		t.Errorf("groups = %+v", resp.Groups)
	}
	if resp.Usage["p"] != 2 {
		t.Errorf("usage = %v", resp.Usage)
	}
}

func TestBlockLifecycle(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "")

	w := do(t, router, http.MethodPost, "/documents/doc/blocks", InsertBlockRequest{Type: "h2", Text: "Section"})
	if w.Code != http.StatusCreated {
		t.Fatalf("insert = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[EditResult](t, w)
	if res.Index != 0 || !strings.Contains(res.Source, "Section") {
		t.Errorf("insert result = %+v", res)
	}

	w = do(t, router, http.MethodPost, "/documents/doc/tables", InsertTableRequest{Rows: 1, Cols: 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("insert table = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/documents/doc/tables/add-row", TableOpRequest{Anchor: []int{1, 0, 0, 0}})
	if w.Code != http.StatusOK {
		t.Fatalf("add-row = %d, body = %s", w.Code, w.Body.String())
	}
	if got := strings.Count(decode[EditResult](t, w).Source, "<tr>"); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}

	w = do(t, router, http.MethodPost, "/documents/doc/tables/merge", TableOpRequest{Anchor: []int{1}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown op = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/documents/doc/blocks/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete block = %d", w.Code)
	}
	if strings.Contains(decode[EditResult](t, w).Source, "<table") {
		t.Error("table still present")
	}
	if w := do(t, router, http.MethodDelete, "/documents/doc/blocks/9", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing block = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/documents/doc/blocks/x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad index = %d, want 400", w.Code)
	}
}

func TestSourceModeEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "<p>x</p>")

	w := do(t, router, http.MethodPut, "/documents/doc/draft", DraftRequest{Draft: "<p>y</p>"})
	if w.Code != http.StatusConflict {
		t.Errorf("draft in visual mode = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/documents/doc/mode", ModeRequest{Mode: "source"})
	if w.Code != http.StatusOK {
		t.Fatalf("mode = %d", w.Code)
	}
	checksum := decode[EditResult](t, w).Checksum

	w = do(t, router, http.MethodPost, "/documents/doc/blocks", InsertBlockRequest{Type: "p"})
	if w.Code != http.StatusConflict {
		t.Errorf("insert in source mode = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/documents/doc/draft", DraftRequest{Draft: "<p>y</p> <p>z</p>"}, "If-Match", checksum)
	if w.Code != http.StatusOK {
		t.Fatalf("draft = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/documents/doc/mode", ModeRequest{Mode: "visual"})
	if got := decode[EditResult](t, w).Source; got != "<p>y</p>\n<p>z</p>\n" {
		t.Errorf("committed source = %q", got)
	}

	if w := do(t, router, http.MethodPut, "/documents/doc/mode", ModeRequest{Mode: "split"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode = %d, want 400", w.Code)
	}
}

func TestImportMarkdownEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "")

	w := do(t, router, http.MethodPost, "/documents/doc/markdown", MarkdownRequest{Markdown: "# Title\n\n- a\n- b\n"})
	if w.Code != http.StatusCreated {
		t.Fatalf("markdown = %d, body = %s", w.Code, w.Body.String())
	}
	if res := decode[EditResult](t, w); res.Count != 2 {
		t.Errorf("count = %d, want 2", res.Count)
	}
	if w := do(t, router, http.MethodPost, "/documents/doc/markdown", MarkdownRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty markdown = %d, want 400", w.Code)
	}
}

// Image and resize tests.

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadFile(t *testing.T, router http.Handler, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.Copy(part, bytes.NewReader(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImageAndResize(t *testing.T) {
	_, router, dir := testEnvWithDir(t, false, "", nil)
	createDoc(t, router, "doc", "")

	w := uploadFile(t, router, "/documents/doc/images", "wide.png", pngBytes(t, 600, 300))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	if src := decode[EditResult](t, w).Source; !strings.Contains(src, "width: 300px; height: 150px;") {
		t.Errorf("image source = %q", src)
	}

	w = do(t, router, http.MethodPost, "/documents/doc/resize/begin", ResizeRequest{Index: 0, X: 10, Y: 10})
	if w.Code != http.StatusOK {
		t.Fatalf("begin = %d", w.Code)
	}
	if decode[ResizeResult](t, w).Session == nil {
		t.Fatal("begin returned no session")
	}
	w = do(t, router, http.MethodPost, "/documents/doc/resize/move", ResizeRequest{X: 60, Y: 10})
	res := decode[ResizeResult](t, w)
	if res.Size == nil || res.Size.W != 350 || res.Size.H != 175 {
		t.Errorf("move size = %+v", res.Size)
	}
	w = do(t, router, http.MethodPost, "/documents/doc/resize/end", nil)
	if w.Code != http.StatusOK || !decode[ResizeResult](t, w).Changed {
		t.Fatalf("end = %d, body = %s", w.Code, w.Body.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "doc.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "width: 350px; height: 175px;") {
		t.Errorf("persisted = %q", data)
	}

	if w := do(t, router, http.MethodPost, "/documents/doc/resize/spin", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad phase = %d, want 400", w.Code)
	}
}

func TestUploadImage_NoFileIsCancel(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "")

	w := uploadFile(t, router, "/documents/doc/images", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("cancel = %d, want 204", w.Code)
	}
	doc := decode[DocumentDetail](t, do(t, router, http.MethodGet, "/documents/doc", nil))
	if doc.Source != "" {
		t.Errorf("source after cancel = %q", doc.Source)
	}
}

func TestUploadImage_ContentNotRevalidated(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "")

	// The accept filter is a hint; whatever was picked becomes an image.
	w := uploadFile(t, router, "/documents/doc/images", "photo.png", []byte("plain text"))
	if w.Code != http.StatusCreated {
		t.Fatalf("text upload = %d, want 201: %s", w.Code, w.Body.String())
	}
	res := decode[EditResult](t, w)
	if !strings.Contains(res.Source, `<img src="data:`) {
		t.Errorf("source = %q, want an img data URI root", res.Source)
	}
}

func TestUploadImage_TooLarge(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "doc", "")

	w := uploadFile(t, router, "/documents/doc/images", "big.png", bytes.Repeat([]byte{0x89}, 2<<20))
	if w.Code != http.StatusRequestEntityTooLarge && w.Code != http.StatusBadRequest {
		t.Errorf("oversized upload = %d, want 413", w.Code)
	}
}

// Auth tests.

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: "auth"}, "Authorization", "Bearer secret")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	if w := do(t, router, http.MethodGet, "/documents", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	// Writes headers and blocks until the request context is done.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithDir(t, true, "secret", sseStub())
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithDir(t, true, "secret", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	_, router, _ := testEnvWithDir(t, true, "secret", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=secret", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with query token should not 401")
	}

	// The query parameter is not accepted on ordinary requests.
	if w := do(t, router, http.MethodGet, "/documents?access_token=secret", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on JSON route = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/events?access_token=wrong", nil, "Accept", "text/event-stream"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong query token = %d, want 401", w.Code)
	}
}
