package index

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/blockpress/internal/apperr"
	"github.com/starford/blockpress/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "blockpress-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM block_types`).Scan(&count); err != nil {
		t.Fatalf("block_types table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Name:      "hello",
		Title:     "Hello World",
		Checksum:  "abc123",
		Blocks:    2,
		Types:     map[string]int{"h1": 1, "p": 1},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "Hello World\nThis is a paragraph."); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	got, err := db.GetDocument("hello")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Hello World" || got.Blocks != 2 || got.Types["p"] != 1 {
		t.Errorf("GetDocument = %+v", got)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDocument("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentsWithType(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Name: "a", Checksum: "1", Types: map[string]int{"table": 1}, UpdatedAt: time.Now()}, "body")
	_ = db.UpsertDocument(DocumentRow{Name: "c", Checksum: "2", Types: map[string]int{"table": 2, "p": 1}, UpdatedAt: time.Now()}, "body")

	names, err := db.DocumentsWithType("table")
	if err != nil {
		t.Fatalf("DocumentsWithType: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(names))
	}

	usage, err := db.BlockTypeUsage()
	if err != nil {
		t.Fatalf("BlockTypeUsage: %v", err)
	}
	if usage["table"] != 3 || usage["p"] != 1 {
		t.Errorf("usage = %v", usage)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Name: "del", Checksum: "x", Types: map[string]int{"img": 1}, UpdatedAt: time.Now()}, "body")

	if err := db.DeleteDocument("del"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	names, _ := db.DocumentsWithType("img")
	if len(names) != 0 {
		t.Errorf("expected no type rows after delete, got %d", len(names))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Name: "up", Title: "Old", Checksum: "1", Types: map[string]int{"ul": 1}, UpdatedAt: now}, "old body")
	_ = db.UpsertDocument(DocumentRow{Name: "up", Title: "New", Checksum: "2", Types: map[string]int{"ol": 1}, UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	names, _ := db.DocumentsWithType("ul")
	if len(names) != 0 {
		t.Error("old type count should be removed on upsert")
	}
	names, _ = db.DocumentsWithType("ol")
	if len(names) != 1 {
		t.Error("new type count should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Now()
	_ = db.UpsertDocument(DocumentRow{Name: "b", Title: "Alpha", Checksum: "1", Types: map[string]int{"p": 1}, UpdatedAt: base}, "")
	_ = db.UpsertDocument(DocumentRow{Name: "a", Title: "Zulu", Checksum: "2", Types: map[string]int{"table": 1}, UpdatedAt: base.Add(time.Minute)}, "")
	_ = db.UpsertDocument(DocumentRow{Name: "c", Title: "Mike", Checksum: "3", Types: map[string]int{"table": 1}, UpdatedAt: base.Add(-time.Minute)}, "")

	rows, total, err := db.ListDocuments(2, 0, "", "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 || len(rows) != 2 || rows[0].Name != "a" {
		t.Errorf("page = %+v total %d", rows, total)
	}

	rows, _, _ = db.ListDocuments(10, 0, "", "title")
	if rows[0].Title != "Alpha" {
		t.Errorf("title sort first = %q", rows[0].Title)
	}

	rows, total, _ = db.ListDocuments(10, 0, "table", "updated")
	if total != 2 || rows[0].Name != "a" || rows[0].Types["table"] != 1 {
		t.Errorf("filtered = %+v total %d", rows, total)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Name: "s", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSync_SummarizesDocuments(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := "<h1 data-block-type=\"h1\">Guide</h1>\n<table data-block-type=\"table\">\n<tbody>\n<tr><td>cellword</td></tr>\n</tbody>\n</table>\n"
	_ = store.Write("guide.html", []byte(src))
	_ = store.Write("notes.txt", []byte("ignored"))

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	d, err := db.GetDocument("guide")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Title != "Guide" || d.Blocks != 2 || d.Types["table"] != 1 {
		t.Errorf("summary = %+v", d)
	}
	results, _ := db.Search("cellword", 10)
	if len(results) != 1 {
		t.Errorf("expected table text to be searchable, got %+v", results)
	}

	_ = store.Delete("guide.html")
	_ = Sync(db, store, logger)
	if cs, _ := db.GetChecksum("guide"); cs != "" {
		t.Error("stale document not removed by Sync")
	}
}
