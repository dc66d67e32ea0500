package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/blockpress/internal/apperr"
)

// DocumentRow represents a row in the documents table together with its
// per-type block counts.
type DocumentRow struct {
	Name      string
	Title     string
	Checksum  string
	Blocks    int
	Types     map[string]int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string
	Title   string
	Snippet string
}

// UpsertDocument inserts or replaces a document, its FTS entry, and its
// block type counts within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// Upsert documents table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO documents (name, title, checksum, blocks, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			blocks     = excluded.blocks,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Name, d.Title, d.Checksum, d.Blocks, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Name, d.Title, body); err != nil {
		return err
	}

	// Replace type counts: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM block_types WHERE document = ?`, d.Name)
	if len(d.Types) > 0 {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO block_types (document, type, count) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare type insert: %w", err)
		}
		defer stmt.Close()
		for t, n := range d.Types {
			if _, err := stmt.Exec(d.Name, t, n); err != nil {
				return fmt.Errorf("index: insert block type: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, and its type counts.
func (db *DB) DeleteDocument(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, name)
	_, _ = tx.Exec(`DELETE FROM block_types WHERE document = ?`, name)
	_, _ = tx.Exec(`DELETE FROM documents WHERE name = ?`, name)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(name string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE name = ?`, name).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetDocument returns one document row with its type counts.
func (db *DB) GetDocument(name string) (*DocumentRow, error) {
	var d DocumentRow
	err := db.conn.QueryRow(`
		SELECT name, title, checksum, blocks, updated_at
		FROM documents WHERE name = ?
	`, name).Scan(&d.Name, &d.Title, &d.Checksum, &d.Blocks, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	types, err := db.typesFor([]string{name})
	if err != nil {
		return nil, err
	}
	d.Types = types[name]
	return &d, nil
}

// ListDocuments returns a page of documents and the total count. When
// blockType is set only documents containing that block type are listed.
// sort is one of "name" (default), "title" or "updated".
func (db *DB) ListDocuments(limit, offset int, blockType, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	order := "d.name ASC"
	switch sort {
	case "title":
		order = "d.title ASC, d.name ASC"
	case "updated":
		order = "d.updated_at DESC, d.name ASC"
	}

	where := ""
	var args []any
	if blockType != "" {
		where = `WHERE d.name IN (SELECT document FROM block_types WHERE type = ?)`
		args = append(args, blockType)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents d `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT d.name, d.title, d.checksum, d.blocks, d.updated_at
		FROM documents d `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	var names []string
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.Name, &d.Title, &d.Checksum, &d.Blocks, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
		names = append(names, d.Name)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	types, err := db.typesFor(names)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Types = types[out[i].Name]
	}
	return out, total, nil
}

func (db *DB) typesFor(names []string) (map[string]map[string]int, error) {
	out := make(map[string]map[string]int, len(names))
	if len(names) == 0 {
		return out, nil
	}
	stmt, err := db.conn.Prepare(`SELECT type, count FROM block_types WHERE document = ?`)
	if err != nil {
		return nil, fmt.Errorf("index: prepare types: %w", err)
	}
	defer stmt.Close()
	for _, name := range names {
		rows, err := stmt.Query(name)
		if err != nil {
			return nil, fmt.Errorf("index: types: %w", err)
		}
		m := make(map[string]int)
		for rows.Next() {
			var t string
			var n int
			if err := rows.Scan(&t, &n); err != nil {
				rows.Close()
				return nil, err
			}
			m[t] = n
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		out[name] = m
	}
	return out, nil
}

// BlockTypeUsage returns the total number of blocks per type across all documents.
func (db *DB) BlockTypeUsage() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT type, SUM(count) FROM block_types GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("index: block type usage: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, rows.Err()
}

// DocumentsWithType returns the names of all documents containing blockType.
func (db *DB) DocumentsWithType(blockType string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT document FROM block_types WHERE type = ? ORDER BY document`, blockType)
	if err != nil {
		return nil, fmt.Errorf("index: documents with type: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllNames returns every indexed document name.
func (db *DB) AllNames() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT name FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all names: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}
