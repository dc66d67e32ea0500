package index

import (
	"log/slog"
	"time"

	"github.com/starford/blockpress/internal/checksum"
	"github.com/starford/blockpress/internal/markup"
	"github.com/starford/blockpress/internal/storage"
)

// Sync walks the documents directory and brings the index up to date:
//   - new/changed documents are summarized and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Name] = struct{}{}

		if checksums[m.Name] == m.Checksum {
			continue
		}

		data, err := store.Read(storage.PathFor(m.Name))
		if err != nil {
			logger.Warn("sync: read failed", slog.String("name", m.Name), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Name, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("name", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("name", m.Name))
		}
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteDocument(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("name", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("name", name))
			}
		}
	}

	return nil
}

// IndexDocument summarizes the canonical source in data and upserts it.
// A zero updated time means now.
func IndexDocument(db *DB, name string, data []byte, updated time.Time) error {
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	s := markup.Summarize(string(data))
	row := DocumentRow{
		Name:      name,
		Title:     s.Title,
		Checksum:  checksum.Sum(data),
		Blocks:    s.Blocks,
		Types:     s.Types,
		UpdatedAt: updated,
	}
	return db.UpsertDocument(row, s.Text)
}
