package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/blockpress/internal/checksum"
	"github.com/starford/blockpress/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted"; name is the document name.
type EventCallback func(kind string, name string)

// reconcileDelay debounces the sync pass that follows a rename.
const reconcileDelay = 200 * time.Millisecond

type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

func (w *watcher) emit(kind, name string) {
	if w.cb != nil {
		w.cb(kind, name)
	}
}

// Watch starts an fsnotify watcher on the documents root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each index mutation.
//
// Writes whose content already matches the indexed checksum are skipped,
// so files saved by the service itself do not produce a second event.
// New directories are added to the watch list as they appear. Rename
// events trigger a reconciliation pass against the directory contents.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{fsw: fsw, db: db, store: store, root: root, logger: logger, cb: cb}
	if err := w.addDirs(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
			return
		}
		reconcileTimer.Reset(reconcileDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle applies one fsnotify event. It reports whether a reconciliation
// pass should follow.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addDirs(ev.Name); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			w.indexDir(ev.Name)
			return false
		}
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	name, ok := storage.NameFor(rel)
	if !ok {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		w.indexFile(rel, name, kind)

	case ev.Op&fsnotify.Remove != 0:
		w.remove(name)

	case ev.Op&fsnotify.Rename != 0:
		// Rename arrives on the old path only; the new path shows up as a
		// Create if it stays under a watched directory.
		w.remove(name)
		return true
	}
	return false
}

// indexFile re-indexes rel unless its content is already indexed.
func (w *watcher) indexFile(rel, name, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if current, _ := w.db.GetChecksum(name); current == checksum.Sum(data) {
		return
	}
	if err := IndexDocument(w.db, name, data, time.Time{}); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("name", name), slog.String("op", kind))
	w.emit(kind, name)
}

func (w *watcher) remove(name string) {
	if err := w.db.DeleteDocument(name); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("name", name), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("name", name))
	w.emit("deleted", name)
}

// reconcile compares index checksums with the directory in two batch
// lookups, dropping entries without a file and indexing changed files.
func (w *watcher) reconcile() {
	indexed, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}
	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Name] = m.Checksum
	}

	for name := range indexed {
		if _, ok := disk[name]; !ok {
			w.remove(name)
		}
	}

	for name, sum := range disk {
		prev, known := indexed[name]
		if known && prev == sum {
			continue
		}
		data, err := w.store.Read(storage.PathFor(name))
		if err != nil {
			continue
		}
		if err := IndexDocument(w.db, name, data, time.Time{}); err != nil {
			continue
		}
		w.logger.Debug("reconcile: indexed", slog.String("name", name))
		if known {
			w.emit("updated", name)
		} else {
			w.emit("created", name)
		}
	}
}

// indexDir indexes any documents found under a newly created directory.
func (w *watcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		if name, ok := storage.NameFor(rel); ok {
			w.indexFile(rel, name, "created")
		}
		return nil
	})
}

// addDirs adds dir and all its subdirectories to the watcher.
func (w *watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}
