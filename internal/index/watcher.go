package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wristlog/internal/checksum"
	"github.com/starford/wristlog/internal/storage"
)

const (
	flushDelay     = 100 * time.Millisecond
	reconcileDelay = 200 * time.Millisecond
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted"; key is the record's storage key.
type EventCallback func(kind string, key string)

// Watch starts an fsnotify watcher on the data root and processes record
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// Partition directories created at runtime are added to the watch list.
// In-flight temp files are ignored; a record replaced by rename shows up
// as a create of its final name. Rename events trigger a reconciliation pass
// that removes stale index entries whose records no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// A sync burst rewrites the same day record many times; writes are coalesced per
	// key and indexed once the key has been quiet for flushDelay.
	pending := make(map[string]bool) // key -> seen as created
	flushTimer := time.NewTimer(flushDelay)
	flushTimer.Stop()
	defer flushTimer.Stop()

	// reconcileTimer is used to debounce rename reconciliation.
	reconcileTimer := time.NewTimer(reconcileDelay)
	reconcileTimer.Stop()
	defer reconcileTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-flushTimer.C:
			for key, created := range pending {
				reindex(db, store, key, created, logger, cb)
			}
			clear(pending)

		case <-reconcileTimer.C:
			reconcileAfterRename(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New partition directories are added to the watcher.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Index any records already in the new directory.
					indexNewDir(db, store, root, absPath, logger, cb)
					continue
				}
			}

			key, ok := recordKey(root, absPath)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[key] = pending[key] || ev.Op&fsnotify.Create != 0
				flushTimer.Reset(flushDelay)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports Rename on the old path only; the new path
				// arrives as a Create if it stays in a watched directory.
				delete(pending, key)
				if delErr := db.DeleteRecord(key); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("key", key), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: deleted", slog.String("key", key))
					if cb != nil {
						cb("deleted", key)
					}
				}
				if ev.Op&fsnotify.Rename != 0 {
					reconcileTimer.Reset(reconcileDelay)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reindex refreshes the index rows of key unless its checksum is unchanged.
func reindex(db *DB, store storage.Provider, key string, created bool, logger *slog.Logger, cb EventCallback) {
	data, err := store.Read(key)
	if err != nil {
		// Removed again before the flush; the Remove event handled it.
		logger.Debug("watcher: read failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if cs, _ := db.GetChecksum(key); cs == checksum.Sum(data) {
		return
	}
	if err := indexRecord(db, key, data, time.Now()); err != nil {
		logger.Warn("watcher: index failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	kind := "updated"
	if created {
		kind = "created"
	}
	logger.Debug("watcher: indexed", slog.String("key", key), slog.String("op", kind))
	if cb != nil {
		cb(kind, key)
	}
}

// reconcileAfterRename does a lightweight sync using batch lookups:
// finds index entries without a corresponding file on disk and removes them,
// and finds on-disk files that are not indexed and indexes them.
func reconcileAfterRename(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string)
	for _, partition := range Partitions {
		metas, err := store.List(partition)
		if err != nil {
			logger.Warn("reconcile: list failed", slog.String("partition", partition), slog.String("error", err.Error()))
			return
		}
		for _, m := range metas {
			disk[m.Key] = m.Checksum
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteRecord(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("key", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := indexRecord(db, p, data, time.Now()); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("key", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// indexNewDir indexes any records found in a newly created directory.
func indexNewDir(db *DB, store storage.Provider, root, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := recordKey(root, path)
		if !ok {
			return nil
		}
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := indexRecord(db, rel, data, time.Now()); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("key", rel))
			if cb != nil {
				cb("created", rel)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// recordKey maps an absolute path under root to a record key. Temp files and
// files outside a record partition are rejected.
func recordKey(root, absPath string) (string, bool) {
	if storage.IsTemp(absPath) {
		return "", false
	}
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", false
	}
	key := filepath.ToSlash(rel)
	partition, name := storage.SplitKey(key)
	if name == "" || !slices.Contains(Partitions, partition) {
		return "", false
	}
	return key, true
}
