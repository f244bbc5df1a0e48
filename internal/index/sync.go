package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/wristlog/internal/checksum"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/storage"
)

// Partitions are the storage partitions the index mirrors.
var Partitions = []string{daily.HeartRate.Name, daily.Steps.Name}

// Sync walks every record partition and brings the index up to date:
//   - new/changed records are decoded and upserted
//   - records removed from disk are deleted from the index
//
// A corrupt record is logged and left out; its previous index rows are kept.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	for _, partition := range Partitions {
		metas, err := store.List(partition)
		if err != nil {
			return err
		}
		for _, m := range metas {
			disk[m.Key] = struct{}{}

			if checksums[m.Key] == m.Checksum {
				continue
			}

			data, err := store.Read(m.Key)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("key", m.Key), slog.String("error", err.Error()))
				continue
			}
			if err := indexRecord(db, m.Key, data, m.UpdatedAt); err != nil {
				logger.Warn("sync: index failed", slog.String("key", m.Key), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: indexed", slog.String("key", m.Key))
			}
		}
	}

	// Remove stale entries.
	for k := range checksums {
		if _, ok := disk[k]; !ok {
			if err := db.DeleteRecord(k); err != nil {
				logger.Warn("sync: delete failed", slog.String("key", k), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("key", k))
			}
		}
	}

	return nil
}

// indexRecord decodes a persisted record and upserts it into the DB.
func indexRecord(db *DB, key string, data []byte, updated time.Time) error {
	partition, name := storage.SplitKey(key)
	date, err := models.ParseKey(name)
	if err != nil {
		return fmt.Errorf("index: %s: %w", key, err)
	}
	if updated.IsZero() {
		updated = time.Now()
	}
	row := RecordRow{
		Key:       key,
		Metric:    partition,
		Date:      date.String(),
		Checksum:  checksum.Sum(data),
		UpdatedAt: updated,
	}

	switch partition {
	case daily.HeartRate.Name:
		r, err := daily.HeartRate.Unmarshal(data)
		if err != nil {
			return err
		}
		return db.UpsertHeartRate(row, r.Entries)
	case daily.Steps.Name:
		r, err := daily.Steps.Unmarshal(data)
		if err != nil {
			return err
		}
		return db.UpsertSteps(row, r.Entries)
	default:
		return fmt.Errorf("index: unknown partition %q", partition)
	}
}
