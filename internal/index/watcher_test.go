package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/storage"
)

var day = models.NewDate(2026, 3, 14)

// watcherTestEnv sets up a data dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, *storage.FS, *DB) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestSyncIndexesRecords(t *testing.T) {
	_, store, db := watcherTestEnv(t)
	hr := daily.NewStore(daily.HeartRate, store)
	rs := daily.NewStore(daily.Steps, store)

	if _, err := hr.Merge(day, daily.Instant(8, 0, 70), daily.Instant(8, 10, 72)); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Merge(day, daily.StepsEntry{Hour: 8, Minute: 40, Kind: daily.Walk, Count: 500}); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if cs, _ := db.GetChecksum(hr.Key(day)); cs == "" {
		t.Error("heart-rate record not indexed")
	}
	dates, _ := db.Dates(daily.Steps.Name)
	if len(dates) != 1 || dates[0] != "2026-03-14" {
		t.Errorf("step dates = %v", dates)
	}
	sums, _ := db.HeartRateSummaries("", "")
	if len(sums) != 1 || sums[0].Readings != 2 {
		t.Errorf("summaries = %+v", sums)
	}
}

func TestSyncSkipsNonCanonicalNames(t *testing.T) {
	_, store, db := watcherTestEnv(t)
	var r daily.Record[daily.HeartRateEntry]
	r.Insert(daily.Instant(8, 0, 70))
	data := daily.HeartRate.Marshal(r)

	for _, key := range []string{"hr/2026-03-14", "hr/2026-13-99", "hr/2026-3-14"} {
		if err := store.Write(key, data); err != nil {
			t.Fatal(err)
		}
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}

	dates, _ := db.Dates(daily.HeartRate.Name)
	if len(dates) != 1 || dates[0] != "2026-03-14" {
		t.Errorf("dates = %v, want only the canonical record", dates)
	}
	if cs, _ := db.GetChecksum("hr/2026-03-14"); cs != "" {
		t.Error("padded name indexed")
	}
}

func TestSyncSkipsCorruptAndRemovesStale(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	hr := daily.NewStore(daily.HeartRate, store)
	other := models.NewDate(2026, 3, 15)

	if _, err := hr.Merge(day, daily.Instant(8, 0, 70)); err != nil {
		t.Fatal(err)
	}
	if _, err := hr.Merge(other, daily.Instant(9, 0, 71)); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dataDir, filepath.FromSlash(hr.Key(other)))); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(hr.Key(day), []byte("HRDB\x05\x00")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}

	if cs, _ := db.GetChecksum(hr.Key(other)); cs != "" {
		t.Error("removed record still indexed")
	}
	sums, _ := db.HeartRateSummaries("2026-03-14", "2026-03-14")
	if len(sums) != 1 || sums[0].Readings != 1 {
		t.Errorf("corrupt record should keep its previous rows, got %+v", sums)
	}
}

func TestWatcher_NewRecordIndexed(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	hr := daily.NewStore(daily.HeartRate, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, dataDir, quietLogger(), func(kind, key string) {
		mu.Lock()
		events = append(events, kind+":"+key)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if _, err := hr.Merge(day, daily.Instant(8, 0, 70)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(hr.Key(day))
		return cs != ""
	}, "new record not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:"+hr.Key(day) {
				return true
			}
		}
		return false
	}, "expected created callback for "+hr.Key(day))

	mu.Lock()
	defer mu.Unlock()
	for _, e := range events {
		if storage.IsTemp(e) {
			t.Errorf("temp file reached the callback: %s", e)
		}
	}
}

func TestWatcher_UpdateReindexes(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	rs := daily.NewStore(daily.Steps, store)
	if _, err := rs.Merge(day, daily.StepsEntry{Hour: 8, Minute: 40, Kind: daily.Walk, Count: 500}); err != nil {
		t.Fatal(err)
	}
	Sync(db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dataDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	if _, err := rs.Merge(day, daily.StepsEntry{Hour: 9, Minute: 5, Kind: daily.Run, Count: 250}); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		sums, _ := db.StepsSummaries("", "")
		return len(sums) == 1 && sums[0].Total == 750
	}, "updated record not reindexed")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	hr := daily.NewStore(daily.HeartRate, store)
	if _, err := hr.Merge(day, daily.Instant(8, 0, 70)); err != nil {
		t.Fatal(err)
	}
	Sync(db, store, quietLogger())

	if cs, _ := db.GetChecksum(hr.Key(day)); cs == "" {
		t.Fatal("precondition: record should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dataDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dataDir, filepath.FromSlash(hr.Key(day))))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(hr.Key(day))
		return cs == ""
	}, "deleted record still in index")
}

func TestRecordKey(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data")
	cases := []struct {
		path string
		key  string
		ok   bool
	}{
		{filepath.Join(root, "hr", "2026-3-14"), "hr/2026-3-14", true},
		{filepath.Join(root, "rs", "2026-3-14"), "rs/2026-3-14", true},
		{filepath.Join(root, "hr", ".wristlog-tmp-123"), "", false},
		{filepath.Join(root, "notes", "2026-3-14"), "", false},
		{filepath.Join(root, "2026-3-14"), "", false},
	}
	for _, c := range cases {
		key, ok := recordKey(root, c.path)
		if key != c.key || ok != c.ok {
			t.Errorf("recordKey(%q) = %q, %v; want %q, %v", c.path, key, ok, c.key, c.ok)
		}
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	hr := daily.NewStore(daily.HeartRate, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, db, store, dataDir, quietLogger(), func(kind, key string) {
		mu.Lock()
		events = append(events, kind+":"+key)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	for m := uint8(0); m < 10; m++ {
		if _, err := hr.Merge(day, daily.Instant(8, m, 60+m)); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		sums, _ := db.HeartRateSummaries("", "")
		return len(sums) == 1 && sums[0].Readings == 10
	}, "burst not indexed")

	time.Sleep(3 * flushDelay)
	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 || len(events) >= 10 {
		t.Errorf("events = %d, want the burst coalesced", len(events))
	}
}
