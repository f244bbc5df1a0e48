package index

import (
	"os"
	"testing"
	"time"

	"github.com/starford/wristlog/internal/daily"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "wristlog-test-*.db")
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

func hrRow(date, cs string) RecordRow {
	return RecordRow{Key: "hr/" + date, Metric: daily.HeartRate.Name, Date: date, Checksum: cs, UpdatedAt: time.Now()}
}

func rsRow(date, cs string) RecordRow {
	return RecordRow{Key: "rs/" + date, Metric: daily.Steps.Name, Date: date, Checksum: cs, UpdatedAt: time.Now()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"records", "heart_rate", "steps"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertHeartRate(hrRow("2026-03-14", "abc123"), []daily.HeartRateEntry{daily.Instant(8, 0, 70)}); err != nil {
		t.Fatalf("UpsertHeartRate: %v", err)
	}
	cs, err := db.GetChecksum("hr/2026-03-14")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestUpsertReplacesEntries(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertHeartRate(hrRow("2026-03-14", "1"), []daily.HeartRateEntry{daily.Instant(8, 0, 70), daily.Instant(8, 10, 90)})
	_ = db.UpsertHeartRate(hrRow("2026-03-14", "2"), []daily.HeartRateEntry{daily.Instant(9, 0, 60)})

	cs, _ := db.GetChecksum("hr/2026-03-14")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	sums, err := db.HeartRateSummaries("", "")
	if err != nil {
		t.Fatalf("HeartRateSummaries: %v", err)
	}
	if len(sums) != 1 || sums[0].Readings != 1 {
		t.Fatalf("summaries = %+v, want one day with one reading", sums)
	}
}

func TestHeartRateSummaries(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertHeartRate(hrRow("2026-03-13", "a"), []daily.HeartRateEntry{daily.Instant(1, 0, 50)})
	_ = db.UpsertHeartRate(hrRow("2026-03-14", "b"), []daily.HeartRateEntry{
		daily.Instant(8, 0, 60),
		daily.Instant(8, 10, 80),
		daily.Rollup(9, 0, 140, 52, 75),
	})

	sums, err := db.HeartRateSummaries("2026-03-14", "2026-03-14")
	if err != nil {
		t.Fatalf("HeartRateSummaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	s := sums[0]
	if s.Date != "2026-03-14" || s.Readings != 2 || s.Rollups != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Min == nil || *s.Min != 60 || s.Max == nil || *s.Max != 80 {
		t.Errorf("reading range = %v..%v, want 60..80", s.Min, s.Max)
	}
	if s.Avg == nil || *s.Avg != 70 {
		t.Errorf("avg = %v, want 70", s.Avg)
	}
	if s.PeakMax == nil || *s.PeakMax != 140 || s.LowMin == nil || *s.LowMin != 52 {
		t.Errorf("rollup range = %v..%v, want 52..140", s.LowMin, s.PeakMax)
	}
}

func TestRollupOnlyDayHasNoReadingStats(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertHeartRate(hrRow("2026-03-14", "b"), []daily.HeartRateEntry{daily.Rollup(9, 0, 140, 52, 75)})

	sums, _ := db.HeartRateSummaries("", "")
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	if sums[0].Readings != 0 || sums[0].Min != nil || sums[0].Avg != nil {
		t.Errorf("summary = %+v, want no reading stats", sums[0])
	}
}

func TestStepsSummaries(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSteps(rsRow("2026-03-14", "x"), []daily.StepsEntry{
		{Hour: 8, Minute: 40, Kind: daily.Walk, Count: 600},
		{Hour: 8, Minute: 10, Kind: daily.Run, Count: 300},
		{Hour: 12, Minute: 5, Kind: daily.Walk, Count: 100},
	})

	sums, err := db.StepsSummaries("", "")
	if err != nil {
		t.Fatalf("StepsSummaries: %v", err)
	}
	want := StepsSummary{Date: "2026-03-14", Total: 1000, Walk: 700, Run: 300, Entries: 3}
	if len(sums) != 1 || sums[0] != want {
		t.Errorf("summaries = %+v, want %+v", sums, want)
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSteps(rsRow("2026-03-14", "x"), []daily.StepsEntry{{Hour: 8, Minute: 40, Kind: daily.Walk, Count: 600}})

	if err := db.DeleteRecord("rs/2026-03-14"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	cs, _ := db.GetChecksum("rs/2026-03-14")
	if cs != "" {
		t.Errorf("deleted record still has checksum %q", cs)
	}
	sums, _ := db.StepsSummaries("", "")
	if len(sums) != 0 {
		t.Errorf("expected no step rows after delete, got %+v", sums)
	}
	if err := db.DeleteRecord("rs/2026-03-14"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDatesOrdered(t *testing.T) {
	db := testDB(t)
	for _, d := range []string{"2026-03-14", "2025-12-31", "2026-01-02"} {
		_ = db.UpsertHeartRate(hrRow(d, d), nil)
	}
	_ = db.UpsertSteps(rsRow("2026-02-02", "s"), nil)

	dates, err := db.Dates(daily.HeartRate.Name)
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	want := []string{"2025-12-31", "2026-01-02", "2026-03-14"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], want[i])
		}
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("hr/2026-1-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}
