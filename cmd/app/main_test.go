package main

import (
	"testing"

	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/storage"
)

func TestStoredDatesAreChronological(t *testing.T) {
	root := t.TempDir()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	rs := daily.NewStore(daily.Steps, fs)
	for _, d := range []models.Date{
		models.NewDate(2024, 10, 1),
		models.NewDate(2024, 2, 1),
		models.NewDate(2023, 12, 31),
	} {
		if _, err := rs.Merge(d, daily.StepsEntry{Hour: 8, Kind: daily.Walk, Count: 10}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := daily.NewStore(daily.HeartRate, fs).Merge(models.NewDate(2024, 5, 5), daily.Instant(8, 0, 70)); err != nil {
		t.Fatal(err)
	}

	got, err := storedDates(root, "steps")
	if err != nil {
		t.Fatalf("storedDates: %v", err)
	}
	want := []string{"2023-12-31", "2024-02-01", "2024-10-01"}
	if len(got) != len(want) {
		t.Fatalf("dates = %v, want %v", got, want)
	}
	for i, d := range got {
		if d.String() != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, d, want[i])
		}
	}

	if _, err := storedDates(root, "sleep"); err == nil {
		t.Error("unknown metric should fail")
	}
}
