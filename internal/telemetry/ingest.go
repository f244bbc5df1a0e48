package telemetry

import (
	"fmt"

	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
)

// Result describes one merge into a daily record.
type Result struct {
	Metric string      `json:"metric"`
	Date   models.Date `json:"date"`
	Added  int         `json:"added"`
	Count  uint32      `json:"count"`
}

// Ingestor merges telemetry responses into the daily stores.
type Ingestor struct {
	HeartRate *daily.Store[daily.HeartRateEntry]
	Steps     *daily.Store[daily.StepsEntry]
}

// Ingest merges the entries res carries. It returns nil, nil for responses without
// telemetry or with nothing to add.
func (in *Ingestor) Ingest(res protocol.Response) (*Result, error) {
	if date, entries, ok := HeartRate(res); ok {
		return merge(in.HeartRate, date, entries)
	}
	if date, entries, ok := Steps(res); ok {
		return merge(in.Steps, date, entries)
	}
	return nil, nil
}

func merge[E daily.Keyed](store *daily.Store[E], date models.Date, entries []E) (*Result, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	r, err := store.Merge(date, entries...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: merge %s %s: %w", store.Kind().Name, date, err)
	}
	return &Result{Metric: store.Kind().Name, Date: date, Added: len(entries), Count: r.Count}, nil
}
