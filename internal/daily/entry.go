// Package daily stores telemetry as one binary record per metric and calendar date.
//
// A record is a 4-byte tag, a little-endian u32 entry count and the entries back to back,
// each prefixed by its own 4-byte tag. Entries are keyed by time of day; inserting an
// entry replaces any entry with the same hour and minute.
package daily

import (
	"cmp"
	"fmt"
)

// NotApplicable marks a heart-rate field that does not apply to the entry.
const NotApplicable uint8 = 255

// TimeKey is the natural key of an entry within a day.
type TimeKey struct {
	Hour   uint8
	Minute uint8
}

// Compare orders keys by hour then minute.
func (k TimeKey) Compare(o TimeKey) int {
	if c := cmp.Compare(k.Hour, o.Hour); c != 0 {
		return c
	}
	return cmp.Compare(k.Minute, o.Minute)
}

func (k TimeKey) String() string { return fmt.Sprintf("%02d:%02d", k.Hour, k.Minute) }

// Keyed is implemented by entry types.
type Keyed interface {
	TimeKey() TimeKey
}

// HeartRateEntry is either an instantaneous reading (Max, Min and Avg are NotApplicable) or
// a rollup (HeartRate is NotApplicable). A reading whose HeartRate is also NotApplicable is
// a slot the watch marked invalid.
type HeartRateEntry struct {
	Hour      uint8 `json:"hour"`
	Minute    uint8 `json:"minute"`
	HeartRate uint8 `json:"heart_rate"`
	Max       uint8 `json:"max_heart_rate"`
	Min       uint8 `json:"min_heart_rate"`
	Avg       uint8 `json:"avg_heart_rate"`
}

// Instant returns an instantaneous reading.
func Instant(hour, minute, rate uint8) HeartRateEntry {
	return HeartRateEntry{
		Hour: hour, Minute: minute, HeartRate: rate,
		Max: NotApplicable, Min: NotApplicable, Avg: NotApplicable,
	}
}

// Rollup returns a max/min/avg summary.
func Rollup(hour, minute, hi, lo, avg uint8) HeartRateEntry {
	return HeartRateEntry{
		Hour: hour, Minute: minute, HeartRate: NotApplicable,
		Max: hi, Min: lo, Avg: avg,
	}
}

func (e HeartRateEntry) TimeKey() TimeKey { return TimeKey{e.Hour, e.Minute} }

// IsRollup reports whether e carries max/min/avg rather than a single reading.
func (e HeartRateEntry) IsRollup() bool {
	return e.Max != NotApplicable || e.Min != NotApplicable || e.Avg != NotApplicable
}

// StepKind distinguishes walking from running steps.
type StepKind uint8

const (
	Walk StepKind = 0
	Run  StepKind = 1
)

func (k StepKind) String() string {
	switch k {
	case Walk:
		return "walk"
	case Run:
		return "run"
	default:
		return fmt.Sprintf("StepKind(%d)", uint8(k))
	}
}

func (k StepKind) MarshalText() ([]byte, error) {
	if k != Walk && k != Run {
		return nil, fmt.Errorf("daily: unknown step kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *StepKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "walk":
		*k = Walk
	case "run":
		*k = Run
	default:
		return fmt.Errorf("daily: unknown step kind %q", b)
	}
	return nil
}

// StepsEntry is the number of steps of one kind added up to Hour:Minute.
type StepsEntry struct {
	Hour   uint8    `json:"hour"`
	Minute uint8    `json:"minute"`
	Kind   StepKind `json:"kind"`
	Count  uint16   `json:"count"`
}

func (e StepsEntry) TimeKey() TimeKey { return TimeKey{e.Hour, e.Minute} }
