// Package telemetry turns decoded watch responses into daily store entries.
package telemetry

import (
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
)

// sampleSpacing is the number of minutes between readings of a day-hour batch.
const sampleSpacing = 10

// HeartRate returns the entries carried by res. ok is false for responses that carry no
// heart-rate telemetry.
func HeartRate(res protocol.Response) (date models.Date, entries []daily.HeartRateEntry, ok bool) {
	switch r := res.(type) {
	case *protocol.HeartRateTodayResponse:
		return r.Date, []daily.HeartRateEntry{daily.Rollup(r.Hour, r.Minute, r.Max, r.Min, r.Avg)}, true
	case *protocol.HeartRateTodayAltResponse:
		return r.Date, []daily.HeartRateEntry{daily.Rollup(r.Hour, r.Minute, r.Max, r.Min, r.Avg)}, true
	case *protocol.HeartRatePeriodicResponse:
		return r.Date, []daily.HeartRateEntry{daily.Instant(r.Hour, r.Minute, r.HeartRate)}, true
	case *protocol.HeartRatePeriodicAltResponse:
		return r.Date, []daily.HeartRateEntry{daily.Instant(r.Hour, r.Minute, r.HeartRate)}, true
	case *protocol.HeartRateDayHourResponse:
		return r.Date, DayHour(r), true
	}
	return models.Date{}, nil, false
}

// DayHour expands a day-hour batch into readings ten minutes apart from Hour:00. Slots past
// 23:59 are dropped; slots the watch marked invalid are kept with the NotApplicable rate.
func DayHour(r *protocol.HeartRateDayHourResponse) []daily.HeartRateEntry {
	entries := make([]daily.HeartRateEntry, 0, len(r.HeartRates))
	minutes := int(r.Hour) * 60
	for _, rate := range r.HeartRates {
		hour, minute := minutes/60, minutes%60
		minutes += sampleSpacing
		if hour > 23 {
			continue
		}
		entries = append(entries, daily.Instant(uint8(hour), uint8(minute), rate))
	}
	return entries
}

// Steps returns the entries carried by a recorded-steps response on either channel.
func Steps(res protocol.Response) (date models.Date, entries []daily.StepsEntry, ok bool) {
	switch r := res.(type) {
	case *protocol.RecordedStepsEntryResponse:
		return r.Entry.Date, StepsEntries(r.Entry), true
	case *protocol.DataRecordedStepsEntryResponse:
		return r.Entry.Date, StepsEntries(r.Entry), true
	}
	return models.Date{}, nil, false
}

// StepsEntries splits one hour of step history into a walk and a run entry. Kinds with no
// new steps produce no entry.
func StepsEntries(e protocol.StepsEntry) []daily.StepsEntry {
	var out []daily.StepsEntry
	if e.NewWalk > 0 {
		out = append(out, daily.StepsEntry{Hour: e.Hour, Minute: e.LastWalkMinute, Kind: daily.Walk, Count: e.NewWalk})
	}
	if e.NewRun > 0 {
		out = append(out, daily.StepsEntry{Hour: e.Hour, Minute: e.LastRunMinute, Kind: daily.Run, Count: e.NewRun})
	}
	return out
}
