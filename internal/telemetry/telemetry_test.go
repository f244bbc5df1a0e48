package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/storage"
	"github.com/starford/wristlog/internal/telemetry"
)

var day = models.NewDate(2024, 6, 1)

func TestRecordedStepsOnlyPositiveKinds(t *testing.T) {
	res := &protocol.DataRecordedStepsEntryResponse{Entry: protocol.StepsEntry{
		Date: day, Hour: 8, NewWalk: 0, LastWalkMinute: 10, NewRun: 12, LastRunMinute: 44,
	}}

	date, entries, ok := telemetry.Steps(res)
	require.True(t, ok)
	assert.Equal(t, day, date)
	require.Len(t, entries, 1)
	assert.Equal(t, daily.StepsEntry{Hour: 8, Minute: 44, Kind: daily.Run, Count: 12}, entries[0])
}

func TestRecordedStepsBothKinds(t *testing.T) {
	entries := telemetry.StepsEntries(protocol.StepsEntry{
		Date: day, Hour: 17, NewWalk: 500, LastWalkMinute: 59, NewRun: 90, LastRunMinute: 20,
	})
	assert.Equal(t, []daily.StepsEntry{
		{Hour: 17, Minute: 59, Kind: daily.Walk, Count: 500},
		{Hour: 17, Minute: 20, Kind: daily.Run, Count: 90},
	}, entries)

	assert.Empty(t, telemetry.StepsEntries(protocol.StepsEntry{Date: day, Hour: 3}))
}

func TestGeneralRecordedStepsAreIngested(t *testing.T) {
	_, entries, ok := telemetry.Steps(&protocol.RecordedStepsEntryResponse{Entry: protocol.StepsEntry{Hour: 1, NewWalk: 3}})
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestHeartRateSentinels(t *testing.T) {
	_, entries, ok := telemetry.HeartRate(&protocol.HeartRatePeriodicResponse{Date: day, Hour: 9, Minute: 15, HeartRate: 70})
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, daily.HeartRateEntry{Hour: 9, Minute: 15, HeartRate: 70, Max: 255, Min: 255, Avg: 255}, entries[0])

	_, entries, ok = telemetry.HeartRate(&protocol.HeartRateTodayAltResponse{Date: day, Hour: 10, Minute: 5, Max: 130, Min: 52, Avg: 77})
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, daily.HeartRateEntry{Hour: 10, Minute: 5, HeartRate: 255, Max: 130, Min: 52, Avg: 77}, entries[0])
}

func TestDayHourSpacing(t *testing.T) {
	res := &protocol.HeartRateDayHourResponse{Date: day, Hour: 6}
	for i := range res.HeartRates {
		res.HeartRates[i] = uint8(60 + i)
	}
	res.HeartRates[3] = daily.NotApplicable

	entries := telemetry.DayHour(res)
	require.Len(t, entries, 12)
	assert.Equal(t, daily.TimeKey{Hour: 6, Minute: 0}, entries[0].TimeKey())
	assert.Equal(t, daily.TimeKey{Hour: 6, Minute: 30}, entries[3].TimeKey())
	assert.Equal(t, daily.TimeKey{Hour: 7, Minute: 50}, entries[11].TimeKey())
	assert.Equal(t, daily.Instant(6, 30, daily.NotApplicable), entries[3])
	for _, e := range entries {
		assert.False(t, e.IsRollup())
	}
}

func TestDayHourDropsPastMidnight(t *testing.T) {
	res := &protocol.HeartRateDayHourResponse{Date: day, Hour: 23}
	for i := range res.HeartRates {
		res.HeartRates[i] = 70
	}
	entries := telemetry.DayHour(res)
	require.Len(t, entries, 6)
	assert.Equal(t, uint8(50), entries[5].Minute)
}

func TestNonTelemetryResponses(t *testing.T) {
	_, _, ok := telemetry.HeartRate(&protocol.BatteryResponse{})
	assert.False(t, ok)
	_, _, ok = telemetry.Steps(&protocol.StepsResponse{})
	assert.False(t, ok)
}

func newIngestor(t *testing.T) (*telemetry.Ingestor, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return &telemetry.Ingestor{
		HeartRate: daily.NewStore(daily.HeartRate, fs),
		Steps:     daily.NewStore(daily.Steps, fs),
	}, fs
}

func TestIngest(t *testing.T) {
	in, _ := newIngestor(t)

	res, err := in.Ingest(&protocol.HeartRatePeriodicResponse{Date: day, Hour: 9, Minute: 15, HeartRate: 70})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, telemetry.Result{Metric: "hr", Date: day, Added: 1, Count: 1}, *res)

	res, err = in.Ingest(&protocol.HeartRatePeriodicResponse{Date: day, Hour: 9, Minute: 15, HeartRate: 75})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), res.Count)

	rec, err := in.HeartRate.Load(day)
	require.NoError(t, err)
	assert.Equal(t, uint8(75), rec.Entries[0].HeartRate)

	res, err = in.Ingest(&protocol.RecordedStepsEntryResponse{Entry: protocol.StepsEntry{Date: day, Hour: 2, NewRun: 4}})
	require.NoError(t, err)
	assert.Equal(t, "rs", res.Metric)

	res, err = in.Ingest(&protocol.FirmwareResponse{})
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = in.Ingest(&protocol.DataRecordedStepsEntryResponse{Entry: protocol.StepsEntry{Date: day}})
	require.NoError(t, err)
	assert.Nil(t, res, "no positive counts")
}

func TestIngestCorruptRecord(t *testing.T) {
	in, fs := newIngestor(t)
	require.NoError(t, fs.Write("hr/"+day.Key(), []byte("RSDB\x00\x00\x00\x00")))

	_, err := in.Ingest(&protocol.HeartRateTodayResponse{Date: day})
	assert.ErrorIs(t, err, apperr.ErrStoreCorrupt)
}
