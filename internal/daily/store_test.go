package daily_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/storage"
)

var day = models.NewDate(2024, 3, 5)

func newFS(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestInsertSameKeyReplaces(t *testing.T) {
	var r daily.Record[daily.HeartRateEntry]
	r.Insert(daily.Instant(9, 15, 70))
	r.Insert(daily.Instant(9, 15, 75))

	require.Equal(t, uint32(1), r.Count)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, uint8(75), r.Entries[0].HeartRate)
}

func TestInsertIsIdempotent(t *testing.T) {
	var r daily.Record[daily.StepsEntry]
	e := daily.StepsEntry{Hour: 7, Minute: 30, Kind: daily.Walk, Count: 120}
	r.Insert(e)
	r.Insert(e)

	assert.Equal(t, uint32(1), r.Count)
	assert.Equal(t, []daily.StepsEntry{e}, r.Entries)
}

func TestInsertDistinctKeysInAnyOrder(t *testing.T) {
	entries := []daily.HeartRateEntry{
		daily.Instant(1, 0, 60),
		daily.Instant(1, 10, 61),
		daily.Rollup(2, 0, 90, 50, 65),
		daily.Instant(23, 59, 62),
	}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}}

	for _, order := range orders {
		var r daily.Record[daily.HeartRateEntry]
		for _, i := range order {
			r.Insert(entries[i])
		}
		assert.Equal(t, uint32(len(entries)), r.Count)
		assert.ElementsMatch(t, entries, r.Entries)
		assert.Equal(t, entries, r.Sorted())
	}
}

func TestInsertKeepsArrivalOrder(t *testing.T) {
	var r daily.Record[daily.HeartRateEntry]
	r.Insert(daily.Instant(10, 0, 1))
	r.Insert(daily.Instant(8, 0, 2))
	r.Insert(daily.Instant(10, 0, 3))

	require.Len(t, r.Entries, 2)
	assert.Equal(t, uint8(8), r.Entries[0].Hour)
	assert.Equal(t, uint8(3), r.Entries[1].HeartRate)
}

func TestSentinels(t *testing.T) {
	instant := daily.Instant(9, 0, 72)
	assert.Equal(t, daily.NotApplicable, instant.Max)
	assert.Equal(t, daily.NotApplicable, instant.Min)
	assert.Equal(t, daily.NotApplicable, instant.Avg)
	assert.False(t, instant.IsRollup())

	rollup := daily.Rollup(9, 0, 120, 55, 80)
	assert.Equal(t, daily.NotApplicable, rollup.HeartRate)
	assert.True(t, rollup.IsRollup())

	invalid := daily.Instant(9, 10, daily.NotApplicable)
	assert.False(t, invalid.IsRollup())
}

func TestMarshalLayout(t *testing.T) {
	r := daily.Record[daily.StepsEntry]{}
	r.Insert(daily.StepsEntry{Hour: 13, Minute: 2, Kind: daily.Run, Count: 0x0102})

	want := []byte{
		'R', 'S', 'D', 'B', 1, 0, 0, 0,
		'R', 'S', 'D', 'E', 13, 2, 1, 0x02, 0x01,
	}
	assert.Equal(t, want, daily.Steps.Marshal(r))

	hr := daily.Record[daily.HeartRateEntry]{}
	hr.Insert(daily.Instant(9, 15, 75))
	assert.Equal(t, []byte{
		'H', 'R', 'D', 'B', 1, 0, 0, 0,
		'H', 'R', 'D', 'E', 9, 15, 75, 255, 255, 255,
	}, daily.HeartRate.Marshal(hr))
}

func TestUnmarshalRejectsCorruption(t *testing.T) {
	good := daily.HeartRate.Marshal(daily.Record[daily.HeartRateEntry]{
		Entries: []daily.HeartRateEntry{daily.Instant(1, 2, 3)},
	})

	badEntryTag := append([]byte(nil), good...)
	badEntryTag[8] = 'X'

	badCount := append([]byte(nil), good...)
	badCount[4] = 2

	cases := map[string][]byte{
		"empty":         nil,
		"short header":  good[:6],
		"wrong tag":     append([]byte("RSDB"), good[4:]...),
		"truncated":     good[:len(good)-1],
		"trailing":      append(append([]byte(nil), good...), 0),
		"bad entry tag": badEntryTag,
		"count too big": badCount,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := daily.HeartRate.Unmarshal(data)
			assert.ErrorIs(t, err, apperr.ErrStoreCorrupt)
		})
	}

	_, err := daily.Steps.Unmarshal([]byte{'R', 'S', 'D', 'B', 1, 0, 0, 0, 'R', 'S', 'D', 'E', 1, 1, 7, 1, 0})
	assert.ErrorIs(t, err, apperr.ErrStoreCorrupt, "unknown step kind")
}

func TestLoadMissingIsEmpty(t *testing.T) {
	store := daily.NewStore(daily.HeartRate, newFS(t))

	r, err := store.Load(day)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), r.Count)
	assert.Empty(t, r.Entries)
}

func TestLoadWrongTagIsCorrupt(t *testing.T) {
	fs := newFS(t)
	// A steps record written where a heart-rate record is expected.
	steps := daily.Steps.Marshal(daily.Record[daily.StepsEntry]{})
	require.NoError(t, fs.Write("hr/"+day.Key(), steps))

	store := daily.NewStore(daily.HeartRate, fs)
	_, err := store.Load(day)
	assert.ErrorIs(t, err, apperr.ErrStoreCorrupt)
}

func TestMergeCorruptRecordIsKept(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Write("hr/"+day.Key(), []byte("garbage")))

	store := daily.NewStore(daily.HeartRate, fs)
	_, err := store.Merge(day, daily.Instant(1, 1, 60))
	require.ErrorIs(t, err, apperr.ErrStoreCorrupt)

	raw, err := fs.Read("hr/" + day.Key())
	require.NoError(t, err)
	assert.Equal(t, []byte("garbage"), raw)
}

func TestMergeSaveLoad(t *testing.T) {
	store := daily.NewStore(daily.HeartRate, newFS(t))

	_, err := store.Merge(day, daily.Instant(9, 15, 70))
	require.NoError(t, err)
	r, err := store.Merge(day, daily.Instant(9, 15, 75), daily.Rollup(10, 0, 110, 60, 80))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), r.Count)

	loaded, err := store.Load(day)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
	assert.Equal(t, uint8(75), loaded.Entries[0].HeartRate)
}

func TestListDates(t *testing.T) {
	fs := newFS(t)
	store := daily.NewStore(daily.Steps, fs)

	dates := []models.Date{
		models.NewDate(2024, 12, 31),
		models.NewDate(2023, 1, 1),
		models.NewDate(2024, 2, 29),
	}
	for _, d := range dates {
		require.NoError(t, store.Save(d, daily.Record[daily.StepsEntry]{}))
	}
	require.NoError(t, fs.Write("rs/notes.txt", []byte("x")))
	require.NoError(t, fs.Write("rs/2024-13", []byte("x")))
	require.NoError(t, fs.Write("hr/2022-5-5", []byte("x")))

	var r daily.Record[daily.StepsEntry]
	r.Insert(daily.StepsEntry{Hour: 9, Kind: daily.Walk, Count: 10})
	padded := daily.Steps.Marshal(r)
	require.NoError(t, fs.Write("rs/2024-03-05", padded))
	require.NoError(t, fs.Write("rs/2024-13-99", padded))

	got, err := store.ListDates()
	require.NoError(t, err)
	assert.ElementsMatch(t, dates, got)

	models.SortDates(got)
	assert.Equal(t, models.NewDate(2023, 1, 1), got[0])
	assert.Equal(t, "rs/2024-2-29", store.Key(got[1]))
}

func TestConcurrentMergesSameDate(t *testing.T) {
	store := daily.NewStore(daily.HeartRate, newFS(t))

	var wg sync.WaitGroup
	for hour := range uint8(24) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Merge(day, daily.Instant(hour, 0, 60+hour))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	r, err := store.Load(day)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), r.Count)
}

func TestStepKindText(t *testing.T) {
	b, err := daily.Run.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "run", string(b))

	var k daily.StepKind
	require.NoError(t, k.UnmarshalText([]byte("walk")))
	assert.Equal(t, daily.Walk, k)
	assert.Error(t, k.UnmarshalText([]byte("swim")))
}
