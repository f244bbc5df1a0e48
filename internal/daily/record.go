package daily

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/starford/wristlog/internal/apperr"
)

// Record is the set of entries for one metric and date. Entries keep arrival order.
type Record[E Keyed] struct {
	Count   uint32 `json:"count"`
	Entries []E    `json:"entries"`
}

// Insert replaces any entry with the same time key and appends e.
func (r *Record[E]) Insert(e E) {
	key := e.TimeKey()
	r.Entries = slices.DeleteFunc(r.Entries, func(x E) bool { return x.TimeKey() == key })
	r.Entries = append(r.Entries, e)
	r.Count = uint32(len(r.Entries))
}

// Sorted returns a copy of the entries ordered by time of day.
func (r Record[E]) Sorted() []E {
	out := slices.Clone(r.Entries)
	slices.SortStableFunc(out, func(a, b E) int { return a.TimeKey().Compare(b.TimeKey()) })
	return out
}

// Kind describes how one metric is persisted.
type Kind[E Keyed] struct {
	// Name is the partition the metric's records live under.
	Name      string
	RecordTag [4]byte
	EntryTag  [4]byte
	BodySize  int
	encode    func(b []byte, e E) []byte
	decode    func(body []byte) (E, error)
}

// HeartRate persists heart-rate records: tag HRDB, entries HRDE hour min hr max min avg.
var HeartRate = Kind[HeartRateEntry]{
	Name:      "hr",
	RecordTag: [4]byte{'H', 'R', 'D', 'B'},
	EntryTag:  [4]byte{'H', 'R', 'D', 'E'},
	BodySize:  6,
	encode: func(b []byte, e HeartRateEntry) []byte {
		return append(b, e.Hour, e.Minute, e.HeartRate, e.Max, e.Min, e.Avg)
	},
	decode: func(body []byte) (HeartRateEntry, error) {
		return HeartRateEntry{
			Hour: body[0], Minute: body[1], HeartRate: body[2],
			Max: body[3], Min: body[4], Avg: body[5],
		}, nil
	},
}

// Steps persists recorded-steps records: tag RSDB, entries RSDE hour min kind count_le.
var Steps = Kind[StepsEntry]{
	Name:      "rs",
	RecordTag: [4]byte{'R', 'S', 'D', 'B'},
	EntryTag:  [4]byte{'R', 'S', 'D', 'E'},
	BodySize:  5,
	encode: func(b []byte, e StepsEntry) []byte {
		b = append(b, e.Hour, e.Minute, byte(e.Kind))
		return binary.LittleEndian.AppendUint16(b, e.Count)
	},
	decode: func(body []byte) (StepsEntry, error) {
		kind := StepKind(body[2])
		if kind != Walk && kind != Run {
			return StepsEntry{}, fmt.Errorf("unknown step kind %d", body[2])
		}
		return StepsEntry{
			Hour: body[0], Minute: body[1], Kind: kind,
			Count: binary.LittleEndian.Uint16(body[3:]),
		}, nil
	},
}

const headerSize = 8

// Marshal serializes r. The count written is the number of entries.
func (k Kind[E]) Marshal(r Record[E]) []byte {
	b := make([]byte, 0, headerSize+len(r.Entries)*(4+k.BodySize))
	b = append(b, k.RecordTag[:]...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(r.Entries)))
	for _, e := range r.Entries {
		b = append(b, k.EntryTag[:]...)
		b = k.encode(b, e)
	}
	return b
}

// Unmarshal parses a persisted record. Any deviation wraps apperr.ErrStoreCorrupt.
func (k Kind[E]) Unmarshal(data []byte) (Record[E], error) {
	if len(data) < headerSize {
		return Record[E]{}, k.corrupt("short header: %d bytes", len(data))
	}
	if [4]byte(data[:4]) != k.RecordTag {
		return Record[E]{}, k.corrupt("record tag %q", data[:4])
	}
	count := binary.LittleEndian.Uint32(data[4:8])
	size := 4 + k.BodySize
	if want := headerSize + int64(count)*int64(size); int64(len(data)) != want {
		return Record[E]{}, k.corrupt("length %d, want %d for %d entries", len(data), want, count)
	}

	r := Record[E]{Count: count, Entries: make([]E, 0, count)}
	for off := headerSize; off < len(data); off += size {
		if [4]byte(data[off:off+4]) != k.EntryTag {
			return Record[E]{}, k.corrupt("entry tag %q at offset %d", data[off:off+4], off)
		}
		e, err := k.decode(data[off+4 : off+size])
		if err != nil {
			return Record[E]{}, k.corrupt("entry at offset %d: %v", off, err)
		}
		r.Entries = append(r.Entries, e)
	}
	return r, nil
}

func (k Kind[E]) corrupt(format string, args ...any) error {
	return fmt.Errorf("daily: %s: %s: %w", k.Name, fmt.Sprintf(format, args...), apperr.ErrStoreCorrupt)
}
