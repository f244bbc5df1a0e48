package daily

import (
	"errors"
	"fmt"
	"sync"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/storage"
)

// Store persists the records of one metric in a storage.Provider under the kind's partition.
type Store[E Keyed] struct {
	kind  Kind[E]
	files storage.Provider
	locks keyedMutex
}

// NewStore creates a store for kind backed by files.
func NewStore[E Keyed](kind Kind[E], files storage.Provider) *Store[E] {
	return &Store[E]{kind: kind, files: files}
}

// Kind returns the metric the store persists.
func (s *Store[E]) Kind() Kind[E] { return s.kind }

// Key returns the object key of date's record.
func (s *Store[E]) Key(date models.Date) string {
	return storage.Key(s.kind.Name, date.Key())
}

// Load returns the record for date. A date without a record yields an empty one.
func (s *Store[E]) Load(date models.Date) (Record[E], error) {
	data, err := s.files.Read(s.Key(date))
	if errors.Is(err, apperr.ErrNotFound) {
		return Record[E]{}, nil
	}
	if err != nil {
		return Record[E]{}, fmt.Errorf("daily: load %s: %w", s.Key(date), err)
	}
	r, err := s.kind.Unmarshal(data)
	if err != nil {
		return Record[E]{}, fmt.Errorf("daily: load %s: %w", s.Key(date), err)
	}
	return r, nil
}

// Save overwrites date's record in full.
func (s *Store[E]) Save(date models.Date, r Record[E]) error {
	if err := s.files.Write(s.Key(date), s.kind.Marshal(r)); err != nil {
		return fmt.Errorf("daily: save %s: %w", s.Key(date), err)
	}
	return nil
}

// ListDates returns every date that has a record, in no particular order. Object names
// that do not parse as dates are skipped.
func (s *Store[E]) ListDates() ([]models.Date, error) {
	objs, err := s.files.List(s.kind.Name)
	if err != nil {
		return nil, fmt.Errorf("daily: list %s: %w", s.kind.Name, err)
	}
	dates := make([]models.Date, 0, len(objs))
	for _, o := range objs {
		d, err := models.ParseKey(o.Name)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// Merge inserts entries into date's record and saves it. Merges of the same date are
// serialized; different dates proceed independently. A corrupt record is not overwritten.
func (s *Store[E]) Merge(date models.Date, entries ...E) (Record[E], error) {
	unlock := s.locks.lock(date.Key())
	defer unlock()

	r, err := s.Load(date)
	if err != nil {
		return Record[E]{}, err
	}
	for _, e := range entries {
		r.Insert(e)
	}
	if err := s.Save(date, r); err != nil {
		return Record[E]{}, err
	}
	return r, nil
}

// keyedMutex hands out one mutex per key and forgets it when no holder or waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
