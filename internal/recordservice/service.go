// Package recordservice is the read and command layer shared by the HTTP API and the
// MCP server.
package recordservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/checksum"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/device"
	"github.com/starford/wristlog/internal/index"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/storage"
)

// Watch is the live connection commands are sent through.
type Watch interface {
	SendAlert(ctx context.Context, kind protocol.AlertType, text string) error
	Sync(ctx context.Context) error
}

// HeartRateDay is one day's heart-rate record.
type HeartRateDay struct {
	Date     string                 `json:"date"`
	Count    uint32                 `json:"count"`
	Checksum string                 `json:"checksum,omitempty"`
	Entries  []daily.HeartRateEntry `json:"entries"`
}

// StepsDay is one day's step record.
type StepsDay struct {
	Date     string             `json:"date"`
	Count    uint32             `json:"count"`
	Checksum string             `json:"checksum,omitempty"`
	Total    int                `json:"total"`
	Entries  []daily.StepsEntry `json:"entries"`
}

// Service coordinates the daily stores, the index and the watch connection.
type Service struct {
	files     storage.Provider
	heartRate *daily.Store[daily.HeartRateEntry]
	steps     *daily.Store[daily.StepsEntry]
	db        index.RecordIndex
	state     *device.State
	watch     Watch
}

// NewService creates a record service. state and watch may be nil when no watch is attached.
func NewService(files storage.Provider, db index.RecordIndex, state *device.State, watch Watch) *Service {
	return &Service{
		files:     files,
		heartRate: daily.NewStore(daily.HeartRate, files),
		steps:     daily.NewStore(daily.Steps, files),
		db:        db,
		state:     state,
		watch:     watch,
	}
}

// ParseDate accepts YYYY-MM-DD as well as the unpadded record key form.
func ParseDate(s string) (models.Date, error) {
	d, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.Valid() {
		return models.Date{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDate, s)
	}
	return d, nil
}

// Metric maps a user-facing metric name to its partition.
func Metric(name string) (string, error) {
	switch name {
	case "hr", "heart_rate", "heart-rate":
		return daily.HeartRate.Name, nil
	case "rs", "steps":
		return daily.Steps.Name, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", apperr.ErrInvalidInput, name)
}

// ListDates returns the dates with a record of metric, oldest first.
func (s *Service) ListDates(_ context.Context, metric string) ([]string, error) {
	m, err := Metric(metric)
	if err != nil {
		return nil, err
	}
	dates, err := s.db.Dates(m)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(dates), nil
}

// HeartRate returns date's heart-rate record sorted by time. A date without a record
// yields an empty day.
func (s *Service) HeartRate(_ context.Context, date models.Date) (*HeartRateDay, error) {
	r, err := s.heartRate.Load(date)
	if err != nil {
		return nil, err
	}
	return &HeartRateDay{
		Date:     date.String(),
		Count:    r.Count,
		Checksum: s.checksum(s.heartRate.Key(date), r.Count),
		Entries:  nonNilSlice(r.Sorted()),
	}, nil
}

// Steps returns date's step record sorted by time. A date without a record yields an
// empty day.
func (s *Service) Steps(_ context.Context, date models.Date) (*StepsDay, error) {
	r, err := s.steps.Load(date)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, e := range r.Entries {
		total += int(e.Count)
	}
	return &StepsDay{
		Date:     date.String(),
		Count:    r.Count,
		Checksum: s.checksum(s.steps.Key(date), r.Count),
		Total:    total,
		Entries:  nonNilSlice(r.Sorted()),
	}, nil
}

// HeartRateSummaries returns per-day heart-rate aggregates for [from, to].
func (s *Service) HeartRateSummaries(_ context.Context, from, to string) ([]index.HeartRateSummary, error) {
	from, to, err := bounds(from, to)
	if err != nil {
		return nil, err
	}
	out, err := s.db.HeartRateSummaries(from, to)
	return nonNilSlice(out), err
}

// StepsSummaries returns per-day step totals for [from, to].
func (s *Service) StepsSummaries(_ context.Context, from, to string) ([]index.StepsSummary, error) {
	from, to, err := bounds(from, to)
	if err != nil {
		return nil, err
	}
	out, err := s.db.StepsSummaries(from, to)
	return nonNilSlice(out), err
}

// Device returns the watch state.
func (s *Service) Device(_ context.Context) device.Snapshot {
	if s.state == nil {
		return device.Snapshot{Name: protocol.DeviceName}
	}
	return s.state.Snapshot()
}

// SendAlert shows text on the watch as an alert of kind (e.g. "message", "call").
func (s *Service) SendAlert(ctx context.Context, kind, text string) error {
	k, err := protocol.ParseAlertType(kind)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: alert text is empty", apperr.ErrInvalidInput)
	}
	if s.watch == nil {
		return apperr.ErrNotConnected
	}
	return s.watch.SendAlert(ctx, k, text)
}

// Sync asks the watch for its stored history.
func (s *Service) Sync(ctx context.Context) error {
	if s.watch == nil {
		return apperr.ErrNotConnected
	}
	return s.watch.Sync(ctx)
}

func (s *Service) checksum(key string, count uint32) string {
	if count == 0 {
		return ""
	}
	data, err := s.files.Read(key)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

func bounds(from, to string) (string, string, error) {
	norm := func(v string) (string, error) {
		if v == "" {
			return "", nil
		}
		d, err := ParseDate(v)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	}
	f, err := norm(from)
	if err != nil {
		return "", "", err
	}
	t, err := norm(to)
	if err != nil {
		return "", "", err
	}
	return f, t, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
