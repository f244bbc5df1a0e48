// Package models defines the domain types shared by the codec, the daily store and the API.
package models

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date as the watch reports it. It carries no time zone.
type Date struct {
	Year  uint16 `json:"year"`
	Month uint8  `json:"month"`
	Day   uint8  `json:"day"`
}

// NewDate returns the date for year, month and day.
func NewDate(year uint16, month, day uint8) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: uint16(t.Year()), Month: uint8(t.Month()), Day: uint8(t.Day())}
}

// Compare orders dates by year, month, then day.
func (d Date) Compare(o Date) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// Valid reports whether d is a real Gregorian date.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	t := time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC)
	return t.Day() == int(d.Day)
}

// Key returns the store object name for d: decimal, hyphen separated, no zero padding.
func (d Date) Key() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseKey parses an object name produced by Key. Zero-padded components and
// dates that do not exist are rejected, so a parsed key always loads back from
// the same object.
func ParseKey(s string) (Date, error) {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, err
	}
	if d.Key() != s {
		return Date{}, fmt.Errorf("models: date key %q: not in canonical form", s)
	}
	if !d.Valid() {
		return Date{}, fmt.Errorf("models: date key %q: no such date", s)
	}
	return d, nil
}

// ParseDate parses YYYY-MM-DD with or without zero padding. The result is not
// checked for validity.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("models: date key %q: want 3 components", s)
	}
	year, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Date{}, fmt.Errorf("models: date key %q: year: %w", s, err)
	}
	month, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Date{}, fmt.Errorf("models: date key %q: month: %w", s, err)
	}
	day, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Date{}, fmt.Errorf("models: date key %q: day: %w", s, err)
	}
	return NewDate(uint16(year), uint8(month), uint8(day)), nil
}

// SortDates sorts dates chronologically in place.
func SortDates(dates []Date) {
	slices.SortFunc(dates, Date.Compare)
}
