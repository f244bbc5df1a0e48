package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyRoundTrips(t *testing.T) {
	for _, d := range []Date{NewDate(2024, 3, 5), NewDate(2024, 2, 29), NewDate(1999, 12, 31)} {
		got, err := ParseKey(d.Key())
		require.NoError(t, err, d.Key())
		assert.Equal(t, d, got)
	}
}

func TestParseKeyRejectsNonCanonical(t *testing.T) {
	for _, s := range []string{
		"2024-03-05",
		"02024-3-5",
		"2024-13-99",
		"2023-2-29",
		"2024-0-1",
		"+2024-3-5",
		"2024-3",
		"notes.txt",
	} {
		_, err := ParseKey(s)
		assert.Error(t, err, s)
	}
}

func TestParseDateIsLenient(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 3, 5), d)
	assert.Equal(t, "2024-3-5", d.Key())
	assert.Equal(t, "2024-03-05", d.String())
}

func TestSortDates(t *testing.T) {
	ds := []Date{NewDate(2024, 10, 1), NewDate(2024, 2, 1), NewDate(2023, 12, 31)}
	SortDates(ds)
	assert.Equal(t, []Date{NewDate(2023, 12, 31), NewDate(2024, 2, 1), NewDate(2024, 10, 1)}, ds)
}
