package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/wristlog/internal/daily"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	Key       string
	Metric    string
	Date      string
	Checksum  string
	UpdatedAt time.Time
}

// HeartRateSummary aggregates one day of heart-rate entries. Reading fields cover
// instantaneous readings only; PeakMax and LowMin cover rollups.
type HeartRateSummary struct {
	Date     string   `json:"date"`
	Readings int      `json:"readings"`
	Min      *int     `json:"min,omitempty"`
	Max      *int     `json:"max,omitempty"`
	Avg      *float64 `json:"avg,omitempty"`
	Rollups  int      `json:"rollups"`
	PeakMax  *int     `json:"peak_max,omitempty"`
	LowMin   *int     `json:"low_min,omitempty"`
}

// StepsSummary aggregates one day of step entries.
type StepsSummary struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Walk    int    `json:"walk"`
	Run     int    `json:"run"`
	Entries int    `json:"entries"`
}

func nullable(v uint8) any {
	if v == daily.NotApplicable {
		return nil
	}
	return int(v)
}

func upsertRecord(tx *sql.Tx, r RecordRow, entries int) error {
	_, err := tx.Exec(`
		INSERT INTO records (key, metric, date, checksum, entries, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			metric     = excluded.metric,
			date       = excluded.date,
			checksum   = excluded.checksum,
			entries    = excluded.entries,
			updated_at = excluded.updated_at
	`, r.Key, r.Metric, r.Date, r.Checksum, entries, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}
	return nil
}

// UpsertHeartRate replaces the indexed heart-rate entries of a record within a transaction.
func (db *DB) UpsertHeartRate(r RecordRow, entries []daily.HeartRateEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertRecord(tx, r, len(entries)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM heart_rate WHERE date = ?`, r.Date); err != nil {
		return fmt.Errorf("index: clear heart rate: %w", err)
	}
	if len(entries) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO heart_rate (date, hour, minute, heart_rate, max, min, avg)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare heart rate insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.Exec(r.Date, e.Hour, e.Minute,
				nullable(e.HeartRate), nullable(e.Max), nullable(e.Min), nullable(e.Avg)); err != nil {
				return fmt.Errorf("index: insert heart rate: %w", err)
			}
		}
	}
	return tx.Commit()
}

// UpsertSteps replaces the indexed step entries of a record within a transaction.
func (db *DB) UpsertSteps(r RecordRow, entries []daily.StepsEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertRecord(tx, r, len(entries)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM steps WHERE date = ?`, r.Date); err != nil {
		return fmt.Errorf("index: clear steps: %w", err)
	}
	if len(entries) > 0 {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO steps (date, hour, minute, kind, count) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare steps insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.Exec(r.Date, e.Hour, e.Minute, e.Kind.String(), e.Count); err != nil {
				return fmt.Errorf("index: insert steps: %w", err)
			}
		}
	}
	return tx.Commit()
}

// DeleteRecord removes a record and its indexed entries.
func (db *DB) DeleteRecord(key string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var metric, date string
	err = tx.QueryRow(`SELECT metric, date FROM records WHERE key = ?`, key).Scan(&metric, &date)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: lookup record: %w", err)
	}
	switch metric {
	case daily.HeartRate.Name:
		_, _ = tx.Exec(`DELETE FROM heart_rate WHERE date = ?`, date)
	case daily.Steps.Name:
		_, _ = tx.Exec(`DELETE FROM steps WHERE date = ?`, date)
	}
	_, _ = tx.Exec(`DELETE FROM records WHERE key = ?`, key)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a record, or empty string if not found.
func (db *DB) GetChecksum(key string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM records WHERE key = ?`, key).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns key → checksum for every indexed record.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, checksum FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, cs string
		if err := rows.Scan(&k, &cs); err != nil {
			return nil, err
		}
		out[k] = cs
	}
	return out, rows.Err()
}

// Dates returns the dates (YYYY-MM-DD) with an indexed record of metric, oldest first.
func (db *DB) Dates(metric string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT date FROM records WHERE metric = ? ORDER BY date`, metric)
	if err != nil {
		return nil, fmt.Errorf("index: dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func dateRange(from, to string) (string, string) {
	if from == "" {
		from = "0000-00-00"
	}
	if to == "" {
		to = "9999-99-99"
	}
	return from, to
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// HeartRateSummaries aggregates heart rate per day for dates in [from, to]. Empty bounds
// are open.
func (db *DB) HeartRateSummaries(from, to string) ([]HeartRateSummary, error) {
	from, to = dateRange(from, to)
	rows, err := db.conn.Query(`
		SELECT date,
		       COUNT(heart_rate), MIN(heart_rate), MAX(heart_rate), AVG(heart_rate),
		       COUNT(max), MAX(max), MIN(min)
		FROM heart_rate
		WHERE date BETWEEN ? AND ?
		GROUP BY date
		ORDER BY date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("index: heart rate summaries: %w", err)
	}
	defer rows.Close()

	var out []HeartRateSummary
	for rows.Next() {
		var (
			s                   HeartRateSummary
			lo, hi, peak, floor sql.NullInt64
			avg                 sql.NullFloat64
		)
		if err := rows.Scan(&s.Date, &s.Readings, &lo, &hi, &avg, &s.Rollups, &peak, &floor); err != nil {
			return nil, err
		}
		s.Min, s.Max, s.PeakMax, s.LowMin = intPtr(lo), intPtr(hi), intPtr(peak), intPtr(floor)
		if avg.Valid {
			v := avg.Float64
			s.Avg = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StepsSummaries totals steps per day for dates in [from, to]. Empty bounds are open.
func (db *DB) StepsSummaries(from, to string) ([]StepsSummary, error) {
	from, to = dateRange(from, to)
	rows, err := db.conn.Query(`
		SELECT date,
		       SUM(count),
		       SUM(CASE WHEN kind = 'walk' THEN count ELSE 0 END),
		       SUM(CASE WHEN kind = 'run' THEN count ELSE 0 END),
		       COUNT(*)
		FROM steps
		WHERE date BETWEEN ? AND ?
		GROUP BY date
		ORDER BY date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("index: steps summaries: %w", err)
	}
	defer rows.Close()

	var out []StepsSummary
	for rows.Next() {
		var s StepsSummary
		if err := rows.Scan(&s.Date, &s.Total, &s.Walk, &s.Run, &s.Entries); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
