package index

import "github.com/starford/wristlog/internal/daily"

// RecordIndex defines the read and write operations over the record index.
// Consumers should depend on this interface rather than the concrete *DB type.
type RecordIndex interface {
	UpsertHeartRate(r RecordRow, entries []daily.HeartRateEntry) error
	UpsertSteps(r RecordRow, entries []daily.StepsEntry) error
	DeleteRecord(key string) error
	GetChecksum(key string) (string, error)
	AllChecksums() (map[string]string, error)
	Dates(metric string) ([]string, error)
	HeartRateSummaries(from, to string) ([]HeartRateSummary, error)
	StepsSummaries(from, to string) ([]StepsSummary, error)
	Close() error
}

// Verify *DB satisfies RecordIndex at compile time.
var _ RecordIndex = (*DB)(nil)
