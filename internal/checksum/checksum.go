// Package checksum fingerprints stored records and capture logs. Digests are
// lowercase hex SHA-256 and double as HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File returns the digest of the file at path without loading it whole.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum: %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ETag quotes sum as a strong entity tag. An empty sum yields an empty tag.
func ETag(sum string) string {
	if sum == "" {
		return ""
	}
	return `"` + sum + `"`
}
