// Package storage defines the object store behind the daily records.
//
// Keys are slash-separated: a partition followed by an object name, e.g. "hr/2024-3-5".
package storage

import "github.com/starford/wristlog/internal/models"

// Provider is the interface for record object operations.
type Provider interface {
	// List returns metadata for every object directly under partition.
	List(partition string) ([]models.ObjectInfo, error)
	// Read returns the raw bytes of the object at key. A missing object wraps apperr.ErrNotFound.
	Read(key string) ([]byte, error)
	// Write atomically replaces the object at key.
	Write(key string, content []byte) error
}
