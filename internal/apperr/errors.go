// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrStoreCorrupt = errors.New("record corrupt")
	ErrNotConnected = errors.New("watch not connected")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidInput = errors.New("invalid input")
)
