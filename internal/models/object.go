package models

import "time"

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
