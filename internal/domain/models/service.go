package models

import "time"

// Health reports service status. It is produced even when no data is loaded.
type Health struct {
	Status     string     `json:"status"`
	DataLoaded bool       `json:"data_loaded"`
	Generation uint64     `json:"generation"`
	Source     string     `json:"source,omitempty"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	Prices     int        `json:"prices"`
	Events     int        `json:"events"`
}

// SnapshotNotice announces an installed snapshot to push subscribers and is the
// result of an explicit reload.
type SnapshotNotice struct {
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
	Source     string    `json:"source,omitempty"`
	Prices     int       `json:"prices"`
	Events     int       `json:"events"`
}

// ReloadRequest is the payload of a reload trigger published on the message bus.
// Every field is optional; an empty body also triggers a reload.
type ReloadRequest struct {
	Reason      string    `json:"reason,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}
