package credentials

import (
	"slices"
	"time"
)

const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
)

// Pair is the access/refresh credential pair issued by the backend.
// Refresh is nil when a response did not rotate the refresh credential.
type Pair struct {
	Access  string
	Refresh *string
}

// Op identifies the kind of store mutation carried by a ChangeEvent
type Op string

const (
	OpSave  Op = "save"
	OpClear Op = "clear"
)

// ChangeEvent is broadcast after every store mutation
type ChangeEvent struct {
	Origin string    `json:"origin"` // ID of the store (tab) that made the change
	Op     Op        `json:"op"`
	Keys   []string  `json:"keys"`
	At     time.Time `json:"at"`
}

// Removed reports whether the event removed the given key
func (e ChangeEvent) Removed(key string) bool {
	return e.Op == OpClear && slices.Contains(e.Keys, key)
}

// Notifier delivers change events to every subscriber of the runtime, other tabs included
type Notifier interface {
	Publish(event ChangeEvent) error
}
