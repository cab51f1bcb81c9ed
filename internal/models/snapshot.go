package models

import "time"

// Snapshot is the working set one poll produced, with tracker-derived
// session state. Stale marks data restored from cache before the first
// successful poll of this process.
type Snapshot struct {
	Sessions     []Session  `json:"sessions"`
	Payments     []Payment  `json:"payments"`
	Routers      []Router   `json:"routers"`
	Businesses   []Business `json:"businesses,omitempty"`
	FetchedAt    time.Time  `json:"fetched_at"`
	RecomputedAt time.Time  `json:"recomputed_at"`
	Stale        bool       `json:"stale,omitempty"`
}
