package models

import "time"

// RouterRef is the embedded router reference the portal returns on sessions
// and payments.
type RouterRef struct {
	Name string `json:"name"`
}

// Session is a time-boxed hotspot access grant tied to a phone/MAC pair.
// EndTime keeps the raw portal string: one malformed timestamp must not abort
// decoding of the whole array, so parsing happens in the tracker.
type Session struct {
	ID      int64     `json:"id"`
	Phone   string    `json:"phone"`
	MAC     string    `json:"mac"`
	Router  RouterRef `json:"router"`
	Commune string    `json:"commune"`
	EndTime string    `json:"end_time"`
	Ended   bool      `json:"ended"`

	// Remaining is derived by the tracker each tick, never persisted.
	Remaining time.Duration `json:"-"`
}
