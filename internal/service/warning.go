package service

import "time"

// Warning kinds for malformed records excluded from derived output.
const (
	WarnSessionEndTime   = "session_end_time"
	WarnPaymentAmount    = "payment_amount"
	WarnPaymentCreatedAt = "payment_created_at"
)

// Warning records a malformed record that was excluded rather than allowed
// to abort a recompute pass.
type Warning struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Detail string `json:"detail"`
}

// Clock supplies the current instant; injectable for tests.
type Clock func() time.Time
