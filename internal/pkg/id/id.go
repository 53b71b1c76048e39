package id

import "github.com/oklog/ulid/v2"

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time, so they double as DynamoDB sort keys. Entropy is
// monotonic within a millisecond, which keeps OTP rows issued back to back
// in insertion order.
func New() string {
	return ulid.Make().String()
}
