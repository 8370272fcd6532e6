package domain

import "time"

// Millis converts t to epoch milliseconds, the timestamp unit persisted by every backend.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
