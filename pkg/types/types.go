// Package types provides the core data types for the Chat-Arena server.
package types

import "time"

// TimestampFormat is the canonical timestamp layout used on the wire and in
// persisted conversation records: ISO-8601 UTC with microsecond precision and
// a trailing Z.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Timestamp formats t as a canonical wire timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// NowTimestamp returns the current time as a canonical wire timestamp.
func NowTimestamp() string {
	return Timestamp(time.Now())
}
