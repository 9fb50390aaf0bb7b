package repository

import (
	"time"
)

// timeLayout keeps sub-second precision so rows saved in the same second
// still sort by creation time.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
