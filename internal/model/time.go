package model

import "time"

// TimeLayout is the on-disk timestamp format. It is fixed width so that
// lexical order of stored values matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Now returns the current UTC time truncated to the stored precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. It also accepts plain RFC3339 values
// written by older databases.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
