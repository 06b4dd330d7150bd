// internal/utils/dates.go
package utils

import "time"

// XDaysAgo returns now minus exactly n*24h. It is deliberately not
// normalized to midnight: daily job selectors pair it with DayWindow so an
// entity is selected exactly once across runs.
func XDaysAgo(now time.Time, n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

// DayWindow returns the half-open window [XDaysAgo(now, n), XDaysAgo(now, n-1))
// covering "things that happened exactly n days ago".
func DayWindow(now time.Time, n int) (start, end time.Time) {
	return XDaysAgo(now, n), XDaysAgo(now, n-1)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
