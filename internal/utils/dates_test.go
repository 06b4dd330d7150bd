// internal/utils/dates_test.go
package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestXDaysAgoIsExact(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 123, time.UTC)

	got := XDaysAgo(now, 1)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 30, 45, 123, time.UTC), got)

	// Not normalized to midnight
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestXDaysAgoComposes(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 123, time.UTC)

	// Stepping back a days then b days lands exactly where a+b does.
	for _, step := range [][2]int{{1, 1}, {2, 5}, {0, 3}, {7, 0}} {
		a, b := step[0], step[1]
		assert.Equal(t, XDaysAgo(now, a+b), XDaysAgo(XDaysAgo(now, a), b))
	}
}

func TestXDaysAgoZeroDays(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, now, XDaysAgo(now, 0))
}

func TestDayWindowIsHalfOpen24Hours(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	start, end := DayWindow(now, 1)
	assert.Equal(t, time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC), start)
	assert.Equal(t, now, end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDayWindowsTileWithoutGapOrOverlap(t *testing.T) {
	now := time.Date(2024, 3, 15, 17, 45, 12, 0, time.UTC)

	// Consecutive windows must share exactly one boundary instant, so a
	// timestamp falls in exactly one window.
	for n := 1; n < 5; n++ {
		_, endFar := DayWindow(now, n+1)
		startNear, _ := DayWindow(now, n)
		assert.Equal(t, startNear, endFar)
	}
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	assert.NoError(t, err)

	now := time.Date(2024, 3, 15, 23, 59, 59, 999, loc)
	got := StartOfDay(now)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}
