package heartbeat

import (
	"slices"
	"time"
)

// Schedule permits routine notifications during the first MinuteWindow
// minutes of each listed UTC hour. A job invoked twice inside the window
// notifies twice.
type Schedule struct {
	Hours        []int
	MinuteWindow int
}

func (s Schedule) Due(now time.Time) bool {
	return IsDue(s.Hours, s.MinuteWindow, now)
}

func IsDue(hours []int, minuteWindow int, now time.Time) bool {
	utc := now.UTC()
	return slices.Contains(hours, utc.Hour()) && utc.Minute() < minuteWindow
}
