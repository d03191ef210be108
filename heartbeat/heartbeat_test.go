package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 18, hour, minute, 0, 0, time.UTC)
}

func TestIsDue(t *testing.T) {
	hours := []int{4, 20}

	assert.True(t, IsDue(hours, 2, at(4, 1)))
	assert.True(t, IsDue(hours, 2, at(20, 0)))
	assert.False(t, IsDue(hours, 2, at(4, 3)))
	assert.False(t, IsDue(hours, 2, at(4, 2)))
	assert.False(t, IsDue(hours, 2, at(5, 0)))
	assert.False(t, IsDue(nil, 2, at(4, 0)))
}

func TestIsDueUsesUTC(t *testing.T) {
	vilnius, err := time.LoadLocation("Europe/Vilnius")
	if err != nil {
		t.Skip(err)
	}
	// 07:01 in Vilnius during summer time is 04:01 UTC.
	local := time.Date(2026, 7, 1, 7, 1, 0, 0, vilnius)
	assert.True(t, IsDue([]int{4}, 2, local))
}

func TestScheduleAlternateWindow(t *testing.T) {
	s := Schedule{Hours: []int{11}, MinuteWindow: 5}
	assert.True(t, s.Due(at(11, 4)))
	assert.False(t, s.Due(at(11, 5)))
}
