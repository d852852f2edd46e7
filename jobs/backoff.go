package jobs

import "time"

// Schedule is an ordered sequence of increasing poll delays. Attempts
// past the end hold at the last entry.
type Schedule []time.Duration

// DefaultSchedule reacts quickly to short jobs without hammering the
// API, then settles at 15s for long ones.
func DefaultSchedule() Schedule {
	return Schedule{
		2 * time.Second,
		3 * time.Second,
		5 * time.Second,
		8 * time.Second,
		13 * time.Second,
		15 * time.Second,
	}
}

// Delay returns the wait before poll attempt n (zero-based), clamped to
// the last schedule entry.
func (s Schedule) Delay(attempt int) time.Duration {
	if len(s) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(s) {
		attempt = len(s) - 1
	}
	return s[attempt]
}
