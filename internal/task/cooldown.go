package task

import (
	"time"

	"choreboard/internal/model"
)

// Day is the unit of a task's cool-off period.
const Day = 24 * time.Hour

// CoolOffActive reports whether the task's reduced-value window covers now.
// The window opens at the last completion and closes exactly CoolOffPeriod
// days later; the closing instant itself is outside the window.
func CoolOffActive(t model.Task, now time.Time) bool {
	if t.LastCompletedAt == nil {
		return false
	}
	return t.LastCompletedAt.Add(time.Duration(t.CoolOffPeriod) * Day).After(now)
}

// CurrentValue returns the points a completion at now would award.
func CurrentValue(t model.Task, now time.Time) int {
	if CoolOffActive(t, now) {
		return t.CoolOffValue
	}
	return t.Value
}

// CoolOffEnds returns when the active cool-off window closes, or nil when
// no window is active.
func CoolOffEnds(t model.Task, now time.Time) *time.Time {
	if !CoolOffActive(t, now) {
		return nil
	}
	end := t.LastCompletedAt.Add(time.Duration(t.CoolOffPeriod) * Day)
	return &end
}
