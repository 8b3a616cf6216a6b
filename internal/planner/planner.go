package planner

import (
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
)

// referenceTZ anchors every best-window table. Preferred hours are hours of
// day in this zone, not in the caller's local zone.
var referenceTZ = time.UTC

// Window is a platform's engagement heuristic: preferred weekdays and
// preferred hours of day, both listed ascending.
type Window struct {
	Days  []time.Weekday
	Hours []int
}

var bestWindows = map[platforms.Platform]Window{
	platforms.PlatformFacebook: {
		Days:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
		Hours: []int{9, 13, 15},
	},
	platforms.PlatformLinkedin: {
		Days:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
		Hours: []int{8, 10, 12},
	},
	platforms.PlatformTwitter: {
		Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Hours: []int{9, 12, 17},
	},
	platforms.PlatformInstagram: {
		Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Friday},
		Hours: []int{11, 14, 19},
	},
}

// fallbackWindow covers platforms added to the enum before their table.
var fallbackWindow = Window{
	Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	Hours: []int{9},
}

func windowFor(p platforms.Platform) Window {
	if w, ok := bestWindows[p]; ok {
		return w
	}
	return fallbackWindow
}

// NextSlot computes the earliest instant strictly after now that falls on
// one of the platform's preferred weekdays at one of its preferred hours.
// If the 7-day scan finds nothing (cannot happen with non-empty tables) it
// falls back to tomorrow at the first preferred hour.
func NextSlot(p platforms.Platform, now time.Time) time.Time {
	return nextSlot(windowFor(p), now)
}

func nextSlot(w Window, now time.Time) time.Time {
	now = now.In(referenceTZ)

	for dayOffset := 0; dayOffset <= 6; dayOffset++ {
		candidate := now.AddDate(0, 0, dayOffset)
		if !containsDay(w.Days, candidate.Weekday()) {
			continue
		}
		for _, hour := range w.Hours {
			slot := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, 0, 0, 0, referenceTZ)
			if slot.After(now) {
				return slot
			}
		}
	}

	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), w.Hours[0], 0, 0, 0, referenceTZ)
}

// BestTime returns the single slot for a multi-platform post: the minimum of
// each platform's earliest slot, so the post goes out as soon as any one
// target's window opens.
func BestTime(targets []platforms.Platform, now time.Time) time.Time {
	var best time.Time
	for _, p := range targets {
		slot := NextSlot(p, now)
		if best.IsZero() || slot.Before(best) {
			best = slot
		}
	}
	return best
}

func containsDay(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}
