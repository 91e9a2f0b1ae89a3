// Package latenight evaluates opening-hours eligibility rules. Everything
// here is pure: structured hours in, boolean out, no clock, no cache, no
// network.
package latenight

import (
	"strings"
	"time"

	"places-enricher/internal/models"
)

// lateCloseHour is the same-day closing hour at or after which a period
// counts as late-night.
const lateCloseHour = 22

const minutesPerDay = 24 * 60
const minutesPerWeek = 7 * minutesPerDay

// IsLateNight reports whether a place qualifies for the late-night category.
// A single qualifying period anywhere in the week is enough: a place open
// late on Friday nights only still counts.
func IsLateNight(hours *models.OpeningHours) bool {
	if hours == nil {
		return false
	}

	for _, text := range hours.WeekdayText {
		if strings.Contains(strings.ToLower(text), "24 hours") {
			return true
		}
	}

	for _, period := range hours.Periods {
		if periodIsLate(period) {
			return true
		}
	}
	return false
}

// periodIsLate applies the closing-time rules to one period. Hour 0 covers
// both "closes exactly at midnight" and "closes in the early morning of the
// next day", which hours data represents the same way.
func periodIsLate(period models.Period) bool {
	if period.Close == nil {
		// No closing time means always open.
		return true
	}
	if period.Close.Hour == 0 {
		return true
	}
	return period.Close.Hour >= lateCloseHour
}

// IsOpenAt reports whether the place is open at t, handling periods that
// cross midnight (and the Saturday-to-Sunday week boundary).
func IsOpenAt(hours *models.OpeningHours, t time.Time) bool {
	if hours == nil {
		return false
	}
	if len(hours.Periods) == 0 {
		// Data present but no periods: fall back to the snapshot flag if
		// the fetch carried one.
		return hours.OpenNow != nil && *hours.OpenNow
	}

	at := minuteOfWeek(int(t.Weekday()), t.Hour(), t.Minute())

	for _, period := range hours.Periods {
		if period.Close == nil {
			return true
		}

		start := minuteOfWeek(period.Open.Day, period.Open.Hour, period.Open.Minute)
		end := minuteOfWeek(period.Close.Day, period.Close.Hour, period.Close.Minute)

		if start == end {
			continue
		}
		if start < end {
			if at >= start && at < end {
				return true
			}
		} else {
			// Wraps the end of the week.
			if at >= start || at < end {
				return true
			}
		}
	}
	return false
}

func minuteOfWeek(day, hour, minute int) int {
	m := (day*minutesPerDay + hour*60 + minute) % minutesPerWeek
	if m < 0 {
		m += minutesPerWeek
	}
	return m
}
