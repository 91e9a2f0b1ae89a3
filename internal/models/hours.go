package models

import "time"

// TimePoint is one edge of an opening-hours period. Day is a day of week in
// [0,6] with 0 = Sunday, matching the upstream representation.
type TimePoint struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Period is a single contiguous open span. Close may be nil for always-open
// places, and its Day may roll to the next calendar day for spans crossing
// midnight.
type Period struct {
	Open  TimePoint  `json:"open"`
	Close *TimePoint `json:"close,omitempty"`
}

// OpeningHours is the structured weekly schedule for one resolved place.
// Lifecycle is independent from EnrichedPlace: separate API operation,
// separate budget, separate cache namespace.
type OpeningHours struct {
	ResolvedID  string    `json:"resolved_id"`
	Periods     []Period  `json:"periods"`
	WeekdayText []string  `json:"weekday_text,omitempty"`
	OpenNow     *bool     `json:"open_now,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
