package schedule

import (
	"time"

	"plantcare/internal/models"
)

// DefaultHorizonDays is the span over which tasks are materialized.
const DefaultHorizonDays = 30

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Horizon returns the window starting at today's midnight and spanning days.
func Horizon(now time.Time, days int) Window {
	start := Midnight(now)
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

// Occurrences walks forward from base in steps of intervalDays and returns
// every due date inside w. Dates stay anchored to base, not to w.
func Occurrences(base time.Time, intervalDays *int, w Window) []time.Time {
	due, ok := NextDue(base, intervalDays)
	if !ok {
		return nil
	}
	var out []time.Time
	for due.Before(w.End) {
		if !due.Before(w.Start) {
			out = append(out, due)
		}
		due = due.AddDate(0, 0, *intervalDays)
	}
	return out
}

// Generate lists the task keys every plant needs inside w, water and
// fertilize independently.
func Generate(plants []models.Plant, w Window) []models.TaskKey {
	loc := w.Start.Location()
	var keys []models.TaskKey
	for _, p := range plants {
		for _, action := range TrackedActions {
			for _, due := range Occurrences(Base(p, action, loc), p.Interval(action), w) {
				keys = append(keys, models.TaskKey{
					OwnerID:      p.OwnerID,
					PlantID:      p.ID,
					Type:         action,
					ScheduledFor: due,
				})
			}
		}
	}
	return keys
}
