// Package schedule derives care due dates, recurring task occurrences,
// task buckets and analytics from plant state. It performs no I/O.
package schedule

import (
	"math"
	"time"

	"plantcare/internal/models"
)

// DueSoonWindow is how far ahead of now a due date counts as "due soon".
const DueSoonWindow = 48 * time.Hour

// TrackedActions are the care actions with configurable intervals.
var TrackedActions = []string{models.ActionWater, models.ActionFertilize}

// NextDue adds intervalDays calendar days to base, keeping its time of day.
// It reports false when no interval is configured.
func NextDue(base time.Time, intervalDays *int) (time.Time, bool) {
	if intervalDays == nil || *intervalDays <= 0 {
		return time.Time{}, false
	}
	return base.AddDate(0, 0, *intervalDays), true
}

// Base returns the anchor for the next due date of action: the last care
// timestamp, or the plant's creation time when it was never cared for.
func Base(p models.Plant, action string, loc *time.Location) time.Time {
	if last := p.LastCare(action); last != nil {
		return last.In(loc)
	}
	return p.CreatedAt.In(loc)
}

// PlantNextDue computes the next due instant of action for p in loc.
func PlantNextDue(p models.Plant, action string, loc *time.Location) (time.Time, bool) {
	return NextDue(Base(p, action, loc), p.Interval(action))
}

// IsOverdue reports whether due is strictly before now.
func IsOverdue(due, now time.Time) bool {
	return due.Before(now)
}

// IsDueSoon reports whether due is not overdue and falls within DueSoonWindow.
func IsDueSoon(due, now time.Time) bool {
	return !IsOverdue(due, now) && !due.After(now.Add(DueSoonWindow))
}

// EarliestDue returns the earlier of the plant's water and fertilize due dates.
func EarliestDue(p models.Plant, loc *time.Location) (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for _, action := range TrackedActions {
		due, ok := PlantNextDue(p, action, loc)
		if !ok {
			continue
		}
		if !found || due.Before(earliest) {
			earliest, found = due, true
		}
	}
	return earliest, found
}

// DueStatus describes the next occurrence of one care action.
type DueStatus struct {
	Action  string    `json:"action"`
	Due     time.Time `json:"due"`
	Overdue bool      `json:"overdue"`
	DueSoon bool      `json:"dueSoon"`
}

// PlantDues lists the scheduled next occurrences for p relative to now.
func PlantDues(p models.Plant, now time.Time) []DueStatus {
	var out []DueStatus
	for _, action := range TrackedActions {
		due, ok := PlantNextDue(p, action, now.Location())
		if !ok {
			continue
		}
		out = append(out, DueStatus{
			Action:  action,
			Due:     due,
			Overdue: IsOverdue(due, now),
			DueSoon: IsDueSoon(due, now),
		})
	}
	return out
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayOffset counts calendar days from the day of start to the day of t,
// both taken in start's location. Negative when t is on an earlier day.
func DayOffset(start, t time.Time) int {
	from := Midnight(start)
	to := Midnight(t.In(start.Location()))
	return int(math.Round(to.Sub(from).Hours() / 24))
}
