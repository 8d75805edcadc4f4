package schedule

import (
	"sort"
	"time"

	"plantcare/internal/models"
)

// TodayView partitions a user's tasks for the "today" screen.
type TodayView struct {
	Overdue        []models.Task `json:"overdue"`
	Today          []models.Task `json:"today"`
	CompletedToday []models.Task `json:"completed"`
}

// Counts summarizes open tasks.
type Counts struct {
	Overdue int `json:"overdue"`
	Today   int `json:"today"`
	Open    int `json:"open"`
}

// Today buckets tasks of non-archived plants. A task scheduled inside
// today's window is listed under Today even when its time has passed, so
// each open task lands in exactly one bucket.
func Today(tasks []models.Task, now time.Time) TodayView {
	start := Midnight(now)
	day := Window{Start: start, End: start.AddDate(0, 0, 1)}

	view := TodayView{
		Overdue:        []models.Task{},
		Today:          []models.Task{},
		CompletedToday: []models.Task{},
	}
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		if !t.Open() {
			if day.Contains(*t.CompletedAt) {
				view.CompletedToday = append(view.CompletedToday, t)
			}
			continue
		}
		switch {
		case t.ScheduledFor.Before(day.Start):
			view.Overdue = append(view.Overdue, t)
		case day.Contains(t.ScheduledFor):
			view.Today = append(view.Today, t)
		}
	}
	SortTasks(view.Overdue)
	SortTasks(view.Today)
	sort.SliceStable(view.CompletedToday, func(i, j int) bool {
		a, b := view.CompletedToday[i], view.CompletedToday[j]
		if !a.CompletedAt.Equal(*b.CompletedAt) {
			return a.CompletedAt.After(*b.CompletedAt)
		}
		return a.ID > b.ID
	})
	return view
}

// Count returns the overdue/today/open counters for tasks.
func Count(tasks []models.Task, now time.Time) Counts {
	view := Today(tasks, now)
	c := Counts{Overdue: len(view.Overdue), Today: len(view.Today)}
	c.Open = c.Overdue + c.Today
	return c
}

// SortTasks orders tasks by scheduled time, ties broken by id.
func SortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return taskLess(tasks[i], tasks[j])
	})
}

func taskLess(a, b models.Task) bool {
	if !a.ScheduledFor.Equal(b.ScheduledFor) {
		return a.ScheduledFor.Before(b.ScheduledFor)
	}
	return a.ID < b.ID
}

// NearestOpenTask picks the earliest open task of the given type scheduled
// before cutoff.
func NearestOpenTask(tasks []models.Task, taskType string, cutoff time.Time) (models.Task, bool) {
	var (
		best  models.Task
		found bool
	)
	for _, t := range tasks {
		if !t.Open() || t.Type != taskType || !t.ScheduledFor.Before(cutoff) {
			continue
		}
		if !found || taskLess(t, best) {
			best, found = t, true
		}
	}
	return best, found
}
