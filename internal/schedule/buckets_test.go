package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantcare/internal/models"
)

func TestCountsScenario(t *testing.T) {
	now := date(2025, time.April, 15, 12, 0)
	tasks := []models.Task{
		{ID: 1, PlantID: "fern", Type: models.ActionWater, ScheduledFor: date(2025, time.April, 14, 9, 0)},
		{ID: 2, PlantID: "ivy", Type: models.ActionFertilize, ScheduledFor: date(2025, time.April, 15, 9, 0)},
	}

	c := Count(tasks, now)

	assert.Equal(t, Counts{Overdue: 1, Today: 1, Open: 2}, c)
}

func TestTodayBuckets(t *testing.T) {
	now := date(2025, time.April, 15, 12, 0)
	tasks := []models.Task{
		{ID: 5, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 13, 9, 0)},
		{ID: 4, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 10, 9, 0)},
		{ID: 3, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 15, 18, 0)},
		{ID: 2, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 15, 18, 0)},
		{ID: 6, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 16, 0, 0)},
		{ID: 7, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 12, 9, 0), Archived: true},
		{ID: 8, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 15, 8, 0), CompletedAt: timep(date(2025, time.April, 15, 8, 30))},
		{ID: 9, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 14, 8, 0), CompletedAt: timep(date(2025, time.April, 15, 10, 0))},
		{ID: 10, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 14, 8, 0), CompletedAt: timep(date(2025, time.April, 14, 10, 0))},
	}

	view := Today(tasks, now)

	ids := func(ts []models.Task) []int64 {
		out := make([]int64, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []int64{4, 5}, ids(view.Overdue))
	assert.Equal(t, []int64{2, 3}, ids(view.Today), "ties broken by id")
	assert.Equal(t, []int64{9, 8}, ids(view.CompletedToday), "most recent completion first")
}

func TestTodayEmpty(t *testing.T) {
	view := Today(nil, date(2025, time.April, 15, 12, 0))
	assert.NotNil(t, view.Overdue)
	assert.NotNil(t, view.Today)
	assert.NotNil(t, view.CompletedToday)
	assert.Equal(t, Counts{}, Count(nil, time.Now()))
}

func TestNearestOpenTask(t *testing.T) {
	cutoff := date(2025, time.April, 16, 0, 0)
	tasks := []models.Task{
		{ID: 11, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 12, 9, 0)},
		{ID: 10, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 12, 9, 0)},
		{ID: 9, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 11, 9, 0), CompletedAt: timep(date(2025, time.April, 11, 9, 0))},
		{ID: 8, Type: models.ActionFertilize, ScheduledFor: date(2025, time.April, 1, 9, 0)},
		{ID: 7, Type: models.ActionWater, ScheduledFor: date(2025, time.April, 16, 0, 0)},
	}

	got, ok := NearestOpenTask(tasks, models.ActionWater, cutoff)
	require.True(t, ok)
	assert.Equal(t, int64(10), got.ID)

	_, ok = NearestOpenTask(tasks, "repot", cutoff)
	assert.False(t, ok)

	_, ok = NearestOpenTask(tasks[4:], models.ActionWater, cutoff)
	assert.False(t, ok, "tasks scheduled from tomorrow on are not eligible")
}
