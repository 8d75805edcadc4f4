package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantcare/internal/models"
)

func analyticsFixture() ([]models.Plant, []models.CareEvent, []models.Task) {
	created := date(2025, time.May, 1, 0, 0)
	plants := []models.Plant{
		{ID: "p1", CreatedAt: created, Light: strp("low"), Water: strp("low"), Health: strp("healthy"),
			LastWateredAt: timep(date(2025, time.June, 18, 8, 0)), WaterIntervalDays: intp(7)},
		{ID: "p2", CreatedAt: created, Light: strp("bright"), Health: strp("sick"),
			LastWateredAt: timep(date(2025, time.June, 16, 12, 0)), WaterIntervalDays: intp(7)},
		{ID: "p3", CreatedAt: created,
			LastWateredAt: timep(date(2025, time.June, 11, 12, 0)), WaterIntervalDays: intp(1)},
		{ID: "p4", CreatedAt: created,
			LastWateredAt: timep(date(2025, time.June, 4, 12, 0)), WaterIntervalDays: intp(9)},
		{ID: "p5", CreatedAt: created, LastWateredAt: timep(date(2025, time.May, 1, 0, 0))},
		{ID: "p6", CreatedAt: created, FertilizeIntervalDays: intp(30)},
	}
	events := []models.CareEvent{
		{Type: models.ActionWater, CreatedAt: date(2025, time.June, 16, 10, 0)},
		{Type: models.ActionFertilize, CreatedAt: date(2025, time.June, 18, 9, 0)},
		{Type: models.ActionWater, Minutes: intp(5), CreatedAt: date(2025, time.June, 1, 9, 0)},
		{Type: models.ActionOther, CreatedAt: date(2025, time.March, 29, 9, 0)},
		{Type: models.ActionWater, CreatedAt: date(2025, time.July, 1, 9, 0)},
	}
	tasks := []models.Task{
		{ID: 1, ScheduledFor: date(2025, time.June, 17, 9, 0), CompletedAt: timep(date(2025, time.June, 17, 20, 0))},
		{ID: 2, ScheduledFor: date(2025, time.June, 17, 10, 0)},
		{ID: 3, ScheduledFor: date(2025, time.June, 16, 10, 0), CompletedAt: timep(date(2025, time.June, 18, 9, 0))},
		{ID: 4, ScheduledFor: date(2025, time.May, 19, 10, 0), CompletedAt: timep(date(2025, time.May, 19, 11, 0))},
	}
	return plants, events, tasks
}

func TestAnalyze(t *testing.T) {
	now := date(2025, time.June, 18, 12, 0)
	plants, events, tasks := analyticsFixture()

	a := Analyze(plants, events, tasks, now)

	assert.Equal(t, map[string]int{"low": 1, "medium": 0, "bright": 1}, a.LightCounts)
	assert.Equal(t, map[string]int{"low": 1, "medium": 0, "high": 0}, a.WaterCounts)
	assert.Equal(t, map[string]int{"healthy": 1, "sick": 1, "dormant": 0, "dead": 0}, a.Health)

	assert.Equal(t, []Bucket{
		{Label: "Today", Value: 1},
		{Label: "1-3d", Value: 1},
		{Label: "4-7d", Value: 1},
		{Label: "8-14d", Value: 1},
		{Label: ">14d", Value: 1},
		{Label: "No record", Value: 1},
	}, a.Recency)

	require.Len(t, a.NextDays.Labels, 30)
	assert.Equal(t, "6/18", a.NextDays.Labels[0])
	assert.Equal(t, 1, a.NextDays.Water[5])
	assert.Equal(t, 1, a.NextDays.Water[7])
	assert.Equal(t, OverdueTotals{Water: 2, Fertilize: 1}, a.Overdue)
	for _, v := range a.NextDays.Fertilize {
		assert.Zero(t, v)
	}
}

func TestAnalyzeIntervalFrequency(t *testing.T) {
	plants, _, _ := analyticsFixture()
	a := Analyze(plants, nil, nil, date(2025, time.June, 18, 12, 0))

	labels := make([]string, 0, len(a.Frequency.Water))
	values := map[string]int{}
	for _, b := range a.Frequency.Water {
		labels = append(labels, b.Label)
		values[b.Label] = b.Value
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "7", "9", "10", "14", "21", "30"}, labels)
	assert.Equal(t, 2, values["7"])
	assert.Equal(t, 1, values["1"])
	assert.Equal(t, 1, values["9"], "non-popular values are counted under their own key")
	assert.Equal(t, 0, values["14"])

	require.Len(t, a.Frequency.Fertilize, len(PopularIntervals))
	assert.Equal(t, Bucket{Label: "30", Value: 1}, a.Frequency.Fertilize[len(PopularIntervals)-1])
}

func TestAnalyzeCareTimeWeeks(t *testing.T) {
	now := date(2025, time.June, 18, 12, 0)
	_, events, _ := analyticsFixture()

	a := Analyze(nil, events, nil, now)

	require.Len(t, a.CareTimeWeeks.Labels, 12)
	assert.Equal(t, "3/30", a.CareTimeWeeks.Labels[0])
	assert.Equal(t, "6/15", a.CareTimeWeeks.Labels[11], "current week starts on Sunday")
	assert.Equal(t, 3, a.CareTimeWeeks.Minutes[11])
	assert.Equal(t, 5, a.CareTimeWeeks.Minutes[9])
	total := 0
	for _, m := range a.CareTimeWeeks.Minutes {
		total += m
	}
	assert.Equal(t, 8, total, "events outside the 12 weeks are ignored")
}

func TestAnalyzeCompletion(t *testing.T) {
	now := date(2025, time.June, 18, 12, 0)
	_, _, tasks := analyticsFixture()

	a := Analyze(nil, nil, tasks, now)

	require.Len(t, a.CompletionRate.Percent, 30)
	assert.Equal(t, "5/20", a.CompletionRate.Labels[0])
	assert.Equal(t, "6/18", a.CompletionRate.Labels[29])
	assert.Equal(t, 50, a.CompletionRate.Percent[28])
	assert.Equal(t, 1, a.OverdueTrend.Count[28])
	assert.Equal(t, 0, a.CompletionRate.Percent[27], "late completion does not count")
	assert.Equal(t, 1, a.OverdueTrend.Count[27])
}

func TestAnalyzeCompletionEmptyDay(t *testing.T) {
	a := Analyze(nil, nil, nil, date(2025, time.June, 18, 12, 0))
	for i := range a.CompletionRate.Percent {
		assert.Equal(t, 0, a.CompletionRate.Percent[i])
		assert.Equal(t, 0, a.OverdueTrend.Count[i])
	}
}

func TestEventMinutes(t *testing.T) {
	assert.Equal(t, 1, EventMinutes(models.CareEvent{Type: models.ActionWater}))
	assert.Equal(t, 2, EventMinutes(models.CareEvent{Type: models.ActionFertilize}))
	assert.Equal(t, 1, EventMinutes(models.CareEvent{Type: models.ActionOther}))
	assert.Equal(t, 9, EventMinutes(models.CareEvent{Type: models.ActionFertilize, Minutes: intp(9)}))
}
