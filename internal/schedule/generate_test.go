package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantcare/internal/models"
)

func TestHorizon(t *testing.T) {
	now := date(2025, time.January, 10, 16, 30)
	w := Horizon(now, DefaultHorizonDays)
	assert.Equal(t, date(2025, time.January, 10, 0, 0), w.Start)
	assert.Equal(t, date(2025, time.February, 9, 0, 0), w.End)
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
}

func TestGenerateNeverWateredScenario(t *testing.T) {
	plant := models.Plant{
		ID:                "peace-lily",
		OwnerID:           "alice",
		CreatedAt:         date(2025, time.January, 1, 0, 0),
		WaterIntervalDays: intp(7),
	}
	w := Window{Start: date(2025, time.January, 10, 0, 0), End: date(2025, time.February, 9, 0, 0)}

	keys := Generate([]models.Plant{plant}, w)

	require.Len(t, keys, 4)
	want := []time.Time{
		date(2025, time.January, 15, 0, 0),
		date(2025, time.January, 22, 0, 0),
		date(2025, time.January, 29, 0, 0),
		date(2025, time.February, 5, 0, 0),
	}
	for i, k := range keys {
		assert.Equal(t, "alice", k.OwnerID)
		assert.Equal(t, "peace-lily", k.PlantID)
		assert.Equal(t, models.ActionWater, k.Type)
		assert.Equal(t, want[i], k.ScheduledFor)
	}
}

func TestOccurrencesAnchoredToLastCare(t *testing.T) {
	last := date(2025, time.March, 2, 19, 15)
	w := Horizon(date(2025, time.March, 1, 9, 0), DefaultHorizonDays)

	got := Occurrences(last, intp(7), w)

	assert.Equal(t, []time.Time{
		date(2025, time.March, 9, 19, 15),
		date(2025, time.March, 16, 19, 15),
		date(2025, time.March, 23, 19, 15),
		date(2025, time.March, 30, 19, 15),
	}, got)
}

func TestOccurrencesHorizonClipping(t *testing.T) {
	now := date(2025, time.May, 20, 7, 0)
	w := Horizon(now, DefaultHorizonDays)
	for _, interval := range []int{1, 2, 3, 5, 7, 14, 29, 30, 31, 365} {
		base := date(2025, time.April, 11, 0, 0)
		for _, due := range Occurrences(base, intp(interval), w) {
			assert.True(t, w.Contains(due), "interval %d produced %s outside horizon", interval, due)
		}
	}

	assert.Empty(t, Occurrences(date(2025, time.May, 1, 0, 0), intp(365), w))
	assert.Nil(t, Occurrences(date(2025, time.May, 1, 0, 0), nil, w))
}

func TestOccurrencesExcludeHorizonEnd(t *testing.T) {
	w := Window{Start: date(2025, time.January, 10, 0, 0), End: date(2025, time.February, 9, 0, 0)}
	got := Occurrences(date(2025, time.January, 10, 0, 0), intp(30), w)
	assert.Empty(t, got, "a due date exactly at the horizon end is not materialized")
}

func TestGenerateBothActionsIndependently(t *testing.T) {
	plant := models.Plant{
		ID:                    "fern",
		OwnerID:               "bob",
		CreatedAt:             date(2025, time.January, 1, 0, 0),
		LastWateredAt:         timep(date(2025, time.January, 9, 8, 0)),
		WaterIntervalDays:     intp(10),
		FertilizeIntervalDays: intp(14),
	}
	unscheduled := models.Plant{ID: "cactus", OwnerID: "bob", CreatedAt: date(2025, time.January, 1, 0, 0)}
	w := Window{Start: date(2025, time.January, 10, 0, 0), End: date(2025, time.February, 9, 0, 0)}

	keys := Generate([]models.Plant{plant, unscheduled}, w)

	var water, fert []time.Time
	for _, k := range keys {
		switch k.Type {
		case models.ActionWater:
			water = append(water, k.ScheduledFor)
		case models.ActionFertilize:
			fert = append(fert, k.ScheduledFor)
		}
	}
	assert.Equal(t, []time.Time{
		date(2025, time.January, 19, 8, 0),
		date(2025, time.January, 29, 8, 0),
		date(2025, time.February, 8, 8, 0),
	}, water)
	assert.Equal(t, []time.Time{
		date(2025, time.January, 15, 0, 0),
		date(2025, time.January, 29, 0, 0),
	}, fert)
}
