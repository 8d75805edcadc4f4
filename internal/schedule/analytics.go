package schedule

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"plantcare/internal/models"
)

const (
	forecastDays   = 30
	careWeeks      = 12
	completionDays = 30
)

// PopularIntervals always appear in the interval frequency histograms.
var PopularIntervals = []int{1, 2, 3, 4, 5, 7, 10, 14, 21, 30}

// Bucket is one labelled histogram bar.
type Bucket struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Forecast holds per-day due counts for the next forecastDays days.
type Forecast struct {
	Labels    []string `json:"labels"`
	Water     []int    `json:"water"`
	Fertilize []int    `json:"fertilize"`
}

// OverdueTotals counts due dates that fall before today.
type OverdueTotals struct {
	Water     int `json:"water"`
	Fertilize int `json:"fertilize"`
}

// Frequency holds interval histograms per action.
type Frequency struct {
	Water     []Bucket `json:"water"`
	Fertilize []Bucket `json:"fertilize"`
}

// CareTime is total care minutes per week.
type CareTime struct {
	Labels  []string `json:"labels"`
	Minutes []int    `json:"minutes"`
}

// CompletionRate is the daily on-time completion percentage.
type CompletionRate struct {
	Labels  []string `json:"labels"`
	Percent []int    `json:"percent"`
}

// OverdueTrend is the daily count of tasks left open past their day.
type OverdueTrend struct {
	Labels []string `json:"labels"`
	Count  []int    `json:"count"`
}

// Analytics aggregates an owner's plants, care history and tasks.
type Analytics struct {
	LightCounts    map[string]int `json:"lightCounts"`
	WaterCounts    map[string]int `json:"waterCounts"`
	Recency        []Bucket       `json:"recencyBuckets"`
	NextDays       Forecast       `json:"nextDays"`
	Overdue        OverdueTotals  `json:"overdue"`
	Frequency      Frequency      `json:"freq"`
	Health         map[string]int `json:"health"`
	CareTimeWeeks  CareTime       `json:"careTimeWeeks"`
	CompletionRate CompletionRate `json:"completionRate"`
	OverdueTrend   OverdueTrend   `json:"overdueTrend"`
}

// Analyze computes every analytics series relative to now.
func Analyze(plants []models.Plant, events []models.CareEvent, tasks []models.Task, now time.Time) Analytics {
	start := Midnight(now)
	a := Analytics{
		LightCounts: map[string]int{"low": 0, "medium": 0, "bright": 0},
		WaterCounts: map[string]int{"low": 0, "medium": 0, "high": 0},
		Health:      map[string]int{"healthy": 0, "sick": 0, "dormant": 0, "dead": 0},
	}
	for _, p := range plants {
		if p.Light != nil {
			a.LightCounts[*p.Light]++
		}
		if p.Water != nil {
			a.WaterCounts[*p.Water]++
		}
		if p.Health != nil {
			if _, ok := a.Health[*p.Health]; ok {
				a.Health[*p.Health]++
			}
		}
	}

	a.Recency = recency(plants, now)
	a.NextDays, a.Overdue = forecast(plants, start)
	a.Frequency = Frequency{
		Water:     intervalHistogram(plants, models.ActionWater),
		Fertilize: intervalHistogram(plants, models.ActionFertilize),
	}
	a.CareTimeWeeks = careTime(events, start)
	a.CompletionRate, a.OverdueTrend = completion(tasks, start)
	return a
}

func dayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

func recency(plants []models.Plant, now time.Time) []Bucket {
	buckets := []Bucket{
		{Label: "Today"},
		{Label: "1-3d"},
		{Label: "4-7d"},
		{Label: "8-14d"},
		{Label: ">14d"},
		{Label: "No record"},
	}
	for _, p := range plants {
		if p.LastWateredAt == nil {
			buckets[5].Value++
			continue
		}
		days := int(math.Floor(now.Sub(*p.LastWateredAt).Hours() / 24))
		switch {
		case days <= 0:
			buckets[0].Value++
		case days <= 3:
			buckets[1].Value++
		case days <= 7:
			buckets[2].Value++
		case days <= 14:
			buckets[3].Value++
		default:
			buckets[4].Value++
		}
	}
	return buckets
}

func forecast(plants []models.Plant, start time.Time) (Forecast, OverdueTotals) {
	f := Forecast{
		Labels:    make([]string, forecastDays),
		Water:     make([]int, forecastDays),
		Fertilize: make([]int, forecastDays),
	}
	for i := range f.Labels {
		f.Labels[i] = dayLabel(start.AddDate(0, 0, i))
	}
	var overdue OverdueTotals
	for _, p := range plants {
		if due, ok := PlantNextDue(p, models.ActionWater, start.Location()); ok {
			switch idx := DayOffset(start, due); {
			case idx < 0:
				overdue.Water++
			case idx < forecastDays:
				f.Water[idx]++
			}
		}
		if due, ok := PlantNextDue(p, models.ActionFertilize, start.Location()); ok {
			switch idx := DayOffset(start, due); {
			case idx < 0:
				overdue.Fertilize++
			case idx < forecastDays:
				f.Fertilize[idx]++
			}
		}
	}
	return f, overdue
}

func intervalHistogram(plants []models.Plant, action string) []Bucket {
	counts := make(map[int]int, len(PopularIntervals))
	for _, v := range PopularIntervals {
		counts[v] = 0
	}
	for _, p := range plants {
		if iv := p.Interval(action); iv != nil && *iv > 0 {
			counts[*iv]++
		}
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Label: strconv.Itoa(k), Value: counts[k]})
	}
	return out
}

// EventMinutes returns the care time recorded for an event, falling back to
// 2 minutes for fertilizing and 1 minute for anything else.
func EventMinutes(e models.CareEvent) int {
	if e.Minutes != nil {
		return *e.Minutes
	}
	if e.Type == models.ActionFertilize {
		return 2
	}
	return 1
}

func careTime(events []models.CareEvent, start time.Time) CareTime {
	weekStart := start.AddDate(0, 0, -int(start.Weekday()))
	first := weekStart.AddDate(0, 0, -7*(careWeeks-1))
	ct := CareTime{
		Labels:  make([]string, careWeeks),
		Minutes: make([]int, careWeeks),
	}
	for i := range ct.Labels {
		ct.Labels[i] = dayLabel(first.AddDate(0, 0, 7*i))
	}
	for _, e := range events {
		offset := DayOffset(first, e.CreatedAt)
		if offset < 0 {
			continue
		}
		idx := offset / 7
		if idx >= careWeeks {
			continue
		}
		ct.Minutes[idx] += EventMinutes(e)
	}
	return ct
}

func completion(tasks []models.Task, start time.Time) (CompletionRate, OverdueTrend) {
	rate := CompletionRate{Labels: make([]string, completionDays), Percent: make([]int, completionDays)}
	trend := OverdueTrend{Labels: rate.Labels, Count: make([]int, completionDays)}

	scheduled := make([]int, completionDays)
	onTime := make([]int, completionDays)
	first := start.AddDate(0, 0, -(completionDays - 1))
	for i := range rate.Labels {
		rate.Labels[i] = dayLabel(first.AddDate(0, 0, i))
	}
	for _, t := range tasks {
		idx := DayOffset(first, t.ScheduledFor)
		if idx < 0 || idx >= completionDays {
			continue
		}
		dayEnd := first.AddDate(0, 0, idx+1)
		scheduled[idx]++
		if t.CompletedAt != nil && !t.CompletedAt.After(dayEnd) {
			onTime[idx]++
		}
	}
	for i := range scheduled {
		if scheduled[i] == 0 {
			continue
		}
		rate.Percent[i] = int(math.Round(float64(onTime[i]) / float64(scheduled[i]) * 100))
		trend.Count[i] = scheduled[i] - onTime[i]
	}
	return rate, trend
}
