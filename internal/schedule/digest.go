package schedule

import (
	"fmt"
	"sort"
	"time"

	"plantcare/internal/models"
)

// DigestDays is the number of forward day buckets in the digest.
const DigestDays = 7

// DigestEntry is one upcoming care action derived from plant state.
type DigestEntry struct {
	PlantID   string    `json:"plantId"`
	PlantName string    `json:"plantName"`
	Action    string    `json:"action"`
	Due       time.Time `json:"due"`
}

// DigestBucket groups digest entries under a title.
type DigestBucket struct {
	Title   string        `json:"title"`
	Entries []DigestEntry `json:"entries"`
}

func dayTitle(offset int) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return fmt.Sprintf("In %d days", offset)
}

// Digest recomputes due dates from plant state and groups them into an
// "Overdue" bucket (only when non-empty) followed by DigestDays day buckets.
func Digest(plants []models.Plant, now time.Time) []DigestBucket {
	start := Midnight(now)
	var overdue []DigestEntry
	days := make([][]DigestEntry, DigestDays)

	for _, p := range plants {
		if p.Archived {
			continue
		}
		for _, action := range TrackedActions {
			due, ok := PlantNextDue(p, action, now.Location())
			if !ok {
				continue
			}
			entry := DigestEntry{PlantID: p.ID, PlantName: p.Name, Action: action, Due: due}
			offset := DayOffset(start, due)
			switch {
			case offset < 0:
				overdue = append(overdue, entry)
			case offset < DigestDays:
				days[offset] = append(days[offset], entry)
			}
		}
	}

	var buckets []DigestBucket
	if len(overdue) > 0 {
		buckets = append(buckets, DigestBucket{Title: "Overdue", Entries: sortEntries(overdue)})
	}
	for i := range days {
		buckets = append(buckets, DigestBucket{Title: dayTitle(i), Entries: sortEntries(days[i])})
	}
	return buckets
}

func sortEntries(entries []DigestEntry) []DigestEntry {
	if entries == nil {
		return []DigestEntry{}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Due.Before(entries[j].Due)
	})
	return entries
}
