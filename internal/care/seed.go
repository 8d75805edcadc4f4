package care

import (
	"context"
	"fmt"
	"time"

	"plantcare/internal/catalog"
	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
)

// SeedResult reports a seed run.
type SeedResult struct {
	PlantsCreated  int `json:"plantsCreated"`
	Nudged         int `json:"nudged"`
	TasksGenerated int `json:"tasksGenerated"`
}

// Seed inserts the catalog plants the owner does not have yet, backdates the
// last care of a few never-cared plants so they are due today, and generates
// tasks from the refreshed plant state.
func (s *Service) Seed(ctx context.Context, ownerID string) (SeedResult, error) {
	entries, err := catalog.Entries()
	if err != nil {
		return SeedResult{}, err
	}

	now := s.clock()
	plants := make([]models.Plant, 0, len(entries))
	for i, e := range entries {
		// Distinct creation instants keep catalog order stable.
		plants = append(plants, e.Plant(ownerID, now.Add(-time.Duration(len(entries)-i)*time.Millisecond)))
	}

	var res SeedResult
	midnight := schedule.Midnight(now)
	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		created, err := tx.InsertPlantsIfMissing(ctx, plants)
		if err != nil {
			return err
		}
		res.PlantsCreated = created

		owned, err := tx.ListPlants(ctx, ownerID, sqlite.PlantFilter{IncludeArchived: true, Oldest: true})
		if err != nil {
			return err
		}
		for _, p := range owned {
			if res.Nudged >= s.nudgeLimit {
				break
			}
			action, ok := nudgeAction(p)
			if !ok {
				continue
			}
			at := midnight.AddDate(0, 0, -*p.Interval(action))
			if err := tx.SetLastCare(ctx, ownerID, p.ID, action, at); err != nil {
				return err
			}
			res.Nudged++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: %w", err)
	}

	gen, err := s.GenerateTasks(ctx, ownerID)
	if err != nil {
		return SeedResult{}, err
	}
	res.TasksGenerated = gen.Generated
	s.logger.Info("catalog seeded", "owner", ownerID, "created", res.PlantsCreated, "nudged", res.Nudged)
	return res, nil
}

// nudgeAction picks the action to backdate: water when it was never recorded,
// otherwise fertilize when it was never recorded.
func nudgeAction(p models.Plant) (string, bool) {
	if p.WaterIntervalDays != nil && *p.WaterIntervalDays > 0 && p.LastWateredAt == nil {
		return models.ActionWater, true
	}
	if p.FertilizeIntervalDays != nil && *p.FertilizeIntervalDays > 0 && p.LastFertilizedAt == nil {
		return models.ActionFertilize, true
	}
	return "", false
}
