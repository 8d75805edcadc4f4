package care

import (
	"context"
	"time"

	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
)

// CareDetails are optional attributes of a care event.
type CareDetails struct {
	WaterMl        *int    `json:"waterMl" validate:"omitempty,min=1,max=5000"`
	FertilizerType *string `json:"fertilizerType" validate:"omitempty,max=100"`
	Minutes        *int    `json:"minutes" validate:"omitempty,min=0,max=1440"`
	Note           *string `json:"note" validate:"omitempty,max=500"`
}

// RecordCare performs a direct care action on a plant. Water and fertilize
// stamp the plant's last-care time and complete the earliest open task of the
// same type scheduled before the end of today. Other actions only log an
// event. Everything happens in one transaction.
func (s *Service) RecordCare(ctx context.Context, ownerID, plantID, action string, d CareDetails) (models.Plant, error) {
	switch action {
	case models.ActionWater, models.ActionFertilize, models.ActionOther:
	default:
		return models.Plant{}, models.NewValidationError("type", "must be one of: water, fertilize, other")
	}
	if err := check(d); err != nil {
		return models.Plant{}, err
	}

	now := s.clock()
	cutoff := s.todayWindow().End
	var (
		plant     models.Plant
		completed bool
	)
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.GetPlant(ctx, ownerID, plantID); err != nil {
			return err
		}
		if action != models.ActionOther {
			if err := tx.SetLastCare(ctx, ownerID, plantID, action, now); err != nil {
				return err
			}
		}
		if _, err := tx.AppendEvent(ctx, newEvent(ownerID, plantID, action, d, now)); err != nil {
			return err
		}

		if action != models.ActionOther {
			open, err := tx.ListTasks(ctx, ownerID, sqlite.TaskFilter{
				PlantID:         plantID,
				Type:            action,
				OpenOnly:        true,
				ScheduledBefore: &cutoff,
			})
			if err != nil {
				return err
			}
			if task, ok := schedule.NearestOpenTask(open, action, cutoff); ok {
				if completed, err = tx.CompleteTask(ctx, ownerID, task.ID, now); err != nil {
					return err
				}
			}
		}

		var err error
		plant, err = tx.GetPlant(ctx, ownerID, plantID)
		return err
	})
	if err != nil {
		return models.Plant{}, err
	}

	s.metrics.RecordCareAction(action)
	if completed {
		s.metrics.RecordTaskCompleted(action)
	}
	s.logger.Info("care recorded", "owner", ownerID, "plant", plantID, "action", action, "task_completed", completed)
	return plant, nil
}

// CompleteTask marks a task completed. For water and fertilize tasks the
// plant's last-care time is stamped and one care event is appended. A task
// that is already completed is returned unchanged.
func (s *Service) CompleteTask(ctx context.Context, ownerID string, taskID int64) (models.Task, error) {
	now := s.clock()
	var (
		task      models.Task
		performed bool
	)
	err := s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		current, err := tx.GetTask(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		if !current.Open() {
			task = current
			return nil
		}

		if performed, err = tx.CompleteTask(ctx, ownerID, taskID, now); err != nil {
			return err
		}
		if performed && (current.Type == models.ActionWater || current.Type == models.ActionFertilize) {
			if err := tx.SetLastCare(ctx, ownerID, current.PlantID, current.Type, now); err != nil {
				return err
			}
			ev := newEvent(ownerID, current.PlantID, current.Type, CareDetails{}, now)
			if _, err := tx.AppendEvent(ctx, ev); err != nil {
				return err
			}
		}

		task, err = tx.GetTask(ctx, ownerID, taskID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}

	if performed {
		s.metrics.RecordTaskCompleted(task.Type)
		if task.Type == models.ActionWater || task.Type == models.ActionFertilize {
			s.metrics.RecordCareAction(task.Type)
		}
		s.logger.Info("task completed", "owner", ownerID, "task", taskID, "type", task.Type)
	}
	return task, nil
}

func newEvent(ownerID, plantID, action string, d CareDetails, at time.Time) models.CareEvent {
	return models.CareEvent{
		OwnerID:        ownerID,
		PlantID:        plantID,
		Type:           action,
		WaterMl:        d.WaterMl,
		FertilizerType: d.FertilizerType,
		Minutes:        d.Minutes,
		Note:           d.Note,
		CreatedAt:      at,
	}
}
