package care

import (
	"context"
	"strings"
	"time"

	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
)

// GenerateResult reports a generation run.
type GenerateResult struct {
	// Generated is the number of upserts emitted for the horizon.
	Generated int `json:"generated"`
	// Created is the number of tasks that did not exist before.
	Created int `json:"created"`
}

// TaskInput describes a one-off custom task.
type TaskInput struct {
	PlantID      string     `json:"plantId" validate:"required,slug"`
	Type         string     `json:"type" validate:"required,slug,max=50"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}

// GenerateTasks materializes every due occurrence inside the horizon for all
// of the owner's plants. Running it again for the same day creates nothing.
func (s *Service) GenerateTasks(ctx context.Context, ownerID string) (GenerateResult, error) {
	plants, err := s.store.ListPlants(ctx, ownerID, sqlite.PlantFilter{IncludeArchived: true, Oldest: true})
	if err != nil {
		return GenerateResult{}, err
	}
	return s.generateFor(ctx, ownerID, plants)
}

func (s *Service) generateFor(ctx context.Context, ownerID string, plants []models.Plant) (GenerateResult, error) {
	window := schedule.Horizon(s.clock(), s.horizonDays)
	keys := schedule.Generate(plants, window)
	created, err := s.store.UpsertTasks(ctx, keys)
	if err != nil {
		return GenerateResult{}, err
	}

	s.metrics.RecordGeneration(len(keys), created)
	s.logger.Info("tasks generated", "owner", ownerID, "plants", len(plants), "generated", len(keys), "created", created)
	return GenerateResult{Generated: len(keys), Created: created}, nil
}

// CreateTask adds a one-off task. Without a date it is scheduled for now.
func (s *Service) CreateTask(ctx context.Context, ownerID string, in TaskInput) (models.Task, error) {
	in.PlantID = strings.TrimSpace(in.PlantID)
	in.Type = strings.TrimSpace(in.Type)
	if err := check(in); err != nil {
		return models.Task{}, err
	}

	when := s.clock()
	if in.ScheduledFor != nil {
		when = *in.ScheduledFor
	}
	return s.store.CreateTask(ctx, models.TaskKey{
		OwnerID:      ownerID,
		PlantID:      in.PlantID,
		Type:         in.Type,
		ScheduledFor: when,
	})
}

// Counts returns the owner's overdue, today and open task counters.
func (s *Service) Counts(ctx context.Context, ownerID string) (schedule.Counts, error) {
	tasks, err := s.todayTasks(ctx, ownerID, false)
	if err != nil {
		return schedule.Counts{}, err
	}
	return schedule.Count(tasks, s.clock()), nil
}

// Today returns the owner's overdue, due-today and completed-today tasks.
func (s *Service) Today(ctx context.Context, ownerID string) (schedule.TodayView, error) {
	tasks, err := s.todayTasks(ctx, ownerID, true)
	if err != nil {
		return schedule.TodayView{}, err
	}
	view := schedule.Today(tasks, s.clock())
	for _, list := range [][]models.Task{view.Overdue, view.Today, view.CompletedToday} {
		s.localizeTasks(list)
	}
	return view, nil
}

// todayTasks loads open tasks scheduled before tomorrow and, when asked,
// tasks completed today.
func (s *Service) todayTasks(ctx context.Context, ownerID string, withCompleted bool) ([]models.Task, error) {
	day := s.todayWindow()
	tasks, err := s.store.ListTasks(ctx, ownerID, sqlite.TaskFilter{OpenOnly: true, ScheduledBefore: &day.End})
	if err != nil {
		return nil, err
	}
	if !withCompleted {
		return tasks, nil
	}
	done, err := s.store.ListTasks(ctx, ownerID, sqlite.TaskFilter{CompletedFrom: &day.Start, CompletedBefore: &day.End})
	if err != nil {
		return nil, err
	}
	return append(tasks, done...), nil
}

func (s *Service) localizeTasks(tasks []models.Task) {
	for i := range tasks {
		tasks[i].ScheduledFor = tasks[i].ScheduledFor.In(s.loc)
		tasks[i].CreatedAt = tasks[i].CreatedAt.In(s.loc)
		if tasks[i].CompletedAt != nil {
			v := tasks[i].CompletedAt.In(s.loc)
			tasks[i].CompletedAt = &v
		}
	}
}
