package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"plantcare/internal/models"
)

const taskSelect = `SELECT t.id, t.owner_id, t.plant_id, p.name AS plant_name, p.archived AS plant_archived,
    t.type, t.scheduled_for, t.completed_at, t.created_at
    FROM tasks t JOIN plants p ON p.owner_id = t.owner_id AND p.id = t.plant_id`

// TaskFilter narrows ListTasks. Unset bounds are ignored.
type TaskFilter struct {
	PlantID         string
	Type            string
	OpenOnly        bool
	ScheduledBefore *time.Time
	CompletedFrom   *time.Time
	CompletedBefore *time.Time
	ScheduledFrom   *time.Time
}

// UpsertTasks inserts every missing key in a single transaction and reports how
// many rows were created. Existing rows, including their completion, are kept.
func (s *Store) UpsertTasks(ctx context.Context, keys []models.TaskKey) (int, error) {
	created := 0
	err := s.WithTx(ctx, func(tx *Tx) error {
		n, err := tx.upsertTasks(ctx, keys)
		created = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (q queries) upsertTasks(ctx context.Context, keys []models.TaskKey) (int, error) {
	now := utc(time.Now())
	created := 0
	for _, k := range keys {
		res, err := q.ext.ExecContext(ctx, `INSERT INTO tasks(owner_id, plant_id, type, scheduled_for, created_at)
            VALUES(?, ?, ?, ?, ?) ON CONFLICT(owner_id, plant_id, type, scheduled_for) DO NOTHING`,
			k.OwnerID, k.PlantID, k.Type, utc(k.ScheduledFor), now)
		if err != nil {
			return 0, fmt.Errorf("upsert task %s/%s: %w", k.PlantID, k.Type, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		created += int(n)
	}
	return created, nil
}

// CreateTask inserts a single task. An existing key yields ErrConflict.
func (q queries) CreateTask(ctx context.Context, k models.TaskKey) (models.Task, error) {
	res, err := q.ext.ExecContext(ctx, `INSERT INTO tasks(owner_id, plant_id, type, scheduled_for, created_at) VALUES(?, ?, ?, ?, ?)`,
		k.OwnerID, k.PlantID, k.Type, utc(k.ScheduledFor), utc(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Task{}, fmt.Errorf("task %s/%s: %w", k.PlantID, k.Type, models.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return models.Task{}, fmt.Errorf("plant %q: %w", k.PlantID, models.ErrNotFound)
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return q.GetTask(ctx, k.OwnerID, id)
}

// GetTask retrieves an owner's task by id.
func (q queries) GetTask(ctx context.Context, ownerID string, id int64) (models.Task, error) {
	var t models.Task
	err := sqlx.GetContext(ctx, q.ext, &t, taskSelect+` WHERE t.owner_id = ? AND t.id = ?`, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns the owner's tasks ordered by schedule then id.
func (q queries) ListTasks(ctx context.Context, ownerID string, f TaskFilter) ([]models.Task, error) {
	where := []string{"t.owner_id = ?"}
	args := []any{ownerID}
	if f.PlantID != "" {
		where = append(where, "t.plant_id = ?")
		args = append(args, f.PlantID)
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, f.Type)
	}
	if f.OpenOnly {
		where = append(where, "t.completed_at IS NULL")
	}
	if f.ScheduledFrom != nil {
		where = append(where, "t.scheduled_for >= ?")
		args = append(args, utc(*f.ScheduledFrom))
	}
	if f.ScheduledBefore != nil {
		where = append(where, "t.scheduled_for < ?")
		args = append(args, utc(*f.ScheduledBefore))
	}
	if f.CompletedFrom != nil {
		where = append(where, "t.completed_at >= ?")
		args = append(args, utc(*f.CompletedFrom))
	}
	if f.CompletedBefore != nil {
		where = append(where, "t.completed_at < ?")
		args = append(args, utc(*f.CompletedBefore))
	}

	tasks := []models.Task{}
	query := taskSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY t.scheduled_for ASC, t.id ASC`
	if err := sqlx.SelectContext(ctx, q.ext, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListOpenTasks returns every incomplete task of the owner.
func (q queries) ListOpenTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	return q.ListTasks(ctx, ownerID, TaskFilter{OpenOnly: true})
}

// ListTasksScheduledBetween returns tasks with from <= scheduled_for < to.
func (q queries) ListTasksScheduledBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Task, error) {
	return q.ListTasks(ctx, ownerID, TaskFilter{ScheduledFrom: &from, ScheduledBefore: &to})
}

// CompleteTask stamps completed_at when the task is still open. It reports
// whether this call performed the completion.
func (q queries) CompleteTask(ctx context.Context, ownerID string, id int64, at time.Time) (bool, error) {
	res, err := q.ext.ExecContext(ctx, `UPDATE tasks SET completed_at = ? WHERE owner_id = ? AND id = ? AND completed_at IS NULL`,
		utc(at), ownerID, id)
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
