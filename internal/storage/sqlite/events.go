package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"plantcare/internal/models"
)

const eventColumns = `id, owner_id, plant_id, type, water_ml, fertilizer_type, minutes, note, created_at`

// AppendEvent records a care event and returns it with its id.
func (q queries) AppendEvent(ctx context.Context, ev models.CareEvent) (models.CareEvent, error) {
	ev.CreatedAt = utc(ev.CreatedAt)
	res, err := sqlx.NamedExecContext(ctx, q.ext, `INSERT INTO care_events(owner_id, plant_id, type, water_ml, fertilizer_type, minutes, note, created_at)
        VALUES(:owner_id, :plant_id, :type, :water_ml, :fertilizer_type, :minutes, :note, :created_at)`, ev)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.CareEvent{}, fmt.Errorf("plant %q: %w", ev.PlantID, models.ErrNotFound)
		}
		return models.CareEvent{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.CareEvent{}, fmt.Errorf("event id: %w", err)
	}
	ev.ID = id
	return ev, nil
}

// ListEvents returns the owner's events created at or after since, oldest first.
func (q queries) ListEvents(ctx context.Context, ownerID string, since time.Time) ([]models.CareEvent, error) {
	events := []models.CareEvent{}
	err := sqlx.SelectContext(ctx, q.ext, &events, `SELECT `+eventColumns+` FROM care_events
        WHERE owner_id = ? AND created_at >= ? ORDER BY created_at ASC, id ASC`, ownerID, utc(since))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListPlantEvents returns up to limit of the plant's most recent events.
func (q queries) ListPlantEvents(ctx context.Context, ownerID, plantID string, limit int) ([]models.CareEvent, error) {
	events := []models.CareEvent{}
	err := sqlx.SelectContext(ctx, q.ext, &events, `SELECT `+eventColumns+` FROM care_events
        WHERE owner_id = ? AND plant_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, ownerID, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list plant events: %w", err)
	}
	return events, nil
}
