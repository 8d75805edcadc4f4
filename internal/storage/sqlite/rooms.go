package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"plantcare/internal/models"
)

// ListRooms returns the owner's rooms in creation order.
func (q queries) ListRooms(ctx context.Context, ownerID string) ([]models.Room, error) {
	rooms := []models.Room{}
	err := sqlx.SelectContext(ctx, q.ext, &rooms, `SELECT id, owner_id, name, lat, lon, created_at
        FROM rooms WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom persists a new room for the owner.
func (q queries) CreateRoom(ctx context.Context, r models.Room) (models.Room, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := q.ext.ExecContext(ctx, `INSERT INTO rooms(owner_id, name, lat, lon, created_at) VALUES(?, ?, ?, ?, ?)`,
		r.OwnerID, r.Name, r.Lat, r.Lon, utc(r.CreatedAt))
	if err != nil {
		return models.Room{}, fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Room{}, fmt.Errorf("room id: %w", err)
	}
	return q.GetRoom(ctx, r.OwnerID, id)
}

// GetRoom fetches one of the owner's rooms.
func (q queries) GetRoom(ctx context.Context, ownerID string, id int64) (models.Room, error) {
	var r models.Room
	err := sqlx.GetContext(ctx, q.ext, &r, `SELECT id, owner_id, name, lat, lon, created_at FROM rooms WHERE owner_id = ? AND id = ?`, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, fmt.Errorf("room %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

// DeleteRoom removes a room. Plants referencing it keep their free-text room
// and lose the reference.
func (q queries) DeleteRoom(ctx context.Context, ownerID string, id int64) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM rooms WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("room %d: %w", id, models.ErrNotFound)
	}
	return nil
}
