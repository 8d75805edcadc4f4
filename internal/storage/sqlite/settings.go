package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"plantcare/internal/models"
)

// GetSettings returns the owner's settings or ErrNotFound when none were saved.
func (q queries) GetSettings(ctx context.Context, ownerID string) (models.UserSettings, error) {
	var st models.UserSettings
	err := sqlx.GetContext(ctx, q.ext, &st, `SELECT owner_id, lat, lon, unit, updated_at FROM user_settings WHERE owner_id = ?`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserSettings{}, fmt.Errorf("settings for %q: %w", ownerID, models.ErrNotFound)
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// UpsertSettings writes the owner's settings row.
func (q queries) UpsertSettings(ctx context.Context, st models.UserSettings) (models.UserSettings, error) {
	st.UpdatedAt = utc(st.UpdatedAt)
	_, err := sqlx.NamedExecContext(ctx, q.ext, `INSERT INTO user_settings(owner_id, lat, lon, unit, updated_at)
        VALUES(:owner_id, :lat, :lon, :unit, :updated_at)
        ON CONFLICT(owner_id) DO UPDATE SET lat = excluded.lat, lon = excluded.lon,
            unit = excluded.unit, updated_at = excluded.updated_at`, st)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("upsert settings: %w", err)
	}
	return q.GetSettings(ctx, st.OwnerID)
}
