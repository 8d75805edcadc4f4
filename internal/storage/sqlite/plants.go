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

const plantColumns = `owner_id, id, name, species, light, water, description, image_url,
    water_interval_days, fertilize_interval_days, water_ml, pot_size_cm, soil_type,
    humidity_pref, temp_min_c, temp_max_c, room_id, room, weather_notes, health,
    last_watered_at, last_fertilized_at, archived, created_at, updated_at`

const insertPlant = `INSERT INTO plants(` + plantColumns + `) VALUES(
    :owner_id, :id, :name, :species, :light, :water, :description, :image_url,
    :water_interval_days, :fertilize_interval_days, :water_ml, :pot_size_cm, :soil_type,
    :humidity_pref, :temp_min_c, :temp_max_c, :room_id, :room, :weather_notes, :health,
    :last_watered_at, :last_fertilized_at, :archived, :created_at, :updated_at)`

// PlantFilter narrows ListPlants. Zero value lists active plants newest first.
type PlantFilter struct {
	IncludeArchived bool
	Light           string
	Water           string
	Oldest          bool
}

func plantRow(p models.Plant) models.Plant {
	p.LastWateredAt = utcPtr(p.LastWateredAt)
	p.LastFertilizedAt = utcPtr(p.LastFertilizedAt)
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
	return p
}

// ListPlants returns the owner's plants matching the filter.
func (q queries) ListPlants(ctx context.Context, ownerID string, f PlantFilter) ([]models.Plant, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if !f.IncludeArchived {
		where = append(where, "archived = 0")
	}
	if f.Light != "" {
		where = append(where, "light = ?")
		args = append(args, f.Light)
	}
	if f.Water != "" {
		where = append(where, "water = ?")
		args = append(args, f.Water)
	}
	order := "created_at DESC, rowid DESC"
	if f.Oldest {
		order = "created_at ASC, rowid ASC"
	}

	query := `SELECT ` + plantColumns + ` FROM plants WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	plants := []models.Plant{}
	if err := sqlx.SelectContext(ctx, q.ext, &plants, query, args...); err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return plants, nil
}

// GetPlant fetches a single plant by owner and id.
func (q queries) GetPlant(ctx context.Context, ownerID, id string) (models.Plant, error) {
	var p models.Plant
	err := sqlx.GetContext(ctx, q.ext, &p, `SELECT `+plantColumns+` FROM plants WHERE owner_id = ? AND id = ?`, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plant{}, fmt.Errorf("plant %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Plant{}, fmt.Errorf("get plant: %w", err)
	}
	return p, nil
}

// CreatePlant persists a new plant. Duplicate ids within an owner yield ErrConflict.
func (q queries) CreatePlant(ctx context.Context, p models.Plant) (models.Plant, error) {
	if _, err := sqlx.NamedExecContext(ctx, q.ext, insertPlant, plantRow(p)); err != nil {
		if isUniqueViolation(err) {
			return models.Plant{}, fmt.Errorf("plant %q: %w", p.ID, models.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return models.Plant{}, models.NewValidationError("roomId", "unknown room")
		}
		return models.Plant{}, fmt.Errorf("insert plant: %w", err)
	}
	return q.GetPlant(ctx, p.OwnerID, p.ID)
}

// InsertPlantsIfMissing inserts plants whose ids are not already taken and
// reports how many rows were added.
func (q queries) InsertPlantsIfMissing(ctx context.Context, plants []models.Plant) (int, error) {
	inserted := 0
	for _, p := range plants {
		res, err := sqlx.NamedExecContext(ctx, q.ext, insertPlant+` ON CONFLICT(owner_id, id) DO NOTHING`, plantRow(p))
		if err != nil {
			return inserted, fmt.Errorf("insert plant %q: %w", p.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// UpdatePlant overwrites every mutable column of an existing plant.
func (q queries) UpdatePlant(ctx context.Context, p models.Plant) (models.Plant, error) {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `UPDATE plants SET
        name = :name, species = :species, light = :light, water = :water,
        description = :description, image_url = :image_url,
        water_interval_days = :water_interval_days, fertilize_interval_days = :fertilize_interval_days,
        water_ml = :water_ml, pot_size_cm = :pot_size_cm, soil_type = :soil_type,
        humidity_pref = :humidity_pref, temp_min_c = :temp_min_c, temp_max_c = :temp_max_c,
        room_id = :room_id, room = :room, weather_notes = :weather_notes, health = :health,
        last_watered_at = :last_watered_at, last_fertilized_at = :last_fertilized_at,
        archived = :archived, updated_at = :updated_at
        WHERE owner_id = :owner_id AND id = :id`, plantRow(p))
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Plant{}, models.NewValidationError("roomId", "unknown room")
		}
		return models.Plant{}, fmt.Errorf("update plant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Plant{}, err
	}
	if affected == 0 {
		return models.Plant{}, fmt.Errorf("plant %q: %w", p.ID, models.ErrNotFound)
	}
	return q.GetPlant(ctx, p.OwnerID, p.ID)
}

// SetLastCare stamps the last-care column for a tracked action.
func (q queries) SetLastCare(ctx context.Context, ownerID, plantID, action string, at time.Time) error {
	var column string
	switch action {
	case models.ActionWater:
		column = "last_watered_at"
	case models.ActionFertilize:
		column = "last_fertilized_at"
	default:
		return fmt.Errorf("set last care: unsupported action %q", action)
	}

	res, err := q.ext.ExecContext(ctx, `UPDATE plants SET `+column+` = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		utc(at), utc(time.Now()), ownerID, plantID)
	if err != nil {
		return fmt.Errorf("set last care: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("plant %q: %w", plantID, models.ErrNotFound)
	}
	return nil
}

// DeletePlant removes a plant; its tasks and events cascade.
func (q queries) DeletePlant(ctx context.Context, ownerID, id string) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM plants WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("plant %q: %w", id, models.ErrNotFound)
	}
	return nil
}
