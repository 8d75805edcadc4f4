package care

import (
	"context"
	"errors"
	"strings"

	"plantcare/internal/models"
	"plantcare/internal/weather"
)

// RoomInput creates a room.
type RoomInput struct {
	Name string   `json:"name" validate:"required,max=100"`
	Lat  *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon  *float64 `json:"lon" validate:"omitempty,longitude"`
}

// SettingsInput updates the owner's weather defaults.
type SettingsInput struct {
	Lat  *float64 `json:"lat" validate:"required,latitude"`
	Lon  *float64 `json:"lon" validate:"required,longitude"`
	Unit string   `json:"unit"`
}

// ErrNoCoordinates is returned by Weather when neither the request nor the
// owner's settings carry a location.
var ErrNoCoordinates = errors.New("no coordinates configured")

// ListRooms returns the owner's rooms.
func (s *Service) ListRooms(ctx context.Context, ownerID string) ([]models.Room, error) {
	return s.store.ListRooms(ctx, ownerID)
}

// CreateRoom validates and stores a room.
func (s *Service) CreateRoom(ctx context.Context, ownerID string, in RoomInput) (models.Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return models.Room{}, err
	}
	return s.store.CreateRoom(ctx, models.Room{
		OwnerID:   ownerID,
		Name:      in.Name,
		Lat:       in.Lat,
		Lon:       in.Lon,
		CreatedAt: s.clock(),
	})
}

// DeleteRoom removes a room; plants keep their free-text room name.
func (s *Service) DeleteRoom(ctx context.Context, ownerID string, id int64) error {
	return s.store.DeleteRoom(ctx, ownerID, id)
}

// Settings returns the owner's settings, or the default unit when none are saved.
func (s *Service) Settings(ctx context.Context, ownerID string) (models.UserSettings, error) {
	st, err := s.store.GetSettings(ctx, ownerID)
	if errors.Is(err, models.ErrNotFound) {
		return models.UserSettings{OwnerID: ownerID, Unit: s.unit}, nil
	}
	return st, err
}

// UpdateSettings stores the owner's coordinates and unit. Any unit other
// than imperial is stored as metric.
func (s *Service) UpdateSettings(ctx context.Context, ownerID string, in SettingsInput) (models.UserSettings, error) {
	if err := check(in); err != nil {
		return models.UserSettings{}, err
	}
	unit := models.UnitMetric
	if in.Unit == models.UnitImperial {
		unit = models.UnitImperial
	}
	return s.store.UpsertSettings(ctx, models.UserSettings{
		OwnerID:   ownerID,
		Lat:       in.Lat,
		Lon:       in.Lon,
		Unit:      unit,
		UpdatedAt: s.clock(),
	})
}

// WeatherQuery carries optional explicit coordinates and unit.
type WeatherQuery struct {
	Lat  *float64
	Lon  *float64
	Unit string
}

// Weather resolves current conditions for explicit coordinates or the
// owner's saved location.
func (s *Service) Weather(ctx context.Context, ownerID string, q WeatherQuery) (weather.Current, error) {
	lat, lon, unit := q.Lat, q.Lon, q.Unit
	if lat == nil || lon == nil || unit == "" {
		st, err := s.store.GetSettings(ctx, ownerID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return weather.Current{}, err
		}
		if err == nil {
			if lat == nil || lon == nil {
				lat, lon = st.Lat, st.Lon
			}
			if unit == "" {
				unit = st.Unit
			}
		}
	}
	if lat == nil || lon == nil {
		return weather.Current{}, ErrNoCoordinates
	}
	if unit == "" {
		unit = s.unit
	}
	if s.weather == nil {
		return weather.Current{}, weather.ErrNoAPIKey
	}
	return s.weather.Current(ctx, *lat, *lon, unit)
}
