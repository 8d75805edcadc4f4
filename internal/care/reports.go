package care

import (
	"context"
	"errors"

	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
	"plantcare/internal/weather"
)

// recentEventLimit is how many events the plant detail view includes.
const recentEventLimit = 10

// PlantDetail is the single-plant read model.
type PlantDetail struct {
	Plant              models.Plant         `json:"plant"`
	Dues               []schedule.DueStatus `json:"dues"`
	Events             []models.CareEvent   `json:"events"`
	Room               *models.Room         `json:"room,omitempty"`
	Weather            *weather.Current     `json:"weather,omitempty"`
	RecommendedWaterMl int                  `json:"recommendedWaterMl"`
	RecommendedWaterOz float64              `json:"recommendedWaterOz"`
	AdjustedWaterMl    *int                 `json:"adjustedWaterMl,omitempty"`
}

// Digest returns the seven-day care digest for the owner's active plants.
func (s *Service) Digest(ctx context.Context, ownerID string) ([]schedule.DigestBucket, error) {
	plants, err := s.store.ListPlants(ctx, ownerID, sqlite.PlantFilter{Oldest: true})
	if err != nil {
		return nil, err
	}
	return schedule.Digest(plants, s.clock()), nil
}

// Analytics aggregates the owner's plants, recent events and recent tasks.
func (s *Service) Analytics(ctx context.Context, ownerID string) (schedule.Analytics, error) {
	now := s.clock()
	start := schedule.Midnight(now)

	plants, err := s.store.ListPlants(ctx, ownerID, sqlite.PlantFilter{IncludeArchived: true, Oldest: true})
	if err != nil {
		return schedule.Analytics{}, err
	}
	// Twelve Sunday-anchored weeks of events.
	since := start.AddDate(0, 0, -int(start.Weekday())-77)
	events, err := s.store.ListEvents(ctx, ownerID, since)
	if err != nil {
		return schedule.Analytics{}, err
	}
	tasks, err := s.store.ListTasksScheduledBetween(ctx, ownerID, start.AddDate(0, 0, -29), start.AddDate(0, 0, 1))
	if err != nil {
		return schedule.Analytics{}, err
	}
	return schedule.Analyze(plants, events, tasks, now), nil
}

// PlantDetail assembles a plant with its schedule, recent history, room,
// local weather and watering suggestions. Weather is best effort.
func (s *Service) PlantDetail(ctx context.Context, ownerID, id string) (PlantDetail, error) {
	p, err := s.store.GetPlant(ctx, ownerID, id)
	if err != nil {
		return PlantDetail{}, err
	}
	events, err := s.store.ListPlantEvents(ctx, ownerID, id, recentEventLimit)
	if err != nil {
		return PlantDetail{}, err
	}

	now := s.clock()
	d := PlantDetail{
		Plant:  p,
		Dues:   schedule.PlantDues(p, now),
		Events: events,
	}
	if d.Dues == nil {
		d.Dues = []schedule.DueStatus{}
	}

	d.RecommendedWaterMl = RecommendedWaterMl(p.PotSizeCm, deref(p.SoilType), deref(p.HumidityPref))
	d.RecommendedWaterOz = MlToOz(d.RecommendedWaterMl)

	if p.RoomID != nil {
		room, err := s.store.GetRoom(ctx, ownerID, *p.RoomID)
		switch {
		case err == nil:
			d.Room = &room
		case !errors.Is(err, models.ErrNotFound):
			return PlantDetail{}, err
		}
	}

	if cur, ok := s.localWeather(ctx, ownerID, d.Room); ok {
		d.Weather = &cur
		base := d.RecommendedWaterMl
		if p.WaterMl != nil {
			base = *p.WaterMl
		}
		adjusted := AdjustedWaterMl(base, cur)
		d.AdjustedWaterMl = &adjusted
	}
	return d, nil
}

// localWeather resolves weather from the room coordinates, falling back to the
// owner's settings. Failures are logged and reported as unavailable.
func (s *Service) localWeather(ctx context.Context, ownerID string, room *models.Room) (weather.Current, bool) {
	if s.weather == nil {
		return weather.Current{}, false
	}

	unit := s.unit
	var lat, lon *float64
	settings, err := s.store.GetSettings(ctx, ownerID)
	if err == nil {
		unit = settings.Unit
		lat, lon = settings.Lat, settings.Lon
	}
	if room != nil && room.Lat != nil && room.Lon != nil {
		lat, lon = room.Lat, room.Lon
	}
	if lat == nil || lon == nil {
		return weather.Current{}, false
	}

	cur, err := s.weather.Current(ctx, *lat, *lon, unit)
	if err != nil {
		s.logger.Debug("weather unavailable", "owner", ownerID, "error", err)
		return weather.Current{}, false
	}
	return cur, true
}
