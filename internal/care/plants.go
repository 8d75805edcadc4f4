package care

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
	"plantcare/internal/util"
)

// PlantInput carries create and partial-update fields. Nil means "not set".
type PlantInput struct {
	ID                    *string `json:"id" validate:"omitempty,slug"`
	Name                  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Species               *string `json:"species" validate:"omitempty,max=200"`
	Light                 *string `json:"light" validate:"omitempty,oneof=low medium bright"`
	Water                 *string `json:"water" validate:"omitempty,oneof=low medium high"`
	Description           *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL              *string `json:"imageUrl" validate:"omitempty,url"`
	WaterIntervalDays     *int    `json:"waterIntervalDays" validate:"omitempty,min=1,max=365"`
	FertilizeIntervalDays *int    `json:"fertilizeIntervalDays" validate:"omitempty,min=1,max=365"`
	Health                *string `json:"health" validate:"omitempty,oneof=healthy sick dormant dead"`
	WaterMl               *int    `json:"waterMl" validate:"omitempty,min=1,max=5000"`
	PotSizeCm             *int    `json:"potSizeCm" validate:"omitempty,min=1,max=200"`
	SoilType              *string `json:"soilType" validate:"omitempty,max=200"`
	HumidityPref          *string `json:"humidityPref" validate:"omitempty,oneof=low medium high"`
	TempMinC              *int    `json:"tempMinC" validate:"omitempty,min=-50,max=80"`
	TempMaxC              *int    `json:"tempMaxC" validate:"omitempty,min=-50,max=80"`
	RoomID                *int64  `json:"roomId" validate:"omitempty,min=1"`
	Room                  *string `json:"room" validate:"omitempty,max=100"`
	WeatherNotes          *string `json:"weatherNotes" validate:"omitempty,max=500"`
	Archived              *bool   `json:"archived"`
}

// ListQuery filters and orders the plant list.
type ListQuery struct {
	Q               string
	Light           string
	Water           string
	OverdueOnly     bool
	SortDueSoon     bool
	IncludeArchived bool
}

// CreatePlant validates input and stores a new plant. A missing id is derived
// from the name.
func (s *Service) CreatePlant(ctx context.Context, ownerID string, in PlantInput) (models.Plant, error) {
	err := check(in)
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		err = merge(err, "name", "is required")
	}
	if err != nil {
		return models.Plant{}, err
	}

	id := ""
	if in.ID != nil {
		id = *in.ID
	}
	if id == "" {
		id = util.Slugify(*in.Name)
	}
	if id == "" {
		return models.Plant{}, models.NewValidationError("id", "could not be derived from name")
	}

	now := s.clock()
	p := models.Plant{ID: id, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	applyInput(&p, in)
	if err := s.checkRoom(ctx, ownerID, p.RoomID); err != nil {
		return models.Plant{}, err
	}

	created, err := s.store.CreatePlant(ctx, p)
	if err != nil {
		return models.Plant{}, err
	}
	s.logger.Info("plant created", "owner", ownerID, "plant", created.ID)
	return created, nil
}

// UpdatePlant applies the set fields of in to an existing plant.
func (s *Service) UpdatePlant(ctx context.Context, ownerID, id string, in PlantInput) (models.Plant, error) {
	err := check(in)
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		err = merge(err, "name", "is required")
	}
	if in.ID != nil && *in.ID != id {
		err = merge(err, "id", "cannot be changed")
	}
	if err != nil {
		return models.Plant{}, err
	}

	p, err := s.store.GetPlant(ctx, ownerID, id)
	if err != nil {
		return models.Plant{}, err
	}
	applyInput(&p, in)
	p.UpdatedAt = s.clock()
	if in.RoomID != nil {
		if err := s.checkRoom(ctx, ownerID, p.RoomID); err != nil {
			return models.Plant{}, err
		}
	}
	return s.store.UpdatePlant(ctx, p)
}

// DeletePlant removes a plant with its tasks and events.
func (s *Service) DeletePlant(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeletePlant(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("plant deleted", "owner", ownerID, "plant", id)
	return nil
}

// GetPlant returns one plant.
func (s *Service) GetPlant(ctx context.Context, ownerID, id string) (models.Plant, error) {
	return s.store.GetPlant(ctx, ownerID, id)
}

// ListPlants returns the owner's plants, newest first unless sorted by due date.
func (s *Service) ListPlants(ctx context.Context, ownerID string, q ListQuery) ([]models.Plant, error) {
	plants, err := s.store.ListPlants(ctx, ownerID, sqlite.PlantFilter{
		IncludeArchived: q.IncludeArchived,
		Light:           q.Light,
		Water:           q.Water,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	out := make([]models.Plant, 0, len(plants))
	for _, p := range plants {
		if needle != "" {
			hay := strings.ToLower(p.Name + " " + deref(p.Species))
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		if q.OverdueOnly {
			due, ok := schedule.EarliestDue(p, s.loc)
			if !ok || !schedule.IsOverdue(due, now) {
				continue
			}
		}
		out = append(out, p)
	}

	if q.SortDueSoon {
		sort.SliceStable(out, func(i, j int) bool {
			di, iok := schedule.EarliestDue(out[i], s.loc)
			dj, jok := schedule.EarliestDue(out[j], s.loc)
			if iok != jok {
				return iok
			}
			return iok && di.Before(dj)
		})
	}
	return out, nil
}

var hotlinkedImage = regexp.MustCompile(`(?i)unsplash\.com`)

// FixImages replaces missing or hotlinked images with a stable placeholder and
// reports how many plants changed.
func (s *Service) FixImages(ctx context.Context, ownerID string) (int, error) {
	plants, err := s.store.ListPlants(ctx, ownerID, sqlite.PlantFilter{IncludeArchived: true})
	if err != nil {
		return 0, err
	}

	now := s.clock()
	updated := 0
	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		for _, p := range plants {
			current := deref(p.ImageURL)
			if current != "" && !hotlinkedImage.MatchString(current) {
				continue
			}
			img := PlaceholderImage(p.ID)
			p.ImageURL = &img
			p.UpdatedAt = now
			if _, err := tx.UpdatePlant(ctx, p); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fix images: %w", err)
	}
	return updated, nil
}

// PlaceholderImage returns the seeded placeholder image url for a plant id.
func PlaceholderImage(id string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(id) + "/1200/600"
}

func (s *Service) checkRoom(ctx context.Context, ownerID string, roomID *int64) error {
	if roomID == nil {
		return nil
	}
	if _, err := s.store.GetRoom(ctx, ownerID, *roomID); err != nil {
		return models.NewValidationError("roomId", "unknown room")
	}
	return nil
}

func applyInput(p *models.Plant, in PlantInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	setString(&p.Species, in.Species)
	setString(&p.Light, in.Light)
	setString(&p.Water, in.Water)
	setString(&p.Description, in.Description)
	setString(&p.ImageURL, in.ImageURL)
	setString(&p.Health, in.Health)
	setString(&p.SoilType, in.SoilType)
	setString(&p.HumidityPref, in.HumidityPref)
	setString(&p.Room, in.Room)
	setString(&p.WeatherNotes, in.WeatherNotes)
	setInt(&p.WaterIntervalDays, in.WaterIntervalDays)
	setInt(&p.FertilizeIntervalDays, in.FertilizeIntervalDays)
	setInt(&p.WaterMl, in.WaterMl)
	setInt(&p.PotSizeCm, in.PotSizeCm)
	setInt(&p.TempMinC, in.TempMinC)
	setInt(&p.TempMaxC, in.TempMaxC)
	if in.RoomID != nil {
		v := *in.RoomID
		p.RoomID = &v
	}
	if in.Archived != nil {
		p.Archived = *in.Archived
	}
}

// setString copies v into dst; an empty string clears the field.
func setString(dst **string, v *string) {
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		*dst = nil
		return
	}
	*dst = &s
}

func setInt(dst **int, v *int) {
	if v == nil {
		return
	}
	n := *v
	*dst = &n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
