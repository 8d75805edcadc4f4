package models

import "time"

// Care action and task types with plant-state side effects.
const (
	ActionWater     = "water"
	ActionFertilize = "fertilize"
	ActionOther     = "other"
)

// Unit preferences for weather lookups.
const (
	UnitMetric   = "metric"
	UnitImperial = "imperial"
)

// Plant is a cared-for entity owned by exactly one user.
type Plant struct {
	ID                    string     `json:"id" db:"id"`
	OwnerID               string     `json:"ownerId" db:"owner_id"`
	Name                  string     `json:"name" db:"name"`
	Species               *string    `json:"species,omitempty" db:"species"`
	Light                 *string    `json:"light,omitempty" db:"light"`
	Water                 *string    `json:"water,omitempty" db:"water"`
	Description           *string    `json:"description,omitempty" db:"description"`
	ImageURL              *string    `json:"imageUrl,omitempty" db:"image_url"`
	WaterIntervalDays     *int       `json:"waterIntervalDays,omitempty" db:"water_interval_days"`
	FertilizeIntervalDays *int       `json:"fertilizeIntervalDays,omitempty" db:"fertilize_interval_days"`
	WaterMl               *int       `json:"waterMl,omitempty" db:"water_ml"`
	PotSizeCm             *int       `json:"potSizeCm,omitempty" db:"pot_size_cm"`
	SoilType              *string    `json:"soilType,omitempty" db:"soil_type"`
	HumidityPref          *string    `json:"humidityPref,omitempty" db:"humidity_pref"`
	TempMinC              *int       `json:"tempMinC,omitempty" db:"temp_min_c"`
	TempMaxC              *int       `json:"tempMaxC,omitempty" db:"temp_max_c"`
	RoomID                *int64     `json:"roomId,omitempty" db:"room_id"`
	Room                  *string    `json:"room,omitempty" db:"room"`
	WeatherNotes          *string    `json:"weatherNotes,omitempty" db:"weather_notes"`
	Health                *string    `json:"health,omitempty" db:"health"`
	LastWateredAt         *time.Time `json:"lastWateredAt,omitempty" db:"last_watered_at"`
	LastFertilizedAt      *time.Time `json:"lastFertilizedAt,omitempty" db:"last_fertilized_at"`
	Archived              bool       `json:"archived" db:"archived"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time  `json:"updatedAt" db:"updated_at"`
}

// LastCare returns the last-care timestamp recorded for the action.
func (p Plant) LastCare(action string) *time.Time {
	switch action {
	case ActionWater:
		return p.LastWateredAt
	case ActionFertilize:
		return p.LastFertilizedAt
	}
	return nil
}

// Interval returns the configured interval in days for the action.
func (p Plant) Interval(action string) *int {
	switch action {
	case ActionWater:
		return p.WaterIntervalDays
	case ActionFertilize:
		return p.FertilizeIntervalDays
	}
	return nil
}

// CareEvent is an immutable log entry of one care action.
type CareEvent struct {
	ID             int64     `json:"id" db:"id"`
	OwnerID        string    `json:"ownerId" db:"owner_id"`
	PlantID        string    `json:"plantId" db:"plant_id"`
	Type           string    `json:"type" db:"type"`
	WaterMl        *int      `json:"waterMl,omitempty" db:"water_ml"`
	FertilizerType *string   `json:"fertilizerType,omitempty" db:"fertilizer_type"`
	Minutes        *int      `json:"minutes,omitempty" db:"minutes"`
	Note           *string   `json:"note,omitempty" db:"note"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Task is one scheduled occurrence of a care action on a calendar date.
type Task struct {
	ID           int64      `json:"id" db:"id"`
	OwnerID      string     `json:"ownerId" db:"owner_id"`
	PlantID      string     `json:"plantId" db:"plant_id"`
	PlantName    string     `json:"plantName,omitempty" db:"plant_name"`
	Archived     bool       `json:"-" db:"plant_archived"`
	Type         string     `json:"type" db:"type"`
	ScheduledFor time.Time  `json:"scheduledFor" db:"scheduled_for"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// Open reports whether the task still awaits completion.
func (t Task) Open() bool {
	return t.CompletedAt == nil
}

// TaskKey identifies a task for idempotent generation.
type TaskKey struct {
	OwnerID      string
	PlantID      string
	Type         string
	ScheduledFor time.Time
}

// Room is a named location used to resolve local weather.
type Room struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Lat       *float64  `json:"lat,omitempty" db:"lat"`
	Lon       *float64  `json:"lon,omitempty" db:"lon"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserSettings holds per-owner weather defaults.
type UserSettings struct {
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Lat       *float64  `json:"lat,omitempty" db:"lat"`
	Lon       *float64  `json:"lon,omitempty" db:"lon"`
	Unit      string    `json:"unit" db:"unit"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ValidLight enumerates light preferences.
var ValidLight = map[string]struct{}{
	"low":    {},
	"medium": {},
	"bright": {},
}

// ValidLevel enumerates water and humidity preferences.
var ValidLevel = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// ValidHealth enumerates plant health states.
var ValidHealth = map[string]struct{}{
	"healthy": {},
	"sick":    {},
	"dormant": {},
	"dead":    {},
}
