// Package catalog provides the built-in sample plants used by the seed action.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"plantcare/internal/models"
	"plantcare/internal/util"
)

//go:embed plants.yaml
var rawCatalog []byte

// Entry is one sample plant after defaults have been applied.
type Entry struct {
	ID                    string `yaml:"id"`
	Name                  string `yaml:"name"`
	Species               string `yaml:"species"`
	Light                 string `yaml:"light"`
	Water                 string `yaml:"water"`
	Description           string `yaml:"description"`
	ImageURL              string `yaml:"imageUrl"`
	WaterIntervalDays     int    `yaml:"waterIntervalDays"`
	FertilizeIntervalDays int    `yaml:"fertilizeIntervalDays"`
	WaterMl               int    `yaml:"waterMl"`
	LastWateredAt         string `yaml:"lastWateredAt"`
}

type document struct {
	Defaults Entry   `yaml:"defaults"`
	Plants   []Entry `yaml:"plants"`
}

var (
	loadOnce sync.Once
	entries  []Entry
	loadErr  error
)

// Entries returns the embedded catalog. The result is shared; do not modify it.
func Entries() ([]Entry, error) {
	loadOnce.Do(func() {
		entries, loadErr = Parse(rawCatalog)
	})
	return entries, loadErr
}

// Parse decodes a catalog document and fills in defaults, ids and image urls.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Plants))
	out := make([]Entry, 0, len(doc.Plants))
	for i, e := range doc.Plants {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: missing name", i)
		}
		if e.ID == "" {
			e.ID = util.Slugify(e.Name)
		}
		if !util.IsSlug(e.ID) {
			return nil, fmt.Errorf("catalog entry %q: invalid id %q", e.Name, e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate id %q", e.Name, e.ID)
		}
		seen[e.ID] = struct{}{}

		if e.ImageURL == "" {
			e.ImageURL = "https://picsum.photos/seed/" + url.PathEscape(util.Slugify(e.Name)) + "/1200/600"
		}
		if e.Light == "" {
			e.Light = doc.Defaults.Light
		}
		if e.Water == "" {
			e.Water = doc.Defaults.Water
		}
		if e.WaterIntervalDays == 0 {
			e.WaterIntervalDays = doc.Defaults.WaterIntervalDays
		}
		if e.FertilizeIntervalDays == 0 {
			e.FertilizeIntervalDays = doc.Defaults.FertilizeIntervalDays
		}
		if e.LastWateredAt != "" {
			if _, err := time.Parse(time.DateOnly, e.LastWateredAt); err != nil {
				return nil, fmt.Errorf("catalog entry %q: lastWateredAt: %w", e.Name, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Plant converts the entry into an owner's plant created at the given time.
// A date-only lastWateredAt is read as midnight in created's location.
func (e Entry) Plant(ownerID string, created time.Time) models.Plant {
	p := models.Plant{
		ID:        e.ID,
		OwnerID:   ownerID,
		Name:      e.Name,
		Species:   optional(e.Species),
		Light:     optional(e.Light),
		Water:     optional(e.Water),
		ImageURL:  optional(e.ImageURL),
		CreatedAt: created,
		UpdatedAt: created,
	}
	p.Description = optional(e.Description)
	if e.WaterIntervalDays > 0 {
		v := e.WaterIntervalDays
		p.WaterIntervalDays = &v
	}
	if e.FertilizeIntervalDays > 0 {
		v := e.FertilizeIntervalDays
		p.FertilizeIntervalDays = &v
	}
	if e.WaterMl > 0 {
		v := e.WaterMl
		p.WaterMl = &v
	}
	if e.LastWateredAt != "" {
		if t, err := time.ParseInLocation(time.DateOnly, e.LastWateredAt, created.Location()); err == nil {
			p.LastWateredAt = &t
		}
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
