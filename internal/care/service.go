// Package care orchestrates plant care flows on top of the store and the
// schedule engine. HTTP handlers and CLI commands both go through it.
package care

import (
	"context"
	"io"
	"log/slog"
	"time"

	"plantcare/internal/metrics"
	"plantcare/internal/models"
	"plantcare/internal/schedule"
	"plantcare/internal/storage/sqlite"
	"plantcare/internal/weather"
)

// DefaultNudgeLimit caps how many never-cared seed plants are made due today.
const DefaultNudgeLimit = 6

// WeatherSource resolves current conditions for a coordinate.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64, unit string) (weather.Current, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Weather     WeatherSource
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Location    *time.Location
	Now         func() time.Time
	HorizonDays int
	NudgeLimit  int
	// Unit is used for weather lookups when the owner saved no preference.
	Unit string
}

// Service implements the care operations for a single store.
type Service struct {
	store       *sqlite.Store
	weather     WeatherSource
	metrics     *metrics.Metrics
	logger      *slog.Logger
	loc         *time.Location
	now         func() time.Time
	horizonDays int
	nudgeLimit  int
	unit        string
}

// New builds a Service around store.
func New(store *sqlite.Store, opts Options) *Service {
	s := &Service{
		store:       store,
		weather:     opts.Weather,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		loc:         opts.Location,
		now:         opts.Now,
		horizonDays: opts.HorizonDays,
		nudgeLimit:  opts.NudgeLimit,
		unit:        opts.Unit,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.horizonDays <= 0 {
		s.horizonDays = schedule.DefaultHorizonDays
	}
	if s.nudgeLimit <= 0 {
		s.nudgeLimit = DefaultNudgeLimit
	}
	if s.unit != models.UnitImperial {
		s.unit = models.UnitMetric
	}
	return s
}

// clock returns the current instant in the service's calendar location.
func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) todayWindow() schedule.Window {
	start := schedule.Midnight(s.clock())
	return schedule.Window{Start: start, End: start.AddDate(0, 0, 1)}
}
