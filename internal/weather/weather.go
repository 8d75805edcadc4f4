// Package weather fetches current conditions from OpenWeather and caches them
// per rounded coordinate.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"plantcare/internal/models"
)

const (
	DefaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	DefaultCacheTTL = 10 * time.Minute
	RequestTimeout  = 10 * time.Second
	UserAgent       = "plantcare"
)

// Lookup outcomes reported to a Recorder.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// ErrNoAPIKey is returned when no OpenWeather key is configured.
var ErrNoAPIKey = errors.New("missing OpenWeather API key")

// Cache stores values with a per-entry expiry. *cache.Cache from
// github.com/patrickmn/go-cache satisfies it.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Recorder observes lookup outcomes.
type Recorder interface {
	ObserveWeatherLookup(outcome string)
}

// Current is a normalized snapshot of current conditions in Celsius.
type Current struct {
	TempC       float64   `json:"tempC"`
	FeelsLikeC  float64   `json:"feelsLikeC"`
	Humidity    int       `json:"humidity"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ObservedAt  time.Time `json:"dt"`
}

// Config holds the client settings.
type Config struct {
	APIKey   string
	Endpoint string
	TTL      time.Duration
}

// Client queries OpenWeather through an injected cache.
type Client struct {
	cfg      Config
	cache    Cache
	http     *http.Client
	recorder Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder attaches a lookup outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient builds a client. A nil cache disables caching.
func NewClient(cfg Config, cache Cache, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	c := &Client{
		cfg:   cfg,
		cache: cache,
		http:  &http.Client{Timeout: RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey formats the cache key for a coordinate and unit.
func CacheKey(lat, lon float64, unit string) string {
	return fmt.Sprintf("%.3f,%.3f:%s", lat, lon, unit)
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Dt      int64  `json:"dt"`
	Message string `json:"message"`
}

// Current returns conditions at the coordinate, served from cache when fresh.
func (c *Client) Current(ctx context.Context, lat, lon float64, unit string) (Current, error) {
	if unit != models.UnitImperial {
		unit = models.UnitMetric
	}
	if c.cfg.APIKey == "" {
		c.observe(OutcomeError)
		return Current{}, ErrNoAPIKey
	}

	key := CacheKey(lat, lon, unit)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			if cur, ok := v.(Current); ok {
				c.observe(OutcomeHit)
				return cur, nil
			}
		}
	}

	cur, err := c.fetch(ctx, lat, lon, unit)
	if err != nil {
		c.observe(OutcomeError)
		return Current{}, err
	}
	c.observe(OutcomeMiss)
	if c.cache != nil {
		c.cache.Set(key, cur, c.cfg.TTL)
	}
	return cur, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64, unit string) (Current, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", unit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Current{}, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Current{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Current{}, fmt.Errorf("read weather response: %w", err)
	}

	var data owmResponse
	decodeErr := json.Unmarshal(body, &data)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && data.Message != "" {
			return Current{}, fmt.Errorf("weather fetch failed: %d %s", resp.StatusCode, data.Message)
		}
		return Current{}, fmt.Errorf("weather fetch failed: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return Current{}, fmt.Errorf("decode weather response: %w", decodeErr)
	}

	temp, feels := data.Main.Temp, data.Main.FeelsLike
	if unit == models.UnitImperial {
		temp = FahrenheitToCelsius(temp)
		feels = FahrenheitToCelsius(feels)
	}

	cur := Current{
		TempC:      round1(temp),
		FeelsLikeC: round1(feels),
		Humidity:   data.Main.Humidity,
		ObservedAt: time.Unix(data.Dt, 0).UTC(),
	}
	if len(data.Weather) > 0 {
		cur.Description = data.Weather[0].Description
		cur.Icon = data.Weather[0].Icon
	}
	return cur, nil
}

func (c *Client) observe(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveWeatherLookup(outcome)
	}
}

// FahrenheitToCelsius converts a Fahrenheit reading.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
