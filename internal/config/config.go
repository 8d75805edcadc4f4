// Package config loads plantcare settings from defaults, an optional
// config.yaml, PLANTCARE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PLANTCARE_SERVER_ADDR.
const EnvPrefix = "PLANTCARE"

// Config is the resolved application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Static   StaticConfig   `mapstructure:"static"`
	Log      LogConfig      `mapstructure:"log"`
	Timezone string         `mapstructure:"timezone"`
	Debug    bool           `mapstructure:"debug"`
	Session  SessionConfig  `mapstructure:"session"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type StaticConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// WeatherConfig configures the OpenWeather client.
type WeatherConfig struct {
	APIKey   string        `mapstructure:"apikey"`
	Endpoint string        `mapstructure:"endpoint"`
	Units    string        `mapstructure:"units"`
	CacheTTL time.Duration `mapstructure:"cachettl"`
}

type ScheduleConfig struct {
	HorizonDays int `mapstructure:"horizondays"`
}

type SeedConfig struct {
	NudgeLimit int `mapstructure:"nudgelimit"`
}

// New returns a viper instance with defaults and environment bindings set.
// Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("weather.apikey", EnvPrefix+"_WEATHER_APIKEY", "OPENWEATHER_API_KEY")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/plantcare")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "data/plantcare.db")
	v.SetDefault("static.dir", "web/dist")
	v.SetDefault("log.level", "info")
	v.SetDefault("timezone", "Local")
	v.SetDefault("debug", false)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("weather.apikey", "")
	v.SetDefault("weather.endpoint", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.cachettl", 10*time.Minute)
	v.SetDefault("schedule.horizondays", 30)
	v.SetDefault("seed.nudgelimit", 6)
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	if c.Database.Path == "" {
		problems = append(problems, "database.path is empty")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}
	if c.Schedule.HorizonDays <= 0 {
		problems = append(problems, "schedule.horizondays must be positive")
	}
	if c.Seed.NudgeLimit < 0 {
		problems = append(problems, "seed.nudgelimit must not be negative")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves the configured calendar time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogLevel maps log.level to a slog level; debug forces LevelDebug.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
