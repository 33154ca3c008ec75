/*
Package config loads and validates process-wide configuration.

PURPOSE:
  The engine takes all configuration by explicit injection - anchor
  date, period length, crew threshold, cutoff days are values passed
  into constructors, never globals. This package is where those values
  come from: a YAML file plus defaults, validated once at startup.

VALIDATION:
  Two layers, both startup-class:
  1. Struct tags (go-playground/validator) for shape and ranges
  2. Domain validation via roster.Calculator.Validate and
     leave.CrewThreshold.Validate, so a config that parses but cannot
     run still fails before the server binds

EXAMPLE (roster.yaml):
  server:
    port: 8080
  database:
    driver: sqlite
    path: ./data/roster.db
  roster:
    anchor_date: "2025-01-01"
    period_length_days: 28
    periods_per_year: 13
  crew:
    minimum_crew: 18
  rules:
    late_cutoff_days: 21
*/
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Roster   RosterConfig   `yaml:"roster"`
	Crew     CrewConfig     `yaml:"crew"`
	Rules    RulesConfig    `yaml:"rules"`
	LogLevel string         `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite postgres"`
	// Path is the SQLite database file (":memory:" works).
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

type RosterConfig struct {
	// AnchorDate is the first day of period 1 of the anchor roster year.
	AnchorDate       string `yaml:"anchor_date" validate:"required"`
	PeriodLengthDays int    `yaml:"period_length_days" validate:"min=1"`
	PeriodsPerYear   int    `yaml:"periods_per_year" validate:"min=1"`
}

type CrewConfig struct {
	MinimumCrew int            `yaml:"minimum_crew" validate:"min=1"`
	PerRole     map[string]int `yaml:"minimum_crew_per_role"`
}

type RulesConfig struct {
	LateCutoffDays int `yaml:"late_cutoff_days" validate:"min=0"`
}

// Default returns the production defaults. Load starts from these, so
// a config file only needs the values it changes.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite", Path: "roster.db"},
		Roster: RosterConfig{
			AnchorDate:       "2025-01-01",
			PeriodLengthDays: roster.DefaultPeriodLengthDays,
			PeriodsPerYear:   roster.DefaultPeriodsPerYear,
		},
		Crew:     CrewConfig{MinimumCrew: leave.DefaultMinimumCrew},
		Rules:    RulesConfig{LateCutoffDays: leave.DefaultLateCutoffDays},
		LogLevel: "info",
	}
}

var validate = validator.New()

// Load reads a YAML config file over the defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks shape (struct tags) and domain rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// The domain constructors own the deeper rules; run them now so a
	// bad anchor or threshold fails at startup, not mid-request.
	if _, err := c.Calculator(); err != nil {
		return err
	}
	if _, err := c.Threshold(); err != nil {
		return err
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return &roster.ConfigurationError{Field: "database.path", Reason: "required for sqlite driver"}
		}
	case "postgres":
		if c.Database.DSN == "" {
			return &roster.ConfigurationError{Field: "database.dsn", Reason: "required for postgres driver"}
		}
	}
	return nil
}

// Calculator builds the roster period calculator from the config.
func (c Config) Calculator() (*roster.Calculator, error) {
	anchor, err := roster.ParseDate(c.Roster.AnchorDate)
	if err != nil {
		return nil, &roster.ConfigurationError{Field: "roster.anchor_date", Reason: err.Error()}
	}
	return roster.NewCalculator(anchor, c.Roster.PeriodLengthDays, c.Roster.PeriodsPerYear)
}

// Threshold builds the crew threshold from the config.
func (c Config) Threshold() (leave.CrewThreshold, error) {
	t := leave.CrewThreshold{MinimumCrew: c.Crew.MinimumCrew}
	if len(c.Crew.PerRole) > 0 {
		t.PerRole = make(map[leave.Role]int, len(c.Crew.PerRole))
		for name, n := range c.Crew.PerRole {
			role, err := leave.ParseRole(name)
			if err != nil {
				return leave.CrewThreshold{}, &roster.ConfigurationError{Field: "crew.minimum_crew_per_role", Reason: err.Error()}
			}
			t.PerRole[role] = n
		}
	}
	if err := t.Validate(); err != nil {
		return leave.CrewThreshold{}, err
	}
	return t, nil
}
