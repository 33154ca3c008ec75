package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycruzer/roster-engine/config"
	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, roster.DefaultPeriodLengthDays, cfg.Roster.PeriodLengthDays)
	assert.Equal(t, leave.DefaultMinimumCrew, cfg.Crew.MinimumCrew)
	assert.Equal(t, leave.DefaultLateCutoffDays, cfg.Rules.LateCutoffDays)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// GIVEN: a config file setting only a few values
	// THEN: the rest keep their defaults

	path := writeConfigFile(t, `
server:
  port: 9090
database:
  driver: memory
crew:
  minimum_crew: 12
  minimum_crew_per_role:
    Captain: 6
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 12, cfg.Crew.MinimumCrew)
	assert.Equal(t, "2025-01-01", cfg.Roster.AnchorDate, "default survives")
	assert.Equal(t, leave.DefaultLateCutoffDays, cfg.Rules.LateCutoffDays)

	threshold, err := cfg.Threshold()
	require.NoError(t, err)
	assert.Equal(t, 6, threshold.PerRole[leave.RoleCaptain])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/no/such/file.yaml")
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad anchor date", func(c *config.Config) { c.Roster.AnchorDate = "01/01/2025" }},
		{"zero minimum crew", func(c *config.Config) { c.Crew.MinimumCrew = 0 }},
		{"unknown role in per-role minima", func(c *config.Config) {
			c.Crew.PerRole = map[string]int{"Navigator": 3}
		}},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "oracle" }},
		{"sqlite without path", func(c *config.Config) {
			c.Database.Driver = "sqlite"
			c.Database.Path = ""
		}},
		{"postgres without dsn", func(c *config.Config) { c.Database.Driver = "postgres" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "verbose" }},
		{"port out of range", func(c *config.Config) { c.Server.Port = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCalculator_FromConfig(t *testing.T) {
	cfg := config.Default()
	calc, err := cfg.Calculator()
	require.NoError(t, err)

	assert.Equal(t, "2025-01-01", calc.Anchor().String())
	assert.Equal(t, 28, calc.PeriodLengthDays())
}

func TestThreshold_ConfigurationErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Crew.MinimumCrew = -1

	_, err := cfg.Threshold()
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrConfiguration)
}
