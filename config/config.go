/*
Package config handles configuration management for the engine.

PURPOSE:
  Loads settings from environment variables with sensible defaults, so
  the server runs out of the box on a laptop and picks up overrides in
  the deployed container.

VARIABLES:
  SERVER_PORT     HTTP listen port              (default 8080)
  DATABASE_PATH   SQLite database file          (default ./data/finanzas.db)
  SWEEP_SCHEDULE  Cron expression for the sweep (default "15 0 * * *")
  SWEEP_ENABLED   Whether the sweep runs        (default true)
  CORS_ORIGINS    Comma-separated allowed origins
  LOG_LEVEL       logrus level name             (default info)
*/
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the schedule engine server.
type Config struct {
	ServerPort    int    `mapstructure:"SERVER_PORT"`
	DatabasePath  string `mapstructure:"DATABASE_PATH"`
	SweepSchedule string `mapstructure:"SWEEP_SCHEDULE"`
	SweepEnabled  bool   `mapstructure:"SWEEP_ENABLED"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DATABASE_PATH", "./data/finanzas.db")
	viper.SetDefault("SWEEP_SCHEDULE", "15 0 * * *") // Shortly after midnight.
	viper.SetDefault("SWEEP_ENABLED", true)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_PATH")
	_ = viper.BindEnv("SWEEP_SCHEDULE")
	_ = viper.BindEnv("SWEEP_ENABLED")
	_ = viper.BindEnv("CORS_ORIGINS")
	_ = viper.BindEnv("LOG_LEVEL")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// AllowedOrigins splits CORS_ORIGINS into the list the router expects.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
