package config

import (
	"fmt"

	"github.com/spachava753/selenology/internal/models"
)

// DefaultRunConfig returns a RunConfig with default values.
func DefaultRunConfig() models.RunConfig {
	return models.RunConfig{
		Jobs:        1,
		KeepGoing:   false,
		Granularity: models.GranularityLine,
	}
}

// ValidateRunConfig applies defaults for missing values and rejects invalid ones.
func ValidateRunConfig(cfg models.RunConfig) (models.RunConfig, error) {
	if cfg.Jobs == 0 {
		cfg.Jobs = 1
	}
	if cfg.Jobs < 0 {
		return cfg, &models.ConfigError{Key: "jobs", Err: fmt.Errorf("must be positive, got %d", cfg.Jobs)}
	}
	if cfg.Timeout < 0 {
		return cfg, &models.ConfigError{Key: "timeout", Err: fmt.Errorf("must not be negative, got %s", cfg.Timeout)}
	}

	switch cfg.Granularity {
	case "":
		cfg.Granularity = models.GranularityLine
	case models.GranularityLine, models.GranularityChar:
	default:
		return cfg, &models.ConfigError{Key: "granularity", Err: fmt.Errorf("unknown granularity %q", cfg.Granularity)}
	}

	return cfg, nil
}
