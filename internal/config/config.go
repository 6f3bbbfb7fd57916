package config

import (
	"os"
	"strconv"

	"surveystat/domain/stats"
	"surveystat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	InputFile     string
	IndicatorFile string // optional metadata table
	OutputDir     string
	FiguresDir    string
}

// AnalysisConfig holds computation settings that sit outside the profile
type AnalysisConfig struct {
	ProfileFile    string // empty uses the built-in profile
	SampleSizeMode string // overrides the profile when set
	Workers        int    // 0 means GOMAXPROCS
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it.
// Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	config := &Config{
		Paths:    *loadPathConfig(),
		Analysis: *loadAnalysisConfig(),
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadPathConfig() *PathConfig {
	output := getEnvOrDefault("SURVEY_OUTPUT_DIR", "output")
	return &PathConfig{
		InputFile:     getEnvOrDefault("SURVEY_INPUT_FILE", "data/vietnam_data_clean.csv"),
		IndicatorFile: getEnvOrDefault("SURVEY_INDICATOR_FILE", ""),
		OutputDir:     output,
		FiguresDir:    getEnvOrDefault("SURVEY_FIGURES_DIR", output+"/figures"),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ProfileFile:    getEnvOrDefault("SURVEY_PROFILE", ""),
		SampleSizeMode: getEnvOrDefault("SURVEY_SAMPLE_SIZE_MODE", ""),
		Workers:        getEnvIntOrDefault("SURVEY_WORKERS", 0),
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Paths.InputFile == "" {
		return errors.ConfigInvalid("input file is required")
	}
	if c.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if c.Analysis.Workers < 0 {
		return errors.ConfigInvalid("workers cannot be negative")
	}
	if c.Analysis.SampleSizeMode != "" {
		if _, err := stats.ParseSampleSizeMode(c.Analysis.SampleSizeMode); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
