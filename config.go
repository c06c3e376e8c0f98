// Copyright 2025 The EcoSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnMapping names the required columns in a consumption CSV
type ColumnMapping struct {
	Timestamp string `yaml:"timestamp"`
	Facility  string `yaml:"facility"`
	Amount    string `yaml:"amount"`
}

// Config holds the application configuration
type Config struct {
	// Input data
	ElectricityCSV string `yaml:"electricity_csv"`
	WaterCSV       string `yaml:"water_csv"`
	PolicyPath     string `yaml:"policy_path"`

	// CSV column labels
	Columns ColumnMapping `yaml:"columns"`

	// Analysis settings
	ElectricityPercentile float64 `yaml:"electricity_percentile"`
	WaterPercentile       float64 `yaml:"water_percentile"`
	NightStartHour        int     `yaml:"night_start_hour"`
	NightEndHour          int     `yaml:"night_end_hour"`
	TrendMargin           float64 `yaml:"trend_margin"`
	LeakRiskFraction      float64 `yaml:"leak_risk_fraction"`

	// Retrieval settings
	TopK        int `yaml:"top_k"`
	ChunkMinLen int `yaml:"chunk_min_len"`
	ChunkMaxLen int `yaml:"chunk_max_len"`

	// Embedding backend (semantic mode; keyword fallback when unset)
	EmbeddingURL    string `yaml:"embedding_url"`
	EmbeddingModel  string `yaml:"embedding_model"`
	EmbeddingAPIKey string `yaml:"embedding_api_key"`

	// Text generation
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	MaxTokens       int    `yaml:"max_tokens"`

	// Storage
	StoragePath string `yaml:"storage_path"`
	InsightLog  string `yaml:"insight_log"`

	// Debugging
	Debug bool `yaml:"debug"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Set defaults
	config := &Config{
		Columns: ColumnMapping{
			Timestamp: "timestamp",
			Facility:  "facility",
			Amount:    "amount",
		},
		ElectricityPercentile: DefaultThresholdPercentile,
		WaterPercentile:       DefaultThresholdPercentile,
		NightStartHour:        DefaultNightStartHour,
		NightEndHour:          DefaultNightEndHour,
		TrendMargin:           DefaultTrendMargin,
		LeakRiskFraction:      DefaultLeakRiskFraction,
		TopK:                  DefaultTopK,
		ChunkMinLen:           DefaultChunkMinLen,
		ChunkMaxLen:           DefaultChunkMaxLen,
		EmbeddingModel:        DefaultEmbeddingModel,
		AnthropicModel:        DefaultAnthropicModel,
		MaxTokens:             DefaultMaxTokens,
		StoragePath:           getDefaultStoragePath(),
		Debug:                 false,
	}

	// If no path provided, return defaults with env var overrides
	if path == "" {
		config.applyEnvironmentVariables()
		config.applyDerivedDefaults()
		return config, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentVariables()
	config.applyDerivedDefaults()

	return config, nil
}

// getDefaultStoragePath returns the default storage path
func getDefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ecosense"
	}
	return filepath.Join(home, ".config", "ecosense")
}

// applyEnvironmentVariables overrides config with environment variables
func (c *Config) applyEnvironmentVariables() {
	if val := os.Getenv("ECOSENSE_ELECTRICITY_CSV"); val != "" {
		c.ElectricityCSV = val
	}
	if val := os.Getenv("ECOSENSE_WATER_CSV"); val != "" {
		c.WaterCSV = val
	}
	if val := os.Getenv("ECOSENSE_POLICY_PATH"); val != "" {
		c.PolicyPath = val
	}
	if val := os.Getenv("ECOSENSE_STORAGE_PATH"); val != "" {
		c.StoragePath = val
	}
	if val := os.Getenv("ECOSENSE_INSIGHT_LOG"); val != "" {
		c.InsightLog = val
	}
	if val := os.Getenv("ECOSENSE_EMBEDDING_URL"); val != "" {
		c.EmbeddingURL = val
	}
	if val := os.Getenv("ECOSENSE_EMBEDDING_MODEL"); val != "" {
		c.EmbeddingModel = val
	}
	if val := os.Getenv("ECOSENSE_EMBEDDING_API_KEY"); val != "" {
		c.EmbeddingAPIKey = val
	}
	if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" && c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = val
	}
	if val := os.Getenv("ECOSENSE_ANTHROPIC_API_KEY"); val != "" {
		c.AnthropicAPIKey = val
	}
	if val := os.Getenv("ECOSENSE_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
}

// applyDerivedDefaults fills paths that depend on other settings
func (c *Config) applyDerivedDefaults() {
	if c.StoragePath == "" {
		c.StoragePath = getDefaultStoragePath()
	}
	if c.InsightLog == "" {
		c.InsightLog = filepath.Join(c.StoragePath, "insights_log.txt")
	}
}

// PercentileFor returns the configured anomaly percentile for a resource
func (c *Config) PercentileFor(resource ResourceType) float64 {
	if resource == ResourceWater {
		return c.WaterPercentile
	}
	return c.ElectricityPercentile
}

// IsNightHour reports whether an hour-of-day falls in the configured night
// window. The window wraps midnight: [start, 24) union [0, end).
func (c *Config) IsNightHour(hour int) bool {
	if c.NightStartHour > c.NightEndHour {
		return hour >= c.NightStartHour || hour < c.NightEndHour
	}
	return hour >= c.NightStartHour && hour < c.NightEndHour
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.ElectricityCSV == "" && c.WaterCSV == "" {
		errors = append(errors, "at least one of electricity_csv or water_csv is required")
	}

	if c.ElectricityPercentile <= 0 || c.ElectricityPercentile >= 100 {
		errors = append(errors, "electricity_percentile must be between 0 and 100 (exclusive)")
	}
	if c.WaterPercentile <= 0 || c.WaterPercentile >= 100 {
		errors = append(errors, "water_percentile must be between 0 and 100 (exclusive)")
	}

	if c.NightStartHour < 0 || c.NightStartHour > 23 {
		errors = append(errors, "night_start_hour must be between 0 and 23")
	}
	if c.NightEndHour < 0 || c.NightEndHour > 23 {
		errors = append(errors, "night_end_hour must be between 0 and 23")
	}

	if c.TrendMargin < 0 || c.TrendMargin > 1 {
		errors = append(errors, "trend_margin must be between 0 and 1")
	}
	if c.LeakRiskFraction <= 0 || c.LeakRiskFraction > 1 {
		errors = append(errors, "leak_risk_fraction must be between 0 and 1")
	}

	if c.TopK < 1 {
		errors = append(errors, "top_k must be at least 1")
	}
	if c.ChunkMinLen < 1 || c.ChunkMaxLen <= c.ChunkMinLen {
		errors = append(errors, "chunk_min_len must be positive and below chunk_max_len")
	}

	if c.MaxTokens < 1 {
		errors = append(errors, "max_tokens must be at least 1")
	}

	if c.Columns.Timestamp == "" || c.Columns.Facility == "" || c.Columns.Amount == "" {
		errors = append(errors, "columns.timestamp, columns.facility and columns.amount are all required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
