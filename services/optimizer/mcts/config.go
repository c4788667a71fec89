// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultSeed keeps runs reproducible when the caller supplies no seed.
const DefaultSeed uint64 = 42

// Config holds all tunables of the search algorithm.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// an engine has been constructed with it.
type Config struct {
	// ExplorationConstant is the UCB1 exploration coefficient.
	ExplorationConstant float64 `json:"exploration_constant" yaml:"exploration_constant"`

	// AmplificationWeight scales the amplification bias term added to
	// each child's UCB1 score during selection.
	AmplificationWeight float64 `json:"amplification_weight" yaml:"amplification_weight"`

	// ExplorationBias is the probability, in [0,1], of appending one
	// extra random catalog strategy during expansion.
	ExplorationBias float64 `json:"exploration_bias" yaml:"exploration_bias"`

	// BaseComboSize is the number of preferred strategies drawn per
	// expansion before the optional random append.
	BaseComboSize int `json:"base_combo_size" yaml:"base_combo_size"`

	// TopTierStrategy designates the strategy id that earns the
	// TopTierBonus multiplier and the top_match classification.
	TopTierStrategy string `json:"top_tier_strategy" yaml:"top_tier_strategy"`

	// TopTierBonus multiplies amplification when the top-tier strategy
	// is part of the combo.
	TopTierBonus float64 `json:"top_tier_bonus" yaml:"top_tier_bonus"`

	// ComboBonus multiplies amplification for combos of three or more
	// strategies.
	ComboBonus float64 `json:"combo_bonus" yaml:"combo_bonus"`

	// FixedBias is added to the mean combo effectiveness before the
	// simulation multiplier chain.
	FixedBias float64 `json:"fixed_bias" yaml:"fixed_bias"`

	// VarianceMin and VarianceMax bound the uniform simulation variance
	// multiplier.
	VarianceMin float64 `json:"variance_min" yaml:"variance_min"`
	VarianceMax float64 `json:"variance_max" yaml:"variance_max"`

	// ScoreCeiling clamps simulation scores. It sits deliberately above
	// 1.0 so a strong combo can overshoot the natural effectiveness
	// scale; whether that overshoot is reward shaping or an inherited
	// quirk is undecided, so the ceiling stays a named knob rather than
	// a hardcoded clamp.
	ScoreCeiling float64 `json:"score_ceiling" yaml:"score_ceiling"`

	// Seed feeds the run RNG when a request carries no seed of its own.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the stock algorithm configuration.
func DefaultConfig() Config {
	return Config{
		ExplorationConstant: 1.4,
		AmplificationWeight: 0.3,
		ExplorationBias:     0.35,
		BaseComboSize:       2,
		TopTierStrategy:     "personalized_outreach",
		TopTierBonus:        1.5,
		ComboBonus:          1.2,
		FixedBias:           0.1,
		VarianceMin:         0.8,
		VarianceMax:         1.2,
		ScoreCeiling:        1.5,
		Seed:                DefaultSeed,
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - path: Optional YAML/JSON config file; empty skips file loading.
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file is unreadable/invalid or the merged
//     result fails validation.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		if err := loadConfigFile(path, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", yamlErr, jsonErr)
		}
	}
	return nil
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("CADENCE_EXPLORATION_CONSTANT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.ExplorationConstant = f
		}
	}
	if v := os.Getenv("CADENCE_AMPLIFICATION_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.AmplificationWeight = f
		}
	}
	if v := os.Getenv("CADENCE_EXPLORATION_BIAS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.ExplorationBias = f
		}
	}
	if v := os.Getenv("CADENCE_BASE_COMBO_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.BaseComboSize = i
		}
	}
	if v := os.Getenv("CADENCE_TOP_TIER_STRATEGY"); v != "" {
		config.TopTierStrategy = v
	}
	if v := os.Getenv("CADENCE_SCORE_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.ScoreCeiling = f
		}
	}
	if v := os.Getenv("CADENCE_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Seed = u
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.ExplorationConstant <= 0 {
		return fmt.Errorf("exploration_constant must be > 0")
	}
	if c.AmplificationWeight < 0 {
		return fmt.Errorf("amplification_weight must be >= 0")
	}
	if c.ExplorationBias < 0 || c.ExplorationBias > 1 {
		return fmt.Errorf("exploration_bias must be between 0 and 1")
	}
	if c.BaseComboSize < 1 {
		return fmt.Errorf("base_combo_size must be >= 1")
	}
	if c.TopTierBonus < 1 {
		return fmt.Errorf("top_tier_bonus must be >= 1")
	}
	if c.ComboBonus < 1 {
		return fmt.Errorf("combo_bonus must be >= 1")
	}
	if c.VarianceMin <= 0 || c.VarianceMax < c.VarianceMin {
		return fmt.Errorf("variance range must satisfy 0 < min <= max")
	}
	if c.ScoreCeiling <= 0 {
		return fmt.Errorf("score_ceiling must be > 0")
	}
	return nil
}
