package resolver

import (
	"fmt"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// Config holds configuration for the resolution engine.
type Config struct {
	// Fuzzy-match thresholds on the 0-100 similarity scale.
	Thresholds ThresholdConfig `json:"thresholds" yaml:"thresholds"`

	// Bonus points added for corroborating metadata fields.
	Bonuses BonusConfig `json:"bonuses" yaml:"bonuses"`

	// FuzzyPoolCap bounds the candidate pool the fuzzy pass will score.
	FuzzyPoolCap int `json:"fuzzy_pool_cap" yaml:"fuzzy_pool_cap"`

	// MaxQueueCandidates bounds how many scored candidates an ambiguous
	// outcome carries into the review queue.
	MaxQueueCandidates int `json:"max_queue_candidates" yaml:"max_queue_candidates"`

	// BatchWorkers is the worker count for ResolveBatch.
	BatchWorkers int `json:"batch_workers" yaml:"batch_workers"`
}

// ThresholdConfig configures fuzzy admission and tie-breaking.
type ThresholdConfig struct {
	// FuzzyHigh admits a candidate outright (boosted score >= this).
	FuzzyHigh int `json:"fuzzy_high" yaml:"fuzzy_high"` // 90

	// FuzzyMedium admits a candidate when corroborating metadata matched.
	FuzzyMedium int `json:"fuzzy_medium" yaml:"fuzzy_medium"` // 85

	// Margin is the minimum lead the best candidate needs over the
	// runner-up; a smaller lead is ambiguous.
	Margin int `json:"margin" yaml:"margin"` // 5
}

// BonusConfig configures the metadata corroboration bonuses.
type BonusConfig struct {
	BirthDate int `json:"birth_date" yaml:"birth_date"` // 10
	Team      int `json:"team" yaml:"team"`             // 5
	College   int `json:"college" yaml:"college"`       // 5
	DraftYear int `json:"draft_year" yaml:"draft_year"` // 3
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: ThresholdConfig{
			FuzzyHigh:   90,
			FuzzyMedium: 85,
			Margin:      5,
		},
		Bonuses: BonusConfig{
			BirthDate: 10,
			Team:      5,
			College:   5,
			DraftYear: 3,
		},
		FuzzyPoolCap:       identity.DefaultFuzzyPoolCap,
		MaxQueueCandidates: 5,
		BatchWorkers:       4,
	}
}

// Validate fills zero values with defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Thresholds.FuzzyHigh == 0 {
		c.Thresholds.FuzzyHigh = def.Thresholds.FuzzyHigh
	}
	if c.Thresholds.FuzzyMedium == 0 {
		c.Thresholds.FuzzyMedium = def.Thresholds.FuzzyMedium
	}
	if c.Thresholds.Margin == 0 {
		c.Thresholds.Margin = def.Thresholds.Margin
	}
	if c.Bonuses == (BonusConfig{}) {
		c.Bonuses = def.Bonuses
	}
	if c.FuzzyPoolCap == 0 {
		c.FuzzyPoolCap = def.FuzzyPoolCap
	}
	if c.MaxQueueCandidates == 0 {
		c.MaxQueueCandidates = def.MaxQueueCandidates
	}
	if c.BatchWorkers == 0 {
		c.BatchWorkers = def.BatchWorkers
	}

	if c.Thresholds.FuzzyHigh > 100 || c.Thresholds.FuzzyHigh < 1 {
		return fmt.Errorf("fuzzy_high must be in 1..100, got %d", c.Thresholds.FuzzyHigh)
	}
	if c.Thresholds.FuzzyMedium > c.Thresholds.FuzzyHigh {
		return fmt.Errorf("fuzzy_medium (%d) must not exceed fuzzy_high (%d)",
			c.Thresholds.FuzzyMedium, c.Thresholds.FuzzyHigh)
	}
	if c.Thresholds.Margin < 0 {
		return fmt.Errorf("margin must be non-negative, got %d", c.Thresholds.Margin)
	}
	return nil
}
