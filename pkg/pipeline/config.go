package pipeline

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ledger"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

// ReconciliationConfig is the domain configuration shared by every pipeline step.
type ReconciliationConfig struct {
	Ranks        []roster.RankDefinition           `yaml:"ranks"`
	Requirements map[string]roster.RankRequirement `yaml:"requirements,omitempty"`
	Matching     MatchingConfig                    `yaml:"matching"`
	Sections     classify.Headers                  `yaml:"sections"`
	Keywords     KeywordConfig                     `yaml:"keywords"`
	KnownMaps    []string                          `yaml:"known_maps"`
	Counters     CounterConfig                     `yaml:"counters"`
	Sessions     SessionConfig                     `yaml:"sessions"`
}

// MatchingConfig controls identity resolution.
type MatchingConfig struct {
	FuzzyThreshold int    `yaml:"fuzzy_threshold"`
	FuzzyEnabled   bool   `yaml:"fuzzy_enabled"`
	AutoCreate     bool   `yaml:"auto_create"`
	DefaultGroup   string `yaml:"default_group"`
}

// KeywordConfig holds the session-type keyword sets.
type KeywordConfig struct {
	Training []string `yaml:"training"`
	Event    []string `yaml:"event"`
}

// CounterConfig controls the no-response counter.
type CounterConfig struct {
	IncrementNoResponse    bool `yaml:"increment_no_response"`
	ResetNoResponseOnReply bool `yaml:"reset_no_response_on_reply"`
	// NoResponseFlagThreshold flags members whose counter reaches it. 0 disables flagging.
	NoResponseFlagThreshold int `yaml:"no_response_flag_threshold"`
}

// SessionConfig controls remembered session templates.
type SessionConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// DefaultReconciliationConfig returns the built-in configuration.
func DefaultReconciliationConfig() *ReconciliationConfig {
	cls := classify.DefaultConfig()
	return &ReconciliationConfig{
		Ranks: roster.DefaultRanks(),
		Matching: MatchingConfig{
			FuzzyThreshold: 2,
			FuzzyEnabled:   true,
			AutoCreate:     true,
			DefaultGroup:   "Nicht zugewiesen",
		},
		Sections: cls.Headers,
		Keywords: KeywordConfig{
			Training: cls.TrainingKeywords,
			Event:    cls.EventKeywords,
		},
		KnownMaps: cls.KnownMaps,
		Counters: CounterConfig{
			IncrementNoResponse:     true,
			ResetNoResponseOnReply:  true,
			NoResponseFlagThreshold: 10,
		},
		Sessions: SessionConfig{RetentionDays: 31},
	}
}

// LoadConfig loads the reconciliation configuration from a YAML file on top of the
// defaults. Supports environment variable expansion in the form ${VAR_NAME} or
// ${VAR_NAME:default}.
func LoadConfig(path string) (*ReconciliationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	config := DefaultReconciliationConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for common errors.
func (c *ReconciliationConfig) Validate() error {
	ladder, err := roster.NewRankLadder(c.Ranks)
	if err != nil {
		return fmt.Errorf("invalid ranks: %w", err)
	}

	for rank, req := range c.Requirements {
		if _, ok := ladder.Index(rank); !ok {
			return fmt.Errorf("requirement for unknown rank: %s", rank)
		}
		if req.MinMonths < 0 || req.MinLevel < 0 || req.MinCombinedSessions < 0 {
			return fmt.Errorf("requirement for rank %s has negative values", rank)
		}
	}

	if c.Matching.FuzzyThreshold < 0 {
		return fmt.Errorf("fuzzy_threshold must be non-negative, got %d", c.Matching.FuzzyThreshold)
	}
	if strings.TrimSpace(c.Matching.DefaultGroup) == "" {
		return fmt.Errorf("default_group must not be empty")
	}

	if c.Sections.Accepted == "" || c.Sections.Tank == "" || c.Sections.Rejected == "" {
		return fmt.Errorf("all section labels (accepted, tank, rejected) are required")
	}

	training := make(map[string]bool)
	for _, kw := range c.Keywords.Training {
		training[strings.ToLower(kw)] = true
	}
	for _, kw := range c.Keywords.Event {
		if training[strings.ToLower(kw)] {
			return fmt.Errorf("keyword %q is both a training and an event keyword", kw)
		}
	}

	if c.Counters.NoResponseFlagThreshold < 0 {
		return fmt.Errorf("no_response_flag_threshold must be non-negative")
	}
	if c.Sessions.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.Sessions.RetentionDays)
	}

	return nil
}

// Ladder builds the rank ladder.
func (c *ReconciliationConfig) Ladder() (*roster.RankLadder, error) {
	return roster.NewRankLadder(c.Ranks)
}

// ClassifyConfig derives the classifier configuration.
func (c *ReconciliationConfig) ClassifyConfig() classify.Config {
	return classify.Config{
		Headers:          c.Sections,
		TrainingKeywords: c.Keywords.Training,
		EventKeywords:    c.Keywords.Event,
		KnownMaps:        c.KnownMaps,
	}
}

// ResolveConfig derives the resolver configuration for a ladder.
func (c *ReconciliationConfig) ResolveConfig(ladder *roster.RankLadder) resolve.Config {
	return resolve.Config{
		Threshold:    c.Matching.FuzzyThreshold,
		FuzzyEnabled: c.Matching.FuzzyEnabled,
		AutoCreate:   c.Matching.AutoCreate,
		DefaultGroup: c.Matching.DefaultGroup,
		DefaultRank:  ladder.First(),
	}
}

// LedgerOptions derives the commit options.
func (c *ReconciliationConfig) LedgerOptions() ledger.Options {
	return ledger.Options{
		IncrementNoResponse:    c.Counters.IncrementNoResponse,
		ResetNoResponseOnReply: c.Counters.ResetNoResponseOnReply,
	}
}

// Retention is how long remembered sessions are kept.
func (c *ReconciliationConfig) Retention() time.Duration {
	return time.Duration(c.Sessions.RetentionDays) * 24 * time.Hour
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		// Support ${VAR:default} syntax
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
