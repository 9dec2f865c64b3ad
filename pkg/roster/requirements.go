package roster

import (
	"sort"
	"strings"
)

// RankRequirement gates promotion out of a rank. A zero field is not enforced.
type RankRequirement struct {
	MinMonths           int `yaml:"min_months" json:"minMonths"`
	MinLevel            int `yaml:"min_level" json:"minLevel"`
	MinCombinedSessions int `yaml:"min_combined_sessions" json:"minCombinedSessions"`
}

// Active reports whether at least one clause is enforced.
func (r RankRequirement) Active() bool {
	return r.MinMonths > 0 || r.MinLevel > 0 || r.MinCombinedSessions > 0
}

// RequirementTable resolves the requirement for a member's rank from explicit
// overrides and the ladder's defaults.
type RequirementTable struct {
	ladder    *RankLadder
	overrides map[string]RankRequirement
}

// NewRequirementTable creates a table. overrides is keyed by rank label as stored.
func NewRequirementTable(ladder *RankLadder, overrides map[string]RankRequirement) *RequirementTable {
	o := make(map[string]RankRequirement, len(overrides))
	for k, v := range overrides {
		o[k] = v
	}
	return &RequirementTable{ladder: ladder, overrides: o}
}

// Set stores an explicit requirement for a rank.
func (t *RequirementTable) Set(rank string, req RankRequirement) {
	t.overrides[rank] = req
}

// For returns the requirement for a rank: an explicit override, then the ladder default
// for the canonical rank, then a prefix match against overrides and ladder names for
// legacy rank strings (e.g. "Stabsunteroffizier (ZBV) a.D."), then no requirement.
func (t *RequirementTable) For(rank string) RankRequirement {
	if req, ok := t.overrides[rank]; ok {
		return req
	}

	if i, ok := t.ladder.Index(rank); ok {
		def := t.ladder.At(i)
		if req, ok := t.overrides[def.Name]; ok {
			return req
		}
		return defaultRequirement(def)
	}

	// Compatibility shim for rank strings that only start with a known label.
	keys := make([]string, 0, len(t.overrides))
	for k := range t.overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != "" && strings.HasPrefix(rank, k) {
			return t.overrides[k]
		}
	}
	for _, def := range t.ladder.ranks {
		if strings.HasPrefix(rank, def.Name) {
			return defaultRequirement(def)
		}
	}

	return RankRequirement{}
}

// All returns the effective requirement for every rank on the ladder, keyed by name.
func (t *RequirementTable) All() map[string]RankRequirement {
	out := make(map[string]RankRequirement, t.ladder.Len())
	for _, def := range t.ladder.ranks {
		out[def.Name] = t.For(def.Name)
	}
	return out
}

func defaultRequirement(def RankDefinition) RankRequirement {
	return RankRequirement{
		MinMonths:           def.MinMonths,
		MinLevel:            def.MinLevel,
		MinCombinedSessions: def.MinCombinedSessions,
	}
}
