package roster

import (
	"fmt"
	"strings"
)

// RankDefinition is one step of the rank ladder. Abbreviation is an alternate spelling
// that members and rosters may carry instead of the full name.
type RankDefinition struct {
	Name         string `yaml:"name" json:"name"`
	Abbreviation string `yaml:"abbreviation,omitempty" json:"abbreviation,omitempty"`
	// Default promotion requirement for this rank when no override is configured.
	MinMonths           int `yaml:"min_months,omitempty" json:"minMonths,omitempty"`
	MinLevel            int `yaml:"min_level,omitempty" json:"minLevel,omitempty"`
	MinCombinedSessions int `yaml:"min_combined_sessions,omitempty" json:"minCombinedSessions,omitempty"`
}

// DefaultRanks is the built-in ladder, lowest first.
func DefaultRanks() []RankDefinition {
	return []RankDefinition{
		{Name: "Anwerber", Abbreviation: "AW", MinMonths: 3},
		{Name: "Panzergrenadier", Abbreviation: "PzGren", MinMonths: 3},
		{Name: "Obergrenadier", Abbreviation: "OGren", MinMonths: 3},
		{Name: "Gefreiter", Abbreviation: "Gefr", MinMonths: 3},
		{Name: "Obergefreiter", Abbreviation: "OGefr", MinMonths: 3},
		{Name: "Stabsgefreiter", Abbreviation: "StGefr", MinMonths: 3},
		{Name: "Unteroffizier", Abbreviation: "Uffz"},
		{Name: "Stabsunteroffizier (ZBV)", Abbreviation: "StUffz", MinMonths: 4},
		{Name: "Unterfeldwebel", Abbreviation: "Ufw"},
		{Name: "Feldwebel", Abbreviation: "Fw", MinMonths: 3},
		{Name: "Oberfeldwebel", Abbreviation: "OFw", MinMonths: 3},
		{Name: "Hauptfeldwebel", Abbreviation: "HFw", MinMonths: 3},
		{Name: "Stabsfeldwebel", Abbreviation: "StFw", MinMonths: 3},
		{Name: "Fähnrich", Abbreviation: "Fähn"},
		{Name: "Leutnant", Abbreviation: "Lt"},
		{Name: "Oberleutnant", Abbreviation: "OLt"},
		{Name: "Hauptmann", Abbreviation: "Hptm"},
		{Name: "Major", Abbreviation: "Maj"},
		{Name: "Oberst", Abbreviation: "Obst"},
	}
}

// RankLadder is the ordered rank enumeration. Promotion and demotion move by index.
type RankLadder struct {
	ranks []RankDefinition
	index map[string]int
}

// NewRankLadder builds a ladder from definitions ordered lowest first.
// Names and abbreviations must be unique case-insensitively.
func NewRankLadder(defs []RankDefinition) (*RankLadder, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("rank ladder must contain at least one rank")
	}

	l := &RankLadder{
		ranks: make([]RankDefinition, len(defs)),
		index: make(map[string]int, len(defs)*2),
	}
	copy(l.ranks, defs)

	for i, def := range defs {
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("rank at position %d has empty name", i)
		}
		for _, label := range []string{def.Name, def.Abbreviation} {
			if label == "" {
				continue
			}
			key := strings.ToLower(label)
			if prev, exists := l.index[key]; exists && prev != i {
				return nil, fmt.Errorf("duplicate rank label %q", label)
			}
			l.index[key] = i
		}
	}

	return l, nil
}

// Len returns the number of ranks.
func (l *RankLadder) Len() int {
	return len(l.ranks)
}

// Index returns the ladder position of a rank name or abbreviation.
func (l *RankLadder) Index(rank string) (int, bool) {
	i, ok := l.index[strings.ToLower(strings.TrimSpace(rank))]
	return i, ok
}

// At returns the definition at position i.
func (l *RankLadder) At(i int) RankDefinition {
	return l.ranks[i]
}

// First is the entry rank for new members.
func (l *RankLadder) First() string {
	return l.ranks[0].Name
}

// Canonical maps a name or abbreviation to the full rank name.
func (l *RankLadder) Canonical(rank string) (string, bool) {
	i, ok := l.Index(rank)
	if !ok {
		return "", false
	}
	return l.ranks[i].Name, true
}

// Next returns the rank above the given one.
func (l *RankLadder) Next(rank string) (string, bool) {
	i, ok := l.Index(rank)
	if !ok || i+1 >= len(l.ranks) {
		return "", false
	}
	return l.ranks[i+1].Name, true
}

// Prev returns the rank below the given one.
func (l *RankLadder) Prev(rank string) (string, bool) {
	i, ok := l.Index(rank)
	if !ok || i <= 0 {
		return "", false
	}
	return l.ranks[i-1].Name, true
}

// Tokens lists every rank label used to find rank prefixes in free text, in ladder order.
func (l *RankLadder) Tokens() []string {
	tokens := make([]string, 0, len(l.ranks)*2)
	for _, def := range l.ranks {
		tokens = append(tokens, def.Name)
		if def.Abbreviation != "" {
			tokens = append(tokens, def.Abbreviation)
		}
	}
	return tokens
}

// Definitions returns a copy of the ladder.
func (l *RankLadder) Definitions() []RankDefinition {
	out := make([]RankDefinition, len(l.ranks))
	copy(out, l.ranks)
	return out
}
