// Package segment splits raw roster text into candidate member names.
package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinCandidateLength is the shortest candidate, in characters, that is kept.
	MinCandidateLength = 3
	// MaxCandidateLength is the longest candidate, in characters, that is kept.
	MaxCandidateLength = 48
)

// Segmenter cuts text blocks at rank-prefix tokens or casing boundaries.
type Segmenter struct {
	tokens []*regexp.Regexp
}

// New creates a Segmenter for the given rank-prefix tokens. Matching is case-insensitive.
func New(tokens []string) *Segmenter {
	s := &Segmenter{}
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		s.tokens = append(s.tokens, regexp.MustCompile("(?i)"+regexp.QuoteMeta(tok)))
	}
	return s
}

// Split turns one text block into raw segments. The first heuristic that applies wins:
//
//  1. two or more rank-token occurrences: cut at every occurrence start
//  2. whitespace before a lowercase letter yields at least two parts
//  3. whitespace before an uppercase letter yields at least two parts, each of length >= 2
//  4. the whole block
//
// This precedence is kept as is. Names that contain rank-like substrings (a short token such
// as "Lt" inside "Walter") or unusual casing are a known source of wrong cuts.
func (s *Segmenter) Split(block string) []string {
	current := strings.TrimSpace(block)
	if current == "" {
		return nil
	}

	var offsets []int
	for _, rx := range s.tokens {
		for _, loc := range rx.FindAllStringIndex(current, -1) {
			offsets = append(offsets, loc[0])
		}
	}

	if len(offsets) > 1 {
		sort.Ints(offsets)
		var out []string
		for i, start := range offsets {
			end := len(current)
			if i+1 < len(offsets) {
				end = offsets[i+1]
			}
			if seg := strings.TrimSpace(current[start:end]); seg != "" {
				out = append(out, seg)
			}
		}
		return out
	}

	if parts := splitBefore(current, isLowerLetter); len(parts) > 1 {
		return parts
	}

	if parts := splitBefore(current, isUpperLetter); len(parts) > 1 {
		valid := true
		for _, p := range parts {
			if utf8.RuneCountInString(strings.TrimSpace(p)) < 2 {
				valid = false
				break
			}
		}
		if valid {
			return parts
		}
	}

	if utf8.RuneCountInString(current) >= MinCandidateLength {
		return []string{current}
	}
	return nil
}

// Candidates splits a block and normalizes each segment. Segments outside the length
// bounds are returned separately as dropped.
func (s *Segmenter) Candidates(block string) (kept, dropped []string) {
	for _, seg := range s.Split(block) {
		c := Normalize(seg)
		if InBounds(c) {
			kept = append(kept, c)
		} else if c != "" {
			dropped = append(dropped, c)
		}
	}
	return kept, dropped
}

// Normalize replaces tabs, collapses whitespace runs to a single space and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// InBounds reports whether a normalized candidate has an acceptable length.
func InBounds(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinCandidateLength && n <= MaxCandidateLength
}

// splitBefore cuts s at every whitespace run that is directly followed by a rune matching
// next. Empty parts are skipped.
func splitBefore(s string, next func(rune) bool) []string {
	var parts []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); {
		if !unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j < len(runes) && next(runes[j]) {
			if part := string(runes[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = j
		}
		i = j
	}
	if part := string(runes[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

func isLowerLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == 'ä' || r == 'ö' || r == 'ü' || r == 'ß'
}

func isUpperLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || r == 'Ä' || r == 'Ö' || r == 'Ü'
}
