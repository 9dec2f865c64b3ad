package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minTitleLength = 5
	maxTitleLength = 80
)

var dateRx = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)

// Metadata is what can be read about the session itself from the roster text.
type Metadata struct {
	Title string    `json:"title,omitempty"`
	Date  time.Time `json:"date"`
	Maps  []string  `json:"maps,omitempty"`
}

// Map returns the first detected map, or "".
func (m Metadata) Map() string {
	if len(m.Maps) == 0 {
		return ""
	}
	return m.Maps[0]
}

// Metadata extracts the session title (first line, 5 to 80 characters, unless it is a
// section header), the first day-first calendar date, and every configured known map
// mentioned in the text.
func (c *Classifier) Metadata(text string) Metadata {
	var md Metadata

	if lines := Lines(text); len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if n := utf8.RuneCountInString(first); n >= minTitleLength && n <= maxTitleLength && !c.isHeader(first) {
			md.Title = first
		}
	}

	if m := dateRx.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow; a real date survives the round trip.
		if d.Day() == day && int(d.Month()) == month && d.Year() == year {
			md.Date = d
		}
	}

	lower := strings.ToLower(text)
	for _, mp := range c.cfg.KnownMaps {
		if mp != "" && strings.Contains(lower, strings.ToLower(mp)) {
			md.Maps = append(md.Maps, mp)
		}
	}

	return md
}

func (c *Classifier) isHeader(line string) bool {
	return c.acceptedRx.MatchString(line) || c.tankRx.MatchString(line) || c.rejectedRx.MatchString(line)
}
