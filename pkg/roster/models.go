package roster

import (
	"fmt"
	"strings"
	"time"
)

// SessionType is the kind of session a member attended.
type SessionType string

const (
	Training SessionType = "Training"
	Event    SessionType = "Event"
	Reserve  SessionType = "Reserve"
)

// ParseSessionType resolves a session type case-insensitively.
func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "training":
		return Training, nil
	case "event":
		return Event, nil
	case "reserve":
		return Reserve, nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// dateLayouts are the accepted session date formats.
var dateLayouts = []string{time.DateOnly, "02.01.2006", time.RFC3339}

// ParseDate parses a session date given as YYYY-MM-DD, DD.MM.YYYY or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (use YYYY-MM-DD or DD.MM.YYYY)", s)
}

// SessionStatus is a member's response for a single session.
type SessionStatus int

const (
	NoResponse SessionStatus = iota
	Confirmed
	Declined
)

func (s SessionStatus) String() string {
	switch s {
	case Confirmed:
		return "Confirmed"
	case Declined:
		return "Declined"
	default:
		return "NoResponse"
	}
}

// MarshalText encodes the status by name.
func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name case-insensitively.
func (s *SessionStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "confirmed":
		*s = Confirmed
	case "declined":
		*s = Declined
	case "noresponse", "no_response", "":
		*s = NoResponse
	default:
		return fmt.Errorf("unknown session status %q", string(text))
	}
	return nil
}

// Counters holds per-type session counts.
type Counters struct {
	Training int `json:"training"`
	Event    int `json:"event"`
	Reserve  int `json:"reserve"`
}

// Increment adds one to the counter for the given session type.
func (c *Counters) Increment(t SessionType) {
	switch t {
	case Training:
		c.Training++
	case Event:
		c.Event++
	case Reserve:
		c.Reserve++
	}
}

// Get returns the counter for the given session type.
func (c Counters) Get(t SessionType) int {
	switch t {
	case Training:
		return c.Training
	case Event:
		return c.Event
	case Reserve:
		return c.Reserve
	}
	return 0
}

// Total is the combined session count.
func (c Counters) Total() int {
	return c.Training + c.Event + c.Reserve
}

// Add returns the element-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Training: c.Training + o.Training,
		Event:    c.Event + o.Event,
		Reserve:  c.Reserve + o.Reserve,
	}
}

// Member is a tracked roster entry. Name is the identity key, unique case-insensitively.
type Member struct {
	Name               string    `json:"name"`
	Alias              string    `json:"alias,omitempty"`
	Level              int       `json:"level"`
	Group              string    `json:"group"`
	Rank               string    `json:"rank"`
	Comment            string    `json:"comment,omitempty"`
	JoinDate           time.Time `json:"joinDate"`
	LastPromotionDate  time.Time `json:"lastPromotionDate"`
	SinceLastPromotion Counters  `json:"sinceLastPromotion"`
	Lifetime           Counters  `json:"lifetime"`
	NoResponseCounter  int       `json:"noResponseCounter"`
}

// Key returns the member's case-folded identity key.
func (m *Member) Key() string {
	return Key(m.Name)
}

// PromotionReference is the date tenure is measured from: the last promotion, or the
// join date when the member was never promoted.
func (m *Member) PromotionReference() time.Time {
	if !m.LastPromotionDate.IsZero() {
		return m.LastPromotionDate
	}
	return m.JoinDate
}

// normalize clamps negative values to zero and keeps lifetime counters at least as
// large as the since-promotion ones.
func (m *Member) normalize() {
	m.Level = max(m.Level, 0)
	m.NoResponseCounter = max(m.NoResponseCounter, 0)
	m.SinceLastPromotion = clampCounters(m.SinceLastPromotion)
	m.Lifetime = clampCounters(m.Lifetime)
	m.Lifetime.Training = max(m.Lifetime.Training, m.SinceLastPromotion.Training)
	m.Lifetime.Event = max(m.Lifetime.Event, m.SinceLastPromotion.Event)
	m.Lifetime.Reserve = max(m.Lifetime.Reserve, m.SinceLastPromotion.Reserve)
}

func clampCounters(c Counters) Counters {
	return Counters{
		Training: max(c.Training, 0),
		Event:    max(c.Event, 0),
		Reserve:  max(c.Reserve, 0),
	}
}

// Session is a training, event or reserve occurrence, optionally remembered as a template.
type Session struct {
	ID         string      `json:"id"`
	Date       time.Time   `json:"date"`
	Title      string      `json:"title"`
	Type       SessionType `json:"type"`
	Maps       []string    `json:"maps,omitempty"`
	Confirmed  []string    `json:"confirmedPlayers,omitempty"`
	Declined   []string    `json:"declinedPlayers,omitempty"`
	NoResponse []string    `json:"noResponsePlayers,omitempty"`
}

// AttendanceLogEntry records one session a member answered.
type AttendanceLogEntry struct {
	Type  SessionType `json:"type"`
	Date  time.Time   `json:"date"`
	Title string      `json:"title"`
	Map   string      `json:"map,omitempty"`
}

// Key folds a display name into its identity key.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Day truncates t to midnight UTC of its calendar date. Zero stays zero.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
