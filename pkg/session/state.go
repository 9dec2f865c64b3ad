// Package session holds the per-session response map built during reconciliation.
package session

import (
	"encoding/json"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

// Entry is one member's status in the session.
type Entry struct {
	Member string               `json:"member"`
	Status roster.SessionStatus `json:"status"`
}

// State maps member keys to their response. It is discarded after commit.
type State struct {
	order   []string
	entries map[string]*Entry
}

// NewState creates an empty state.
func NewState() *State {
	return &State{entries: make(map[string]*Entry)}
}

// Assemble computes the state for a reconciliation pass. Members resolved from the
// Accepted section are Confirmed, members resolved from the Rejected section are Declined,
// and every other roster member is NoResponse. A member found in both sections ends up
// Declined.
func Assemble(reg *roster.Roster, resolutions []resolve.Resolution) *State {
	s := NewState()
	for _, m := range reg.Members() {
		s.set(m.Name, roster.NoResponse)
	}
	for _, r := range resolutions {
		if r.Member == "" || r.Bucket != classify.Accepted {
			continue
		}
		s.set(r.Member, roster.Confirmed)
	}
	for _, r := range resolutions {
		if r.Member == "" || r.Bucket != classify.Rejected {
			continue
		}
		s.set(r.Member, roster.Declined)
	}
	return s
}

func (s *State) set(name string, status roster.SessionStatus) {
	key := roster.Key(name)
	if e, ok := s.entries[key]; ok {
		e.Status = status
		return
	}
	s.entries[key] = &Entry{Member: name, Status: status}
	s.order = append(s.order, key)
}

// MarkConfirmed sets a member to Confirmed, adding the entry if it was absent.
func (s *State) MarkConfirmed(name string) {
	s.set(name, roster.Confirmed)
}

// MarkDeclined sets a member to Declined, adding the entry if it was absent.
func (s *State) MarkDeclined(name string) {
	s.set(name, roster.Declined)
}

// MarkNoResponse sets a member to NoResponse, adding the entry if it was absent.
func (s *State) MarkNoResponse(name string) {
	s.set(name, roster.NoResponse)
}

// Remove takes a member out of the session entirely. A removed member is not counted as
// NoResponse on commit. It reports whether an entry existed.
func (s *State) Remove(name string) bool {
	key := roster.Key(name)
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Status returns a member's status and whether the member is part of the session.
func (s *State) Status(name string) (roster.SessionStatus, bool) {
	e, ok := s.entries[roster.Key(name)]
	if !ok {
		return roster.NoResponse, false
	}
	return e.Status, true
}

// Len returns the number of entries.
func (s *State) Len() int {
	return len(s.order)
}

// Entries returns the entries in insertion order.
func (s *State) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.entries[k])
	}
	return out
}

// Names lists the members with the given status, in insertion order.
func (s *State) Names(status roster.SessionStatus) []string {
	var out []string
	for _, k := range s.order {
		if e := s.entries[k]; e.Status == status {
			out = append(out, e.Member)
		}
	}
	return out
}

// Counts tallies the entries per status.
func (s *State) Counts() map[roster.SessionStatus]int {
	out := make(map[roster.SessionStatus]int, 3)
	for _, e := range s.entries {
		out[e.Status]++
	}
	return out
}

// MarshalJSON encodes the state as its ordered entry list.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}
