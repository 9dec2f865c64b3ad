package mock

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

// Store is an in-memory implementation of service.RosterStore and service.SessionStore
// for testing. Saved values are snapshotted so later mutation by the caller is not seen.
type Store struct {
	mu       sync.Mutex
	snapshot *roster.Snapshot
	sessions []roster.Session

	// LoadErr and SaveErr are returned by every load and save when set.
	LoadErr error
	SaveErr error
	// HealthErr is returned by Check.
	HealthErr error

	// Call tracking
	SaveRosterCalls   int
	SaveSessionsCalls int
}

// NewStore creates a store seeded with the given members.
func NewStore(members ...roster.Member) *Store {
	s := &Store{}
	if len(members) > 0 {
		s.snapshot = &roster.Snapshot{Members: members}
	}
	return s
}

// LoadRoster returns a fresh roster built from the last save.
func (s *Store) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if s.snapshot == nil {
		return roster.New(), nil
	}
	return roster.FromSnapshot(*s.snapshot)
}

// SaveRoster snapshots the roster.
func (s *Store) SaveRoster(ctx context.Context, r *roster.Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveRosterCalls++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	snap := r.Snapshot()
	s.snapshot = &snap
	return nil
}

// LoadSessions returns a copy of the saved sessions.
func (s *Store) LoadSessions(ctx context.Context) ([]roster.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return append([]roster.Session(nil), s.sessions...), nil
}

// SaveSessions replaces the saved sessions.
func (s *Store) SaveSessions(ctx context.Context, sessions []roster.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveSessionsCalls++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.sessions = append([]roster.Session(nil), sessions...)
	return nil
}

// Check returns HealthErr.
func (s *Store) Check(ctx context.Context) error {
	return s.HealthErr
}
