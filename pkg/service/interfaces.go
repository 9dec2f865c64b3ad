package service

import (
	"context"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

// Persistence boundary for the reconciliation pipeline. Stores load and save whole
// records; the pipeline owns all mutation.

// RosterStore persists the member list, attendance log and known maps.
type RosterStore interface {
	// LoadRoster returns the stored roster, or an empty one if nothing was saved yet.
	LoadRoster(ctx context.Context) (*roster.Roster, error)
	SaveRoster(ctx context.Context, r *roster.Roster) error
}

// SessionStore persists remembered session templates.
type SessionStore interface {
	// LoadSessions returns the stored sessions ordered by date, then id.
	LoadSessions(ctx context.Context) ([]roster.Session, error)
	// SaveSessions replaces the stored sessions.
	SaveSessions(ctx context.Context, sessions []roster.Session) error
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}
