// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/session"
)

// DefaultRetention is how long remembered sessions are kept.
const DefaultRetention = 31 * 24 * time.Hour

// BuildSession turns a committed session into a template record. The id is taken from
// the request, else from an existing template with the same type, title and date, else
// newly generated.
func BuildSession(existing []roster.Session, state *session.State, req CommitRequest) roster.Session {
	id := req.SessionID
	if id == "" {
		date := roster.Day(req.Date)
		for _, s := range existing {
			if strings.EqualFold(string(s.Type), string(req.Type)) &&
				strings.EqualFold(s.Title, req.Title) &&
				roster.Day(s.Date).Equal(date) {
				id = s.ID
				break
			}
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	s := roster.Session{
		ID:         id,
		Date:       roster.Day(req.Date),
		Title:      req.Title,
		Type:       req.Type,
		Confirmed:  state.Names(roster.Confirmed),
		Declined:   state.Names(roster.Declined),
		NoResponse: state.Names(roster.NoResponse),
	}
	if req.Map != "" {
		s.Maps = []string{req.Map}
	}
	return s
}

// Upsert replaces the session with the same id or appends it.
func Upsert(sessions []roster.Session, s roster.Session) []roster.Session {
	out := make([]roster.Session, 0, len(sessions)+1)
	replaced := false
	for _, cur := range sessions {
		if cur.ID == s.ID {
			out = append(out, s)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, s)
	}
	return out
}

// Prune drops sessions dated before now minus retention. Sessions without a date are
// kept. It returns the remaining sessions and how many were dropped.
func Prune(sessions []roster.Session, now time.Time, retention time.Duration) ([]roster.Session, int) {
	cutoff := roster.Day(now.Add(-retention))
	out := make([]roster.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Date.IsZero() && roster.Day(s.Date).Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out, len(sessions) - len(out)
}
