// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package ledger applies a finished session to the roster's counters and attendance log.
package ledger

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/session"
)

// CommitRequest describes the session being committed.
type CommitRequest struct {
	Type  roster.SessionType `json:"type"`
	Title string             `json:"title"`
	Map   string             `json:"map"`
	Date  time.Time          `json:"date"`
	// Remember stores the session and its participant lists as a reusable template.
	Remember bool `json:"remember"`
	// SessionID selects the template to overwrite when remembering.
	SessionID string `json:"sessionId,omitempty"`
}

// Options toggles the no-response counter rules.
type Options struct {
	// IncrementNoResponse adds one to the no-response counter of NoResponse members.
	IncrementNoResponse bool
	// ResetNoResponseOnReply clears the no-response counter of members who answered.
	ResetNoResponseOnReply bool
}

// DefaultOptions enables both counter rules.
func DefaultOptions() Options {
	return Options{IncrementNoResponse: true, ResetNoResponseOnReply: true}
}

// Applied is a member whose counters were updated.
type Applied struct {
	Member string               `json:"member"`
	Status roster.SessionStatus `json:"status"`
}

// Failure is a member that could not be committed.
type Failure struct {
	Member string `json:"member"`
	Reason string `json:"reason"`
}

// CommitResult reports the outcome per member. Duplicates and failures never abort the
// commit for the other members.
type CommitResult struct {
	Applied    []Applied `json:"applied"`
	Duplicates []string  `json:"duplicates,omitempty"`
	Failed     []Failure `json:"failed,omitempty"`
	// MapAdded is true when the session's map was not known before.
	MapAdded bool `json:"mapAdded"`
}

// Commit applies the session state to the roster. For every member with an entry:
// a member who already has a log entry of the same type, title and date is skipped as a
// duplicate; Confirmed and Declined members get a log entry, one more session of the given
// type on both counter sets and, by default, a cleared no-response counter; NoResponse
// members get their no-response counter raised by one.
func Commit(reg *roster.Roster, state *session.State, req CommitRequest, opts Options) CommitResult {
	var res CommitResult
	date := roster.Day(req.Date)

	for _, e := range state.Entries() {
		m, ok := reg.Get(e.Member)
		if !ok {
			res.Failed = append(res.Failed, Failure{Member: e.Member, Reason: roster.ErrMemberNotFound.Error()})
			continue
		}

		if HasRecord(reg, m.Name, req.Type, req.Title, date) {
			logrus.Debugf("skipping duplicate %s %q on %s for %s", req.Type, req.Title, date.Format(time.DateOnly), m.Name)
			res.Duplicates = append(res.Duplicates, m.Name)
			continue
		}

		switch e.Status {
		case roster.Confirmed, roster.Declined:
			entry := roster.AttendanceLogEntry{Type: req.Type, Date: date, Title: req.Title, Map: req.Map}
			if err := reg.AppendLog(m.Name, entry); err != nil {
				res.Failed = append(res.Failed, Failure{Member: m.Name, Reason: err.Error()})
				continue
			}
			m.SinceLastPromotion.Increment(req.Type)
			m.Lifetime.Increment(req.Type)
			if opts.ResetNoResponseOnReply {
				m.NoResponseCounter = 0
			}
		case roster.NoResponse:
			if opts.IncrementNoResponse {
				m.NoResponseCounter++
			}
		}
		res.Applied = append(res.Applied, Applied{Member: m.Name, Status: e.Status})
	}

	res.MapAdded = reg.EnsureMap(req.Map)
	return res
}

// HasRecord reports whether the member's log already holds an entry with the same type
// (case-insensitive), the same date and, when title is not empty, the same title
// (case-insensitive). Entries without a date never match.
func HasRecord(reg *roster.Roster, name string, typ roster.SessionType, title string, date time.Time) bool {
	if date.IsZero() {
		return false
	}
	date = roster.Day(date)
	for _, entry := range reg.Log(name) {
		if entry.Date.IsZero() {
			continue
		}
		if !strings.EqualFold(string(entry.Type), string(typ)) {
			continue
		}
		if title != "" && !strings.EqualFold(entry.Title, title) {
			continue
		}
		if roster.Day(entry.Date).Equal(date) {
			return true
		}
	}
	return false
}
