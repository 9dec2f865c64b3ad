// Package eligibility decides whether members are ready for promotion and moves them
// along the rank ladder.
package eligibility

import (
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

var (
	// ErrNoHigherRank is returned when promoting a member who holds the top rank.
	ErrNoHigherRank = errors.New("no higher rank available")
	// ErrNoLowerRank is returned when demoting a member who holds the lowest rank.
	ErrNoLowerRank = errors.New("no lower rank available")
	// ErrUnknownRank is returned when a member's rank is not on the ladder.
	ErrUnknownRank = errors.New("rank is not on the ladder")
)

// Result is the evaluation of one member against their rank's requirement.
type Result struct {
	Member      string                 `json:"member"`
	Rank        string                 `json:"rank"`
	NextRank    string                 `json:"nextRank,omitempty"`
	Eligible    bool                   `json:"eligible"`
	Requirement roster.RankRequirement `json:"requirement"`
	// MonthsSincePromotion is -1 when the reference date is missing.
	MonthsSincePromotion int      `json:"monthsSincePromotion"`
	CombinedSessions     int      `json:"combinedSessions"`
	Reasons              []string `json:"reasons,omitempty"`
}

// MonthsSince counts whole calendar months from ref to now. A month is only complete once
// now's day of month reaches ref's. The result is never negative; ok is false when ref
// is the zero time.
func MonthsSince(ref, now time.Time) (months int, ok bool) {
	if ref.IsZero() {
		return 0, false
	}
	months = (now.Year()-ref.Year())*12 + int(now.Month()) - int(ref.Month())
	if now.Day() < ref.Day() {
		months--
	}
	return max(months, 0), true
}

// Evaluate checks a member against req. Every enforced clause that is not met adds a
// reason. A requirement without any enforced clause never makes a member eligible.
func Evaluate(m *roster.Member, req roster.RankRequirement, now time.Time) Result {
	res := Result{
		Member:               m.Name,
		Rank:                 m.Rank,
		Requirement:          req,
		MonthsSincePromotion: -1,
		CombinedSessions:     m.SinceLastPromotion.Total(),
	}
	if months, ok := MonthsSince(m.PromotionReference(), now); ok {
		res.MonthsSincePromotion = months
	}

	if !req.Active() {
		res.Reasons = append(res.Reasons, "no promotion requirement configured for rank")
		return res
	}

	if req.MinMonths > 0 {
		switch {
		case res.MonthsSincePromotion < 0:
			res.Reasons = append(res.Reasons, "no join or promotion date")
		case res.MonthsSincePromotion < req.MinMonths:
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("only %d months in rank (requires %d)", res.MonthsSincePromotion, req.MinMonths))
		}
	}
	if req.MinLevel > 0 && m.Level < req.MinLevel {
		res.Reasons = append(res.Reasons, fmt.Sprintf("level %d/%d", m.Level, req.MinLevel))
	}
	if req.MinCombinedSessions > 0 && res.CombinedSessions < req.MinCombinedSessions {
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("training+event+reserve %d/%d", res.CombinedSessions, req.MinCombinedSessions))
	}

	res.Eligible = len(res.Reasons) == 0
	return res
}

// Engine evaluates and changes ranks using a ladder and its requirement table.
type Engine struct {
	ladder *roster.RankLadder
	table  *roster.RequirementTable
}

// NewEngine creates an Engine.
func NewEngine(ladder *roster.RankLadder, table *roster.RequirementTable) *Engine {
	return &Engine{ladder: ladder, table: table}
}

// Evaluate checks a member against the requirement of their current rank.
func (e *Engine) Evaluate(m *roster.Member, now time.Time) Result {
	res := Evaluate(m, e.table.For(m.Rank), now)
	res.NextRank, _ = e.ladder.Next(m.Rank)
	return res
}

// EvaluateAll checks every member of the roster in registration order.
func (e *Engine) EvaluateAll(reg *roster.Roster, now time.Time) []Result {
	members := reg.Members()
	out := make([]Result, 0, len(members))
	for _, m := range members {
		out = append(out, e.Evaluate(m, now))
	}
	return out
}

// Promote moves a member one rank up, resets the since-last-promotion counters and
// records the promotion date. Lifetime counters are kept.
func (e *Engine) Promote(m *roster.Member, now time.Time) error {
	if _, ok := e.ladder.Index(m.Rank); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRank, m.Rank)
	}
	next, ok := e.ladder.Next(m.Rank)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHigherRank, m.Rank)
	}
	m.Rank = next
	m.SinceLastPromotion = roster.Counters{}
	m.LastPromotionDate = roster.Day(now)
	return nil
}

// Demote moves a member one rank down. Counters and dates are left unchanged.
func (e *Engine) Demote(m *roster.Member) error {
	if _, ok := e.ladder.Index(m.Rank); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRank, m.Rank)
	}
	prev, ok := e.ladder.Prev(m.Rank)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLowerRank, m.Rank)
	}
	m.Rank = prev
	return nil
}
