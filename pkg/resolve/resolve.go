// Package resolve maps name candidates onto roster members.
package resolve

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/textmatch"
)

// Method tells how a candidate was resolved.
type Method int

const (
	Unresolved Method = iota
	Exact
	Fuzzy
	Created
)

func (m Method) String() string {
	switch m {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	case Created:
		return "created"
	default:
		return "unresolved"
	}
}

// MarshalText encodes the method by name.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Candidate is a normalized name together with the section it was read from.
type Candidate struct {
	Text   string          `json:"text"`
	Bucket classify.Bucket `json:"bucket"`
}

// Config controls matching and member creation.
type Config struct {
	// Threshold is the largest edit distance accepted as a fuzzy match.
	Threshold    int
	FuzzyEnabled bool
	AutoCreate   bool
	DefaultGroup string
	// DefaultRank is assigned to created members, normally the first rank of the ladder.
	DefaultRank string
}

// Resolution is the outcome for one candidate.
type Resolution struct {
	Candidate string          `json:"candidate"`
	Bucket    classify.Bucket `json:"bucket"`
	Method    Method          `json:"method"`
	// Member is the display name of the resolved member; empty when unresolved.
	Member   string `json:"member,omitempty"`
	Distance int    `json:"distance"`
}

// Result collects every resolution of a batch.
type Result struct {
	Resolutions []Resolution `json:"resolutions"`
	Created     []string     `json:"created,omitempty"`
	Unresolved  []string     `json:"unresolved,omitempty"`
}

// Resolver resolves candidates against a roster. Members it creates are registered in
// the roster immediately, so later candidates of the same batch match against them.
type Resolver struct {
	cfg    Config
	reg    *roster.Roster
	lookup map[string]*roster.Member
	keys   []string
}

// New builds the name and alias lookup for reg.
func New(reg *roster.Roster, cfg Config) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		reg:    reg,
		lookup: make(map[string]*roster.Member),
	}
	for _, m := range reg.Members() {
		r.index(m)
	}
	return r
}

func (r *Resolver) index(m *roster.Member) {
	for _, label := range []string{m.Name, m.Alias} {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" {
			continue
		}
		if _, exists := r.lookup[key]; exists {
			continue
		}
		r.lookup[key] = m
		r.keys = append(r.keys, key)
	}
}

// Resolve resolves a batch in order. Repeated candidates within the same bucket are
// resolved once.
func (r *Resolver) Resolve(cands []Candidate, now time.Time) (Result, error) {
	var res Result
	seen := make(map[classify.Bucket]map[string]bool)

	for _, c := range cands {
		lower := strings.ToLower(c.Text)
		if seen[c.Bucket] == nil {
			seen[c.Bucket] = make(map[string]bool)
		}
		if seen[c.Bucket][lower] {
			continue
		}
		seen[c.Bucket][lower] = true

		out, err := r.resolveOne(c, lower, now)
		if err != nil {
			return res, err
		}
		switch out.Method {
		case Created:
			res.Created = append(res.Created, out.Member)
		case Unresolved:
			res.Unresolved = append(res.Unresolved, out.Candidate)
		}
		res.Resolutions = append(res.Resolutions, out)
	}

	return res, nil
}

func (r *Resolver) resolveOne(c Candidate, lower string, now time.Time) (Resolution, error) {
	out := Resolution{Candidate: c.Text, Bucket: c.Bucket}

	if m, ok := r.lookup[lower]; ok {
		out.Method = Exact
		out.Member = m.Name
		return out, nil
	}

	if r.cfg.FuzzyEnabled {
		if key, d := textmatch.Closest(lower, r.keys); d >= 0 && d <= r.cfg.Threshold {
			out.Method = Fuzzy
			out.Member = r.lookup[key].Name
			out.Distance = d
			logrus.Debugf("fuzzy matched %q to %q (distance %d)", c.Text, out.Member, d)
			return out, nil
		}
	}

	if !r.cfg.AutoCreate {
		return out, nil
	}

	m := &roster.Member{
		Name:     c.Text,
		Group:    r.cfg.DefaultGroup,
		Rank:     r.cfg.DefaultRank,
		JoinDate: roster.Day(now),
	}
	if err := r.reg.Add(m); err != nil {
		return out, fmt.Errorf("failed to register member %q: %w", c.Text, err)
	}
	r.index(m)
	logrus.Debugf("created member %q in group %q", m.Name, m.Group)

	out.Method = Created
	out.Member = m.Name
	return out, nil
}
