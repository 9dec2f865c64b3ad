package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/common"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/eligibility"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ledger"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/metrics"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ocr"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/segment"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/session"
)

// ErrNoPendingSession is returned by session edits and commit when nothing was reconciled.
var ErrNoPendingSession = errors.New("no pending session")

// Recognizer turns a screenshot into text.
type Recognizer interface {
	Recognize(ctx context.Context, path string) ocr.Result
}

// Reconciliation is the outcome of one reconciliation pass. While pending it can be
// edited and then committed.
type Reconciliation struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"createdAt"`
	OCRFailed    bool                 `json:"ocrFailed"`
	HeadersFound bool                 `json:"headersFound"`
	SessionType  roster.SessionType   `json:"sessionType"`
	Metadata     classify.Metadata    `json:"metadata"`
	Candidates   []resolve.Candidate  `json:"candidates"`
	Dropped      []string             `json:"dropped,omitempty"`
	Resolutions  []resolve.Resolution `json:"resolutions"`
	Created      []string             `json:"created,omitempty"`
	Unresolved   []string             `json:"unresolved,omitempty"`
	Statuses     []session.Entry      `json:"statuses"`

	state *session.State
}

// view copies the reconciliation with the current statuses filled in.
func (r *Reconciliation) view() *Reconciliation {
	out := *r
	out.Statuses = r.state.Entries()
	out.state = nil
	return &out
}

// CommitInput selects the session the pending state is committed as. Empty fields are
// taken from the reconciled text: the detected session type, title, first map and date,
// with today's date when none was found.
type CommitInput struct {
	Type     roster.SessionType
	Title    string
	Map      string
	Date     time.Time
	Remember bool
	// SessionID overwrites a remembered session.
	SessionID string
}

// CommitOutcome is the result of a commit.
type CommitOutcome struct {
	ledger.CommitResult
	Request ledger.CommitRequest `json:"request"`
	// Session is the remembered template, when requested.
	Session *roster.Session `json:"session,omitempty"`
	// Pruned counts remembered sessions dropped by retention.
	Pruned int `json:"pruned"`
	// Eligible lists the committed members who now meet their promotion requirement.
	Eligible []string `json:"eligible,omitempty"`
}

// MemberView is a member as listed to callers.
type MemberView struct {
	roster.Member
	// Flagged is set when the no-response counter reached the configured threshold.
	Flagged bool `json:"flagged"`
}

// ImportResult reports which imported records created or updated members.
type ImportResult struct {
	Created []string `json:"created,omitempty"`
	Merged  []string `json:"merged,omitempty"`
}

// EligibilityReport splits an evaluation of the whole roster.
type EligibilityReport struct {
	Eligible   []eligibility.Result `json:"eligible"`
	Ineligible []eligibility.Result `json:"ineligible"`
}

// Manager orchestrates the reconciliation pipeline over the persisted roster:
// Text -> Sections -> Candidates -> Resolutions -> State -> Commit.
// Calls are serialized; the engine packages are not safe for concurrent use.
type Manager struct {
	cfg        *ReconciliationConfig
	ladder     *roster.RankLadder
	classifier *classify.Classifier
	segmenter  *segment.Segmenter
	engine     *eligibility.Engine
	rosters    service.RosterStore
	sessions   service.SessionStore
	recognizer Recognizer
	now        func() time.Time

	mu      sync.Mutex
	pending *Reconciliation
}

// NewManager validates cfg and builds the pipeline components. recognizer may be nil when
// only text input is used.
func NewManager(cfg *ReconciliationConfig, rosters service.RosterStore, sessions service.SessionStore, recognizer Recognizer) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultReconciliationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ladder, err := cfg.Ladder()
	if err != nil {
		return nil, err
	}
	classifier, err := classify.New(cfg.ClassifyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	return &Manager{
		cfg:        cfg,
		ladder:     ladder,
		classifier: classifier,
		segmenter:  segment.New(ladder.Tokens()),
		engine:     eligibility.NewEngine(ladder, roster.NewRequirementTable(ladder, cfg.Requirements)),
		rosters:    rosters,
		sessions:   sessions,
		recognizer: recognizer,
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Ladder returns the configured rank ladder.
func (m *Manager) Ladder() *roster.RankLadder {
	return m.ladder
}

// ReconcileFile recognizes the screenshot at path and reconciles the recognized text. A
// failed recognition reconciles empty text.
func (m *Manager) ReconcileFile(ctx context.Context, path string) (*Reconciliation, error) {
	if m.recognizer == nil {
		return nil, fmt.Errorf("no recognizer configured")
	}
	res := m.recognizer.Recognize(ctx, path)
	return m.Reconcile(ctx, res.Text, res.OK)
}

// Reconcile runs the pipeline over text and holds the outcome as the pending session,
// replacing any earlier one. ok is the recognition tool's success flag; when false the
// text is ignored and every member ends up NoResponse. Members created during resolution
// are saved immediately.
func (m *Manager) Reconcile(ctx context.Context, text string, ok bool) (*Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := common.NewScope(ctx, "pipeline.Reconcile")
	defer scope.Finish()

	if !ok {
		scope.Log.Warnf("recognition failed, reconciling empty text")
		metrics.OCRFailuresTotal.Inc()
		text = ""
	}

	reg, err := m.rosters.LoadRoster(scope.Ctx)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	now := m.now()

	// Step 1: Locate sections, session type and metadata
	step := scope.NewChildScope("classify")
	cls := ClassifyText(m.classifier, text)
	step.SetAttributes("blocks", len(cls.Sections.Blocks))
	m.observe(step)
	if !cls.Sections.HeadersFound && text != "" {
		scope.Log.Infof("no section headers found, using line fallback")
	}

	// Step 2: Split blocks into name candidates
	step = scope.NewChildScope("segment")
	cands, dropped := SegmentBlocks(m.segmenter, cls.Sections.Blocks)
	step.SetAttributes("candidates", len(cands))
	m.observe(step)
	if len(dropped) > 0 {
		scope.Log.Infof("dropped %d candidates outside length bounds", len(dropped))
		metrics.CandidatesTotal.WithLabelValues("dropped").Add(float64(len(dropped)))
	}

	// Step 3: Resolve candidates against the roster
	step = scope.NewChildScope("resolve")
	res, err := ResolveCandidates(reg, m.cfg.ResolveConfig(m.ladder), cands, now)
	m.observe(step)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to resolve candidates: %w", err)
	}
	for _, r := range res.Resolutions {
		metrics.CandidatesTotal.WithLabelValues(strings.ToLower(r.Method.String())).Inc()
	}

	// Step 4: Assemble the session state
	state := AssembleState(reg, res)

	if len(res.Created) > 0 {
		scope.Log.Infof("auto-created %d members: %s", len(res.Created), strings.Join(res.Created, ", "))
		if err := m.rosters.SaveRoster(scope.Ctx, reg); err != nil {
			scope.TraceError(err)
			return nil, fmt.Errorf("failed to save created members: %w", err)
		}
	}
	if len(res.Unresolved) > 0 {
		scope.Log.Infof("left %d candidates unresolved", len(res.Unresolved))
	}

	metrics.ReconciliationsTotal.WithLabelValues(fmt.Sprintf("%t", cls.Sections.HeadersFound)).Inc()

	m.pending = &Reconciliation{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		OCRFailed:    !ok,
		HeadersFound: cls.Sections.HeadersFound,
		SessionType:  cls.SessionType,
		Metadata:     cls.Metadata,
		Candidates:   cands,
		Dropped:      dropped,
		Resolutions:  res.Resolutions,
		Created:      res.Created,
		Unresolved:   res.Unresolved,
		state:        state,
	}

	counts := state.Counts()
	scope.Log.Infof("reconciled %d candidates: %d confirmed, %d declined, %d no response",
		len(cands), counts[roster.Confirmed], counts[roster.Declined], counts[roster.NoResponse])

	return m.pending.view(), nil
}

func (m *Manager) observe(step *common.Scope) {
	metrics.StepDuration.WithLabelValues(step.Name).Observe(step.Finish().Seconds())
}

// Pending returns the pending reconciliation.
func (m *Manager) Pending() (*Reconciliation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil, false
	}
	return m.pending.view(), true
}

// Discard drops the pending reconciliation. Members it created stay registered.
func (m *Manager) Discard() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.pending != nil
	m.pending = nil
	return had
}

// MarkConfirmed overrides a member's status in the pending session.
func (m *Manager) MarkConfirmed(ctx context.Context, name string) error {
	return m.edit(ctx, name, (*session.State).MarkConfirmed)
}

// MarkDeclined overrides a member's status in the pending session.
func (m *Manager) MarkDeclined(ctx context.Context, name string) error {
	return m.edit(ctx, name, (*session.State).MarkDeclined)
}

// RemoveFromSession takes a member out of the pending session; the member is then not
// counted at all on commit.
func (m *Manager) RemoveFromSession(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ErrNoPendingSession
	}
	if !m.pending.state.Remove(name) {
		return fmt.Errorf("%w: %s", roster.ErrMemberNotFound, name)
	}
	logrus.Infof("removed %s from pending session", name)
	return nil
}

func (m *Manager) edit(ctx context.Context, name string, apply func(*session.State, string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ErrNoPendingSession
	}
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	member, ok := reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", roster.ErrMemberNotFound, name)
	}
	apply(m.pending.state, member.Name)
	return nil
}

// Commit applies the pending session to the roster and clears it. Duplicates and unknown
// members are reported in the outcome without blocking the other members.
func (m *Manager) Commit(ctx context.Context, in CommitInput) (*CommitOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil, ErrNoPendingSession
	}

	scope := common.NewScope(ctx, "pipeline.Commit")
	defer scope.Finish()

	now := m.now()
	req := m.commitRequest(in, now)
	scope.SetAttributes("session_type", string(req.Type))

	reg, err := m.rosters.LoadRoster(scope.Ctx)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	// Step 5: Apply the state to counters and log
	step := scope.NewChildScope("commit")
	result := ledger.Commit(reg, m.pending.state, req, m.cfg.LedgerOptions())
	m.observe(step)

	if err := m.rosters.SaveRoster(scope.Ctx, reg); err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	out := &CommitOutcome{CommitResult: result, Request: req}

	// Step 6: Remember the session as a template
	if req.Remember {
		sess, pruned, err := m.remember(scope.Ctx, req, now)
		if err != nil {
			scope.TraceError(err)
			return nil, err
		}
		out.Session = &sess
		out.Pruned = pruned
	}

	for _, a := range result.Applied {
		if a.Status == roster.NoResponse {
			continue
		}
		if member, ok := reg.Get(a.Member); ok && m.engine.Evaluate(member, now).Eligible {
			out.Eligible = append(out.Eligible, member.Name)
		}
	}

	metrics.CommitEntriesTotal.WithLabelValues("applied").Add(float64(len(result.Applied)))
	metrics.CommitEntriesTotal.WithLabelValues("duplicate").Add(float64(len(result.Duplicates)))
	metrics.CommitEntriesTotal.WithLabelValues("failed").Add(float64(len(result.Failed)))

	if len(result.Duplicates) > 0 {
		scope.Log.Infof("skipped %d duplicate entries: %s", len(result.Duplicates), strings.Join(result.Duplicates, ", "))
	}
	for _, f := range result.Failed {
		scope.Log.Warnf("failed to commit %s: %s", f.Member, f.Reason)
	}
	if result.MapAdded {
		scope.Log.Infof("added map %s to known maps", req.Map)
	}
	scope.Log.Infof("committed %s %q on %s for %d members",
		req.Type, req.Title, req.Date.Format(time.DateOnly), len(result.Applied))

	m.pending = nil
	return out, nil
}

func (m *Manager) commitRequest(in CommitInput, now time.Time) ledger.CommitRequest {
	req := ledger.CommitRequest{
		Type:      in.Type,
		Title:     strings.TrimSpace(in.Title),
		Map:       strings.TrimSpace(in.Map),
		Date:      in.Date,
		Remember:  in.Remember,
		SessionID: in.SessionID,
	}
	md := m.pending.Metadata
	if req.Type == "" {
		req.Type = m.pending.SessionType
	}
	if req.Title == "" {
		req.Title = md.Title
	}
	if req.Map == "" {
		req.Map = md.Map()
	}
	if req.Date.IsZero() {
		req.Date = md.Date
	}
	if req.Date.IsZero() {
		req.Date = now
	}
	req.Date = roster.Day(req.Date)
	return req
}

func (m *Manager) remember(ctx context.Context, req ledger.CommitRequest, now time.Time) (roster.Session, int, error) {
	existing, err := m.sessions.LoadSessions(ctx)
	if err != nil {
		return roster.Session{}, 0, fmt.Errorf("failed to load sessions: %w", err)
	}
	sess := ledger.BuildSession(existing, m.pending.state, req)
	kept, pruned := ledger.Prune(ledger.Upsert(existing, sess), now, m.cfg.Retention())
	if err := m.sessions.SaveSessions(ctx, kept); err != nil {
		return roster.Session{}, 0, fmt.Errorf("failed to save sessions: %w", err)
	}
	logrus.Infof("remembered session %s (%d pruned)", sess.ID, pruned)
	return sess, pruned, nil
}

// Members lists the roster in registration order.
func (m *Manager) Members(ctx context.Context) ([]MemberView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	threshold := m.cfg.Counters.NoResponseFlagThreshold
	out := make([]MemberView, 0, reg.Len())
	for _, member := range reg.Members() {
		out = append(out, MemberView{
			Member:  *member,
			Flagged: threshold > 0 && member.NoResponseCounter >= threshold,
		})
	}
	return out, nil
}

// Import merges records into the roster. Records without group or rank get the default
// group and the first rank.
func (m *Manager) Import(ctx context.Context, records []roster.Member) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	out := &ImportResult{}
	for _, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		member, created, err := reg.Merge(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to import %q: %w", rec.Name, err)
		}
		if member.Group == "" {
			member.Group = m.cfg.Matching.DefaultGroup
		}
		if member.Rank == "" {
			member.Rank = m.ladder.First()
		}
		if created {
			out.Created = append(out.Created, member.Name)
		} else {
			out.Merged = append(out.Merged, member.Name)
		}
	}

	if err := m.rosters.SaveRoster(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}
	logrus.Infof("imported %d records: %d created, %d merged", len(records), len(out.Created), len(out.Merged))
	return out, nil
}

// Rename gives a member a new name, keeping counters and log. The pending session and
// remembered sessions follow the rename.
func (m *Manager) Rename(ctx context.Context, oldName, newName string) (*roster.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	before, ok := reg.Get(oldName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roster.ErrMemberNotFound, oldName)
	}
	previous := before.Name

	member, err := reg.Rename(oldName, newName)
	if err != nil {
		return nil, err
	}
	if err := m.rosters.SaveRoster(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	if m.pending != nil {
		if status, ok := m.pending.state.Status(previous); ok {
			m.pending.state.Remove(previous)
			setStatus(m.pending.state, member.Name, status)
		}
	}

	sessions, err := m.sessions.LoadSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	changed := false
	for i := range sessions {
		for _, names := range [][]string{sessions[i].Confirmed, sessions[i].Declined, sessions[i].NoResponse} {
			for j := range names {
				if roster.Key(names[j]) == roster.Key(previous) {
					names[j] = member.Name
					changed = true
				}
			}
		}
	}
	if changed {
		if err := m.sessions.SaveSessions(ctx, sessions); err != nil {
			return nil, fmt.Errorf("failed to save sessions: %w", err)
		}
	}

	logrus.Infof("renamed member %s to %s", previous, member.Name)
	out := *member
	return &out, nil
}

func setStatus(s *session.State, name string, status roster.SessionStatus) {
	switch status {
	case roster.Confirmed:
		s.MarkConfirmed(name)
	case roster.Declined:
		s.MarkDeclined(name)
	default:
		s.MarkNoResponse(name)
	}
}

// Delete removes a member and their log. The member also leaves the pending session.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if err := reg.Delete(name); err != nil {
		return err
	}
	if err := m.rosters.SaveRoster(ctx, reg); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	if m.pending != nil {
		m.pending.state.Remove(name)
	}
	logrus.Infof("deleted member %s", name)
	return nil
}

// Promote moves a member one rank up and returns the member's new evaluation.
func (m *Manager) Promote(ctx context.Context, name string) (*eligibility.Result, error) {
	return m.changeRank(ctx, name, "up", func(member *roster.Member, now time.Time) error {
		return m.engine.Promote(member, now)
	})
}

// Demote moves a member one rank down and returns the member's new evaluation.
func (m *Manager) Demote(ctx context.Context, name string) (*eligibility.Result, error) {
	return m.changeRank(ctx, name, "down", func(member *roster.Member, _ time.Time) error {
		return m.engine.Demote(member)
	})
}

func (m *Manager) changeRank(ctx context.Context, name, direction string, change func(*roster.Member, time.Time) error) (*eligibility.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	member, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roster.ErrMemberNotFound, name)
	}
	from := member.Rank
	now := m.now()
	if err := change(member, now); err != nil {
		return nil, err
	}
	if err := m.rosters.SaveRoster(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}
	metrics.PromotionsTotal.WithLabelValues(direction).Inc()
	logrus.Infof("moved %s %s from %s to %s", member.Name, direction, from, member.Rank)

	res := m.engine.Evaluate(member, now)
	return &res, nil
}

// Eligibility evaluates one member.
func (m *Manager) Eligibility(ctx context.Context, name string) (*eligibility.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	member, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roster.ErrMemberNotFound, name)
	}
	res := m.engine.Evaluate(member, m.now())
	return &res, nil
}

// EligibilityReport evaluates every member.
func (m *Manager) EligibilityReport(ctx context.Context) (*EligibilityReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, err := m.rosters.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	out := &EligibilityReport{
		Eligible:   []eligibility.Result{},
		Ineligible: []eligibility.Result{},
	}
	for _, res := range m.engine.EvaluateAll(reg, m.now()) {
		if res.Eligible {
			out.Eligible = append(out.Eligible, res)
		} else {
			out.Ineligible = append(out.Ineligible, res)
		}
	}
	return out, nil
}

// Sessions returns the remembered sessions within the retention window. Expired sessions
// are pruned from the store.
func (m *Manager) Sessions(ctx context.Context) ([]roster.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions, err := m.sessions.LoadSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	kept, pruned := ledger.Prune(sessions, m.now(), m.cfg.Retention())
	if pruned > 0 {
		if err := m.sessions.SaveSessions(ctx, kept); err != nil {
			return nil, fmt.Errorf("failed to save sessions: %w", err)
		}
		logrus.Infof("pruned %d expired sessions", pruned)
	}
	return kept, nil
}
