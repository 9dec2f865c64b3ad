package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/eligibility"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ocr"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service/mock"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/session"
)

var testNow = time.Date(2025, 3, 7, 18, 30, 0, 0, time.UTC)

type fakeRecognizer struct {
	result ocr.Result
	paths  []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path string) ocr.Result {
	f.paths = append(f.paths, path)
	return f.result
}

func setupManager(t *testing.T, members ...roster.Member) (*Manager, *mock.Store) {
	t.Helper()
	store := mock.NewStore(members...)
	mgr, err := NewManager(DefaultReconciliationConfig(), store, store, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mgr.SetClock(func() time.Time { return testNow })
	return mgr, store
}

func statusOf(t *testing.T, rec *Reconciliation, name string) roster.SessionStatus {
	t.Helper()
	for _, e := range rec.Statuses {
		if roster.Key(e.Member) == roster.Key(name) {
			return e.Status
		}
	}
	t.Fatalf("no status for %s in %+v", name, rec.Statuses)
	return roster.NoResponse
}

func TestReconcile_FuzzyDecline(t *testing.T) {
	mgr, store := setupManager(t,
		roster.Member{Name: "Mueller", Rank: "Gefreiter"},
		roster.Member{Name: "Schmidt", Rank: "Anwerber"},
		roster.Member{Name: "Wagner", Rank: "Anwerber"},
	)

	rec, err := mgr.Reconcile(context.Background(), "Akzeptiert (1)\nMueller\nAbgelehnt (1)\nSchmitd", true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if !rec.HeadersFound {
		t.Error("expected headers to be found")
	}
	if len(rec.Created) != 0 {
		t.Errorf("expected no created members, got %v", rec.Created)
	}
	if got := statusOf(t, rec, "Mueller"); got != roster.Confirmed {
		t.Errorf("expected Mueller Confirmed, got %s", got)
	}
	if got := statusOf(t, rec, "Schmidt"); got != roster.Declined {
		t.Errorf("expected Schmidt Declined, got %s", got)
	}
	if got := statusOf(t, rec, "Wagner"); got != roster.NoResponse {
		t.Errorf("expected Wagner NoResponse, got %s", got)
	}
	if store.SaveRosterCalls != 0 {
		t.Errorf("expected roster not to be saved, got %d saves", store.SaveRosterCalls)
	}

	var fuzzy *resolve.Resolution
	for i := range rec.Resolutions {
		if rec.Resolutions[i].Candidate == "Schmitd" {
			fuzzy = &rec.Resolutions[i]
		}
	}
	if fuzzy == nil || fuzzy.Method != resolve.Fuzzy || fuzzy.Member != "Schmidt" || fuzzy.Distance != 2 {
		t.Errorf("unexpected resolution for Schmitd: %+v", fuzzy)
	}
}

func TestReconcile_HeadersOutOfOrder(t *testing.T) {
	mgr, store := setupManager(t,
		roster.Member{Name: "Mueller"},
		roster.Member{Name: "Schmidt"},
		roster.Member{Name: "Wagner"},
	)

	rec, err := mgr.Reconcile(context.Background(), "Akzeptiert (1)\nMueller\nAbgelehnt (1)\nSchmidt\nTank (1)\nWagner", true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(rec.Created) != 0 {
		t.Errorf("expected no created members, got %v", rec.Created)
	}
	if got := statusOf(t, rec, "Mueller"); got != roster.Confirmed {
		t.Errorf("expected Mueller Confirmed, got %s", got)
	}
	if got := statusOf(t, rec, "Schmidt"); got != roster.Declined {
		t.Errorf("expected Schmidt Declined, got %s", got)
	}
	if got := statusOf(t, rec, "Wagner"); got != roster.Confirmed {
		t.Errorf("expected Wagner Confirmed, got %s", got)
	}
	if store.SaveRosterCalls != 0 {
		t.Errorf("expected roster not to be saved, got %d saves", store.SaveRosterCalls)
	}
}

func TestReconcile_ShortCandidateDropped(t *testing.T) {
	mgr, store := setupManager(t, roster.Member{Name: "Mueller"})

	rec, err := mgr.Reconcile(context.Background(), "Zz", true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(rec.Candidates) != 0 || len(rec.Resolutions) != 0 {
		t.Errorf("expected no candidates, got %+v", rec.Candidates)
	}

	members, err := mgr.Members(context.Background())
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("expected roster to keep 1 member, got %d", len(members))
	}
	if store.SaveRosterCalls != 0 {
		t.Errorf("expected no roster save, got %d", store.SaveRosterCalls)
	}
}

func TestReconcile_AutoCreatesAndPersists(t *testing.T) {
	mgr, store := setupManager(t, roster.Member{Name: "Mueller"})

	rec, err := mgr.Reconcile(context.Background(), "Akzeptiert (2)\nMueller\nXyzzyplugh", true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Xyzzyplugh"}, rec.Created); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}
	if got := statusOf(t, rec, "Xyzzyplugh"); got != roster.Confirmed {
		t.Errorf("expected created member Confirmed, got %s", got)
	}
	if store.SaveRosterCalls != 1 {
		t.Fatalf("expected created member to be saved, got %d saves", store.SaveRosterCalls)
	}

	reg, _ := store.LoadRoster(context.Background())
	created, ok := reg.Get("Xyzzyplugh")
	if !ok {
		t.Fatal("expected Xyzzyplugh in stored roster")
	}
	if created.Group != "Nicht zugewiesen" || created.Rank != "Anwerber" {
		t.Errorf("unexpected defaults for created member: %+v", created)
	}
	if !created.JoinDate.Equal(roster.Day(testNow)) {
		t.Errorf("expected join date %v, got %v", roster.Day(testNow), created.JoinDate)
	}
}

func TestReconcile_OCRFailure(t *testing.T) {
	mgr, _ := setupManager(t, roster.Member{Name: "Mueller"}, roster.Member{Name: "Schmidt"})

	rec, err := mgr.Reconcile(context.Background(), "Akzeptiert (1)\nMueller", false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !rec.OCRFailed {
		t.Error("expected OCRFailed")
	}
	if len(rec.Candidates) != 0 {
		t.Errorf("expected text to be ignored, got candidates %+v", rec.Candidates)
	}
	for _, e := range rec.Statuses {
		if e.Status != roster.NoResponse {
			t.Errorf("expected %s NoResponse, got %s", e.Member, e.Status)
		}
	}
}

func TestReconcileFile(t *testing.T) {
	store := mock.NewStore(roster.Member{Name: "Mueller"})
	rec := &fakeRecognizer{result: ocr.Result{Text: "Abgelehnt (1)\nMueller", OK: true}}
	mgr, err := NewManager(nil, store, store, rec)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	out, err := mgr.ReconcileFile(context.Background(), "/tmp/shot.png")
	if err != nil {
		t.Fatalf("ReconcileFile failed: %v", err)
	}
	if len(rec.paths) != 1 || rec.paths[0] != "/tmp/shot.png" {
		t.Errorf("unexpected recognizer calls: %v", rec.paths)
	}
	if got := statusOf(t, out, "Mueller"); got != roster.Declined {
		t.Errorf("expected Mueller Declined, got %s", got)
	}

	noRecognizer, _ := setupManager(t)
	if _, err := noRecognizer.ReconcileFile(context.Background(), "x.png"); err == nil {
		t.Error("expected error without recognizer")
	}
}

func TestManualEdits(t *testing.T) {
	mgr, _ := setupManager(t, roster.Member{Name: "Mueller"}, roster.Member{Name: "Schmidt"}, roster.Member{Name: "Wagner"})
	ctx := context.Background()

	if err := mgr.MarkConfirmed(ctx, "Mueller"); !errors.Is(err, ErrNoPendingSession) {
		t.Errorf("expected ErrNoPendingSession, got %v", err)
	}

	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if err := mgr.MarkDeclined(ctx, "mueller"); err != nil {
		t.Fatalf("MarkDeclined failed: %v", err)
	}
	if err := mgr.MarkConfirmed(ctx, "SCHMIDT"); err != nil {
		t.Fatalf("MarkConfirmed failed: %v", err)
	}
	if err := mgr.RemoveFromSession(ctx, "Wagner"); err != nil {
		t.Fatalf("RemoveFromSession failed: %v", err)
	}
	if err := mgr.MarkConfirmed(ctx, "Nobody"); !errors.Is(err, roster.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
	if err := mgr.RemoveFromSession(ctx, "Wagner"); !errors.Is(err, roster.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound for second removal, got %v", err)
	}

	rec, ok := mgr.Pending()
	if !ok {
		t.Fatal("expected pending session")
	}
	want := []session.Entry{
		{Member: "Mueller", Status: roster.Declined},
		{Member: "Schmidt", Status: roster.Confirmed},
	}
	if diff := cmp.Diff(want, rec.Statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestCommit(t *testing.T) {
	mgr, store := setupManager(t,
		roster.Member{Name: "Mueller", NoResponseCounter: 4},
		roster.Member{Name: "Schmidt"},
		roster.Member{Name: "Wagner", NoResponseCounter: 2},
	)
	ctx := context.Background()

	if _, err := mgr.Commit(ctx, CommitInput{}); !errors.Is(err, ErrNoPendingSession) {
		t.Fatalf("expected ErrNoPendingSession, got %v", err)
	}

	text := "Samstag Training Carentan\n07.03.2025\nAkzeptiert (1)\nMueller\nAbgelehnt (1)\nSchmidt"
	rec, err := mgr.Reconcile(ctx, text, true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if rec.SessionType != roster.Training {
		t.Errorf("expected Training session, got %s", rec.SessionType)
	}

	out, err := mgr.Commit(ctx, CommitInput{Remember: true})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if out.Request.Type != roster.Training || out.Request.Title != "Samstag Training Carentan" ||
		out.Request.Map != "Carentan" || !out.Request.Date.Equal(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected request defaults: %+v", out.Request)
	}
	if len(out.Applied) != 3 || len(out.Duplicates) != 0 {
		t.Errorf("expected 3 applied and no duplicates, got %+v", out.CommitResult)
	}
	if out.Session == nil || out.Session.ID == "" {
		t.Fatal("expected a remembered session")
	}

	reg, _ := store.LoadRoster(ctx)
	mueller, _ := reg.Get("Mueller")
	if mueller.NoResponseCounter != 0 || mueller.SinceLastPromotion.Training != 1 || mueller.Lifetime.Training != 1 {
		t.Errorf("unexpected Mueller after commit: %+v", mueller)
	}
	schmidt, _ := reg.Get("Schmidt")
	if schmidt.SinceLastPromotion.Training != 1 {
		t.Errorf("expected declined member to count the session, got %+v", schmidt)
	}
	wagner, _ := reg.Get("Wagner")
	if wagner.NoResponseCounter != 3 || wagner.Lifetime.Total() != 0 {
		t.Errorf("unexpected Wagner after commit: %+v", wagner)
	}
	if len(reg.Log("Wagner")) != 0 || len(reg.Log("Mueller")) != 1 {
		t.Error("expected only responding members to be logged")
	}

	sessions, err := mgr.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Confirmed[0] != "Mueller" || sessions[0].NoResponse[0] != "Wagner" {
		t.Errorf("unexpected remembered sessions: %+v", sessions)
	}

	if _, ok := mgr.Pending(); ok {
		t.Error("expected pending session to be cleared")
	}

	// The same session a second time is a duplicate for every responding member.
	if _, err := mgr.Reconcile(ctx, text, true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	out, err = mgr.Commit(ctx, CommitInput{Remember: true})
	if err != nil {
		t.Fatalf("second Commit failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Mueller", "Schmidt"}, out.Duplicates); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}
	sessions, _ = mgr.Sessions(ctx)
	if len(sessions) != 1 {
		t.Errorf("expected remembered session to be updated in place, got %d", len(sessions))
	}
}

func TestCommit_ExplicitInputWins(t *testing.T) {
	mgr, _ := setupManager(t, roster.Member{Name: "Mueller"})
	ctx := context.Background()

	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	date := time.Date(2025, 2, 1, 20, 0, 0, 0, time.UTC)
	out, err := mgr.Commit(ctx, CommitInput{Type: roster.Reserve, Title: " Reserve ", Map: "Foy", Date: date})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if out.Request.Type != roster.Reserve || out.Request.Title != "Reserve" || out.Request.Map != "Foy" ||
		!out.Request.Date.Equal(roster.Day(date)) {
		t.Errorf("unexpected request: %+v", out.Request)
	}
	if out.Session != nil {
		t.Error("expected no remembered session")
	}
}

func TestCommit_ReportsEligibleMembers(t *testing.T) {
	cfg := DefaultReconciliationConfig()
	cfg.Requirements = map[string]roster.RankRequirement{"Anwerber": {MinCombinedSessions: 1}}
	store := mock.NewStore(roster.Member{Name: "Mueller", Rank: "Anwerber"})
	mgr, err := NewManager(cfg, store, store, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mgr.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	out, err := mgr.Commit(ctx, CommitInput{Type: roster.Event, Title: "Sturm"})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Mueller"}, out.Eligible); diff != "" {
		t.Errorf("eligible mismatch (-want +got):\n%s", diff)
	}
}

func TestMembers_Flagged(t *testing.T) {
	mgr, _ := setupManager(t,
		roster.Member{Name: "Mueller", NoResponseCounter: 10},
		roster.Member{Name: "Schmidt", NoResponseCounter: 9},
	)
	members, err := mgr.Members(context.Background())
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if !members[0].Flagged || members[1].Flagged {
		t.Errorf("unexpected flags: %+v", members)
	}
}

func TestImport(t *testing.T) {
	mgr, store := setupManager(t, roster.Member{Name: "Mueller", Alias: "Muelli", Level: 30, Rank: "Gefreiter",
		Lifetime: roster.Counters{Event: 2}})

	res, err := mgr.Import(context.Background(), []roster.Member{
		{Name: "muelli", Level: 25, Lifetime: roster.Counters{Event: 3}},
		{Name: "Neuling", Level: 5},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if diff := cmp.Diff(&ImportResult{Created: []string{"Neuling"}, Merged: []string{"Mueller"}}, res); diff != "" {
		t.Errorf("import result mismatch (-want +got):\n%s", diff)
	}

	reg, _ := store.LoadRoster(context.Background())
	mueller, _ := reg.Get("Mueller")
	if mueller.Level != 30 || mueller.Lifetime.Event != 5 {
		t.Errorf("unexpected merge: %+v", mueller)
	}
	neuling, _ := reg.Get("Neuling")
	if neuling.Rank != "Anwerber" || neuling.Group != "Nicht zugewiesen" {
		t.Errorf("expected defaults on imported member, got %+v", neuling)
	}
}

func TestRename(t *testing.T) {
	mgr, store := setupManager(t, roster.Member{Name: "Mueller"}, roster.Member{Name: "Schmidt"})
	ctx := context.Background()

	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if _, err := mgr.Commit(ctx, CommitInput{Type: roster.Event, Title: "Sturm", Remember: true}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	m, err := mgr.Rename(ctx, "mueller", "Müller")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if m.Name != "Müller" || m.Lifetime.Event != 1 {
		t.Errorf("unexpected renamed member: %+v", m)
	}

	reg, _ := store.LoadRoster(ctx)
	if _, ok := reg.Get("Mueller"); ok {
		t.Error("expected old name to be gone")
	}
	if len(reg.Log("Müller")) != 1 {
		t.Error("expected log to follow the rename")
	}

	rec, _ := mgr.Pending()
	if got := statusOf(t, rec, "Müller"); got != roster.Confirmed {
		t.Errorf("expected pending status to follow the rename, got %s", got)
	}
	sessions, _ := mgr.Sessions(ctx)
	if sessions[0].Confirmed[0] != "Müller" {
		t.Errorf("expected remembered session to follow the rename, got %+v", sessions[0])
	}

	if _, err := mgr.Rename(ctx, "Müller", "schmidt"); !errors.Is(err, roster.ErrMemberExists) {
		t.Errorf("expected ErrMemberExists, got %v", err)
	}
	if _, err := mgr.Rename(ctx, "Nobody", "Somebody"); !errors.Is(err, roster.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	mgr, store := setupManager(t, roster.Member{Name: "Mueller"}, roster.Member{Name: "Schmidt"})
	ctx := context.Background()

	if _, err := mgr.Reconcile(ctx, "Akzeptiert (1)\nMueller", true); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if err := mgr.Delete(ctx, "Mueller"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	reg, _ := store.LoadRoster(ctx)
	if reg.Len() != 1 {
		t.Errorf("expected 1 member, got %d", reg.Len())
	}
	rec, _ := mgr.Pending()
	if len(rec.Statuses) != 1 {
		t.Errorf("expected deleted member to leave the pending session, got %+v", rec.Statuses)
	}
	if err := mgr.Delete(ctx, "Mueller"); !errors.Is(err, roster.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestPromoteDemote(t *testing.T) {
	mgr, store := setupManager(t,
		roster.Member{Name: "Mueller", Rank: "Anwerber", SinceLastPromotion: roster.Counters{Event: 4}, Lifetime: roster.Counters{Event: 9}},
		roster.Member{Name: "Boss", Rank: "Oberst"},
	)
	ctx := context.Background()

	res, err := mgr.Promote(ctx, "Mueller")
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if res.Rank != "Panzergrenadier" || res.CombinedSessions != 0 {
		t.Errorf("unexpected promotion result: %+v", res)
	}
	reg, _ := store.LoadRoster(ctx)
	mueller, _ := reg.Get("Mueller")
	if !mueller.LastPromotionDate.Equal(roster.Day(testNow)) || mueller.Lifetime.Event != 9 {
		t.Errorf("unexpected member after promotion: %+v", mueller)
	}

	res, err = mgr.Demote(ctx, "Mueller")
	if err != nil {
		t.Fatalf("Demote failed: %v", err)
	}
	if res.Rank != "Anwerber" {
		t.Errorf("expected Anwerber after demotion, got %s", res.Rank)
	}
	if _, err := mgr.Demote(ctx, "Mueller"); !errors.Is(err, eligibility.ErrNoLowerRank) {
		t.Errorf("expected ErrNoLowerRank, got %v", err)
	}
	if _, err := mgr.Promote(ctx, "Boss"); !errors.Is(err, eligibility.ErrNoHigherRank) {
		t.Errorf("expected ErrNoHigherRank, got %v", err)
	}
	if _, err := mgr.Promote(ctx, "Nobody"); !errors.Is(err, roster.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestEligibilityReport(t *testing.T) {
	mgr, _ := setupManager(t,
		roster.Member{Name: "Ready", Rank: "Anwerber", JoinDate: testNow.AddDate(0, -3, 0)},
		roster.Member{Name: "Fresh", Rank: "Anwerber", JoinDate: testNow.AddDate(0, -1, 0)},
	)
	ctx := context.Background()

	report, err := mgr.EligibilityReport(ctx)
	if err != nil {
		t.Fatalf("EligibilityReport failed: %v", err)
	}
	if len(report.Eligible) != 1 || report.Eligible[0].Member != "Ready" {
		t.Errorf("unexpected eligible list: %+v", report.Eligible)
	}
	if len(report.Ineligible) != 1 || report.Ineligible[0].Member != "Fresh" || len(report.Ineligible[0].Reasons) == 0 {
		t.Errorf("unexpected ineligible list: %+v", report.Ineligible)
	}

	res, err := mgr.Eligibility(ctx, "fresh")
	if err != nil {
		t.Fatalf("Eligibility failed: %v", err)
	}
	if res.Eligible || res.MonthsSincePromotion != 1 {
		t.Errorf("unexpected evaluation: %+v", res)
	}
}

func TestSessions_PrunesExpired(t *testing.T) {
	mgr, store := setupManager(t)
	ctx := context.Background()
	if err := store.SaveSessions(ctx, []roster.Session{
		{ID: "old", Date: testNow.AddDate(0, 0, -40)},
		{ID: "new", Date: testNow.AddDate(0, 0, -3)},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sessions, err := mgr.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "new" {
		t.Errorf("expected only the recent session, got %+v", sessions)
	}
	stored, _ := store.LoadSessions(ctx)
	if len(stored) != 1 {
		t.Errorf("expected pruning to be saved, got %d stored", len(stored))
	}
}

func TestPipelineSteps(t *testing.T) {
	mgr, _ := setupManager(t)
	cls := ClassifyText(mgr.classifier, "Gefreiter Mueller Hauptmann Schmidt")
	if cls.Sections.HeadersFound {
		t.Error("expected header-less fallback")
	}
	cands, dropped := SegmentBlocks(mgr.segmenter, cls.Sections.Blocks)
	if len(cands) != 2 || len(dropped) != 0 {
		t.Fatalf("expected 2 candidates, got %+v (dropped %v)", cands, dropped)
	}

	reg := roster.New()
	res, err := ResolveCandidates(reg, mgr.cfg.ResolveConfig(mgr.ladder), cands, testNow)
	if err != nil {
		t.Fatalf("ResolveCandidates failed: %v", err)
	}
	if len(res.Created) != 2 || reg.Len() != 2 {
		t.Errorf("expected 2 created members, got %v", res.Created)
	}
	state := AssembleState(reg, res)
	if got := state.Names(roster.NoResponse); len(got) != 2 {
		t.Errorf("expected unclassified members to start as NoResponse, got %v", got)
	}
}
