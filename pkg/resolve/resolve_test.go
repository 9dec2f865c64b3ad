package resolve

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

var testNow = time.Date(2025, 3, 7, 18, 30, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Threshold:    2,
		FuzzyEnabled: true,
		AutoCreate:   true,
		DefaultGroup: "Nicht zugewiesen",
		DefaultRank:  "Anwerber",
	}
}

func newRoster(t *testing.T, members ...roster.Member) *roster.Roster {
	t.Helper()
	reg := roster.New()
	for i := range members {
		m := members[i]
		if err := reg.Add(&m); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	return reg
}

func TestResolve_FuzzyMatch(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Schmidt"})

	res, err := New(reg, testConfig()).Resolve([]Candidate{{Text: "Schmitd", Bucket: classify.Rejected}}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []Resolution{{Candidate: "Schmitd", Bucket: classify.Rejected, Method: Fuzzy, Member: "Schmidt", Distance: 2}}
	if diff := cmp.Diff(want, res.Resolutions); diff != "" {
		t.Errorf("Resolutions mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != 1 {
		t.Errorf("no member should be created, roster has %d", reg.Len())
	}
}

func TestResolve_CreatesUnknown(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Schmidt"})

	res, err := New(reg, testConfig()).Resolve([]Candidate{{Text: "Xyzzyplugh", Bucket: classify.Accepted}}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if diff := cmp.Diff([]string{"Xyzzyplugh"}, res.Created); diff != "" {
		t.Errorf("Created mismatch (-want +got):\n%s", diff)
	}
	m, ok := reg.Get("xyzzyplugh")
	if !ok {
		t.Fatal("created member not registered")
	}
	if m.Group != "Nicht zugewiesen" || m.Rank != "Anwerber" {
		t.Errorf("unexpected defaults: %+v", m)
	}
	if want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC); !m.JoinDate.Equal(want) {
		t.Errorf("JoinDate = %v, want %v", m.JoinDate, want)
	}
	if m.Lifetime.Total() != 0 || m.NoResponseCounter != 0 {
		t.Errorf("counters should start at zero: %+v", m)
	}
}

func TestResolve_ExactMatchOnAlias(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Mueller", Alias: "Panzerfaust99"})

	res, err := New(reg, testConfig()).Resolve([]Candidate{{Text: "PANZERFAUST99", Bucket: classify.Accepted}}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Resolutions[0]; got.Method != Exact || got.Member != "Mueller" {
		t.Errorf("expected exact alias match, got %+v", got)
	}
}

func TestResolve_CreatedMembersMatchLaterCandidates(t *testing.T) {
	reg := newRoster(t)

	res, err := New(reg, testConfig()).Resolve([]Candidate{
		{Text: "Wanderer", Bucket: classify.Accepted},
		{Text: "Wandrer", Bucket: classify.Rejected},
	}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if reg.Len() != 1 {
		t.Fatalf("expected a single created member, got %d", reg.Len())
	}
	if got := res.Resolutions[1]; got.Method != Fuzzy || got.Member != "Wanderer" {
		t.Errorf("second candidate should fuzzy match the first, got %+v", got)
	}
}

func TestResolve_DuplicatesWithinBucket(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Mueller"})

	res, err := New(reg, testConfig()).Resolve([]Candidate{
		{Text: "Mueller", Bucket: classify.Accepted},
		{Text: "mueller", Bucket: classify.Accepted},
		{Text: "Mueller", Bucket: classify.Rejected},
	}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Resolutions) != 2 {
		t.Errorf("expected 2 resolutions, got %d", len(res.Resolutions))
	}
}

func TestResolve_FuzzyDisabledAndNoAutoCreate(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Schmidt"})
	cfg := testConfig()
	cfg.FuzzyEnabled = false
	cfg.AutoCreate = false

	res, err := New(reg, cfg).Resolve([]Candidate{{Text: "Schmitd"}}, testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Schmitd"}, res.Unresolved); diff != "" {
		t.Errorf("Unresolved mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != 1 {
		t.Errorf("roster should be unchanged, has %d", reg.Len())
	}
}

func TestResolve_ThresholdBoundary(t *testing.T) {
	reg := newRoster(t, roster.Member{Name: "Hartmann"})
	cfg := testConfig()

	res, _ := New(reg, cfg).Resolve([]Candidate{{Text: "Hertmenn"}}, testNow)
	if res.Resolutions[0].Method != Fuzzy {
		t.Errorf("distance 2 should match with threshold 2, got %s", res.Resolutions[0].Method)
	}

	res, _ = New(reg, cfg).Resolve([]Candidate{{Text: "Hxrtmxnx"}}, testNow)
	if res.Resolutions[0].Method != Created {
		t.Errorf("distance 3 should not match with threshold 2, got %s", res.Resolutions[0].Method)
	}
}
