package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

func testRoster(t *testing.T, names ...string) *roster.Roster {
	t.Helper()
	reg := roster.New()
	for _, n := range names {
		if err := reg.Add(&roster.Member{Name: n}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	return reg
}

func TestAssemble(t *testing.T) {
	reg := testRoster(t, "Mueller", "Schmidt", "Krause", "Neu")

	s := Assemble(reg, []resolve.Resolution{
		{Candidate: "Mueller", Bucket: classify.Accepted, Method: resolve.Exact, Member: "Mueller"},
		{Candidate: "Schmitd", Bucket: classify.Rejected, Method: resolve.Fuzzy, Member: "Schmidt"},
		{Candidate: "Neu", Bucket: classify.Unclassified, Method: resolve.Created, Member: "Neu"},
		{Candidate: "Ghost", Bucket: classify.Accepted, Method: resolve.Unresolved},
	})

	want := []Entry{
		{Member: "Mueller", Status: roster.Confirmed},
		{Member: "Schmidt", Status: roster.Declined},
		{Member: "Krause", Status: roster.NoResponse},
		{Member: "Neu", Status: roster.NoResponse},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_RejectedWinsOverAccepted(t *testing.T) {
	reg := testRoster(t, "Mueller")

	s := Assemble(reg, []resolve.Resolution{
		{Bucket: classify.Rejected, Member: "Mueller"},
		{Bucket: classify.Accepted, Member: "Mueller"},
	})

	if st, _ := s.Status("mueller"); st != roster.Declined {
		t.Errorf("Status = %s, want Declined", st)
	}
}

func TestManualOverrides(t *testing.T) {
	reg := testRoster(t, "Mueller", "Schmidt", "Krause")
	s := Assemble(reg, nil)

	s.MarkConfirmed("schmidt")
	s.MarkDeclined("Krause")
	if !s.Remove("MUELLER") {
		t.Fatal("Remove() should report an existing entry")
	}
	if s.Remove("Mueller") {
		t.Error("second Remove() should report nothing removed")
	}

	if _, ok := s.Status("Mueller"); ok {
		t.Error("removed member must not stay in the session")
	}
	if diff := cmp.Diff([]string{"Schmidt"}, s.Names(roster.Confirmed)); diff != "" {
		t.Errorf("Confirmed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Krause"}, s.Names(roster.Declined)); diff != "" {
		t.Errorf("Declined mismatch (-want +got):\n%s", diff)
	}
	if len(s.Names(roster.NoResponse)) != 0 {
		t.Errorf("expected no NoResponse entries, got %v", s.Names(roster.NoResponse))
	}

	s.MarkNoResponse("Mueller")
	counts := s.Counts()
	if counts[roster.NoResponse] != 1 || counts[roster.Confirmed] != 1 || counts[roster.Declined] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}
