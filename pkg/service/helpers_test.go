package service

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

var testDate = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func sampleRoster(t *testing.T) *roster.Roster {
	t.Helper()
	reg := roster.New()
	members := []roster.Member{
		{Name: "Mueller", Rank: "Gefreiter", Group: "Alpha", Level: 40, JoinDate: testDate.AddDate(-1, 0, 0),
			SinceLastPromotion: roster.Counters{Training: 2, Event: 1}, Lifetime: roster.Counters{Training: 5, Event: 3}},
		{Name: "Schmidt", Alias: "Schmiddy", Rank: "Anwerber", Group: "Bravo", JoinDate: testDate},
	}
	for i := range members {
		if err := reg.Add(&members[i]); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}
	}
	if err := reg.AppendLog("Mueller", roster.AttendanceLogEntry{Type: roster.Event, Date: testDate, Title: "Sturm", Map: "Carentan"}); err != nil {
		t.Fatalf("failed to append log: %v", err)
	}
	reg.EnsureMap("Carentan")
	return reg
}

func sampleSessions() []roster.Session {
	return []roster.Session{
		{ID: "b", Date: testDate, Title: "Sturm", Type: roster.Event, Confirmed: []string{"Mueller"}},
		{ID: "a", Date: testDate.AddDate(0, 0, -2), Title: "Drill", Type: roster.Training, Declined: []string{"Schmidt"}},
	}
}

func assertSnapshotsEqual(t *testing.T, want, got roster.Snapshot) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
