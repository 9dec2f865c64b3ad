package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	CandidatesTotal.WithLabelValues("exact").Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "roster_reconciliation_candidates_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected candidates_total to be gathered")
	}

	if err := Register(registry); err == nil {
		t.Error("expected error registering twice")
	}
}
