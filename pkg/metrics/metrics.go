// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics declares the Prometheus collectors of the reconciliation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roster_reconciliation"

var (
	// ReconciliationsTotal counts reconciliation passes by whether section headers were found.
	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Total number of reconciliation passes",
		},
		[]string{"headers"},
	)

	// CandidatesTotal counts candidates by resolution method (exact, fuzzy, created,
	// unresolved, dropped).
	CandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Total number of name candidates by outcome",
		},
		[]string{"outcome"},
	)

	// CommitEntriesTotal counts committed member entries by outcome.
	CommitEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_entries_total",
			Help:      "Total number of member entries processed by commits",
		},
		[]string{"outcome"},
	)

	// OCRFailuresTotal counts recognition tool runs that produced no text.
	OCRFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_failures_total",
			Help:      "Total number of failed recognition tool runs",
		},
	)

	// StepDuration observes the duration of each pipeline step.
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of reconciliation pipeline steps",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	// PromotionsTotal counts rank changes by direction.
	PromotionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_changes_total",
			Help:      "Total number of promotions and demotions",
		},
		[]string{"direction"},
	)
)

// Collectors lists every collector of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ReconciliationsTotal,
		CandidatesTotal,
		CommitEntriesTotal,
		OCRFailuresTotal,
		StepDuration,
		PromotionsTotal,
	}
}

// Register registers every collector with r.
func Register(r prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
