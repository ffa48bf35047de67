package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvd_engine_writes_total",
		Help: "Committed writes by outcome (create, amend, supersede, tombstone) plus rejections.",
	}, []string{"outcome"})

	conflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvd_engine_write_conflict_retries_total",
		Help: "Write attempts that lost the expected-head check and were retried or surfaced.",
	})

	resolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvd_engine_resolves_total",
		Help: "Effective-date resolutions by result (current, revision, not_found).",
	}, []string{"result"})
)

const (
	outcomeCreate    = "create"
	outcomeAmend     = "amend"
	outcomeSupersede = "supersede"
	outcomeTombstone = "tombstone"
	outcomeRejected  = "rejected"
	outcomeConflict  = "conflict"

	resultCurrent  = "current"
	resultRevision = "revision"
	resultNotFound = "not_found"
)
