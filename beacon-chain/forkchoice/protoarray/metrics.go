package protoarray

import (
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus"
)

// Package-level counters, matching AgentJ-WR-prysm/store.go's
// calledHeadCount/processedAttestationCount pattern: registered once at
// init, incremented from inside the operations they describe.
var (
	calledHeadCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fork_choice_head_requested_total",
		Help: "Number of times FindHead has been called on the proto-array store.",
	})

	processedAttestationCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fork_choice_processed_attestations_total",
		Help: "Number of validator attestations passed to ProcessAttestation, including older ones that were dropped.",
	})

	arenaLiveNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fork_choice_arena_live_nodes",
		Help: "Number of nodes currently live in the proto-array arena.",
	})
)
