package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Adapted from AgentJ-WR-prysm/beacon-chain/blockchain/forkchoice/metrics.go,
// trimmed to the gauges this host actually feeds: the wider beacon-chain
// validator/balance/eth1 gauges that file also carries are fed by state
// transition, which is out of scope here.
var (
	beaconFinalizedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_finalized_epoch",
		Help: "Last finalized epoch reported to fork choice.",
	})

	beaconCurrentJustifiedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_current_justified_epoch",
		Help: "Current justified epoch reported to fork choice.",
	})
)
