package transfers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transfersCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fishfarm_transfers_committed_total",
		Help: "Transfers applied to the ledger.",
	})
	transfersReverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fishfarm_transfers_reverted_total",
		Help: "Transfers rolled back by an exact revert.",
	})
	transfersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fishfarm_transfers_rejected_total",
		Help: "Transfer attempts rejected by validation or business rules.",
	})
)
