package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_written_total",
		Help: "Persisted order aggregates by operation.",
	}, []string{"op"})

	MovementsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_movements_total",
		Help: "Inventory movements written to the ledger by kind.",
	}, []string{"kind"})

	WriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_write_failures_total",
		Help: "Write operations that ended in rollback.",
	}, []string{"op"})
)
