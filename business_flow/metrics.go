package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transaction rows written by ingestion, after in-file de-duplication
	transactionsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_transactions_upserted_total",
			Help: "Total number of transaction rows upserted from spreadsheets",
		},
	)

	// Transaction rows dropped because their terminal is not a known client
	transactionsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_transactions_skipped_unknown_terminal_total",
			Help: "Total number of transaction rows skipped for unknown terminals",
		},
	)

	// Client import outcomes partitioned by result (inserted, skipped)
	clientsImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_clients_imported_total",
			Help: "Total number of client rows processed by spreadsheet imports",
		},
		[]string{"result"},
	)

	// Report build time partitioned by report kind
	reportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_report_duration_seconds",
			Help:    "Time spent building reports",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"},
	)
)
