package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generations by outcome: success|degraded|insufficient|invalid|failed|storage
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Generation requests by outcome",
		},
		[]string{"outcome"},
	)

	// Refund writes after a failed generation: ok|failed
	RefundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Compensating refunds by result",
		},
		[]string{"result"},
	)

	LedgerMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Applied ledger mutations",
		},
		[]string{"kind"}, // debit|refund|purchase|grant
	)

	// Webhook deliveries: credited|duplicate|ignored|invalid_signature|malformed|error
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current notification queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(GenerationsTotal)
	prometheus.MustRegister(RefundsTotal)
	prometheus.MustRegister(LedgerMutationsTotal)
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(WorkerQueueDepth)
}
