package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	AccountCreationsTotal *prometheus.CounterVec
	AccountsMaturedTotal  prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "account_service_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		AccountCreationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_account_creations_total",
				Help: "Total number of account creation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		AccountsMaturedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "account_service_fixed_term_accounts_matured_total",
				Help: "Total number of fixed term accounts that reached their withdrawal date.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordAccountCreation(outcome string) {
	Business.AccountCreationsTotal.WithLabelValues(outcome).Inc()
}

func RecordAccountMatured() {
	Business.AccountsMaturedTotal.Inc()
}
