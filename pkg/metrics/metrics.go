package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline counters. They are pushed from the batch loop
// rather than collected at scrape time, so plain counter vecs suffice.
type Metrics struct {
	ClaimsTotal      *prometheus.CounterVec
	TransfersTotal   *prometheus.CounterVec
	RefreshesTotal   prometheus.Counter
	CyclesTotal      *prometheus.CounterVec
	BatchesTotal     prometheus.Counter
	CycleDuration    prometheus.Histogram
	AmountSweptTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ClaimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "claims_total",
			Help:      "Faucet claim outcomes by result",
		}, []string{"result"}),
		TransfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "transfers_total",
			Help:      "Sweep transfer outcomes by result",
		}, []string{"result"}),
		RefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "token_refreshes_total",
			Help:      "Successful access-token refreshes",
		}),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "account_cycles_total",
			Help:      "Completed account cycles by outcome",
		}, []string{"outcome"}),
		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "batches_total",
			Help:      "Completed batch passes over the account set",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mozi",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one account cycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		AmountSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mozi",
			Name:      "amount_swept_total",
			Help:      "Total display-unit amount swept to the receiver",
		}),
	}
}

// Register registers every metric on reg.
func (m *Metrics) Register(reg *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.ClaimsTotal,
		m.TransfersTotal,
		m.RefreshesTotal,
		m.CyclesTotal,
		m.BatchesTotal,
		m.CycleDuration,
		m.AmountSweptTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
