package settle

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	passesTotal     *prometheus.CounterVec
	campaignsSeen   prometheus.Counter
	actionsTotal    *prometheus.CounterVec
	anomaliesTotal  prometheus.Counter
	lastPassSeconds prometheus.Gauge
}

func NewMetrics() *Metrics {
	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kolrails_poll_passes_total",
		Help: "Completed poll passes by result",
	}, []string{"result"})

	seen := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kolrails_campaigns_evaluated_total",
		Help: "Campaign snapshots evaluated",
	})

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kolrails_actions_total",
		Help: "Settlement actions executed by kind and result",
	}, []string{"action", "result"})

	anomalies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kolrails_anomalies_total",
		Help: "Partially executed actions requiring manual reconciliation",
	})

	lastPass := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kolrails_last_pass_duration_seconds",
		Help: "Duration of the most recent poll pass",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(passes, seen, actions, anomalies, lastPass)

	return &Metrics{
		registry:        r,
		passesTotal:     passes,
		campaignsSeen:   seen,
		actionsTotal:    actions,
		anomaliesTotal:  anomalies,
		lastPassSeconds: lastPass,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) incPass(result string) {
	m.passesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) incCampaign() {
	m.campaignsSeen.Inc()
}

func (m *Metrics) incAction(action, result string) {
	m.actionsTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) incAnomaly() {
	m.anomaliesTotal.Inc()
}

func (m *Metrics) setPassDuration(seconds float64) {
	m.lastPassSeconds.Set(seconds)
}
