package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the relay's collectors. Each instance registers on its own registry
// so tests and multiple servers do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	buildInfo           *prometheus.GaugeVec
	generations         *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	generatedHTMLLength prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagegen_build_info",
				Help: "Build information for the pagegen relay",
			},
			[]string{"version", "commit", "date"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegen_generations_total",
				Help: "Landing page generation requests by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagegen_generation_duration_seconds",
				Help:    "Time spent relaying a generation request, upstream call included",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"outcome"},
		),
		generatedHTMLLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagegen_generated_html_bytes",
				Help:    "Size of generated markup returned to callers",
				Buckets: prometheus.ExponentialBuckets(256, 2, 10),
			},
		),
	}
	m.Registry.MustRegister(m.buildInfo, m.generations, m.generationDuration, m.generatedHTMLLength)
	return m
}

func (m *Metrics) SetBuildInfo(version, commit, date string) {
	m.buildInfo.WithLabelValues(version, commit, date).Set(1)
}

// ObserveGeneration records one relayed request. outcome is "ok" or a failure kind.
func (m *Metrics) ObserveGeneration(outcome string, took time.Duration, htmlLen int) {
	m.generations.WithLabelValues(outcome).Inc()
	m.generationDuration.WithLabelValues(outcome).Observe(took.Seconds())
	if outcome == OutcomeOK {
		m.generatedHTMLLength.Observe(float64(htmlLen))
	}
}

const OutcomeOK = "ok"
