package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TrainingRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "darkzones_training_runs_total",
		Help: "Total number of completed training runs",
	})
	TrainingDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "darkzones_training_duration_seconds",
		Help:    "Time to fit one litter category model",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
	}, []string{"litter"})
	ModelScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "darkzones_model_d2_score",
		Help: "Held-out deviance D2 score of the latest model per litter category",
	}, []string{"litter"})
	DarkZoneRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "darkzones_rows_generated_total",
		Help: "Total number of dark-zone rows generated for prediction",
	})
	FeedFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "darkzones_feed_failures_total",
		Help: "Pipeline runs aborted by an external feed failure",
	}, []string{"stage"})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "darkzones_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(TrainingRunsTotal)
	prometheus.MustRegister(TrainingDurationSeconds)
	prometheus.MustRegister(ModelScore)
	prometheus.MustRegister(DarkZoneRowsTotal)
	prometheus.MustRegister(FeedFailuresTotal)
	prometheus.MustRegister(RequestsTotal)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
