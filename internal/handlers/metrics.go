package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	log "github.com/sirupsen/logrus"
)

const (
	PredictionTotalMetrics        = "waste_prediction_total"
	PredictionFailureTotalMetrics = "waste_prediction_failure_total"
)

// Recorder receives one call per /predict outcome.
type Recorder interface {
	PredictionServed(category string)
	PredictionFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) PredictionServed(string) {}
func (nopRecorder) PredictionFailed(string) {}

var registerOnce sync.Once

type Metrics struct {
	monitor *ginmetrics.Monitor
}

// RegisterMetrics serves /metrics on r and adds the prediction counters.
// The monitor is process-wide, so the counters are only added once.
func RegisterMetrics(r *gin.Engine) *Metrics {
	monitor := ginmetrics.GetMonitor()
	registerOnce.Do(func() {
		monitor.SetMetricPath("/metrics")
		addPredictionMetrics(monitor)
	})
	monitor.Use(r)
	return &Metrics{monitor: monitor}
}

func addPredictionMetrics(monitor *ginmetrics.Monitor) {
	for _, metric := range []*ginmetrics.Metric{
		{
			Type:        ginmetrics.Counter,
			Name:        PredictionTotalMetrics,
			Description: "predictions served, by waste category.",
			Labels:      []string{"category"},
		},
		{
			Type:        ginmetrics.Counter,
			Name:        PredictionFailureTotalMetrics,
			Description: "prediction requests that failed, by error kind.",
			Labels:      []string{"kind"},
		},
	} {
		if err := monitor.AddMetric(metric); err != nil {
			log.WithError(err).WithField("metric", metric.Name).Warn("metric not added")
		}
	}
}

func (m *Metrics) PredictionServed(category string) {
	m.inc(PredictionTotalMetrics, category)
}

func (m *Metrics) PredictionFailed(kind string) {
	m.inc(PredictionFailureTotalMetrics, kind)
}

func (m *Metrics) inc(name, label string) {
	if err := m.monitor.GetMetric(name).Inc([]string{label}); err != nil {
		log.WithError(err).WithField("metric", name).Warn("failed to update metric")
	}
}
