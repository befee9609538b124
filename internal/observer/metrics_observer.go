package observer

import (
	"context"
	"sync"
	"time"

	"go-image-compressor/internal/compressor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of the compression service
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	FetchFailures    prometheus.Counter
	StoredImages     prometheus.Counter
	Efficiency       *prometheus.GaugeVec
	Accuracy         *prometheus.HistogramVec
	PixelsCompressed *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RunsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_compressor_runs_total",
				Help: "Total number of compression runs",
			},
			[]string{"algorithm", "status"}, // status: success/error
		),
		RunDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "image_compressor_run_duration_seconds",
				Help:    "Duration of successful compression runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"algorithm"},
		),
		FetchFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "image_compressor_fetch_failures_total",
				Help: "Number of source images that could not be fetched",
			},
		),
		StoredImages: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "image_compressor_stored_images_total",
				Help: "Number of reconstructions written to storage",
			},
		),
		Efficiency: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "image_compressor_last_efficiency_percent",
				Help: "Storage efficiency of the last run",
			},
			[]string{"algorithm"},
		),
		Accuracy: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "image_compressor_accuracy_percent",
				Help:    "Accuracy of reconstructions",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"algorithm"},
		),
		PixelsCompressed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_compressor_pixels_total",
				Help: "Pixels processed per algorithm",
			},
			[]string{"algorithm"},
		),
	}
}

// MetricsObserver records compression events and reported stats as
// Prometheus metrics, and keeps running totals for the health endpoint.
type MetricsObserver struct {
	metrics *Metrics

	mu                  sync.RWMutex
	totalRuns           int64
	successfulRuns      int64
	failedRuns          int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver(metrics *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: metrics}
}

// OnEvent handles compression events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event CompressionEvent) {
	alg := string(event.Algorithm)

	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case CompressionStarted:
		o.totalRuns++
	case CompressionCompleted:
		o.successfulRuns++
		o.totalProcessingTime += event.ProcessingTime
		o.metrics.RunsTotal.WithLabelValues(alg, "success").Inc()
		o.metrics.RunDuration.WithLabelValues(alg).Observe(event.ProcessingTime.Seconds())
	case CompressionFailed:
		o.failedRuns++
		o.metrics.RunsTotal.WithLabelValues(alg, "error").Inc()
	case ImageFetchFailed:
		o.metrics.FetchFailures.Inc()
	case ImageStored:
		o.metrics.StoredImages.Inc()
	}
}

// ReportStats records the metrics of a finished run
func (o *MetricsObserver) ReportStats(_ context.Context, stats compressor.Stats) {
	alg := string(stats.Algorithm)
	o.metrics.Efficiency.WithLabelValues(alg).Set(stats.Efficiency)
	o.metrics.Accuracy.WithLabelValues(alg).Observe(stats.Accuracy)
	o.metrics.PixelsCompressed.WithLabelValues(alg).Add(float64(stats.Dims.Area()))
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulRuns > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulRuns)
	}

	return map[string]interface{}{
		"total_runs":            o.totalRuns,
		"successful_runs":       o.successfulRuns,
		"failed_runs":           o.failedRuns,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}
