package observer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-image-compressor/internal/channel"
	"go-image-compressor/internal/compressor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []CompressionEvent
}

func (o *recordingObserver) OnEvent(_ context.Context, event CompressionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string { return o.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, CompressionEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string { return "panicking" }

func TestEventPublisher_NotifyObservers(t *testing.T) {
	publisher := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}
	publisher.Subscribe(first)
	publisher.Subscribe(second)
	publisher.Subscribe(panickingObserver{})

	publisher.NotifyObservers(context.Background(), CompressionEvent{EventType: CompressionStarted, RunID: "r1"})
	publisher.Wait()

	for _, obs := range []*recordingObserver{first, second} {
		if len(obs.events) != 1 {
			t.Fatalf("Expected 1 event for %s, got %d", obs.name, len(obs.events))
		}
		if obs.events[0].RunID != "r1" {
			t.Errorf("Expected run r1, got %s", obs.events[0].RunID)
		}
		if obs.events[0].Timestamp.IsZero() {
			t.Error("Expected timestamp to be filled in")
		}
	}

	publisher.Unsubscribe(first)
	publisher.NotifyObservers(context.Background(), CompressionEvent{EventType: CompressionCompleted})
	publisher.Wait()

	if len(first.events) != 1 {
		t.Errorf("Expected unsubscribed observer to receive no more events, got %d", len(first.events))
	}
	if len(second.events) != 2 {
		t.Errorf("Expected 2 events for second, got %d", len(second.events))
	}
}

func TestLoggingObserver_OnEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	stats := compressor.Stats{Algorithm: compressor.AlgorithmSVD, Parameter: 2, Dims: channel.Dims{Rows: 8, Cols: 8}, Efficiency: 79.6875, Accuracy: 90}
	NewLoggingObserver(logger).OnEvent(context.Background(), CompressionEvent{
		EventType:      CompressionCompleted,
		RunID:          "r2",
		Algorithm:      compressor.AlgorithmSVD,
		Parameter:      2,
		ProcessingTime: 15 * time.Millisecond,
		Success:        true,
		Stats:          &stats,
	})

	out := buf.String()
	for _, want := range []string{`"run_id":"r2"`, `"algorithm":"svd"`, `"dims":"8x8"`, `"elapsed_ms":15`, `"efficiency":79.6875`, "Compression completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %s, got %s", want, out)
		}
	}
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewMetricsObserver(NewMetrics(reg))
	ctx := context.Background()

	obs.OnEvent(ctx, CompressionEvent{EventType: CompressionStarted, Algorithm: compressor.AlgorithmDCT})
	obs.OnEvent(ctx, CompressionEvent{EventType: CompressionCompleted, Algorithm: compressor.AlgorithmDCT, ProcessingTime: 2 * time.Second})
	obs.OnEvent(ctx, CompressionEvent{EventType: CompressionStarted, Algorithm: compressor.AlgorithmSVD})
	obs.OnEvent(ctx, CompressionEvent{EventType: CompressionFailed, Algorithm: compressor.AlgorithmSVD})
	obs.OnEvent(ctx, CompressionEvent{EventType: ImageFetchFailed})
	obs.ReportStats(ctx, compressor.Stats{Algorithm: compressor.AlgorithmDCT, Dims: channel.Dims{Rows: 8, Cols: 8}, Efficiency: 15.625, Accuracy: 80})

	m := obs.metrics
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("dct", "success")); got != 1 {
		t.Errorf("Expected 1 successful dct run, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("svd", "error")); got != 1 {
		t.Errorf("Expected 1 failed svd run, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchFailures); got != 1 {
		t.Errorf("Expected 1 fetch failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.Efficiency.WithLabelValues("dct")); got != 15.625 {
		t.Errorf("Expected efficiency 15.625, got %v", got)
	}
	if got := testutil.ToFloat64(m.PixelsCompressed.WithLabelValues("dct")); got != 64 {
		t.Errorf("Expected 64 pixels, got %v", got)
	}

	totals := obs.GetMetrics()
	if totals["total_runs"] != int64(2) || totals["successful_runs"] != int64(1) || totals["failed_runs"] != int64(1) {
		t.Errorf("Unexpected totals: %v", totals)
	}
	if totals["avg_processing_time"] != 2*time.Second {
		t.Errorf("Expected avg 2s, got %v", totals["avg_processing_time"])
	}
}

func TestMetricsObserver_IsStatsReporter(t *testing.T) {
	var _ compressor.StatsReporter = NewMetricsObserver(NewMetrics(prometheus.NewRegistry()))
}
