package observer

import (
	"context"
	"sync"
	"time"

	"go-image-compressor/internal/compressor"

	"github.com/sirupsen/logrus"
)

// CompressionEvent represents a step of a compression run
type CompressionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RunID          string                 `json:"run_id"`
	ImageURL       string                 `json:"image_url,omitempty"`
	Algorithm      compressor.Algorithm   `json:"algorithm,omitempty"`
	Parameter      int                    `json:"parameter"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Stats          *compressor.Stats      `json:"stats,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of compression event
type EventType string

const (
	// CompressionStarted when a run begins
	CompressionStarted EventType = "compression_started"
	// CompressionCompleted when a run finishes successfully
	CompressionCompleted EventType = "compression_completed"
	// CompressionFailed when a run fails
	CompressionFailed EventType = "compression_failed"
	// ImageFetched when the source image is successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when the source image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
	// ImageStored when the reconstruction is written to storage
	ImageStored EventType = "image_stored"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event CompressionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event CompressionEvent)
}

// LoggingObserver logs compression events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles compression events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event CompressionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"run_id":     event.RunID,
		"success":    event.Success,
	}
	if event.ImageURL != "" {
		fields["image_url"] = event.ImageURL
	}
	if event.Algorithm != "" {
		fields["algorithm"] = event.Algorithm
		fields["parameter"] = event.Parameter
	}
	if event.ProcessingTime > 0 {
		fields["elapsed_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.Stats != nil {
		fields["dims"] = event.Stats.Dims.String()
		fields["efficiency"] = event.Stats.Efficiency
		fields["accuracy"] = event.Stats.Accuracy
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case CompressionStarted:
		entry.Info("Compression started")
	case CompressionCompleted:
		entry.Info("Compression completed")
	case CompressionFailed:
		entry.Error("Compression failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case ImageStored:
		entry.Debug("Reconstruction stored")
	default:
		entry.Info("Compression event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface. Observers are notified
// on their own goroutines; Wait blocks until every dispatched event has
// been handled.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event CompressionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	p.pending.Add(len(observers))
	for _, observer := range observers {
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until all notified observers have returned
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
