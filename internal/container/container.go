package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-image-compressor/internal/config"
	"go-image-compressor/internal/factory"
	"go-image-compressor/internal/logger"
	"go-image-compressor/internal/observer"
	"go-image-compressor/internal/repository"
	"go-image-compressor/internal/service"
	"go-image-compressor/internal/storage"
	"go-image-compressor/internal/transport"
	"go-image-compressor/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// resultHistory bounds the in-memory run history
const resultHistory = 1000

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	components         *factory.ComponentFactory
	imageStore         storage.ImageStore
	publisher          *observer.EventPublisher
	metrics            *observer.MetricsObserver
	registry           *prometheus.Registry
	compressionService service.CompressionService
	handler            http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	imageFetcher, err := components.StorageFactory.CreateFetcher(factory.HTTPStorage)
	if err != nil {
		components.CompressorFactory.Close()
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}

	imageStore, err := components.StorageFactory.CreateStore(factory.StorageType(cfg.Storage.Type))
	if err != nil {
		components.CompressorFactory.Close()
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}
	if azureStore, ok := imageStore.(*storage.AzureImageStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ImageFetchTimeout)
		err := azureStore.EnsureContainer(ctx)
		cancel()
		if err != nil {
			components.CompressorFactory.Close()
			return nil, fmt.Errorf("failed to prepare blob container: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observer.NewMetricsObserver(observer.NewMetrics(registry))

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	defaults := cfg.Compression()
	compressionService := service.NewCompressionService(service.Dependencies{
		Images:    repository.NewHTTPImageRepository(imageFetcher, validation.NewURLValidator()),
		Results:   repository.NewMemoryResultRepository(resultHistory),
		Pipeline:  components.CompressorFactory.CreatePipeline(),
		Store:     imageStore,
		Publisher: publisher,
		Reporter:  metrics,
		Validator: validation.NewCompressionValidator(nil).WithDefaultAlgorithm(defaults.Algorithm),
		Defaults:  defaults,
	})

	handler := transport.NewHandler(compressionService, cfg, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.WithFields(logrus.Fields{
		"algorithm": defaults.Algorithm,
		"parameter": defaults.Parameter,
		"storage":   cfg.Storage.Type,
		"workers":   cfg.Workers,
	}).Info("Container initialized")

	return &Container{
		config:             cfg,
		components:         components,
		imageStore:         imageStore,
		publisher:          publisher,
		metrics:            metrics,
		registry:           registry,
		compressionService: compressionService,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// CompressionService returns the compression service
func (c *Container) CompressionService() service.CompressionService {
	return c.compressionService
}

// Metrics returns the run counters collected so far
func (c *Container) Metrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}

// Close waits up to timeout for pending events and stops the worker pool
func (c *Container) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.publisher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("Timed out waiting for pending events")
	}
	c.components.CompressorFactory.Close()
}
