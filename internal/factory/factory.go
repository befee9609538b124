package factory

import (
	"fmt"
	"time"

	"go-image-compressor/internal/compressor"
	"go-image-compressor/internal/config"
	"go-image-compressor/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// NoStorage disables persisting reconstructions
	NoStorage StorageType = config.StorageNone
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = config.StorageAzure
	// LocalStorage for local file system
	LocalStorage StorageType = config.StorageLocal
)

// CompressorFactory creates compressors and pipelines sharing one worker pool
type CompressorFactory interface {
	CreateCompressor(cfg compressor.Config) (compressor.Compressor, error)
	CreatePipeline() *compressor.Pipeline
	Close()
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateFetcher(storageType StorageType) (storage.ImageFetcher, error)

	// CreateStore returns a nil store for NoStorage
	CreateStore(storageType StorageType) (storage.ImageStore, error)
}

// compressorFactory implements CompressorFactory
type compressorFactory struct {
	pool *compressor.WorkerPool
}

// NewCompressorFactory creates a factory whose DCT compressors share a pool
// of workers goroutines; 0 selects one per CPU.
func NewCompressorFactory(workers int) CompressorFactory {
	pool := compressor.NewWorkerPool(workers)
	pool.Start()
	return &compressorFactory{pool: pool}
}

// CreateCompressor creates the compressor selected by cfg
func (f *compressorFactory) CreateCompressor(cfg compressor.Config) (compressor.Compressor, error) {
	return compressor.ForConfig(cfg, f.pool)
}

// CreatePipeline creates a pipeline backed by the shared pool
func (f *compressorFactory) CreatePipeline() *compressor.Pipeline {
	return compressor.NewPipeline(f.pool)
}

// Close stops the shared workers
func (f *compressorFactory) Close() {
	f.pool.Close()
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg          config.StorageConfig
	fetchTimeout time.Duration
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg config.StorageConfig, fetchTimeout time.Duration) StorageFactory {
	return &storageFactory{cfg: cfg, fetchTimeout: fetchTimeout}
}

// CreateFetcher creates an image fetcher based on the specified type
func (f *storageFactory) CreateFetcher(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.fetchTimeout), nil
	case AzureStorage:
		store, err := f.azure()
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", storageType)
	}
}

// CreateStore creates an image store based on the specified type
func (f *storageFactory) CreateStore(storageType StorageType) (storage.ImageStore, error) {
	switch storageType {
	case NoStorage, "":
		return nil, nil
	case LocalStorage:
		store, err := storage.NewLocalImageStore(f.cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case AzureStorage:
		store, err := f.azure()
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) azure() (*storage.AzureImageStore, error) {
	return storage.NewAzureImageStore(f.cfg.AzureAccount, f.cfg.AzureKey, f.cfg.AzureContainer)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	CompressorFactory CompressorFactory
	StorageFactory    StorageFactory
}

// NewComponentFactory creates a new component factory from the loaded configuration
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		CompressorFactory: NewCompressorFactory(cfg.Workers),
		StorageFactory:    NewStorageFactory(cfg.Storage, cfg.ImageFetchTimeout),
	}
}
