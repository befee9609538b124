package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"go-image-compressor/internal/channel"
	"go-image-compressor/internal/compressor"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/observer"
	"go-image-compressor/internal/preview"
	"go-image-compressor/internal/repository"
	"go-image-compressor/internal/storage"
	"go-image-compressor/pkg/models"
	"go-image-compressor/pkg/validation"

	"github.com/google/uuid"
)

// CompressionService defines the compression use cases of the API and CLI
type CompressionService interface {
	// Compress fetches the image, reconstructs it and optionally stores the result
	Compress(ctx context.Context, req models.CompressRequest) (*CompressionOutcome, error)

	// IsolateComponent extracts one SVD term of every channel
	IsolateComponent(ctx context.Context, req models.ComponentRequest) (*ComponentOutcome, error)

	// GetResult returns a previous run
	GetResult(ctx context.Context, runID string) (*repository.ResultRecord, error)

	ValidateImageURL(imageURL string) error
}

// CompressionOutcome is the response together with the reconstructed image
type CompressionOutcome struct {
	Response *models.CompressResponse
	Image    image.Image
}

// ComponentOutcome is the response together with the isolated term as an image
type ComponentOutcome struct {
	Response *models.ComponentResponse
	Image    image.Image
}

// Dependencies of the compression service. Store, Results, Publisher and
// Reporter are optional.
type Dependencies struct {
	Images    repository.ImageRepository
	Results   repository.ResultRepository
	Pipeline  *compressor.Pipeline
	Store     storage.ImageStore
	Publisher observer.Subject
	Reporter  compressor.StatsReporter
	Validator *validation.CompressionValidator
	Defaults  compressor.Config
}

// compressionService implements CompressionService
type compressionService struct {
	deps Dependencies
}

// NewCompressionService creates a new compression service
func NewCompressionService(deps Dependencies) CompressionService {
	if deps.Defaults.Algorithm == "" {
		deps.Defaults = compressor.DefaultConfig()
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewCompressionValidator(nil).WithDefaultAlgorithm(deps.Defaults.Algorithm)
	}
	if deps.Pipeline == nil {
		deps.Pipeline = compressor.NewPipeline(nil)
	}
	return &compressionService{deps: deps}
}

// Compress runs one compression of the image at req.URL
func (s *compressionService) Compress(ctx context.Context, req models.CompressRequest) (*CompressionOutcome, error) {
	if err := s.deps.Validator.ValidateCompressRequest(&req); err != nil {
		return nil, err
	}
	if req.Store && s.deps.Store == nil {
		return nil, apperrors.NewValidationError("storage is not configured", nil)
	}

	cfg := s.configFor(req)
	runID := uuid.NewString()
	start := time.Now()

	s.publish(ctx, observer.CompressionEvent{
		EventType: observer.CompressionStarted,
		RunID:     runID,
		ImageURL:  req.URL,
		Algorithm: cfg.Algorithm,
		Parameter: cfg.Parameter,
	})

	src := &urlSource{service: s, runID: runID, imageURL: req.URL}
	var sink *storeSink
	var imageSink compressor.ImageSink
	if req.Store {
		sink = &storeSink{service: s, runID: runID, name: runID}
		imageSink = sink
	}

	result, err := s.deps.Pipeline.Run(ctx, src, cfg, imageSink, s.deps.Reporter)
	if err != nil {
		s.publish(ctx, observer.CompressionEvent{
			EventType:      observer.CompressionFailed,
			RunID:          runID,
			ImageURL:       req.URL,
			Algorithm:      cfg.Algorithm,
			Parameter:      cfg.Parameter,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	elapsed := time.Since(start)
	stats := result.Stats
	s.publish(ctx, observer.CompressionEvent{
		EventType:      observer.CompressionCompleted,
		RunID:          runID,
		ImageURL:       req.URL,
		Algorithm:      cfg.Algorithm,
		Parameter:      cfg.Parameter,
		ProcessingTime: elapsed,
		Success:        true,
		Stats:          &stats,
	})

	resp := &models.CompressResponse{
		RunID:             runID,
		ImageURL:          req.URL,
		Timestamp:         start.UTC(),
		ProcessingTimeSec: elapsed.Seconds(),
		Stats:             ToModelStats(stats),
		Channels:          toChannelStats(result),
	}
	if sink != nil {
		resp.Location = sink.location
	}

	if s.deps.Results != nil {
		record := &repository.ResultRecord{
			RunID:     runID,
			ImageURL:  req.URL,
			CreatedAt: resp.Timestamp,
			Stats:     resp.Stats,
			Location:  resp.Location,
		}
		if err := s.deps.Results.SaveResult(ctx, record); err != nil {
			return nil, err
		}
	}

	return &CompressionOutcome{Response: resp, Image: result.Image.ToRGBA()}, nil
}

// IsolateComponent extracts term req.Rank of every channel
func (s *compressionService) IsolateComponent(ctx context.Context, req models.ComponentRequest) (*ComponentOutcome, error) {
	if err := s.deps.Validator.ValidateComponentRequest(&req); err != nil {
		return nil, err
	}
	if req.Store && s.deps.Store == nil {
		return nil, apperrors.NewValidationError("storage is not configured", nil)
	}

	runID := uuid.NewString()
	img, err := (&urlSource{service: s, runID: runID, imageURL: req.URL}).LoadImage(ctx)
	if err != nil {
		return nil, err
	}

	comp, err := compressor.NewSVDCompressor().IsolateImage(img, req.Rank)
	if err != nil {
		return nil, err
	}

	dims := img.Dims()
	resp := &models.ComponentResponse{
		RunID:    runID,
		ImageURL: req.URL,
		Rank:     req.Rank,
		Rows:     dims.Rows,
		Cols:     dims.Cols,
		Values:   comp.Values[:],
	}
	out := comp.Image()
	if req.Store {
		sink := &storeSink{service: s, runID: runID, name: fmt.Sprintf("%s-component-%d", runID, req.Rank)}
		if err := sink.StoreImage(ctx, out); err != nil {
			return nil, err
		}
		resp.Location = sink.location
	}
	return &ComponentOutcome{Response: resp, Image: out.ToRGBA()}, nil
}

// GetResult returns a stored run
func (s *compressionService) GetResult(ctx context.Context, runID string) (*repository.ResultRecord, error) {
	if s.deps.Results == nil {
		return nil, apperrors.NewNotFoundError(repository.ErrResultNotFound.Error(), repository.ErrResultNotFound)
	}
	return s.deps.Results.GetResult(ctx, runID)
}

// ValidateImageURL validates the image URL
func (s *compressionService) ValidateImageURL(imageURL string) error {
	return s.deps.Images.ValidateImageURL(imageURL)
}

// configFor merges the request options over the service defaults
func (s *compressionService) configFor(req models.CompressRequest) compressor.Config {
	cfg := s.deps.Defaults
	if req.Algorithm != "" {
		// already validated
		cfg.Algorithm, _ = compressor.ParseAlgorithm(req.Algorithm)
	}
	if req.Parameter != nil {
		cfg.Parameter = *req.Parameter
	}
	if req.Retention != "" {
		cfg.Retention = req.Retention
	}
	if req.Remainder != "" {
		cfg.Remainder, _ = compressor.ParseRemainderPolicy(req.Remainder)
	}
	return cfg
}

func (s *compressionService) publish(ctx context.Context, event observer.CompressionEvent) {
	if s.deps.Publisher != nil {
		s.deps.Publisher.NotifyObservers(ctx, event)
	}
}

// ToModelStats converts pipeline stats to the response model
func ToModelStats(stats compressor.Stats) models.CompressionStats {
	return models.CompressionStats{
		Algorithm:  string(stats.Algorithm),
		Parameter:  stats.Parameter,
		Rows:       stats.Dims.Rows,
		Cols:       stats.Dims.Cols,
		Efficiency: stats.Efficiency,
		Accuracy:   stats.Accuracy,
		MSE:        stats.MSE,
		PSNR:       models.Finite(stats.PSNR),
	}
}

func toChannelStats(result *compressor.Result) []models.ChannelStats {
	out := make([]models.ChannelStats, len(result.Channels))
	for i, ch := range result.Channels {
		out[i] = models.ChannelStats{
			Index:      i,
			Efficiency: ch.Efficiency,
			Accuracy:   ch.Accuracy,
		}
	}
	return out
}

// urlSource adapts the image repository to compressor.ImageSource
type urlSource struct {
	service  *compressionService
	runID    string
	imageURL string
}

func (u *urlSource) LoadImage(ctx context.Context) (channel.Image, error) {
	img, err := u.service.deps.Images.FetchChannels(ctx, u.imageURL)
	if err != nil {
		u.service.publish(ctx, observer.CompressionEvent{
			EventType:    observer.ImageFetchFailed,
			RunID:        u.runID,
			ImageURL:     u.imageURL,
			ErrorMessage: err.Error(),
		})
		return channel.Image{}, err
	}
	u.service.publish(ctx, observer.CompressionEvent{
		EventType: observer.ImageFetched,
		RunID:     u.runID,
		ImageURL:  u.imageURL,
		Success:   true,
		Metadata:  map[string]interface{}{"dims": img.Dims().String()},
	})
	return img, nil
}

// storeSink adapts the image store to compressor.ImageSink. Small images
// are inflated for display before they are written.
type storeSink struct {
	service  *compressionService
	runID    string
	name     string
	location string
}

func (s *storeSink) StoreImage(ctx context.Context, img channel.Image) error {
	location, err := s.service.deps.Store.SaveImage(ctx, s.name, preview.ForDisplay(img.ToRGBA()))
	if err != nil {
		return err
	}
	s.location = location
	s.service.publish(ctx, observer.CompressionEvent{
		EventType: observer.ImageStored,
		RunID:     s.runID,
		Success:   true,
		Metadata:  map[string]interface{}{"location": location},
	})
	return nil
}
