package repository

import (
	"context"
	"image"
	"time"

	"go-image-compressor/internal/channel"
	"go-image-compressor/pkg/models"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// FetchChannels retrieves an image and splits it into color channels
	FetchChannels(ctx context.Context, imageURL string) (channel.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// ResultRepository keeps the outcome of recent compression runs
type ResultRepository interface {
	SaveResult(ctx context.Context, result *ResultRecord) error
	GetResult(ctx context.Context, runID string) (*ResultRecord, error)

	// GetResultHistory returns the runs for an image URL, newest first
	GetResultHistory(ctx context.Context, imageURL string) ([]*ResultRecord, error)
}

// ResultRecord is a stored compression run
type ResultRecord struct {
	RunID     string                  `json:"run_id"`
	ImageURL  string                  `json:"image_url"`
	CreatedAt time.Time               `json:"created_at"`
	Stats     models.CompressionStats `json:"stats"`
	Location  string                  `json:"location,omitempty"`
}
