package repository

import (
	"context"
	"image"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/storage"
	"go-image-compressor/pkg/validation"
)

// HTTPImageRepository implements ImageRepository using an image fetcher
type HTTPImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewHTTPImageRepository creates a new fetcher-backed image repository.
// A nil validator accepts any http or https URL.
func NewHTTPImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) *HTTPImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &HTTPImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates the URL and retrieves the image
func (r *HTTPImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// FetchChannels retrieves the image as three 8-bit color channels
func (r *HTTPImageRepository) FetchChannels(ctx context.Context, imageURL string) (channel.Image, error) {
	img, err := r.FetchImage(ctx, imageURL)
	if err != nil {
		return channel.Image{}, err
	}
	return channel.Split(img)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *HTTPImageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return apperrors.NewValidationError(ErrInvalidImageURL.Error(), err)
	}
	return nil
}
