package storage

import (
	"context"
	"image"
)

// ImageFetcher downloads and decodes an image from a URL
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

// ImageStore persists reconstructed images under a name and reads them back
type ImageStore interface {
	// SaveImage writes img and returns where it was stored
	SaveImage(ctx context.Context, name string, img image.Image) (string, error)
	LoadImage(ctx context.Context, name string) (image.Image, error)
}
