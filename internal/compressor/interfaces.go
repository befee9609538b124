package compressor

import (
	"context"

	"go-image-compressor/internal/channel"
)

// Compressor reconstructs a single channel at a chosen fidelity level.
// Implementations are safe for concurrent use.
type Compressor interface {
	Algorithm() Algorithm

	// Validate checks a parameter against channel dimensions without
	// doing any numerical work.
	Validate(dims channel.Dims, parameter int) error

	// Compress returns the reconstructed channel. The input is never modified.
	Compress(ch channel.Channel, parameter int) (channel.Channel, error)

	// Efficiency is the storage cost of the compressed form as a
	// percentage of the raw channel.
	Efficiency(dims channel.Dims, parameter int) float64
}

// StatsCalculator computes fidelity metrics between an original image and
// its reconstruction.
type StatsCalculator interface {
	Accuracy(original, reconstructed channel.Image) (float64, error)
	ChannelAccuracy(original, reconstructed channel.Channel) (float64, error)
	MeanSquaredError(original, reconstructed channel.Image) (float64, error)
}

// ImageSource supplies the image to compress.
type ImageSource interface {
	LoadImage(ctx context.Context) (channel.Image, error)
}

// ImageSink receives the reconstructed image.
type ImageSink interface {
	StoreImage(ctx context.Context, img channel.Image) error
}

// StatsReporter receives the metrics of a compression run.
type StatsReporter interface {
	ReportStats(ctx context.Context, stats Stats)
}
