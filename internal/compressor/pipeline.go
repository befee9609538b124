package compressor

import (
	"context"
	"time"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"

	"golang.org/x/sync/errgroup"
)

// CompressionResult is one reconstructed channel with its own metrics
type CompressionResult struct {
	Channel    channel.Channel
	Efficiency float64
	Accuracy   float64
}

// Result is the outcome of compressing an image
type Result struct {
	// Image is the recombined reconstruction, quantized to 8-bit samples
	Image    channel.Image
	Channels [channel.Count]CompressionResult
	Stats    Stats
	Elapsed  time.Duration
}

// Pipeline compresses the three channels of an image independently and
// recombines them. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	pool  *WorkerPool
	stats StatsCalculator
}

// NewPipeline creates a pipeline. pool may be nil.
func NewPipeline(pool *WorkerPool) *Pipeline {
	return &Pipeline{
		pool:  pool,
		stats: NewStatsCalculator(),
	}
}

// Process validates cfg against img, compresses each channel concurrently,
// recombines the reconstructions and computes the run's metrics. Nothing is
// computed when validation fails.
func (p *Pipeline) Process(img channel.Image, cfg Config) (*Result, error) {
	start := time.Now()

	if img.Empty() {
		return nil, apperrors.NewInvalidInputError("image has no samples", nil)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	comp, err := ForConfig(cfg, p.pool)
	if err != nil {
		return nil, err
	}
	dims := img.Dims()
	if err := comp.Validate(dims, cfg.Parameter); err != nil {
		return nil, err
	}

	original := img.Channels()
	var reconstructed [channel.Count]channel.Channel

	var g errgroup.Group
	for i := range original {
		i := i
		g.Go(func() error {
			out, err := comp.Compress(original[i], cfg.Parameter)
			if err != nil {
				return err
			}
			reconstructed[i] = out.Quantize()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output, err := channel.NewImage(reconstructed[0], reconstructed[1], reconstructed[2])
	if err != nil {
		return nil, apperrors.NewInternalError("failed to recombine channels", err)
	}

	result := &Result{
		Image: output,
		Stats: Stats{
			Algorithm:  comp.Algorithm(),
			Parameter:  cfg.Parameter,
			Dims:       dims,
			Efficiency: comp.Efficiency(dims, cfg.Parameter),
		},
	}
	for i := range original {
		accuracy, err := p.stats.ChannelAccuracy(original[i], reconstructed[i])
		if err != nil {
			return nil, err
		}
		result.Channels[i] = CompressionResult{
			Channel:    reconstructed[i],
			Efficiency: result.Stats.Efficiency,
			Accuracy:   accuracy,
		}
	}
	if err := fillFidelity(p.stats, &result.Stats, img, output); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// Run loads an image from src, processes it and hands the output to sink
// and the metrics to reporter. sink and reporter may be nil.
func (p *Pipeline) Run(ctx context.Context, src ImageSource, cfg Config, sink ImageSink, reporter StatsReporter) (*Result, error) {
	img, err := src.LoadImage(ctx)
	if err != nil {
		return nil, err
	}

	result, err := p.Process(img, cfg)
	if err != nil {
		return nil, err
	}

	if sink != nil {
		if err := sink.StoreImage(ctx, result.Image); err != nil {
			return nil, err
		}
	}
	if reporter != nil {
		reporter.ReportStats(ctx, result.Stats)
	}
	return result, nil
}
