package compressor

import (
	"math"
	"sync"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/strategy"

	"gonum.org/v1/gonum/stat"
)

// Stats holds the storage and fidelity metrics of one compression run
type Stats struct {
	Algorithm Algorithm    `json:"algorithm"`
	Parameter int          `json:"parameter"`
	Dims      channel.Dims `json:"dims"`

	// Efficiency is the storage required as a percentage of the raw image
	Efficiency float64 `json:"efficiency"`

	// Accuracy is the percentage of samples, over all three channels, whose
	// reconstructed value does not exceed the original
	Accuracy float64 `json:"accuracy"`

	// Conventional fidelity metrics over all three channels
	MSE  float64 `json:"mse"`
	PSNR float64 `json:"psnr"` // dB, +Inf when identical
}

// SVDEfficiency is 100 * (m + n + 1) * (rank + 1) / (m * n)
func SVDEfficiency(dims channel.Dims, rank int) float64 {
	if dims.Empty() {
		return 0
	}
	return 100 * float64(dims.Rows+dims.Cols+1) * float64(rank+1) / float64(dims.Area())
}

// DCTEfficiency is 100 * kValue / 64
func DCTEfficiency(kValue int) float64 {
	return 100 * float64(kValue) / MaxKValue
}

// RetentionEfficiency is the percentage of block coefficients a strategy
// keeps for kValue. For zigzag retention it equals DCTEfficiency.
func RetentionEfficiency(s strategy.RetentionStrategy, kValue int) float64 {
	return 100 * float64(s.Mask(kValue).Retained()) / MaxKValue
}

// LegacyDCTEfficiency reproduces the storage estimate printed by the original
// anti-diagonal block compressor, where kValue counts diagonals (at most 14).
// Legacy comparison only; it is not the retained coefficient count.
func LegacyDCTEfficiency(kValue int) float64 {
	if kValue < 9 {
		return float64((kValue+1)*(kValue+2)) / 128 * 100
	}
	return float64(64-((14-kValue)*(14-kValue+1)/2)) / 64 * 100
}

// Efficiency is the storage cost of cfg over channels of the given
// dimensions. It depends only on the algorithm, parameter and dimensions.
func Efficiency(cfg Config, dims channel.Dims) (float64, error) {
	comp, err := ForConfig(cfg, nil)
	if err != nil {
		return 0, err
	}
	if err := comp.Validate(dims, cfg.Parameter); err != nil {
		return 0, err
	}
	return comp.Efficiency(dims, cfg.Parameter), nil
}

// PeakSignalToNoise converts a mean squared error over 8-bit samples to dB
func PeakSignalToNoise(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(channel.MaxSample*channel.MaxSample/mse)
}

// statsCalculator implements StatsCalculator
type statsCalculator struct {
	slicePool sync.Pool
}

// NewStatsCalculator creates a new stats calculator using Gonum
func NewStatsCalculator() StatsCalculator {
	return &statsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				buf := make([]float64, 0, 1024)
				return &buf
			},
		},
	}
}

// Accuracy is the percentage of positions across all channels where
// reconstructed <= original
func (sc *statsCalculator) Accuracy(original, reconstructed channel.Image) (float64, error) {
	if err := sameShape(original, reconstructed); err != nil {
		return 0, err
	}
	notExceeding, total := 0, 0
	for i := 0; i < channel.Count; i++ {
		n, t := countNotExceeding(original.Channel(i), reconstructed.Channel(i))
		notExceeding += n
		total += t
	}
	return 100 * float64(notExceeding) / float64(total), nil
}

// ChannelAccuracy is Accuracy restricted to one channel
func (sc *statsCalculator) ChannelAccuracy(original, reconstructed channel.Channel) (float64, error) {
	if original.Empty() {
		return 0, apperrors.NewInvalidInputError("channel has no samples", nil)
	}
	if original.Dims() != reconstructed.Dims() {
		return 0, apperrors.NewDimensionMismatchError("reconstruction does not match original", nil).
			WithDetails("original %s, reconstructed %s", original.Dims(), reconstructed.Dims())
	}
	n, t := countNotExceeding(original, reconstructed)
	return 100 * float64(n) / float64(t), nil
}

// MeanSquaredError averages squared sample differences over all channels
func (sc *statsCalculator) MeanSquaredError(original, reconstructed channel.Image) (float64, error) {
	if err := sameShape(original, reconstructed); err != nil {
		return 0, err
	}

	area := original.Dims().Area()
	buf := sc.slicePool.Get().(*[]float64)
	defer sc.slicePool.Put(buf)
	if cap(*buf) < area {
		*buf = make([]float64, area)
	}
	squares := (*buf)[:area]

	// channels share dimensions, so the overall mean is the mean of the
	// per-channel means
	var sum float64
	for i := 0; i < channel.Count; i++ {
		o, r := original.Channel(i).Data(), reconstructed.Channel(i).Data()
		for j := range o {
			d := o[j] - r[j]
			squares[j] = d * d
		}
		sum += stat.Mean(squares, nil)
	}
	return sum / channel.Count, nil
}

// fillFidelity sets the accuracy, MSE and PSNR fields of stats
func fillFidelity(sc StatsCalculator, stats *Stats, original, reconstructed channel.Image) error {
	accuracy, err := sc.Accuracy(original, reconstructed)
	if err != nil {
		return err
	}
	mse, err := sc.MeanSquaredError(original, reconstructed)
	if err != nil {
		return err
	}
	stats.Accuracy = accuracy
	stats.MSE = mse
	stats.PSNR = PeakSignalToNoise(mse)
	return nil
}

func countNotExceeding(original, reconstructed channel.Channel) (n, total int) {
	o, r := original.Data(), reconstructed.Data()
	for i := range o {
		if r[i] <= o[i] {
			n++
		}
	}
	return n, len(o)
}

func sameShape(original, reconstructed channel.Image) error {
	if original.Empty() {
		return apperrors.NewInvalidInputError("image has no samples", nil)
	}
	if original.Dims() != reconstructed.Dims() {
		return apperrors.NewDimensionMismatchError("reconstruction does not match original", nil).
			WithDetails("original %s, reconstructed %s", original.Dims(), reconstructed.Dims())
	}
	return nil
}
