package compressor

import (
	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// SingularTriplet is one rank-1 term of a singular value decomposition:
// Value * outer(Left, Right).
type SingularTriplet struct {
	Value float64
	Left  []float64 // length rows
	Right []float64 // length cols
}

// Outer expands the triplet into its rows x cols term
func (t SingularTriplet) Outer() channel.Matrix {
	rows, cols := len(t.Left), len(t.Right)
	return channel.Build(rows, cols, func(data []float64) {
		for i, l := range t.Left {
			scaled := t.Value * l
			for j, r := range t.Right {
				data[i*cols+j] = scaled * r
			}
		}
	})
}

// SVDCompressor approximates a channel by its leading singular triplets
type SVDCompressor struct{}

// NewSVDCompressor creates a low-rank compressor
func NewSVDCompressor() *SVDCompressor {
	return &SVDCompressor{}
}

// Algorithm returns AlgorithmSVD
func (c *SVDCompressor) Algorithm() Algorithm {
	return AlgorithmSVD
}

// Decompose factorizes the channel into min(rows, cols) triplets ordered by
// descending singular value. Summing every triplet's outer product
// reproduces the channel to floating point precision.
func (c *SVDCompressor) Decompose(ch channel.Channel) ([]SingularTriplet, error) {
	if ch.Empty() {
		return nil, apperrors.NewInvalidInputError("channel has no samples", nil).
			WithDetails("dims %s", ch.Dims())
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(ch.Dense(), mat.SVDThin); !ok {
		return nil, apperrors.NewInternalError("singular value decomposition did not converge", nil).
			WithDetails("dims %s", ch.Dims())
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	triplets := make([]SingularTriplet, len(values))
	for i, s := range values {
		triplets[i] = SingularTriplet{
			Value: s,
			Left:  mat.Col(nil, i, &u),
			Right: mat.Col(nil, i, &v),
		}
	}
	return triplets, nil
}

// Validate checks 0 <= rank < min(rows, cols) - 1
func (c *SVDCompressor) Validate(dims channel.Dims, rank int) error {
	if dims.Empty() {
		return apperrors.NewInvalidInputError("channel has no samples", nil).
			WithDetails("dims %s", dims)
	}
	if limit := dims.Min() - 1; rank < 0 || rank >= limit {
		return apperrors.NewInvalidParameterError("rank out of range", nil).
			WithDetails("rank %d, want 0 <= rank < %d for %s", rank, limit, dims)
	}
	return nil
}

// ReconstructLowRank sums the first rank+1 triplets, the best
// rank-(rank+1) approximation in the least-squares sense.
func (c *SVDCompressor) ReconstructLowRank(ch channel.Channel, rank int) (channel.Channel, error) {
	if err := c.Validate(ch.Dims(), rank); err != nil {
		return channel.Channel{}, err
	}
	triplets, err := c.Decompose(ch)
	if err != nil {
		return channel.Channel{}, err
	}
	return sumTriplets(ch.Dims(), triplets[:rank+1]), nil
}

// IsolateComponent returns the single outer-product term at index rank.
func (c *SVDCompressor) IsolateComponent(ch channel.Channel, rank int) (channel.Channel, error) {
	dims := ch.Dims()
	if dims.Empty() {
		return channel.Channel{}, apperrors.NewInvalidInputError("channel has no samples", nil).
			WithDetails("dims %s", dims)
	}
	if rank < 0 || rank >= dims.Min() {
		return channel.Channel{}, apperrors.NewInvalidParameterError("component index out of range", nil).
			WithDetails("rank %d, want 0 <= rank < %d for %s", rank, dims.Min(), dims)
	}
	triplets, err := c.Decompose(ch)
	if err != nil {
		return channel.Channel{}, err
	}
	return triplets[rank].Outer(), nil
}

// Compress is ReconstructLowRank
func (c *SVDCompressor) Compress(ch channel.Channel, rank int) (channel.Channel, error) {
	return c.ReconstructLowRank(ch, rank)
}

// Efficiency is 100 * (m + n + 1) * (rank + 1) / (m * n)
func (c *SVDCompressor) Efficiency(dims channel.Dims, rank int) float64 {
	return SVDEfficiency(dims, rank)
}

// sumTriplets accumulates outer products in order, largest first.
func sumTriplets(dims channel.Dims, triplets []SingularTriplet) channel.Matrix {
	sum := mat.NewDense(dims.Rows, dims.Cols, nil)
	var term mat.Dense
	for _, t := range triplets {
		term.Outer(t.Value, mat.NewVecDense(len(t.Left), t.Left), mat.NewVecDense(len(t.Right), t.Right))
		sum.Add(sum, &term)
	}
	return channel.FromDense(sum)
}
