package compressor

import (
	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"

	"golang.org/x/sync/errgroup"
)

// Component is the same rank-one SVD term taken from every channel of an image
type Component struct {
	Rank int

	// Terms holds the unquantized outer products; samples may be negative
	Terms  channel.Image
	Values [channel.Count]float64
}

// Image returns the terms as 8-bit channels
func (c *Component) Image() channel.Image {
	return c.Terms.Quantize()
}

// IsolateImage extracts term rank of each channel concurrently.
func (c *SVDCompressor) IsolateImage(img channel.Image, rank int) (*Component, error) {
	if img.Empty() {
		return nil, apperrors.NewInvalidInputError("image has no samples", nil)
	}
	dims := img.Dims()
	if rank < 0 || rank >= dims.Min() {
		return nil, apperrors.NewInvalidParameterError("component index out of range", nil).
			WithDetails("rank %d, want 0 <= rank < %d for %s", rank, dims.Min(), dims)
	}

	src := img.Channels()
	var terms [channel.Count]channel.Channel
	out := &Component{Rank: rank}

	var g errgroup.Group
	for i := range src {
		i := i
		g.Go(func() error {
			triplets, err := c.Decompose(src[i])
			if err != nil {
				return err
			}
			terms[i] = triplets[rank].Outer()
			out.Values[i] = triplets[rank].Value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined, err := channel.NewImage(terms[0], terms[1], terms[2])
	if err != nil {
		return nil, err
	}
	out.Terms = combined
	return out, nil
}
