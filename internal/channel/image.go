package channel

import (
	"fmt"
	"image"
	"image/color"

	apperrors "go-image-compressor/internal/errors"
)

// Count is the number of color planes in an Image.
const Count = 3

// Channel is one color plane of an image.
type Channel = Matrix

// Image is an ordered triple of equally sized channels.
type Image struct {
	channels [Count]Channel
}

// NewImage groups three channels into an image. All channels must be
// non-empty and share the same dimensions.
func NewImage(c0, c1, c2 Channel) (Image, error) {
	chans := [Count]Channel{c0, c1, c2}
	dims := c0.Dims()
	for i, c := range chans {
		if c.Empty() {
			return Image{}, apperrors.NewInvalidInputError("channel has no samples", nil).
				WithDetails("channel %d is %s", i, c.Dims())
		}
		if c.Dims() != dims {
			return Image{}, apperrors.NewDimensionMismatchError("channels must share dimensions", nil).
				WithDetails("channel 0 is %s, channel %d is %s", dims, i, c.Dims())
		}
	}
	return Image{channels: chans}, nil
}

// Validate fails with an invalid input error when any channel holds a
// non-finite sample
func (img Image) Validate() error {
	for i, c := range img.channels {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
	}
	return nil
}

// FromChannels is NewImage over a slice. It fails with a dimension mismatch
// when the slice does not hold exactly three channels.
func FromChannels(chans []Channel) (Image, error) {
	if len(chans) != Count {
		return Image{}, apperrors.NewDimensionMismatchError("image requires exactly three channels", nil).
			WithDetails("got %d", len(chans))
	}
	return NewImage(chans[0], chans[1], chans[2])
}

// Split decodes an image into its red, green and blue planes as 8-bit
// intensities. Alpha is discarded.
func Split(src image.Image) (Image, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return Image{}, apperrors.NewInvalidInputError("image has no pixels", nil).
			WithDetails("bounds %v", bounds)
	}

	var planes [Count][]float64
	for i := range planes {
		planes[i] = make([]float64, width*height)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			idx := (y-bounds.Min.Y)*width + (x - bounds.Min.X)
			planes[0][idx] = float64(r >> 8)
			planes[1][idx] = float64(g >> 8)
			planes[2][idx] = float64(b >> 8)
		}
	}

	var chans [Count]Channel
	for i, p := range planes {
		p := p
		chans[i] = Build(height, width, func(data []float64) { copy(data, p) })
	}
	return Image{channels: chans}, nil
}

// Channel returns the i-th channel
func (img Image) Channel(i int) Channel {
	return img.channels[i]
}

// Channels returns the three channels in order
func (img Image) Channels() [Count]Channel {
	return img.channels
}

// Dims returns the shared channel dimensions
func (img Image) Dims() Dims {
	return img.channels[0].Dims()
}

// Empty reports whether the image is the zero value
func (img Image) Empty() bool {
	return img.channels[0].Empty()
}

// Quantize converts every channel to 8-bit intensities
func (img Image) Quantize() Image {
	var out Image
	for i, c := range img.channels {
		out.channels[i] = c.Quantize()
	}
	return out
}

// Equal reports exact equality of all three channels
func (img Image) Equal(o Image) bool {
	for i := range img.channels {
		if !img.channels[i].Equal(o.channels[i]) {
			return false
		}
	}
	return true
}

// ToRGBA recombines the channels into an opaque RGBA image, quantizing
// samples to 8 bits.
func (img Image) ToRGBA() *image.RGBA {
	dims := img.Dims()
	out := image.NewRGBA(image.Rect(0, 0, dims.Cols, dims.Rows))
	r, g, b := img.channels[0].Uint8(), img.channels[1].Uint8(), img.channels[2].Uint8()
	for y := 0; y < dims.Rows; y++ {
		for x := 0; x < dims.Cols; x++ {
			idx := y*dims.Cols + x
			out.SetRGBA(x, y, color.RGBA{R: r[idx], G: g[idx], B: b[idx], A: 255})
		}
	}
	return out
}
