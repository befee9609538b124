// Package preview enlarges small reconstructions so individual samples are
// visible when the result is viewed or saved.
package preview

import (
	"image"

	apperrors "go-image-compressor/internal/errors"

	"github.com/nfnt/resize"
)

// DefaultFactor turns an 8x8 block into a 512x512 picture
const DefaultFactor = 64

// DisplayEdge is the edge length ForDisplay enlarges towards
const DisplayEdge = 512

// SmallEdge is the longest edge, exclusive, of images ForDisplay enlarges
const SmallEdge = 64

// Inflate scales img up by an integer factor with nearest-neighbour sampling,
// so every source pixel becomes a factor x factor square.
func Inflate(img image.Image, factor int) (image.Image, error) {
	if factor < 1 {
		return nil, apperrors.NewInvalidParameterError("inflation factor must be at least 1", nil).
			WithDetails("got %d", factor)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, apperrors.NewInvalidInputError("image has no pixels", nil)
	}
	if factor == 1 {
		return img, nil
	}
	return resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor), nil
}

// FactorFor returns the largest integer factor that keeps the longer edge of
// bounds within edge, and at least 1.
func FactorFor(bounds image.Rectangle, edge int) int {
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if longest <= 0 || longest >= edge {
		return 1
	}
	return edge / longest
}

// ForDisplay inflates images whose longest edge is below SmallEdge towards
// DisplayEdge. Other images are returned as is.
func ForDisplay(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() >= SmallEdge || b.Dy() >= SmallEdge {
		return img
	}
	out, err := Inflate(img, FactorFor(img.Bounds(), DisplayEdge))
	if err != nil {
		return img
	}
	return out
}
