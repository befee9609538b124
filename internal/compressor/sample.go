package compressor

import (
	"image"

	"go-image-compressor/internal/channel"
)

// referencePattern lists the (x, y) pixels set to 0 in the reference sample
var referencePattern = []image.Point{
	{2, 1}, {2, 2}, {5, 1}, {5, 2},
	{2, 5}, {3, 5}, {4, 5}, {5, 5},
	{1, 4}, {6, 4},
}

// ReferenceChannel returns the 8x8 reference plane: 255 everywhere except
// ten pixels forming a face pattern, which are 0.
func ReferenceChannel() channel.Channel {
	return channel.Build(BlockSize, BlockSize, func(data []float64) {
		for i := range data {
			data[i] = channel.MaxSample
		}
		for _, p := range referencePattern {
			data[p.Y*BlockSize+p.X] = 0
		}
	})
}

// ReferenceSample returns the reference plane replicated on all three channels
func ReferenceSample() channel.Image {
	c := ReferenceChannel()
	img, _ := channel.NewImage(c, c, c)
	return img
}
