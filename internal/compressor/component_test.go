package compressor

import (
	"testing"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVDCompressor_IsolateImage(t *testing.T) {
	c := NewSVDCompressor()
	img := colorImage(t, 9, 6)

	comp, err := c.IsolateImage(img, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, comp.Rank)
	assert.Equal(t, img.Dims(), comp.Terms.Dims())

	for i := 0; i < channel.Count; i++ {
		want, err := c.IsolateComponent(img.Channel(i), 1)
		require.NoError(t, err)
		assert.True(t, comp.Terms.Channel(i).EqualApprox(want, 1e-9), "channel %d", i)

		triplets, err := c.Decompose(img.Channel(i))
		require.NoError(t, err)
		assert.InDelta(t, triplets[1].Value, comp.Values[i], 1e-9)
	}

	q := comp.Image()
	for _, v := range q.Channel(0).Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 255.0)
	}
}

func TestSVDCompressor_IsolateImage_Invalid(t *testing.T) {
	c := NewSVDCompressor()

	_, err := c.IsolateImage(ReferenceSample(), 8)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidParameter))

	_, err = c.IsolateImage(channel.Image{}, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}
