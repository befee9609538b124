package compressor

import (
	"math"
	"sync"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/strategy"

	"gonum.org/v1/gonum/mat"
)

// BlockSize is the edge length of a transform block
const BlockSize = strategy.BlockSize

// MaxKValue is the number of coefficients in a block
const MaxKValue = strategy.Coefficients

// Block is an 8x8 tile of spatial samples in raster order (row*8+col)
type Block [MaxKValue]float64

// FrequencyBlock is an 8x8 tile of DCT coefficients in raster order.
// Index 0 is the DC term; frequency grows with row and column.
type FrequencyBlock [MaxKValue]float64

// At returns the coefficient at (row, col)
func (f FrequencyBlock) At(row, col int) float64 {
	return f[row*BlockSize+col]
}

// Zigzag returns the coefficients in zigzag scan order
func (f FrequencyBlock) Zigzag() [MaxKValue]float64 {
	var out [MaxKValue]float64
	for i, idx := range strategy.ZigzagOrder() {
		out[i] = f[idx]
	}
	return out
}

// dctBasis is the orthonormal DCT-II matrix basis[u][x] = a(u) cos((2x+1)u*pi/16).
var dctBasis = newDCTBasis()

func newDCTBasis() *mat.Dense {
	basis := mat.NewDense(BlockSize, BlockSize, nil)
	for u := 0; u < BlockSize; u++ {
		alpha := math.Sqrt(2.0 / BlockSize)
		if u == 0 {
			alpha = math.Sqrt(1.0 / BlockSize)
		}
		for x := 0; x < BlockSize; x++ {
			basis.Set(u, x, alpha*math.Cos(float64(2*x+1)*float64(u)*math.Pi/(2*BlockSize)))
		}
	}
	return basis
}

// ForwardBlock applies the 2-D orthonormal DCT-II: F = C * B * C^T
func ForwardBlock(b Block) FrequencyBlock {
	var f mat.Dense
	f.Product(dctBasis, mat.NewDense(BlockSize, BlockSize, b[:]), dctBasis.T())
	var out FrequencyBlock
	copy(out[:], f.RawMatrix().Data)
	return out
}

// InverseBlock applies the inverse transform: B = C^T * F * C
func InverseBlock(f FrequencyBlock) Block {
	var b mat.Dense
	b.Product(dctBasis.T(), mat.NewDense(BlockSize, BlockSize, f[:]), dctBasis)
	var out Block
	copy(out[:], b.RawMatrix().Data)
	return out
}

// Truncate keeps the first kValue coefficients in zigzag order and zeroes the rest
func Truncate(f FrequencyBlock, kValue int) FrequencyBlock {
	return TruncateWith(f, strategy.NewZigzagStrategy().Mask(kValue))
}

// TruncateWith zeroes every coefficient the mask does not retain
func TruncateWith(f FrequencyBlock, mask strategy.Mask) FrequencyBlock {
	var out FrequencyBlock
	for i, keep := range mask {
		if keep {
			out[i] = f[i]
		}
	}
	return out
}

// DCTCompressor truncates high frequency coefficients of every 8x8 block
type DCTCompressor struct {
	retention strategy.RetentionStrategy
	remainder RemainderPolicy
	pool      *WorkerPool
	blockPool sync.Pool
}

// NewDCTCompressor creates a block compressor. A nil retention selects
// zigzag; a nil pool processes blocks on the calling goroutine.
func NewDCTCompressor(retention strategy.RetentionStrategy, remainder RemainderPolicy, pool *WorkerPool) *DCTCompressor {
	if retention == nil {
		retention = strategy.NewZigzagStrategy()
	}
	if remainder == "" {
		remainder = RemainderPassThrough
	}
	return &DCTCompressor{
		retention: retention,
		remainder: remainder,
		pool:      pool,
		blockPool: sync.Pool{
			New: func() interface{} {
				return new(Block)
			},
		},
	}
}

// Algorithm returns AlgorithmDCT
func (c *DCTCompressor) Algorithm() Algorithm {
	return AlgorithmDCT
}

// Retention returns the coefficient retention strategy
func (c *DCTCompressor) Retention() strategy.RetentionStrategy {
	return c.retention
}

// Remainder returns the remainder policy
func (c *DCTCompressor) Remainder() RemainderPolicy {
	return c.remainder
}

// Validate checks 0 <= kValue <= 64 and the remainder policy
func (c *DCTCompressor) Validate(dims channel.Dims, kValue int) error {
	if dims.Empty() {
		return apperrors.NewInvalidInputError("channel has no samples", nil).
			WithDetails("dims %s", dims)
	}
	if kValue < 0 || kValue > MaxKValue {
		return apperrors.NewInvalidParameterError("kValue out of range", nil).
			WithDetails("kValue %d, want 0 <= kValue <= %d", kValue, MaxKValue)
	}
	if c.remainder == RemainderReject && (dims.Rows%BlockSize != 0 || dims.Cols%BlockSize != 0) {
		return apperrors.NewInvalidInputError("dimensions must be multiples of the block size", nil).
			WithDetails("dims %s, block %d", dims, BlockSize)
	}
	return nil
}

// UsableRegion returns the block-aligned region the transform covers
func UsableRegion(dims channel.Dims) channel.Dims {
	return channel.Dims{
		Rows: dims.Rows / BlockSize * BlockSize,
		Cols: dims.Cols / BlockSize * BlockSize,
	}
}

// Reconstruct runs forward transform, truncation and inverse transform on
// every block of the usable region. Samples outside it follow the
// remainder policy.
func (c *DCTCompressor) Reconstruct(ch channel.Channel, kValue int) (channel.Channel, error) {
	dims := ch.Dims()
	if err := c.Validate(dims, kValue); err != nil {
		return channel.Channel{}, err
	}
	if err := ch.Validate(); err != nil {
		return channel.Channel{}, err
	}

	in := ch.Data()
	mask := c.retention.Mask(kValue)
	usable := UsableRegion(dims)
	stripCount := usable.Rows / BlockSize

	out := channel.Build(dims.Rows, dims.Cols, func(data []float64) {
		if c.remainder == RemainderPassThrough {
			copy(data, in)
		}

		jobs := make([]func(), stripCount)
		for s := 0; s < stripCount; s++ {
			top := s * BlockSize
			jobs[s] = func() {
				c.reconstructStrip(in, data, dims.Cols, top, usable.Cols, mask)
			}
		}
		if c.pool == nil {
			for _, job := range jobs {
				job()
			}
			return
		}
		c.pool.Do(jobs...)
	})
	return out, nil
}

// reconstructStrip processes the blocks of one 8-row strip. Strips never
// overlap, so concurrent strips write disjoint parts of dst.
func (c *DCTCompressor) reconstructStrip(src, dst []float64, stride, top, usableCols int, mask strategy.Mask) {
	block := c.blockPool.Get().(*Block)
	defer c.blockPool.Put(block)

	for left := 0; left < usableCols; left += BlockSize {
		for y := 0; y < BlockSize; y++ {
			copy(block[y*BlockSize:(y+1)*BlockSize], src[(top+y)*stride+left:])
		}
		restored := InverseBlock(TruncateWith(ForwardBlock(*block), mask))
		for y := 0; y < BlockSize; y++ {
			copy(dst[(top+y)*stride+left:(top+y)*stride+left+BlockSize], restored[y*BlockSize:(y+1)*BlockSize])
		}
	}
}

// Compress is Reconstruct
func (c *DCTCompressor) Compress(ch channel.Channel, kValue int) (channel.Channel, error) {
	return c.Reconstruct(ch, kValue)
}

// Efficiency is the percentage of block coefficients retained; 100 * kValue / 64
// under zigzag retention.
func (c *DCTCompressor) Efficiency(_ channel.Dims, kValue int) float64 {
	return RetentionEfficiency(c.retention, kValue)
}
