package strategy

import apperrors "go-image-compressor/internal/errors"

// BlockSize is the edge length of a DCT block.
const BlockSize = 8

// Coefficients is the number of coefficients in a block.
const Coefficients = BlockSize * BlockSize

// Mask marks, in raster order (row*8+col), which coefficients survive truncation.
type Mask [Coefficients]bool

// Retained counts the surviving coefficients
func (m Mask) Retained() int {
	n := 0
	for _, keep := range m {
		if keep {
			n++
		}
	}
	return n
}

// RetentionStrategy decides which DCT coefficients of a block are kept for a
// given kValue.
type RetentionStrategy interface {
	Mask(kValue int) Mask
	GetStrategyName() string
}

// Names accepted by ParseRetention
const (
	ZigzagName       = "zigzag"
	AntiDiagonalName = "antidiagonal"
)

// zigzagOrder lists raster indices in zigzag scan order, low to high frequency.
var zigzagOrder = buildZigzag()

func buildZigzag() [Coefficients]int {
	var order [Coefficients]int
	n := 0
	for s := 0; s <= 2*(BlockSize-1); s++ {
		if s%2 == 0 {
			// walk up-right: row decreasing
			row := s
			if row > BlockSize-1 {
				row = BlockSize - 1
			}
			for ; row >= 0 && s-row < BlockSize; row-- {
				order[n] = row*BlockSize + (s - row)
				n++
			}
		} else {
			// walk down-left: row increasing
			row := s - (BlockSize - 1)
			if row < 0 {
				row = 0
			}
			for ; row < BlockSize && s-row >= 0; row++ {
				order[n] = row*BlockSize + (s - row)
				n++
			}
		}
	}
	return order
}

// ZigzagOrder returns the raster index of every zigzag position
func ZigzagOrder() [Coefficients]int {
	return zigzagOrder
}

// ZigzagStrategy keeps the first kValue coefficients in zigzag scan order.
// This is the canonical retention policy.
type ZigzagStrategy struct{}

// NewZigzagStrategy creates the canonical retention strategy
func NewZigzagStrategy() RetentionStrategy {
	return &ZigzagStrategy{}
}

// Mask keeps the first kValue zigzag positions
func (s *ZigzagStrategy) Mask(kValue int) Mask {
	var m Mask
	for i := 0; i < kValue && i < Coefficients; i++ {
		m[zigzagOrder[i]] = true
	}
	return m
}

// GetStrategyName returns the strategy name
func (s *ZigzagStrategy) GetStrategyName() string {
	return ZigzagName
}

// AntiDiagonalStrategy keeps every coefficient with row+col < kValue.
// Legacy policy of the earliest block compressor; kept for comparison only.
type AntiDiagonalStrategy struct{}

// NewAntiDiagonalStrategy creates the legacy retention strategy
func NewAntiDiagonalStrategy() RetentionStrategy {
	return &AntiDiagonalStrategy{}
}

// Mask keeps the first kValue anti-diagonals
func (s *AntiDiagonalStrategy) Mask(kValue int) Mask {
	var m Mask
	for row := 0; row < BlockSize; row++ {
		for col := 0; col < BlockSize; col++ {
			m[row*BlockSize+col] = row+col < kValue
		}
	}
	return m
}

// GetStrategyName returns the strategy name
func (s *AntiDiagonalStrategy) GetStrategyName() string {
	return AntiDiagonalName
}

// ParseRetention resolves a strategy by name. The empty name selects zigzag.
func ParseRetention(name string) (RetentionStrategy, error) {
	switch name {
	case "", ZigzagName:
		return NewZigzagStrategy(), nil
	case AntiDiagonalName:
		return NewAntiDiagonalStrategy(), nil
	default:
		return nil, apperrors.NewInvalidParameterError("unsupported retention strategy", nil).
			WithDetails("%q, want %s or %s", name, ZigzagName, AntiDiagonalName)
	}
}
