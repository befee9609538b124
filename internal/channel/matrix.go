package channel

import (
	"fmt"
	"math"

	apperrors "go-image-compressor/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// MaxSample is the largest 8-bit intensity value.
const MaxSample = 255

// Dims describes the shape of a matrix
type Dims struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// String renders dims as "rowsxcols"
func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Rows, d.Cols)
}

// Min returns the smaller of the two dimensions
func (d Dims) Min() int {
	if d.Rows < d.Cols {
		return d.Rows
	}
	return d.Cols
}

// Area returns the number of samples
func (d Dims) Area() int {
	return d.Rows * d.Cols
}

// Empty reports whether either dimension is zero
func (d Dims) Empty() bool {
	return d.Rows <= 0 || d.Cols <= 0
}

// Matrix is an immutable rows x cols grid of samples stored row-major.
// The zero value is an empty matrix. Every operation that derives a new
// matrix allocates fresh storage; no two matrices share a backing slice.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix copies data into a new matrix. It fails with an invalid input
// error when a dimension is zero, when len(data) differs from rows*cols, or
// when a sample is NaN or infinite.
func NewMatrix(rows, cols int, data []float64) (Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return Matrix{}, apperrors.NewInvalidInputError("matrix must have at least one row and one column", nil).
			WithDetails("got %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return Matrix{}, apperrors.NewInvalidInputError("sample count does not match dimensions", nil).
			WithDetails("want %d samples for %dx%d, got %d", rows*cols, rows, cols, len(data))
	}
	if err := checkFinite(data, cols); err != nil {
		return Matrix{}, err
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	return Matrix{rows: rows, cols: cols, data: cp}, nil
}

// NewUniform returns a rows x cols matrix with every sample set to v.
func NewUniform(rows, cols int, v float64) Matrix {
	return Build(rows, cols, func(data []float64) {
		for i := range data {
			data[i] = v
		}
	})
}

// Zeros returns a rows x cols matrix of zeros.
func Zeros(rows, cols int) Matrix {
	return Build(rows, cols, func([]float64) {})
}

// Build allocates a rows x cols buffer, lets fill populate it and freezes
// the result. fill must not retain data after it returns. Disjoint regions
// of data may be written concurrently from inside fill.
func Build(rows, cols int, fill func(data []float64)) Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("channel: negative dimensions %dx%d", rows, cols))
	}
	data := make([]float64, rows*cols)
	fill(data)
	return Matrix{rows: rows, cols: cols, data: data}
}

// FromDense copies a gonum matrix.
func FromDense(m mat.Matrix) Matrix {
	r, c := m.Dims()
	return Build(r, c, func(data []float64) {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				data[i*c+j] = m.At(i, j)
			}
		}
	})
}

// Validate fails with an invalid input error when a sample is NaN or
// infinite. Build and FromDense do not check their input.
func (m Matrix) Validate() error {
	return checkFinite(m.data, m.cols)
}

func checkFinite(data []float64, cols int) error {
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.NewInvalidInputError("matrix contains a non-finite sample", nil).
				WithDetails("row %d col %d is %v", i/cols, i%cols, v)
		}
	}
	return nil
}

// Dims returns the matrix shape
func (m Matrix) Dims() Dims {
	return Dims{Rows: m.rows, Cols: m.cols}
}

// Rows returns the number of rows
func (m Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m Matrix) Cols() int { return m.cols }

// Empty reports whether the matrix holds no samples
func (m Matrix) Empty() bool {
	return m.rows == 0 || m.cols == 0
}

// At returns the sample at (row, col). It panics when out of range.
func (m Matrix) At(row, col int) float64 {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("channel: index (%d,%d) out of range for %dx%d", row, col, m.rows, m.cols))
	}
	return m.data[row*m.cols+col]
}

// Data returns a row-major copy of the samples
func (m Matrix) Data() []float64 {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)
	return cp
}

// Dense returns a gonum copy of the matrix.
func (m Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.rows, m.cols, m.Data())
}

// Quantize rounds every sample half-to-even and saturates it to [0, 255],
// producing the 8-bit intensity representation of the matrix. NaN maps to 0.
func (m Matrix) Quantize() Matrix {
	return Build(m.rows, m.cols, func(data []float64) {
		for i, v := range m.data {
			data[i] = saturate(v)
		}
	})
}

// Uint8 returns the quantized samples as bytes, row-major.
func (m Matrix) Uint8() []uint8 {
	out := make([]uint8, len(m.data))
	for i, v := range m.data {
		out[i] = uint8(saturate(v))
	}
	return out
}

// Equal reports exact, sample-for-sample equality
func (m Matrix) Equal(o Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports equality with every sample within tol
func (m Matrix) EqualApprox(o Matrix, tol float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if math.Abs(m.data[i]-o.data[i]) > tol {
			return false
		}
	}
	return true
}

func saturate(v float64) float64 {
	v = math.RoundToEven(v)
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v > MaxSample:
		return MaxSample
	}
	return v
}
