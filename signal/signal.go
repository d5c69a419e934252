package signal

import (
	"errors"
	"fmt"
	"math"
)

// Signal2D is a dense 2D signal. Data is row-major: Data[iy][ix], with XAxis
// describing the columns and YAxis the rows.
type Signal2D struct {
	Data  [][]float64
	XAxis Axis
	YAxis Axis
}

// New returns a zero-filled signal of the given shape with unit-scale,
// zero-offset axes.
func New(rows, cols int) (*Signal2D, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("signal shape must be positive, got %dx%d", rows, cols)
	}
	data := make([][]float64, rows)
	for y := range data {
		data[y] = make([]float64, cols)
	}
	return &Signal2D{
		Data:  data,
		XAxis: Axis{Size: cols, Scale: 1, Name: "x"},
		YAxis: Axis{Size: rows, Scale: 1, Name: "y"},
	}, nil
}

// FromData wraps an existing matrix in a signal with unit-scale axes.
// The matrix must be non-empty and rectangular.
func FromData(data [][]float64) (*Signal2D, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, errors.New("empty matrix")
	}
	cols := len(data[0])
	for y := 1; y < len(data); y++ {
		if len(data[y]) != cols {
			return nil, errors.New("ragged matrix")
		}
	}
	return &Signal2D{
		Data:  data,
		XAxis: Axis{Size: cols, Scale: 1, Name: "x"},
		YAxis: Axis{Size: len(data), Scale: 1, Name: "y"},
	}, nil
}

// Rows returns the number of rows (the Y extent).
func (s *Signal2D) Rows() int { return len(s.Data) }

// Cols returns the number of columns (the X extent).
func (s *Signal2D) Cols() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// Clone returns a deep copy of the signal.
func (s *Signal2D) Clone() *Signal2D {
	data := make([][]float64, len(s.Data))
	for y := range s.Data {
		data[y] = make([]float64, len(s.Data[y]))
		copy(data[y], s.Data[y])
	}
	return &Signal2D{Data: data, XAxis: s.XAxis, YAxis: s.YAxis}
}

// Min returns the smallest element.
func (s *Signal2D) Min() float64 {
	min := math.Inf(1)
	for _, row := range s.Data {
		for _, v := range row {
			if v < min {
				min = v
			}
		}
	}
	return min
}

// Max returns the largest element.
func (s *Signal2D) Max() float64 {
	max := math.Inf(-1)
	for _, row := range s.Data {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// CoordinateOfMin returns the calibrated (x, y) coordinate of the smallest
// element. Ties resolve to the first minimal element in row-major scan order.
func (s *Signal2D) CoordinateOfMin() (x, y float64) {
	min := math.Inf(1)
	iy, ix := 0, 0
	for r, row := range s.Data {
		for c, v := range row {
			if v < min {
				min = v
				iy, ix = r, c
			}
		}
	}
	return s.XAxis.Value(ix), s.YAxis.Value(iy)
}

// Add accumulates another signal of identical shape into s.
func (s *Signal2D) Add(other *Signal2D) error {
	if s.Rows() != other.Rows() || s.Cols() != other.Cols() {
		return fmt.Errorf("shape mismatch: %dx%d vs %dx%d",
			s.Rows(), s.Cols(), other.Rows(), other.Cols())
	}
	for y, row := range other.Data {
		for x, v := range row {
			s.Data[y][x] += v
		}
	}
	return nil
}

// CropValues returns the sub-signal covering the half-open calibrated ranges
// [x0, x1) and [y0, y1). Range ends are converted to the nearest sample index
// and clamped to the signal extent; the cropped axes keep their scale and get
// offsets matching the first retained sample.
func (s *Signal2D) CropValues(x0, x1, y0, y1 float64) (*Signal2D, error) {
	ix0, ix1, err := cropRange(s.XAxis, x0, x1)
	if err != nil {
		return nil, err
	}
	iy0, iy1, err := cropRange(s.YAxis, y0, y1)
	if err != nil {
		return nil, err
	}
	data := make([][]float64, iy1-iy0)
	for y := range data {
		data[y] = make([]float64, ix1-ix0)
		copy(data[y], s.Data[iy0+y][ix0:ix1])
	}
	out := &Signal2D{Data: data, XAxis: s.XAxis, YAxis: s.YAxis}
	out.XAxis.Size = ix1 - ix0
	out.XAxis.Offset = s.XAxis.Value(ix0)
	out.YAxis.Size = iy1 - iy0
	out.YAxis.Offset = s.YAxis.Value(iy0)
	return out, nil
}

// CropRange converts a half-open calibrated range on the axis to a clamped,
// half-open index range.
func CropRange(a Axis, lo, hi float64) (int, int, error) {
	return cropRange(a, lo, hi)
}

func cropRange(a Axis, lo, hi float64) (int, int, error) {
	if a.Scale == 0 {
		return 0, 0, fmt.Errorf("axis %q has zero scale", a.Name)
	}
	i0 := int(math.Round((lo - a.Offset) / a.Scale))
	i1 := int(math.Round((hi - a.Offset) / a.Scale))
	if i0 < 0 {
		i0 = 0
	}
	if i1 > a.Size {
		i1 = a.Size
	}
	if i0 >= i1 {
		return 0, 0, fmt.Errorf("empty crop [%v, %v) on axis %q", lo, hi, a.Name)
	}
	return i0, i1, nil
}

// Dims, Z, X and Y implement the grid interface of gonum/plot heat maps
// (plotter.GridXYZ).

// Dims returns the grid extent as (columns, rows).
func (s *Signal2D) Dims() (c, r int) { return s.Cols(), s.Rows() }

// Z returns the value at column c, row r.
func (s *Signal2D) Z(c, r int) float64 { return s.Data[r][c] }

// X returns the calibrated coordinate of column c.
func (s *Signal2D) X(c int) float64 { return s.XAxis.Value(c) }

// Y returns the calibrated coordinate of row r.
func (s *Signal2D) Y(r int) float64 { return s.YAxis.Value(r) }
