// Package signal provides a small 2D signal abstraction for diffraction
// images: a dense row-major float64 matrix annotated with per-axis scale and
// offset metadata, so that positions can be expressed in calibrated units
// instead of raw pixel indices.
package signal

import (
	"fmt"
	"math"
)

// Axis describes one calibrated axis of a signal. The value of index i is
// Offset + Scale*i.
type Axis struct {
	Size   int     // number of samples along the axis
	Scale  float64 // calibrated step between neighbouring samples
	Offset float64 // calibrated value of index 0
	Name   string  // optional axis name, e.g. "x"
	Units  string  // optional unit label, e.g. "nm"
}

// Value returns the calibrated coordinate of the given index.
func (a Axis) Value(index int) float64 {
	return a.Offset + a.Scale*float64(index)
}

// Index converts a calibrated coordinate back to the nearest sample index.
// An error is returned when the coordinate falls outside the axis range or
// when the axis has zero scale.
func (a Axis) Index(value float64) (int, error) {
	if a.Scale == 0 {
		return 0, fmt.Errorf("axis %q has zero scale", a.Name)
	}
	i := int(math.Round((value - a.Offset) / a.Scale))
	if i < 0 || i >= a.Size {
		return 0, fmt.Errorf("value %v is outside axis %q range [%v, %v]",
			value, a.Name, a.Offset, a.Value(a.Size-1))
	}
	return i, nil
}

// Values returns the calibrated coordinates of all samples along the axis.
func (a Axis) Values() []float64 {
	vals := make([]float64, a.Size)
	for i := range vals {
		vals[i] = a.Value(i)
	}
	return vals
}
