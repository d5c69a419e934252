// Package radial locates the optimal centre of ring-like diffraction features.
// Candidate centres on a grid around an approximate position are scored by
// integrating the image radially in angular slices and fitting a Gaussian to
// each slice's profile: with the right centre, every slice peaks at the same
// radius, so the spread of fitted peak positions is smallest there.
package radial

import (
	"errors"
	"fmt"
	"math"

	"github.com/stemdiff/stemdiff/signal"
)

// ProfileStack holds the radial intensity profiles of one image integrated in
// angular slices about one candidate centre. Profiles[k][b] is the mean
// intensity of slice k in radial bin b; Radial calibrates the bins.
type ProfileStack struct {
	Profiles [][]float64
	Radial   signal.Axis
	CentreX  float64 // candidate centre this stack was integrated about
	CentreY  float64
}

// Slices returns the number of angular slices in the stack.
func (p *ProfileStack) Slices() int { return len(p.Profiles) }

// Min returns the smallest profile value across all slices.
func (p *ProfileStack) Min() float64 {
	min := math.Inf(1)
	for _, prof := range p.Profiles {
		for _, v := range prof {
			if v < min {
				min = v
			}
		}
	}
	return min
}

// Max returns the largest profile value across all slices.
func (p *ProfileStack) Max() float64 {
	max := math.Inf(-1)
	for _, prof := range p.Profiles {
		for _, v := range prof {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// Crop returns the sub-stack covering the half-open calibrated radial range
// [lo, hi).
func (p *ProfileStack) Crop(lo, hi float64) (*ProfileStack, error) {
	i0, i1, err := signal.CropRange(p.Radial, lo, hi)
	if err != nil {
		return nil, err
	}
	out := &ProfileStack{
		Profiles: make([][]float64, len(p.Profiles)),
		Radial:   p.Radial,
		CentreX:  p.CentreX,
		CentreY:  p.CentreY,
	}
	out.Radial.Size = i1 - i0
	out.Radial.Offset = p.Radial.Value(i0)
	for k, prof := range p.Profiles {
		out.Profiles[k] = make([]float64, i1-i0)
		copy(out.Profiles[k], prof[i0:i1])
	}
	return out, nil
}

// AngularSliceIntegration integrates the signal radially about the centre
// (cx, cy), split into angleN angular slices. Slice k covers the angles
// [k*2pi/angleN, (k+1)*2pi/angleN) measured with atan2 from the centre.
// Radial bins are one x-axis scale step wide; each bin holds the mean
// intensity of the pixels that fall in it, or zero when no pixel does.
//
// The centre is given in the signal's calibrated scale measured from the
// first sample; the axis offsets are not applied.
func AngularSliceIntegration(s *signal.Signal2D, angleN int, cx, cy float64) (*ProfileStack, error) {
	if err := validatePlain2D(s); err != nil {
		return nil, err
	}
	if angleN < 1 {
		return nil, fmt.Errorf("angleN must be >= 1, got %d", angleN)
	}
	scale := s.XAxis.Scale
	if scale <= 0 {
		return nil, fmt.Errorf("signal x-axis scale must be positive, got %v", scale)
	}

	// The profiles must reach the most distant image corner.
	maxX := s.XAxis.Scale * float64(s.Cols()-1)
	maxY := s.YAxis.Scale * float64(s.Rows()-1)
	maxR := 0.0
	for _, corner := range [4][2]float64{{0, 0}, {maxX, 0}, {0, maxY}, {maxX, maxY}} {
		r := math.Hypot(corner[0]-cx, corner[1]-cy)
		if r > maxR {
			maxR = r
		}
	}
	bins := int(math.Round(maxR/scale)) + 1

	sums := make([][]float64, angleN)
	counts := make([][]int, angleN)
	for k := range sums {
		sums[k] = make([]float64, bins)
		counts[k] = make([]int, bins)
	}

	sliceWidth := 2 * math.Pi / float64(angleN)
	for iy, row := range s.Data {
		dy := s.YAxis.Scale*float64(iy) - cy
		for ix, v := range row {
			dx := s.XAxis.Scale*float64(ix) - cx
			b := int(math.Round(math.Hypot(dx, dy) / scale))

			theta := math.Atan2(dy, dx)
			if theta < 0 {
				theta += 2 * math.Pi
			}
			k := int(theta / sliceWidth)
			if k >= angleN {
				k = angleN - 1
			}
			sums[k][b] += v
			counts[k][b]++
		}
	}

	profiles := make([][]float64, angleN)
	for k := range profiles {
		profiles[k] = make([]float64, bins)
		for b, n := range counts[k] {
			if n > 0 {
				profiles[k][b] = sums[k][b] / float64(n)
			}
		}
	}

	return &ProfileStack{
		Profiles: profiles,
		Radial:   signal.Axis{Size: bins, Scale: scale, Name: "r", Units: s.XAxis.Units},
		CentreX:  cx,
		CentreY:  cy,
	}, nil
}

// validatePlain2D rejects signals the centre search cannot work on: it needs
// a single non-empty 2D image.
func validatePlain2D(s *signal.Signal2D) error {
	if s == nil || s.Rows() == 0 || s.Cols() == 0 {
		return errors.New("only works for a single non-empty 2D image")
	}
	cols := s.Cols()
	for _, row := range s.Data {
		if len(row) != cols {
			return errors.New("ragged image data")
		}
	}
	return nil
}
