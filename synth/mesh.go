package synth

import (
	"fmt"
	"math"
)

// Mesh is the coordinate lattice that masks are rasterised on. X and Y hold
// the calibrated coordinate of every lattice column and row; Scale is the
// configured axis step of the final signal, which also sets the half-pixel
// tolerance band at disk and ring outer edges. When the lattice oversamples
// the final raster, the lattice step is Scale divided by the oversampling
// factor.
type Mesh struct {
	X     []float64
	Y     []float64
	Scale float64
}

// NewMesh builds a lattice covering [0, sizeX) x [0, sizeY) with step
// scale/oversample, matching an arange-style range construction.
func NewMesh(sizeX, sizeY, scale float64, oversample int) (Mesh, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return Mesh{}, fmt.Errorf("mesh extent must be positive, got %v x %v", sizeX, sizeY)
	}
	if scale <= 0 {
		return Mesh{}, fmt.Errorf("mesh scale must be positive, got %v", scale)
	}
	if oversample < 1 {
		return Mesh{}, fmt.Errorf("oversample factor must be >= 1, got %d", oversample)
	}
	step := scale / float64(oversample)
	return Mesh{
		X:     arange(sizeX, step),
		Y:     arange(sizeY, step),
		Scale: scale,
	}, nil
}

// arange returns 0, step, 2*step, ... up to but excluding stop.
func arange(stop, step float64) []float64 {
	n := int(math.Ceil(stop / step))
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) * step
	}
	return vals
}

// nearestIndex returns the index of the coordinate closest to target, the
// first one on ties. Returns -1 for an empty coordinate slice.
func nearestIndex(coords []float64, target float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, v := range coords {
		d := math.Abs(v - target)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
