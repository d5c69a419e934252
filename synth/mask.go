package synth

import "fmt"

// Kind selects the mask geometry.
type Kind int

const (
	KindDisk Kind = iota
	KindRing
)

func (k Kind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindRing:
		return "ring"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Mask is an immutable description of one intensity feature: a filled disk
// or a ring (annulus) of uniform intensity. Coordinates and radii are in
// calibrated axis units.
type Mask struct {
	Kind Kind
	X0   float64 // centre x
	Y0   float64 // centre y
	R    float64 // outer radius
	I    float64 // uniform intensity
	LW   float64 // ring line width (ignored for disks)
}

// NewDisk returns a disk mask with outer edge at r.
func NewDisk(x0, y0, r, intensity float64) Mask {
	return Mask{Kind: KindDisk, X0: x0, Y0: y0, R: r, I: intensity}
}

// NewRing returns a ring mask with outer edge at r and inner edge at r-lw.
func NewRing(x0, y0, r, intensity, lw float64) Mask {
	return Mask{Kind: KindRing, X0: x0, Y0: y0, R: r, I: intensity, LW: lw}
}

func (m Mask) String() string {
	if m.Kind == KindRing {
		return fmt.Sprintf("<ring r: %v, lw: %v, (x0, y0): (%v, %v), I: %v>",
			m.R, m.LW, m.X0, m.Y0, m.I)
	}
	return fmt.Sprintf("<disk r: %v, (x0, y0): (%v, %v), I: %v>", m.R, m.X0, m.Y0, m.I)
}

// Render rasterises the mask onto the mesh. A lattice point is lit with
// intensity I when its squared distance d2 from (X0, Y0) satisfies
// 0 < d2 < (R+Scale)^2, and for rings additionally d2 >= (R-LW)^2. The
// Scale band keeps the outer edge from landing between lattice points.
// For disks, the single lattice point nearest the centre is always set to I,
// so a disk produces a non-empty peak even with a vanishing radius.
func (m Mask) Render(mesh Mesh) [][]float64 {
	outer := (m.R + mesh.Scale) * (m.R + mesh.Scale)
	inner := (m.R - m.LW) * (m.R - m.LW)

	data := make([][]float64, len(mesh.Y))
	for iy, y := range mesh.Y {
		row := make([]float64, len(mesh.X))
		dy2 := (y - m.Y0) * (y - m.Y0)
		for ix, x := range mesh.X {
			d2 := (x-m.X0)*(x-m.X0) + dy2
			if d2 <= 0 || d2 >= outer {
				continue
			}
			if m.Kind == KindRing && d2 < inner {
				continue
			}
			row[ix] = m.I
		}
		data[iy] = row
	}

	if m.Kind == KindDisk {
		ix := nearestIndex(mesh.X, m.X0)
		iy := nearestIndex(mesh.Y, m.Y0)
		if ix >= 0 && iy >= 0 {
			data[iy][ix] = m.I
		}
	}
	return data
}
