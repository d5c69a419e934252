package synth

import (
	"math"
	"testing"
)

func TestArange(t *testing.T) {
	xs := arange(100, 0.2)
	if len(xs) != 500 {
		t.Fatalf("arange(100, 0.2) has %d samples, want 500", len(xs))
	}
	if xs[0] != 0 {
		t.Errorf("first sample = %v, want 0", xs[0])
	}
	if math.Abs(xs[499]-99.8) > 1e-9 {
		t.Errorf("last sample = %v, want 99.8", xs[499])
	}
	if last := xs[len(xs)-1]; last >= 100 {
		t.Errorf("last sample %v reaches the stop value", last)
	}
}

func TestNearestIndexPrefersFirstOnTie(t *testing.T) {
	coords := []float64{0, 1, 2, 3}
	if got := nearestIndex(coords, 1.5); got != 1 {
		t.Errorf("nearestIndex(1.5) = %d, want 1", got)
	}
	if got := nearestIndex(coords, 2.9); got != 3 {
		t.Errorf("nearestIndex(2.9) = %d, want 3", got)
	}
	if got := nearestIndex(nil, 1); got != -1 {
		t.Errorf("nearestIndex on empty = %d, want -1", got)
	}
}

func TestDiskRender(t *testing.T) {
	mesh, err := NewMesh(21, 21, 1, 1)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	m := NewDisk(10, 10, 3, 7)
	data := m.Render(mesh)

	outer := (3.0 + 1.0) * (3.0 + 1.0)
	for iy, y := range mesh.Y {
		for ix, x := range mesh.X {
			d2 := (x-10)*(x-10) + (y-10)*(y-10)
			want := 0.0
			if d2 < outer {
				want = 7
			}
			if data[iy][ix] != want {
				t.Errorf("disk value at (%d, %d) = %v, want %v", ix, iy, data[iy][ix], want)
			}
		}
	}
}

func TestDiskRenderZeroRadiusKeepsCentrePixel(t *testing.T) {
	mesh, err := NewMesh(20, 20, 1, 1)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	data := NewDisk(7, 7, 0, 3).Render(mesh)

	sum := 0.0
	for _, row := range data {
		for _, v := range row {
			sum += v
		}
	}
	if data[7][7] != 3 {
		t.Errorf("centre pixel = %v, want 3", data[7][7])
	}
	if sum != 3 {
		t.Errorf("total intensity = %v, want 3 (centre pixel only)", sum)
	}
}

func TestRingRender(t *testing.T) {
	mesh, err := NewMesh(41, 41, 1, 1)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	m := NewRing(20, 20, 10, 5, 2)
	data := m.Render(mesh)

	outer := (10.0 + 1.0) * (10.0 + 1.0)
	inner := (10.0 - 2.0) * (10.0 - 2.0)
	for iy, y := range mesh.Y {
		for ix, x := range mesh.X {
			d2 := (x-20)*(x-20) + (y-20)*(y-20)
			want := 0.0
			if d2 > 0 && d2 < outer && d2 >= inner {
				want = 5
			}
			if data[iy][ix] != want {
				t.Errorf("ring value at (%d, %d) = %v, want %v", ix, iy, data[iy][ix], want)
			}
		}
	}
	// The ring interior stays empty, including the centre pixel.
	if data[20][20] != 0 {
		t.Errorf("ring centre = %v, want 0", data[20][20])
	}
}

func TestRingRenderFullyMasked(t *testing.T) {
	mesh, err := NewMesh(20, 20, 1, 1)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	// Inner edge at (1-3)^2 = 4 meets the outer edge at (1+1)^2 = 4, so the
	// annulus is empty.
	data := NewRing(10, 10, 1, 5, 3).Render(mesh)
	for iy, row := range data {
		for ix, v := range row {
			if v != 0 {
				t.Fatalf("fully masked ring has value %v at (%d, %d)", v, ix, iy)
			}
		}
	}
}

func TestRenderOnOversampledMesh(t *testing.T) {
	mesh, err := NewMesh(10, 10, 1, 5)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	if len(mesh.X) != 50 || len(mesh.Y) != 50 {
		t.Fatalf("mesh is %dx%d, want 50x50", len(mesh.X), len(mesh.Y))
	}
	data := NewDisk(5, 5, 2, 1).Render(mesh)
	// The outer tolerance band still uses the configured scale, not the
	// lattice step: a point at distance r+scale/2 stays lit.
	iy := nearestIndex(mesh.Y, 5)
	ix := nearestIndex(mesh.X, 5+2+0.4)
	if data[iy][ix] != 1 {
		t.Errorf("point inside the tolerance band = %v, want 1", data[iy][ix])
	}
}
