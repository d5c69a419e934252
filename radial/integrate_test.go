package radial

import (
	"math"
	"testing"

	"github.com/stemdiff/stemdiff/signal"
)

// ringImage builds a size x size unit-scale image holding an ideal ring:
// every pixel whose rounded distance from (cx, cy) falls in [rLo, rHi] gets
// the given intensity.
func ringImage(t *testing.T, size int, cx, cy float64, rLo, rHi int, intensity float64) *signal.Signal2D {
	t.Helper()
	s, err := signal.New(size, size)
	if err != nil {
		t.Fatalf("signal.New: %v", err)
	}
	for iy := 0; iy < size; iy++ {
		for ix := 0; ix < size; ix++ {
			r := int(math.Round(math.Hypot(float64(ix)-cx, float64(iy)-cy)))
			if r >= rLo && r <= rHi {
				s.Data[iy][ix] = intensity
			}
		}
	}
	return s
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}

func TestAngularSliceIntegrationIdealRing(t *testing.T) {
	s := ringImage(t, 101, 50, 50, 20, 20, 5)
	stack, err := AngularSliceIntegration(s, 8, 50, 50)
	if err != nil {
		t.Fatalf("AngularSliceIntegration: %v", err)
	}
	if stack.Slices() != 8 {
		t.Fatalf("stack has %d slices, want 8", stack.Slices())
	}
	// Bins reach the most distant corner: hypot(50, 50) rounds to 71.
	if stack.Radial.Size != 72 {
		t.Errorf("stack has %d radial bins, want 72", stack.Radial.Size)
	}
	if stack.CentreX != 50 || stack.CentreY != 50 {
		t.Errorf("stack centre = (%v, %v), want (50, 50)", stack.CentreX, stack.CentreY)
	}

	// Every slice sees the full ring intensity in bin 20 and nothing nearby.
	for k, prof := range stack.Profiles {
		if prof[20] != 5 {
			t.Errorf("slice %d bin 20 = %v, want 5", k, prof[20])
		}
		if prof[15] != 0 || prof[25] != 0 {
			t.Errorf("slice %d has intensity off the ring: bin 15 = %v, bin 25 = %v",
				k, prof[15], prof[25])
		}
		if got := argmax(prof); got != 20 {
			t.Errorf("slice %d peaks at bin %d, want 20", k, got)
		}
	}
}

func TestAngularSliceIntegrationOffCentreSkewsSlices(t *testing.T) {
	s := ringImage(t, 101, 50, 50, 20, 20, 5)
	stack, err := AngularSliceIntegration(s, 8, 47, 50)
	if err != nil {
		t.Fatalf("AngularSliceIntegration: %v", err)
	}

	peaks := make([]int, stack.Slices())
	for k, prof := range stack.Profiles {
		peaks[k] = argmax(prof)
	}
	// Slices looking toward +x see the ring ~3 bins farther out than slices
	// looking toward -x, so the peak positions must disagree.
	allEqual := true
	for _, p := range peaks[1:] {
		if p != peaks[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		t.Errorf("all slices peak at bin %d despite the shifted centre", peaks[0])
	}
}

func TestAngularSliceIntegrationSingleSlice(t *testing.T) {
	s := ringImage(t, 41, 20, 20, 8, 8, 2)
	stack, err := AngularSliceIntegration(s, 1, 20, 20)
	if err != nil {
		t.Fatalf("AngularSliceIntegration: %v", err)
	}
	if stack.Slices() != 1 {
		t.Fatalf("stack has %d slices, want 1", stack.Slices())
	}
	if got := argmax(stack.Profiles[0]); got != 8 {
		t.Errorf("profile peaks at bin %d, want 8", got)
	}
}

func TestAngularSliceIntegrationScaledAxes(t *testing.T) {
	s := ringImage(t, 101, 50, 50, 20, 20, 5)
	s.XAxis.Scale = 0.5
	s.YAxis.Scale = 0.5
	// In calibrated units the ring now sits at radius 10 about (25, 25).
	stack, err := AngularSliceIntegration(s, 4, 25, 25)
	if err != nil {
		t.Fatalf("AngularSliceIntegration: %v", err)
	}
	if stack.Radial.Scale != 0.5 {
		t.Errorf("radial scale = %v, want 0.5", stack.Radial.Scale)
	}
	for k, prof := range stack.Profiles {
		if got := stack.Radial.Value(argmax(prof)); math.Abs(got-10) > 0.5 {
			t.Errorf("slice %d peaks at radius %v, want 10", k, got)
		}
	}
}

func TestAngularSliceIntegrationValidation(t *testing.T) {
	if _, err := AngularSliceIntegration(nil, 8, 0, 0); err == nil {
		t.Error("expected error for nil signal")
	}
	s := ringImage(t, 21, 10, 10, 5, 5, 1)
	if _, err := AngularSliceIntegration(s, 0, 10, 10); err == nil {
		t.Error("expected error for angleN 0")
	}
}

func TestProfileStackCrop(t *testing.T) {
	s := ringImage(t, 101, 50, 50, 20, 20, 5)
	stack, err := AngularSliceIntegration(s, 8, 50, 50)
	if err != nil {
		t.Fatalf("AngularSliceIntegration: %v", err)
	}
	cropped, err := stack.Crop(15, 25)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if cropped.Radial.Size != 10 {
		t.Fatalf("cropped stack has %d bins, want 10", cropped.Radial.Size)
	}
	if cropped.Radial.Offset != 15 {
		t.Errorf("cropped radial offset = %v, want 15", cropped.Radial.Offset)
	}
	for k, prof := range cropped.Profiles {
		if got := cropped.Radial.Value(argmax(prof)); got != 20 {
			t.Errorf("slice %d peak at radius %v after crop, want 20", k, got)
		}
	}
	if cropped.CentreX != stack.CentreX || cropped.CentreY != stack.CentreY {
		t.Error("crop dropped the candidate centre annotation")
	}

	if _, err := stack.Crop(500, 600); err == nil {
		t.Error("expected error for span beyond the radial axis")
	}
}
