package synth

import (
	"math"
	"testing"
)

func TestBlockMean(t *testing.T) {
	m := [][]float64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 8},
		{3, 3, 8, 4},
	}
	out, err := blockMean(m, 2)
	if err != nil {
		t.Fatalf("blockMean: %v", err)
	}
	want := [][]float64{
		{1, 2},
		{3, 6},
	}
	for y := range want {
		for x := range want[y] {
			if out[y][x] != want[y][x] {
				t.Errorf("block (%d, %d) = %v, want %v", x, y, out[y][x], want[y][x])
			}
		}
	}

	if _, err := blockMean(m, 3); err == nil {
		t.Error("expected error for non-dividing factor")
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownscaleFactor = 0
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for zero downscale factor")
	}

	cfg = DefaultConfig()
	cfg.BlurSigma = 0
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for zero blur sigma")
	}

	cfg = DefaultConfig()
	cfg.Scale = 0
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for zero scale")
	}
}

func TestDefaultSignal(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	s := g.Signal()
	if s.Rows() != 100 || s.Cols() != 100 {
		t.Fatalf("signal is %dx%d, want 100x100", s.Rows(), s.Cols())
	}
	if s.XAxis.Scale != 1 || s.YAxis.Scale != 1 {
		t.Errorf("axis scales = (%v, %v), want (1, 1)", s.XAxis.Scale, s.YAxis.Scale)
	}
	if len(g.Masks()) != 2 {
		t.Fatalf("default generator holds %d masks, want 2", len(g.Masks()))
	}

	// Central disk and the ring at radius 20 are present, corners stay dark.
	if s.Data[50][50] < 5 {
		t.Errorf("disk centre intensity = %v, want well above background", s.Data[50][50])
	}
	if s.Data[50][30] < 3 {
		t.Errorf("ring intensity at (30, 50) = %v, want well above background", s.Data[50][30])
	}
	if math.Abs(s.Data[0][0]) > 1e-9 {
		t.Errorf("corner intensity = %v, want 0", s.Data[0][0])
	}
	if max := s.Max(); max > 10.5 {
		t.Errorf("max intensity = %v, noticeably above the mask intensity 10", max)
	}
}

func TestGeneratorWithoutDefaultStartsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Default = false
	g, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	s := g.Signal()
	if s == nil {
		t.Fatal("empty generator has no signal")
	}
	if s.Max() != 0 || s.Min() != 0 {
		t.Errorf("empty signal range = [%v, %v], want [0, 0]", s.Min(), s.Max())
	}
}

func TestOverlappingMasksAccumulate(t *testing.T) {
	cfg := Config{SizeX: 30, SizeY: 30, Scale: 1}
	g, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := g.AddDisk(15, 15, 4, 3); err != nil {
		t.Fatalf("AddDisk: %v", err)
	}
	if err := g.AddDisk(15, 15, 4, 3); err != nil {
		t.Fatalf("AddDisk: %v", err)
	}
	if got := g.Signal().Data[15][15]; got != 6 {
		t.Errorf("overlapping disks give %v at the shared centre, want 6", got)
	}
}

func TestSetZeroClearsSignal(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := g.SetZero(); err != nil {
		t.Fatalf("SetZero: %v", err)
	}
	if g.Signal().Max() != 0 {
		t.Errorf("max after SetZero = %v, want 0", g.Signal().Max())
	}
	if len(g.Masks()) != 0 {
		t.Errorf("mask list still holds %d entries after SetZero", len(g.Masks()))
	}
}

func TestSetDownscaleFactorRerenders(t *testing.T) {
	cfg := Config{SizeX: 40, SizeY: 40, Scale: 1, Downscale: true, DownscaleFactor: 2}
	g, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := g.AddDisk(20, 20, 6, 10); err != nil {
		t.Fatalf("AddDisk: %v", err)
	}
	before := g.Signal()

	if err := g.SetDownscaleFactor(4); err != nil {
		t.Fatalf("SetDownscaleFactor: %v", err)
	}
	after := g.Signal()
	if g.DownscaleFactor() != 4 {
		t.Errorf("factor = %d, want 4", g.DownscaleFactor())
	}
	if after.Rows() != before.Rows() || after.Cols() != before.Cols() {
		t.Errorf("signal shape changed from %dx%d to %dx%d",
			before.Rows(), before.Cols(), after.Rows(), after.Cols())
	}
	// The disk interior keeps full intensity at either oversampling.
	if after.Data[20][20] != 10 {
		t.Errorf("disk centre after factor change = %v, want 10", after.Data[20][20])
	}

	if err := g.SetDownscaleFactor(0); err == nil {
		t.Error("expected error for factor 0")
	}
}
