// Package mrc reads and writes single-image MRC files (MRC2014 layout,
// little-endian). Electron microscopy tooling exchanges diffraction data in
// this format, so generated test patterns can feed real processing chains.
package mrc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/stemdiff/stemdiff/signal"
)

// Image modes from the MRC2014 standard. Mode 1 appears in tomography
// series from FEI microscopes, mode 2 is the float interchange mode.
const (
	modeInt16   = 1
	modeFloat32 = 2
)

// header is the fixed 1024-byte MRC2014 main header.
type header struct {
	NX, NY, NZ                int32
	Mode                      int32
	NXStart, NYStart, NZStart int32
	MX, MY, MZ                int32
	CellA                     [3]float32
	CellB                     [3]float32
	MapC, MapR, MapS          int32
	DMin, DMax, DMean         float32
	ISpg                      int32
	NSymBT                    int32
	Extra1                    [8]byte
	ExtTyp                    [4]byte
	NVersion                  int32
	Extra2                    [16]byte
	NInt, NReal               int16
	Extra3                    [76]byte
	CMap                      [4]byte
	Stamp                     [4]byte
	RMS                       float32
	NLabl                     int32
	Labels                    [10][80]byte
}

// Write stores the signal as a single mode 2 (32-bit float) section. Cell
// dimensions encode the axis scales so Read can recover them.
func Write(filename string, s *signal.Signal2D) (err error) {
	if s == nil || s.Rows() == 0 || s.Cols() == 0 {
		return errors.New("empty signal")
	}
	rows := s.Rows()
	cols := s.Cols()

	vals := make([]float64, 0, rows*cols)
	for _, row := range s.Data {
		vals = append(vals, row...)
	}

	h := header{
		NX:       int32(cols),
		NY:       int32(rows),
		NZ:       1,
		Mode:     modeFloat32,
		MX:       int32(cols),
		MY:       int32(rows),
		MZ:       1,
		CellA:    [3]float32{float32(float64(cols) * s.XAxis.Scale), float32(float64(rows) * s.YAxis.Scale), 1},
		CellB:    [3]float32{90, 90, 90},
		MapC:     1,
		MapR:     2,
		MapS:     3,
		DMin:     float32(s.Min()),
		DMax:     float32(s.Max()),
		DMean:    float32(stat.Mean(vals, nil)),
		NVersion: 20140,
		CMap:     [4]byte{'M', 'A', 'P', ' '},
		Stamp:    [4]byte{68, 68, 0, 0}, // little-endian machine stamp
		RMS:      float32(stat.PopStdDev(vals, nil)),
		NLabl:    1,
	}
	setLabel(&h.Labels[0], "stemdiff synthetic diffraction data")

	data := make([]float32, 0, rows*cols)
	for _, row := range s.Data {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := binary.Write(f, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("writing image data: %w", err)
	}
	return nil
}

// Read loads a single-image MRC file. Mode 1 (16-bit signed) and mode 2
// (32-bit float) are accepted; mode 1 values below zero clamp to zero, the
// way tomography readers treat detector underflow. Axis scales are
// recovered from the cell dimensions when present.
func Read(filename string) (s *signal.Signal2D, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var h header
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.Mode != modeInt16 && h.Mode != modeFloat32 {
		return nil, fmt.Errorf("unknown MRC image mode %d (want 16-bit signed or 32-bit float)", h.Mode)
	}
	if h.NXStart != 0 || h.NYStart != 0 {
		return nil, fmt.Errorf("image origin must be at zero: found at %d,%d", h.NXStart, h.NYStart)
	}
	if h.NZ != 1 {
		return nil, fmt.Errorf("want a single image, file has %d sections", h.NZ)
	}
	if h.NX < 1 || h.NY < 1 {
		return nil, fmt.Errorf("bad image shape %dx%d", h.NX, h.NY)
	}

	// Skip the extended header, if any.
	if h.NSymBT > 0 {
		if _, err := io.CopyN(io.Discard, f, int64(h.NSymBT)); err != nil {
			return nil, fmt.Errorf("skipping extended header: %w", err)
		}
	}

	nx := int(h.NX)
	ny := int(h.NY)
	s, err = signal.New(ny, nx)
	if err != nil {
		return nil, err
	}

	switch h.Mode {
	case modeInt16:
		raw := make([]int16, nx*ny)
		if err := binary.Read(f, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("reading image data: %w", err)
		}
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v := raw[x+nx*y]
				if v < 0 {
					v = 0
				}
				s.Data[y][x] = float64(v)
			}
		}
	case modeFloat32:
		raw := make([]float32, nx*ny)
		if err := binary.Read(f, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("reading image data: %w", err)
		}
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				s.Data[y][x] = float64(raw[x+nx*y])
			}
		}
	}

	if h.MX > 0 && h.CellA[0] > 0 {
		s.XAxis.Scale = float64(h.CellA[0]) / float64(h.MX)
	}
	if h.MY > 0 && h.CellA[1] > 0 {
		s.YAxis.Scale = float64(h.CellA[1]) / float64(h.MY)
	}
	return s, nil
}

// IsMRCFile reports whether the filename carries an .mrc extension.
func IsMRCFile(filename string) bool {
	return len(filename) >= 4 && filename[len(filename)-4:] == ".mrc"
}

func setLabel(label *[80]byte, text string) {
	for i := range label {
		label[i] = ' '
	}
	copy(label[:], text)
}
