// Package render exports calibrated 2D signals as raster images (PNG, TIFF,
// WebP) and diagnostic plots. Low-dynamic-range data survives the trip to
// disk either as an auto-stretched 8-bit view or as a 16-bit data image with
// a fixed physical scaling that can be inverted on load.
package render

import (
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"sort"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/tiff"

	"github.com/stemdiff/stemdiff/signal"
)

// GrayImage renders the signal as an 8-bit view with a percentile stretch:
// values at the pLow percentile and below map to 0, values at pHigh and
// above map to 255. The stretch is robust to outliers, which matters for
// diffraction data where a central disk can dwarf every ring.
func GrayImage(s *signal.Signal2D, pLow, pHigh float64) (*image.Gray, error) {
	if s == nil || s.Rows() == 0 || s.Cols() == 0 {
		return nil, errors.New("empty signal")
	}
	if !(0 <= pLow && pLow < pHigh && pHigh <= 100) {
		return nil, errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}
	h := s.Rows()
	w := s.Cols()

	// Collect finite values for the percentile computation.
	vals := make([]float64, 0, h*w)
	for _, row := range s.Data {
		for _, v := range row {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return nil, errors.New("signal has no finite values")
	}
	sort.Float64s(vals)

	// Helper to get percentile value
	percentile := func(p float64) float64 {
		if p <= 0 {
			return vals[0]
		}
		if p >= 100 {
			return vals[len(vals)-1]
		}
		pos := (p / 100.0) * float64(len(vals)-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i >= len(vals)-1 {
			return vals[len(vals)-1]
		}
		return vals[i]*(1-f) + vals[i+1]*f
	}

	lo := percentile(pLow)
	hi := percentile(pHigh)
	if hi == lo {
		hi = lo + 1 // avoid divide-by-zero; image becomes mostly constant
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y, dataRow := range s.Data {
		row := y * img.Stride
		for x, v := range dataRow {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[row+x] = 0
				continue
			}
			t := (v - lo) / (hi - lo) // normalize
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			img.Pix[row+x] = uint8(math.Round(t * 255.0))
		}
	}
	return img, nil
}

// Gray16Image renders the signal as a 16-bit data image with a fixed
// physical scaling: Y16 = round(v * scale), clamped to [0, 65535]. Loading
// the file with the same scale recovers the data to quantisation accuracy.
func Gray16Image(s *signal.Signal2D, scale float64) (*image.Gray16, error) {
	if s == nil || s.Rows() == 0 || s.Cols() == 0 {
		return nil, errors.New("empty signal")
	}
	if scale <= 0 {
		return nil, errors.New("scale must be > 0")
	}
	h := s.Rows()
	w := s.Cols()

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y, dataRow := range s.Data {
		row := y * img.Stride
		for x, v := range dataRow {
			i := row + 2*x
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[i], img.Pix[i+1] = 0, 0
				continue
			}
			u := math.Round(v * scale)
			if u < 0 {
				u = 0
			} else if u > 65535 {
				u = 65535
			}
			y16 := uint16(u)

			// Gray16 Pix is big-endian per pixel: high then low.
			img.Pix[i] = uint8(y16 >> 8)
			img.Pix[i+1] = uint8(y16)
		}
	}
	return img, nil
}

// SavePNG writes the image to a PNG file.
func SavePNG(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// SaveTIFF writes the image to a deflate-compressed TIFF file.
func SaveTIFF(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// SaveWebP writes the image to a lossless WebP file.
func SaveWebP(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return nativewebp.Encode(f, img, nil)
}

// LoadGray16PNG loads a 16-bit data image written with Gray16Image and
// undoes its fixed scaling, returning a unit-axis signal.
func LoadGray16PNG(filename string, scale float64) (*signal.Signal2D, error) {
	if scale <= 0 {
		return nil, errors.New("scale must be > 0")
	}
	img, err := loadPNG(filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	matrix := make([][]float64, bounds.Dy())
	for y := range matrix {
		matrix[y] = make([]float64, bounds.Dx())
		for x := range matrix[y] {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			matrix[y][x] = float64(r+g+b) / 3 / scale
		}
	}
	return signal.FromData(matrix)
}

// LoadGrayPNG loads any PNG as a grayscale intensity signal in 8-bit units.
func LoadGrayPNG(filename string) (*signal.Signal2D, error) {
	img, err := loadPNG(filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	matrix := make([][]float64, bounds.Dy())
	for y := range matrix {
		matrix[y] = make([]float64, bounds.Dx())
		for x := range matrix[y] {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			matrix[y][x] = float64(r+g+b) / 3 / 257
		}
	}
	return signal.FromData(matrix)
}

func loadPNG(filename string) (img image.Image, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Decode(f)
}
