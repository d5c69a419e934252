package synth

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ConvMode selects how the convolution result is cropped.
type ConvMode int

const (
	ConvSame ConvMode = iota
	ConvFull
	ConvValid
)

// PaddingMode selects how samples outside the image are produced.
type PaddingMode int

const (
	PadZeros PaddingMode = iota
	PadReflect
	PadReplicate
	PadCircular
)

// GaussianKernel returns a normalised 2D Gaussian kernel with the given
// standard deviation in pixels, truncated at truncate standard deviations
// (radius = round(truncate*sigma)).
func GaussianKernel(sigma, truncate float64) ([][]float64, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("gaussian sigma must be positive, got %v", sigma)
	}
	if truncate <= 0 {
		return nil, fmt.Errorf("gaussian truncation must be positive, got %v", truncate)
	}
	radius := int(truncate*sigma + 0.5)

	w := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range w {
		d := float64(i - radius)
		w[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}

	// Separable kernel: the 2D weights are the outer product of the
	// normalised 1D weights.
	k := make([][]float64, len(w))
	for y := range k {
		k[y] = make([]float64, len(w))
		for x := range k[y] {
			k[y][x] = w[y] * w[x]
		}
	}
	return k, nil
}

// ConvolveFFT convolves image with a kernel using 2D FFTs.
//
// image:    HxW
// kernel:   KhxKw, normalised by the caller
// mode:     Same, Full, Valid
// pad:      Zeros, Reflect, Replicate, Circular
// centered: ifftshift the kernel to the grid origin before transforming;
//           leave false for kernels stored with the peak at the middle,
//           the Same crop already realigns those
//
// Returns a real-valued output in the same units as the input.
func ConvolveFFT(image, kernel [][]float64, mode ConvMode, pad PaddingMode, centered bool) ([][]float64, error) {
	H, W, err := rectSize(image)
	if err != nil {
		return nil, err
	}
	Kh, Kw, err := rectSize(kernel)
	if err != nil {
		return nil, err
	}
	if H == 0 || W == 0 || Kh == 0 || Kw == 0 {
		return nil, errors.New("empty image or kernel")
	}

	var outH, outW int
	switch mode {
	case ConvSame:
		outH, outW = H, W
	case ConvFull:
		outH, outW = H+Kh-1, W+Kw-1
	case ConvValid:
		outH, outW = H-Kh+1, W-Kw+1
		if outH <= 0 || outW <= 0 {
			return nil, errors.New("valid convolution requested but kernel larger than image")
		}
	default:
		return nil, errors.New("unknown ConvMode")
	}

	// FFT grid for linear convolution: at least full size. Any n works for
	// the gonum transforms, but pow2 grids are faster.
	FH := nextPow2(H + Kh - 1)
	FW := nextPow2(W + Kw - 1)
	if FH%2 != 0 {
		FH++
	}
	if FW%2 != 0 {
		FW++
	}

	A := makeComplex2D(FH, FW)
	B := makeComplex2D(FH, FW)

	// Embed the image at the top-left of the FFT grid. The padding policy
	// fills everything beyond the image bounds.
	for y := 0; y < FH; y++ {
		for x := 0; x < FW; x++ {
			A[y][x] = complex(sample2D(image, y, x, pad), 0)
		}
	}

	if centered {
		// Shift the kernel so its centre lands at (0,0) (ifftshift).
		kShift := ifftshift2D(kernel)
		for y := 0; y < Kh; y++ {
			for x := 0; x < Kw; x++ {
				B[y][x] = complex(kShift[y][x], 0)
			}
		}
	} else {
		for y := 0; y < Kh; y++ {
			for x := 0; x < Kw; x++ {
				B[y][x] = complex(kernel[y][x], 0)
			}
		}
	}

	fft2InPlace(A, true)
	fft2InPlace(B, true)

	for y := 0; y < FH; y++ {
		for x := 0; x < FW; x++ {
			A[y][x] *= B[y][x]
		}
	}

	fft2InPlace(A, false)

	// Gonum transforms are unnormalised: forward then inverse multiplies by
	// the grid size, so divide by FH*FW.
	scale := float64(FH * FW)

	full := make([][]float64, H+Kh-1)
	for y := range full {
		full[y] = make([]float64, W+Kw-1)
		for x := range full[y] {
			full[y][x] = real(A[y][x]) / scale
		}
	}

	switch mode {
	case ConvFull:
		return full, nil

	case ConvSame:
		// Centered crop of the full result to HxW.
		offY := Kh / 2
		offX := Kw / 2
		out := make([][]float64, H)
		for y := 0; y < H; y++ {
			out[y] = make([]float64, W)
			copy(out[y], full[y+offY][offX:offX+W])
		}
		return out, nil

	case ConvValid:
		startY := Kh - 1
		startX := Kw - 1
		out := make([][]float64, outH)
		for y := 0; y < outH; y++ {
			out[y] = make([]float64, outW)
			copy(out[y], full[y+startY][startX:startX+outW])
		}
		return out, nil
	}

	return nil, errors.New("unreachable")
}

// -------------------- FFT helpers --------------------

func fft2InPlace(a [][]complex128, forward bool) {
	h := len(a)
	w := len(a[0])

	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	// rows
	tmp := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(tmp, a[y])
		if forward {
			rowFFT.Coefficients(tmp, tmp)
		} else {
			rowFFT.Sequence(tmp, tmp)
		}
		copy(a[y], tmp)
	}

	// cols
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = a[y][x]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for y := 0; y < h; y++ {
			a[y][x] = col[y]
		}
	}
}

// -------------------- Padding + shifting --------------------

func sample2D(img [][]float64, y, x int, mode PaddingMode) float64 {
	H := len(img)
	W := len(img[0])

	if 0 <= y && y < H && 0 <= x && x < W {
		return img[y][x]
	}

	switch mode {
	case PadZeros:
		return 0

	case PadReplicate:
		yy := clamp(y, 0, H-1)
		xx := clamp(x, 0, W-1)
		return img[yy][xx]

	case PadReflect:
		yy := reflectIndex(y, H)
		xx := reflectIndex(x, W)
		return img[yy][xx]

	case PadCircular:
		yy := mod(y, H)
		xx := mod(x, W)
		return img[yy][xx]
	}

	return 0
}

// ifftshift2D moves the centre of a centered kernel to (0,0).
func ifftshift2D(x [][]float64) [][]float64 {
	h := len(x)
	w := len(x[0])
	out := make([][]float64, h)
	for i := range out {
		out[i] = make([]float64, w)
	}
	shY := h / 2
	shX := w / 2
	for y := 0; y < h; y++ {
		yy := (y + shY) % h
		for x0 := 0; x0 < w; x0++ {
			xx := (x0 + shX) % w
			out[y][x0] = x[yy][xx]
		}
	}
	return out
}

// -------------------- utility --------------------

func rectSize(m [][]float64) (h, w int, err error) {
	h = len(m)
	if h == 0 {
		return 0, 0, nil
	}
	w = len(m[0])
	for i := 1; i < h; i++ {
		if len(m[i]) != w {
			return 0, 0, errors.New("ragged matrix")
		}
	}
	return h, w, nil
}

func makeComplex2D(h, w int) [][]complex128 {
	m := make([][]complex128, h)
	for i := range m {
		m[i] = make([]complex128, w)
	}
	return m
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// reflectIndex implements "reflect" padding without repeating edge pixels.
// Example for n=5 indices: ... 2 1 0 1 2 3 4 3 2 1 0 1 ...
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2*n - 2
	i = mod(i, period)
	if i >= n {
		i = period - i
	}
	return i
}
