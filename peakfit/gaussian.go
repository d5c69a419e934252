// Package peakfit fits single Gaussian peaks to 1D intensity profiles by
// unweighted least squares. The peak is area-parametrised, so A is the area
// under the curve rather than the peak height, matching the convention of
// spectroscopy fitting frameworks.
package peakfit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Gaussian is an area-parametrised Gaussian peak:
//
//	f(x) = A / (Sigma*sqrt(2*pi)) * exp(-(x-Centre)^2 / (2*Sigma^2))
type Gaussian struct {
	A      float64 // area under the peak
	Centre float64 // peak position
	Sigma  float64 // standard deviation, must be positive
}

// Eval returns the model value at x.
func (g Gaussian) Eval(x float64) float64 {
	d := x - g.Centre
	return g.A / (g.Sigma * math.Sqrt(2*math.Pi)) *
		math.Exp(-d*d/(2*g.Sigma*g.Sigma))
}

// FitProfile fits a Gaussian to the samples (xs[i], ys[i]) by least squares,
// starting from init. The fit runs over (A, Centre, log Sigma), which keeps
// the width positive without constrained optimisation. The result is
// deterministic: the same profile and start point give identical parameters.
func FitProfile(xs, ys []float64, init Gaussian) (Gaussian, error) {
	if len(xs) != len(ys) {
		return Gaussian{}, fmt.Errorf("profile length mismatch: %d samples vs %d values", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return Gaussian{}, fmt.Errorf("profile needs at least 3 samples, got %d", len(xs))
	}
	if init.Sigma <= 0 {
		return Gaussian{}, fmt.Errorf("initial sigma must be positive, got %v", init.Sigma)
	}

	sqrt2pi := math.Sqrt(2 * math.Pi)

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, c, sigma := p[0], p[1], math.Exp(p[2])
			norm := 1 / (sigma * sqrt2pi)
			ssr := 0.0
			for i, x := range xs {
				d := x - c
				r := a*norm*math.Exp(-d*d/(2*sigma*sigma)) - ys[i]
				ssr += r * r
			}
			return ssr
		},
		Grad: func(grad, p []float64) {
			a, c, sigma := p[0], p[1], math.Exp(p[2])
			norm := 1 / (sigma * sqrt2pi)
			grad[0], grad[1], grad[2] = 0, 0, 0
			for i, x := range xs {
				d := x - c
				shape := norm * math.Exp(-d*d/(2*sigma*sigma))
				f := a * shape
				r := f - ys[i]
				grad[0] += 2 * r * shape
				grad[1] += 2 * r * f * d / (sigma * sigma)
				// d f / d log(sigma)
				grad[2] += 2 * r * f * (d*d/(sigma*sigma) - 1)
			}
		},
	}

	p0 := []float64{init.A, init.Centre, math.Log(init.Sigma)}
	result, err := optimize.Minimize(problem, p0, nil, &optimize.BFGS{})
	if err != nil {
		return Gaussian{}, fmt.Errorf("gaussian fit: %w", err)
	}
	if err := result.Status.Err(); err != nil {
		return Gaussian{}, fmt.Errorf("gaussian fit: %w", err)
	}

	return Gaussian{
		A:      result.X[0],
		Centre: result.X[1],
		Sigma:  math.Exp(result.X[2]),
	}, nil
}

// FitStack fits one Gaussian per profile, each independently over the shared
// sample positions xs with its own start point. Any single fit failure aborts
// the stack.
func FitStack(xs []float64, profiles [][]float64, inits []Gaussian) ([]Gaussian, error) {
	if len(profiles) == 0 {
		return nil, errors.New("empty profile stack")
	}
	if len(inits) != len(profiles) {
		return nil, fmt.Errorf("start point count %d does not match profile count %d", len(inits), len(profiles))
	}
	fits := make([]Gaussian, len(profiles))
	for i, ys := range profiles {
		g, err := FitProfile(xs, ys, inits[i])
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		fits[i] = g
	}
	return fits, nil
}

// Centres returns the fitted peak positions in stack order.
func Centres(fits []Gaussian) []float64 {
	centres := make([]float64, len(fits))
	for i, g := range fits {
		centres[i] = g.Centre
	}
	return centres
}

// CentreSpread returns the population standard deviation of the fitted peak
// positions. Zero spread means every profile peaks at the same position.
func CentreSpread(fits []Gaussian) float64 {
	return stat.PopStdDev(Centres(fits), nil)
}
