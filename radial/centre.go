package radial

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/stemdiff/stemdiff/peakfit"
	"github.com/stemdiff/stemdiff/signal"
)

// Initial width of the per-slice peak fits, in calibrated radial units.
const fitStartSigma = 3.0

// Centre is one candidate centre position in calibrated units.
type Centre struct {
	X float64
	Y float64
}

// Span is a half-open calibrated range [Lo, Hi).
type Span struct {
	Lo float64
	Hi float64
}

// Options controls the centre search.
type Options struct {
	Steps        int     // candidate grid extends Steps positions each way
	StepSize     float64 // candidate spacing in pixels
	AngleN       int     // number of angular slices
	ShowProgress bool    // display a progress bar over the candidate loop
}

// DefaultOptions returns the conventional search settings: an 11x11 candidate
// grid at single-pixel spacing, integrating in 8 angular slices.
func DefaultOptions() Options {
	return Options{Steps: 5, StepSize: 1, AngleN: 8, ShowProgress: true}
}

func (o Options) validate() error {
	if o.Steps < 1 {
		return fmt.Errorf("steps must be >= 1, got %d", o.Steps)
	}
	if o.StepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %v", o.StepSize)
	}
	if o.AngleN < 1 {
		return fmt.Errorf("angleN must be >= 1, got %d", o.AngleN)
	}
	return nil
}

// CentrePositionList enumerates the candidate centres around the approximate
// centre, which is the negative of the signal's axis offsets. Candidates are
// spaced stepSize axis-scale units apart, Steps positions each way, and are
// ordered x-major: all y values for the first x, then the next x.
func CentrePositionList(s *signal.Signal2D, steps int, stepSize float64) []Centre {
	stepX := s.XAxis.Scale * stepSize
	stepY := s.YAxis.Scale * stepSize
	x0 := -s.XAxis.Offset
	y0 := -s.YAxis.Offset

	centres := make([]Centre, 0, (2*steps+1)*(2*steps+1))
	for ix := -steps; ix <= steps; ix++ {
		x := x0 + float64(ix)*stepX
		for iy := -steps; iy <= steps; iy++ {
			centres = append(centres, Centre{X: x, Y: y0 + float64(iy)*stepY})
		}
	}
	return centres
}

// centreComparison integrates the signal about every candidate centre and
// returns one profile stack per candidate, cropped to the radial span when
// one is given.
func centreComparison(s *signal.Signal2D, steps int, stepSize float64, angleN int, crop *Span) ([]*ProfileStack, error) {
	if err := validatePlain2D(s); err != nil {
		return nil, fmt.Errorf("centre comparison %w", err)
	}
	centres := CentrePositionList(s, steps, stepSize)
	stacks := make([]*ProfileStack, 0, len(centres))
	for _, c := range centres {
		stack, err := AngularSliceIntegration(s, angleN, c.X, c.Y)
		if err != nil {
			return nil, err
		}
		if crop != nil {
			stack, err = stack.Crop(crop.Lo, crop.Hi)
			if err != nil {
				return nil, fmt.Errorf("radial span: %w", err)
			}
		}
		stacks = append(stacks, stack)
	}
	return stacks, nil
}

// OptimalCentrePosition scores every candidate centre around the approximate
// centre (the negative of the signal's axis offsets) and returns the scores
// as a small image over the candidate grid.
//
// Each candidate's profile stack is normalised to [0, 1], then a Gaussian is
// fitted to every angular slice over the given radial span, starting from
// that slice's intensity maximum. The candidate's score is the population
// standard deviation of the fitted peak positions; the best centre estimate
// is the coordinate of the smallest score, see Signal2D.CoordinateOfMin.
//
// The returned image has axis scale stepSize times the signal scale and an
// offset placing the approximate centre at the middle index, so candidate
// coordinates map onto indices through the usual offset/scale inversion.
func OptimalCentrePosition(s *signal.Signal2D, span Span, opts Options) (*signal.Signal2D, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	stacks, err := centreComparison(s, opts.Steps, opts.StepSize, opts.AngleN, &span)
	if err != nil {
		return nil, err
	}

	out, err := newOffsetImage(s, opts.Steps, opts.StepSize)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(stacks)), "centre search")
	}
	for _, stack := range stacks {
		spread, err := stackCentreSpread(stack)
		if err != nil {
			return nil, fmt.Errorf("candidate (%v, %v): %w", stack.CentreX, stack.CentreY, err)
		}
		ix, err := out.XAxis.Index(stack.CentreX)
		if err != nil {
			return nil, err
		}
		iy, err := out.YAxis.Index(stack.CentreY)
		if err != nil {
			return nil, err
		}
		out.Data[iy][ix] = spread
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return out, nil
}

// stackCentreSpread normalises the stack to [0, 1] and fits one Gaussian per
// angular slice, returning the population standard deviation of the fitted
// peak positions. A flat stack is left unnormalised and scores zero spread.
func stackCentreSpread(stack *ProfileStack) (float64, error) {
	min := stack.Min()
	profiles := make([][]float64, len(stack.Profiles))
	for k, prof := range stack.Profiles {
		profiles[k] = make([]float64, len(prof))
		for b, v := range prof {
			profiles[k][b] = v - min
		}
	}
	max := 0.0
	for _, prof := range profiles {
		for _, v := range prof {
			if v > max {
				max = v
			}
		}
	}
	normMax := 0.0
	if max > 0 {
		normMax = 1
		for _, prof := range profiles {
			for b := range prof {
				prof[b] /= max
			}
		}
	}

	xs := stack.Radial.Values()
	inits := make([]peakfit.Gaussian, len(profiles))
	for k, prof := range profiles {
		argmax := 0
		for b, v := range prof {
			if v > prof[argmax] {
				argmax = b
			}
		}
		inits[k] = peakfit.Gaussian{
			A:      normMax * 2 * fitStartSigma,
			Centre: stack.Radial.Value(argmax),
			Sigma:  fitStartSigma,
		}
	}

	fits, err := peakfit.FitStack(xs, profiles, inits)
	if err != nil {
		return 0, err
	}
	return peakfit.CentreSpread(fits), nil
}

// newOffsetImage builds the zeroed score image over the candidate grid. The
// middle index corresponds to the approximate centre.
func newOffsetImage(s *signal.Signal2D, steps int, stepSize float64) (*signal.Signal2D, error) {
	n := 2*steps + 1
	out, err := signal.New(n, n)
	if err != nil {
		return nil, err
	}
	out.XAxis.Scale = stepSize * s.XAxis.Scale
	out.XAxis.Offset = -s.XAxis.Offset - float64(steps)*stepSize*s.XAxis.Scale
	out.XAxis.Units = s.XAxis.Units
	out.YAxis.Scale = stepSize * s.YAxis.Scale
	out.YAxis.Offset = -s.YAxis.Offset - float64(steps)*stepSize*s.YAxis.Scale
	out.YAxis.Units = s.YAxis.Units
	return out, nil
}
