package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"

	// Liberation fonts register automatically on import
	_ "gonum.org/v1/plot/font/liberation"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/stemdiff/stemdiff/radial"
	"github.com/stemdiff/stemdiff/signal"
)

// OffsetMapImage renders an offset-score image as a heat map with the lowest
// scoring candidate centre marked, sized wPx by hPx pixels.
func OffsetMapImage(s *signal.Signal2D, title string, wPx, hPx float64) (image.Image, error) {
	p, err := newOffsetMapPlot(s, title)
	if err != nil {
		return nil, err
	}
	return plotImage(p, wPx, hPx), nil
}

// SaveOffsetMapPlot writes the offset-score heat map to a PNG file.
func SaveOffsetMapPlot(filename string, s *signal.Signal2D, title string, wPx, hPx float64) error {
	img, err := OffsetMapImage(s, title, wPx, hPx)
	if err != nil {
		return err
	}
	return SavePNG(filename, img)
}

func newOffsetMapPlot(s *signal.Signal2D, title string) (*plot.Plot, error) {
	if s == nil || s.Rows() == 0 || s.Cols() == 0 {
		return nil, errors.New("empty signal")
	}

	p := plot.New()
	setPlotFonts(p)

	p.Title.Text = title
	p.X.Label.Text = withUnits("centre x", s.XAxis.Units)
	p.Y.Label.Text = withUnits("centre y", s.YAxis.Units)

	// One tick per candidate step, thinned when the grid is large.
	p.X.Tick.Marker = StepTicks{Step: gridStep(s.XAxis, 12), Format: "%.2f"}
	p.Y.Tick.Marker = StepTicks{Step: gridStep(s.YAxis, 12), Format: "%.2f"}

	p.Add(plotter.NewHeatMap(s, palette.Heat(12, 1)))

	minX, minY := s.CoordinateOfMin()
	marker, err := plotter.NewScatter(plotter.XYs{{X: minX, Y: minY}})
	if err != nil {
		return nil, err
	}
	marker.Shape = draw.CircleGlyph{}
	marker.Radius = vg.Points(4)
	marker.Color = color.RGBA{R: 0, G: 255, B: 255, A: 255} // cyan
	p.Add(marker)

	return p, nil
}

// ProfilesImage renders the radial profile of every angular slice as one
// line per slice, sized wPx by hPx pixels. Slices of a well centred ring
// peak at the same radius, so the lines pile up; a poorly centred ring fans
// them out.
func ProfilesImage(stack *radial.ProfileStack, title string, wPx, hPx float64) (image.Image, error) {
	p, err := newProfilesPlot(stack, title)
	if err != nil {
		return nil, err
	}
	return plotImage(p, wPx, hPx), nil
}

// SaveProfilesPlot writes the per-slice radial profile plot to a PNG file.
func SaveProfilesPlot(filename string, stack *radial.ProfileStack, title string, wPx, hPx float64) error {
	img, err := ProfilesImage(stack, title, wPx, hPx)
	if err != nil {
		return err
	}
	return SavePNG(filename, img)
}

func newProfilesPlot(stack *radial.ProfileStack, title string) (*plot.Plot, error) {
	if stack == nil || stack.Slices() == 0 {
		return nil, errors.New("empty profile stack")
	}

	p := plot.New()
	setPlotFonts(p)

	p.Title.Text = title
	p.X.Label.Text = withUnits("radius", stack.Radial.Units)
	p.Y.Label.Text = "integrated intensity"
	p.X.Tick.Marker = StepTicks{Step: gridStep(stack.Radial, 12), Format: "%.2f"}
	p.Add(plotter.NewGrid()) // grid + ticks

	for i, profile := range stack.Profiles {
		pts := make(plotter.XYs, len(profile))
		for j, v := range profile {
			pts[j].X = stack.Radial.Value(j)
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("slice %d", i), line)
	}
	p.Legend.Top = true

	return p, nil
}

func setPlotFonts(p *plot.Plot) {
	// Modify the font fields directly on existing styles
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)

	p.Legend.TextStyle.Font.Typeface = "Liberation"
	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.TextStyle.Font.Size = vg.Points(10)
}

// StepTicks places a tick at every multiple of Step inside the axis range.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if t.Step <= 0 {
		return nil
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// gridStep starts at one tick per axis sample and doubles until at most
// maxTicks fit the range.
func gridStep(a signal.Axis, maxTicks int) float64 {
	step := a.Scale
	if step <= 0 {
		return 1
	}
	span := a.Scale * float64(a.Size-1)
	for span/step > float64(maxTicks) {
		step *= 2
	}
	return step
}

func plotImage(p *plot.Plot, wPx, hPx float64) image.Image {
	// Render into an in-memory image.
	// Choose a "virtual" size in vg units and map to pixels via DPI.
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := draw.New(c)
	p.Draw(dc)

	return c.Image()
}

func withUnits(name, units string) string {
	if units == "" {
		return name
	}
	return name + " (" + units + ")"
}
