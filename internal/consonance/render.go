package consonance

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/derpledex/databridge/internal/logger"
)

// Chart colors.
var (
	colorBackground = drawing.ColorBlack
	colorLegendFill = drawing.ColorFromHex("1a1a1a")
	colorGrid       = drawing.Color{R: 255, G: 255, B: 255, A: 77}
	colorAxis       = drawing.ColorWhite
)

// RenderOptions controls the rendered chart.
type RenderOptions struct {
	// Fundamental is the lower tone's fundamental in Hz. Zero means
	// DefaultFundamental.
	Fundamental float64
	// Intervals to plot. Nil means DefaultIntervals.
	Intervals []Interval
	// Width and Height of the output image in pixels. Zero means 1200x600.
	Width  int
	Height int
	// Title rendered above the chart. Empty means no title.
	Title string
}

func (o *RenderOptions) withDefaults() RenderOptions {
	out := *o
	if out.Fundamental == 0 {
		out.Fundamental = DefaultFundamental
	}
	if out.Intervals == nil {
		out.Intervals = DefaultIntervals()
	}
	if out.Width == 0 {
		out.Width = 1200
	}
	if out.Height == 0 {
		out.Height = 600
	}
	return out
}

// Render draws the interaction density chart as a PNG to w.
//
// For each interval it plots the kernel density of partial frequency
// differences scaled by pair count, a dotted vertical marker at the
// fundamental Δf, and finally the ear's roughness sensitivity curve
// rescaled to the tallest density for visual comparison.
func Render(w io.Writer, opts RenderOptions) error {
	o := (&opts).withDefaults()

	xs := Grid(0, MaxDelta, GridPoints)

	type intervalCurve struct {
		interval Interval
		ys       []float64
	}

	curves := make([]intervalCurve, 0, len(o.Intervals))
	var yMax float64
	for _, interval := range o.Intervals {
		deltas := PartialDeltas(o.Fundamental, interval.Ratio, NumPartials, MaxDelta)
		ys, err := DensityCurve(deltas, xs)
		if err != nil {
			return fmt.Errorf("density for %s: %w", interval.Name, err)
		}
		for _, y := range ys {
			if y > yMax {
				yMax = y
			}
		}
		curves = append(curves, intervalCurve{interval: interval, ys: ys})
	}

	series := make([]chart.Series, 0, 2*len(curves)+1)
	for _, c := range curves {
		strokeColor := drawing.ColorFromHex(c.interval.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    c.interval.Name,
			XValues: xs,
			YValues: c.ys,
			Style: chart.Style{
				StrokeColor: strokeColor,
				StrokeWidth: 2.5,
			},
		})

		// Dotted marker at the fundamentals' difference
		markerX := o.Fundamental*c.interval.Ratio - o.Fundamental
		markerColor := strokeColor
		markerColor.A = 128
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{markerX, markerX},
			YValues: []float64{0, yMax},
			Style: chart.Style{
				StrokeColor:     markerColor,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{2, 2},
			},
		})
	}

	sensitivity := make([]float64, len(xs))
	var rMax float64
	for i, x := range xs {
		sensitivity[i] = Roughness(x, DefaultCriticalBandwidth)
		if sensitivity[i] > rMax {
			rMax = sensitivity[i]
		}
	}
	for i := range sensitivity {
		sensitivity[i] = sensitivity[i] / rMax * yMax
	}
	series = append(series, chart.ContinuousSeries{
		Name:    "Ear roughness sensitivity",
		XValues: xs,
		YValues: sensitivity,
		Style: chart.Style{
			StrokeColor:     colorAxis,
			StrokeWidth:     2,
			StrokeDashArray: []float64{6, 4},
		},
	})

	ch := chart.Chart{
		Title:      o.Title,
		TitleStyle: chart.Style{FontColor: colorAxis},
		Width:      o.Width,
		Height:     o.Height,
		Background: chart.Style{
			FillColor: colorBackground,
			Padding:   chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: colorBackground},
		XAxis: chart.XAxis{
			Name:           "Frequency difference Δf (Hz, within one octave)",
			NameStyle:      chart.Style{FontColor: colorAxis},
			Style:          chart.Style{FontColor: colorAxis, StrokeColor: colorAxis},
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 0.5},
			GridMinorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 0.5},
			Range:          &chart.ContinuousRange{Min: 0, Max: MaxDelta},
		},
		YAxis: chart.YAxis{
			Name:           "Interaction density",
			NameStyle:      chart.Style{FontColor: colorAxis},
			Style:          chart.Style{FontColor: colorAxis, StrokeColor: colorAxis},
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 0.5},
			GridMinorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 0.5},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{
		chart.Legend(&ch, chart.Style{
			FillColor:   colorLegendFill,
			FontColor:   colorAxis,
			StrokeColor: colorAxis,
		}),
	}

	return ch.Render(chart.PNG, w)
}

// SavePNG renders the chart to a PNG file at path.
func SavePNG(path string, opts RenderOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Render(f, opts); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Info("chart saved", "path", path)
	return nil
}
