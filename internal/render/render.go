// Package render rasterizes graphics objects to PNG.
package render

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/luacell/luacell/value"
)

// PNG renders plots to a raster canvas of the given pixel dimensions.
type PNG struct {
	Width  int
	Height int
}

// Render implements value.Renderer.
func (r PNG) Render(src *value.Plot) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("rendering: nil plot")
	}

	p := plot.New()
	p.Title.Text = src.Title
	p.X.Label.Text = src.XLabel
	p.Y.Label.Text = src.YLabel
	p.Add(plotter.NewGrid())

	switch src.Kind {
	case value.PlotLine:
		line, err := plotter.NewLine(xyPoints(src))
		if err != nil {
			return nil, fmt.Errorf("rendering line: %w", err)
		}
		p.Add(line)
	case value.PlotScatter:
		scatter, err := plotter.NewScatter(xyPoints(src))
		if err != nil {
			return nil, fmt.Errorf("rendering scatter: %w", err)
		}
		p.Add(scatter)
	case value.PlotBar:
		bars, err := plotter.NewBarChart(plotter.Values(src.Values), vg.Points(20))
		if err != nil {
			return nil, fmt.Errorf("rendering bars: %w", err)
		}
		p.Add(bars)
		if len(src.Labels) > 0 {
			p.NominalX(src.Labels...)
		}
	default:
		return nil, fmt.Errorf("rendering: unknown plot kind %q", src.Kind)
	}

	width, height := r.Width, r.Height
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	canvas := vgimg.PngCanvas{Canvas: vgimg.New(
		vg.Length(width)/vgimg.DefaultDPI*vg.Inch,
		vg.Length(height)/vgimg.DefaultDPI*vg.Inch,
	)}
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// xyPoints pairs the X and Y series, stopping at the shorter one. A missing
// X series falls back to the point index.
func xyPoints(src *value.Plot) plotter.XYs {
	n := len(src.Y)
	if len(src.X) > 0 && len(src.X) < n {
		n = len(src.X)
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		if len(src.X) > 0 {
			pts[i].X = src.X[i]
		} else {
			pts[i].X = float64(i + 1)
		}
		pts[i].Y = src.Y[i]
	}
	return pts
}
