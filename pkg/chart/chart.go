// Package chart renders PNG figures for the infiltration curve and for a
// written centroid dataset.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/kass/go-gazetteer/pkg/infiltration"
	"github.com/kass/go-gazetteer/pkg/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNothingToDraw is returned when no finite point survives for plotting
var ErrNothingToDraw = errors.New("no finite points to draw")

const (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

var (
	red    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	blue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	green  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	orange = color.RGBA{R: 255, G: 127, B: 14, A: 255}

	dashed  = []vg.Length{vg.Points(6), vg.Points(3)}
	dotted  = []vg.Length{vg.Points(1), vg.Points(3)}
	dashDot = []vg.Length{vg.Points(6), vg.Points(3), vg.Points(1), vg.Points(3)}
)

// Infiltration draws rate against cumulative volume with reference lines
// for Fp, Ks and the rain intensity, and saves it to path. Non-finite
// samples are left out of the curve.
func Infiltration(c infiltration.Curve, p infiltration.Params, path string) error {
	pts := make(plotter.XYs, 0, len(c.F))
	yMax := math.Max(p.Ks, p.RainIntensity)
	for i, F := range c.F {
		r := c.Rate[i]
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		pts = append(pts, plotter.XY{X: F, Y: r})
		yMax = math.Max(yMax, r)
	}
	if len(pts) == 0 {
		return fmt.Errorf("failed to draw infiltration curve: %w", ErrNothingToDraw)
	}
	xMax := c.F[len(c.F)-1]
	yMax *= 1.05

	plt := plot.New()
	plt.Title.Text = "Infiltration rate vs. volume"
	plt.X.Label.Text = "Infiltration volume F (in)"
	plt.Y.Label.Text = "Infiltration rate f (in/hr)"
	plt.Legend.Top = true
	plt.Add(plotter.NewGrid())

	curve, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build curve: %w", err)
	}
	curve.Color = blue
	curve.Width = vg.Points(1.5)
	plt.Add(curve)
	plt.Legend.Add("f(F)", curve)

	if c.Fp >= 0 && c.Fp <= xMax {
		marker, err := plotter.NewLine(plotter.XYs{{X: c.Fp, Y: 0}, {X: c.Fp, Y: yMax}})
		if err != nil {
			return fmt.Errorf("failed to build ponding marker: %w", err)
		}
		marker.Color = red
		marker.Dashes = dashed
		plt.Add(marker)
		plt.Legend.Add(fmt.Sprintf("F_p = %.3f in", c.Fp), marker)
	}

	ks := horizontal(p.Ks, xMax, green, dotted)
	plt.Add(ks)
	plt.Legend.Add(fmt.Sprintf("K_s = %.2f in/hr", p.Ks), ks)

	rain := horizontal(p.RainIntensity, xMax, orange, dashDot)
	plt.Add(rain)
	plt.Legend.Add(fmt.Sprintf("i = %.2f in/hr", p.RainIntensity), rain)

	plt.X.Min, plt.X.Max = 0, xMax
	plt.Y.Min, plt.Y.Max = 0, yMax

	if err := plt.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

// Centroids draws every centroid as a small red marker and saves it to path
func Centroids(ds *models.CentroidDataset, path string) error {
	if ds.Len() == 0 {
		return fmt.Errorf("failed to draw centroids: %w", ErrNothingToDraw)
	}

	pts := make(plotter.XYs, ds.Len())
	for i, c := range ds.Centroids {
		pts[i] = plotter.XY{X: c.Lon(), Y: c.Lat()}
	}

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("Centroids (%d)", ds.Len())
	plt.X.Label.Text = "Longitude"
	plt.Y.Label.Text = "Latitude"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle = draw.GlyphStyle{
		Color:  red,
		Radius: vg.Points(0.5),
		Shape:  draw.CircleGlyph{},
	}
	plt.Add(scatter)

	if err := plt.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

func horizontal(y, xMax float64, c color.Color, dashes []vg.Length) *plotter.Function {
	fn := plotter.NewFunction(func(float64) float64 { return y })
	fn.XMin, fn.XMax = 0, xMax
	fn.Samples = 2
	fn.Color = c
	fn.Width = vg.Points(1)
	fn.Dashes = dashes
	return fn
}
