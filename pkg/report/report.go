// Package report prints run summaries to the console. Styling is applied only
// when the output is a terminal; otherwise lines are plain text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/kass/go-gazetteer/pkg/centroid"
	"github.com/kass/go-gazetteer/pkg/geo"
	"github.com/kass/go-gazetteer/pkg/infiltration"
	"github.com/kass/go-gazetteer/pkg/logging"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

// Printer writes summaries to an output stream
type Printer struct {
	out    io.Writer
	styled bool
}

// New returns a printer for out, styled when out is a terminal
func New(out io.Writer) *Printer {
	return &Printer{out: out, styled: logging.IsTerminal(out)}
}

// Plain returns a printer that never emits escape sequences
func Plain(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) title(s string) {
	if p.styled {
		fmt.Fprintln(p.out, titleStyle.Render(s))
		return
	}
	fmt.Fprintln(p.out, s)
	fmt.Fprintln(p.out, strings.Repeat("=", len(s)))
}

func (p *Printer) stat(label string, value any) {
	if p.styled {
		fmt.Fprintf(p.out, "  %s %s\n", dimStyle.Render(label+":"), statStyle.Render(fmt.Sprint(value)))
		return
	}
	fmt.Fprintf(p.out, "  %s: %v\n", label, value)
}

func (p *Printer) line(style lipgloss.Style, s string) {
	if p.styled {
		s = style.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

// Extraction summarizes a centroid run with the share of rows kept
func (p *Printer) Extraction(res centroid.Result) {
	p.title("Centroid extraction")
	p.stat("Input", res.Input)
	p.stat("Output", res.Output)
	p.stat("Rows read", res.Total)
	p.stat("Centroids written", res.Written)
	p.stat("Rows dropped", res.Dropped)
	p.stat("Elapsed", res.Elapsed.Round(time.Millisecond))

	kept := 0.0
	if res.Total > 0 {
		kept = float64(res.Written) / float64(res.Total)
	}
	if p.styled {
		bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
		fmt.Fprintf(p.out, "  %s %s\n", dimStyle.Render("Kept:"), bar.ViewAs(kept))
	} else {
		p.stat("Kept", fmt.Sprintf("%.1f%%", kept*100))
	}

	if res.Dropped > 0 {
		p.line(warnStyle, fmt.Sprintf("• %d rows had a missing or non-numeric coordinate", res.Dropped))
	}
	p.line(successStyle, "✓ Shapefile written")
}

// Infiltration prints the ponding scalars in inches and hours
func (p *Printer) Infiltration(c infiltration.Curve, chartPath string) {
	p.title("Green-Ampt infiltration")
	fmt.Fprintf(p.out, "Delta theta: %.3f\n", c.DeltaTheta)
	fmt.Fprintf(p.out, "Ponding volume F_p: %.3f in\n", c.Fp)
	fmt.Fprintf(p.out, "Time to ponding t_p: %.3f hr (%.1f min)\n", c.Tp, c.Tp*60)
	if chartPath != "" {
		p.line(successStyle, "✓ Chart saved to "+chartPath)
	}
}

// Neighbors lists search hits as WKT with their distance
func (p *Printer) Neighbors(ns []geo.Neighbor) error {
	p.title(fmt.Sprintf("Nearest centroids (%d)", len(ns)))
	for i, n := range ns {
		text, err := wkt.Marshal(n.Centroid.Geometry)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", n.Centroid.ID, err)
		}
		p.stat(fmt.Sprintf("%2d. %s", i+1, n.Centroid.ID), fmt.Sprintf("%s  %.2f km", text, n.DistanceKm))
	}
	return nil
}
