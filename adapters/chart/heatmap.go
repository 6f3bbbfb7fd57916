package chart

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"surveystat/domain/stats"
	"surveystat/internal/errors"
)

// HeatmapFile is the correlation heatmap written to the figures directory.
const HeatmapFile = "correlation_heatmap.png"

// matrixGrid adapts a display matrix to plotter.GridXYZ. Row 0 of the matrix
// is drawn at the top.
type matrixGrid struct {
	values [][]float64
}

func (g matrixGrid) Dims() (c, r int)   { return len(g.values), len(g.values) }
func (g matrixGrid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// HeatmapOptions controls the figure.
type HeatmapOptions struct {
	Title  string
	Labels []string // axis names, matrix order; indicator codes when empty
	Size   vg.Length
}

// DefaultHeatmapOptions is a square figure titled like the paper's Figure 2.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{Title: "Correlation Matrix: Technology, Innovation and Performance", Size: 8 * vg.Inch}
}

// WriteHeatmap draws the display matrix with a diverging blue-red palette
// fixed to [-1, 1] and each cell annotated with r to two decimals.
func WriteHeatmap(path string, m *stats.Matrix, opts HeatmapOptions) error {
	startTime := time.Now()
	k := m.Size()
	if k == 0 {
		return errors.ReportError(filepath.Base(path), fmt.Errorf("empty correlation matrix"))
	}
	names := opts.Labels
	if len(names) != k {
		names = make([]string, k)
		for i, c := range m.Codes {
			names[i] = c.String()
		}
	}
	if opts.Size <= 0 {
		opts.Size = DefaultHeatmapOptions().Size
	}

	grid := matrixGrid{values: m.Display()}
	heat := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	heat.Min, heat.Max = -1, 1

	p := plot.New()
	p.Title.Text = opts.Title
	p.Add(heat)

	xys := make(plotter.XYs, 0, k*k)
	text := make([]string, 0, k*k)
	for c := 0; c < k; c++ {
		for r := 0; r < k; r++ {
			xys = append(xys, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			text = append(text, fmt.Sprintf("%.2f", grid.Z(c, r)))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	reversed := make([]string, k)
	for i, n := range names {
		reversed[k-1-i] = n
	}
	p.NominalX(names...)
	p.NominalY(reversed...)
	p.X.Tick.Label.Rotation = 0.785
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	if err := p.Save(opts.Size, opts.Size, path); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	log.Printf("[Heatmap] Wrote %dx%d heatmap to %s in %.2fms", k, k, path, float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}
