// Package render draws fitted curves and fitness history to PNG files.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wildfunctions/genetic_poly/pkg/engine"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

var (
	eliteColor = color.RGBA{R: 200, A: 255}
	meanColor  = color.RGBA{B: 200, A: 255}
)

// PlotObserver is an engine.Observer that saves the data set with the current
// elite curve every Every generations, and a best/mean fitness chart on Close.
type PlotObserver struct {
	Dir   string
	Every int
	Data  []poly.DataPoint

	mu   sync.Mutex
	gens []float64
	best []float64
	mean []float64
	err  error
}

// NewPlotObserver creates dir if needed. every < 1 disables curve snapshots.
func NewPlotObserver(dir string, every int, data []poly.DataPoint) (*PlotObserver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PlotObserver{Dir: dir, Every: every, Data: data}, nil
}

// OnGeneration records statistics of the scored generation and snapshots
// the elite curve when due. Steps count every generation seen, across
// attempts, and name both the chart axis and the snapshot files.
func (p *PlotObserver) OnGeneration(gen engine.Generation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := len(p.gens)
	p.gens = append(p.gens, float64(step))
	p.best = append(p.best, gen.Stats.Best)
	p.mean = append(p.mean, gen.Stats.Mean)

	if p.err != nil || p.Every < 1 || step%p.Every != 0 {
		return
	}
	path := filepath.Join(p.Dir, fmt.Sprintf("gen_%05d.png", step))
	title := fmt.Sprintf("attempt %d, generation %d, MAE %.4f", gen.Attempt, gen.Index-1, -gen.EliteFitness)
	if err := Curve(p.Data, gen.Elite, title, path); err != nil {
		p.err = err
	}
}

// Close writes fitness.png and returns the first rendering error.
func (p *PlotObserver) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.gens) == 0 {
		return p.err
	}
	err := Fitness(p.gens, p.best, p.mean, filepath.Join(p.Dir, "fitness.png"))
	return errors.Join(p.err, err)
}

// Curve plots data as a scatter with the polynomial g drawn over its x range.
func Curve(data []poly.DataPoint, g poly.Genome, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	pts := make(plotter.XYs, len(data))
	xs := make([]float64, len(data))
	for i, d := range data {
		pts[i].X, pts[i].Y = d.X, d.Y
		xs[i] = d.X
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}

	coeffs := []float64(g)
	fn := plotter.NewFunction(func(x float64) float64 { return poly.Evaluate(x, coeffs) })
	if len(xs) > 0 {
		fn.XMin, fn.XMax = floats.Min(xs), floats.Max(xs)
	}
	fn.Samples = 200
	fn.Color = eliteColor
	fn.Width = vg.Points(1.5)

	p.Add(scatter, fn)
	p.Legend.Add("data", scatter)
	p.Legend.Add(g.String(), fn)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Fitness plots best and mean fitness per generation.
func Fitness(gens, best, mean []float64, path string) error {
	if len(gens) != len(best) || len(gens) != len(mean) {
		return fmt.Errorf("render: series lengths %d/%d/%d differ", len(gens), len(best), len(mean))
	}
	p := plot.New()
	p.Title.Text = "Fitness"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness (-MAE)"

	bestPts := make(plotter.XYs, len(gens))
	meanPts := make(plotter.XYs, len(gens))
	for i := range gens {
		bestPts[i].X, bestPts[i].Y = gens[i], best[i]
		meanPts[i].X, meanPts[i].Y = gens[i], mean[i]
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	bestLine.Color = eliteColor
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Color = meanColor

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
