package main

import (
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/subjective/monte"
)

// plotSweep writes a PNG of a sweep: every replicate (grey), the mean per
// parameter (blue) and a one-standard-deviation band (light blue).
func plotSweep(outDir, title, statName string, points []monte.SweepPoint) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "parameter"
	p.Y.Label.Text = statName

	var samples, means, upper, lower plotter.XYs
	for _, pt := range points {
		for _, s := range pt.Samples {
			if !math.IsNaN(s) {
				samples = append(samples, plotter.XY{X: pt.Param, Y: s})
			}
		}
		if math.IsNaN(pt.Mean) {
			continue
		}
		means = append(means, plotter.XY{X: pt.Param, Y: pt.Mean})
		if !math.IsNaN(pt.StdDev) {
			upper = append(upper, plotter.XY{X: pt.Param, Y: pt.Mean + pt.StdDev})
			lower = append(lower, plotter.XY{X: pt.Param, Y: pt.Mean - pt.StdDev})
		}
	}

	if len(samples) > 0 {
		sc, err := plotter.NewScatter(samples)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 120}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add("replicates", sc)
	}

	for i, band := range []plotter.XYs{upper, lower} {
		if len(band) < 2 {
			continue
		}
		line, err := plotter.NewLine(band)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 120, G: 160, B: 230, A: 200}
		line.Width = vg.Points(0.8)
		line.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		p.Add(line)
		if i == 0 {
			p.Legend.Add("mean ± std", line)
		}
	}

	if len(means) > 0 {
		line, marks, err := plotter.NewLinePoints(means)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 20, G: 80, B: 200, A: 230}
		line.Width = vg.Points(1.6)
		marks.GlyphStyle.Color = line.Color
		marks.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(line, marks)
		p.Legend.Add("mean", line, marks)
	}

	p.Add(plotter.NewGrid())
	all := append(append(append(plotter.XYs{}, samples...), upper...), lower...)
	xmin, xmax, ymin, ymax := autoRange(all)
	p.X.Min = xmin
	p.X.Max = xmax
	p.Y.Min = ymin
	p.Y.Max = ymax

	if err := ensureDir(outDir); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(outDir, "sweep.png"))
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, p := range xs {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}
