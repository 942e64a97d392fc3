package trainer

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	trainColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	valColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// SavePlot renders accuracy and loss curves side by side into a PNG.
func (h *History) SavePlot(path string) error {
	accuracy, err := curvePlot("Model Accuracy", "Accuracy", h.Accuracy, h.ValAccuracy)
	if err != nil {
		return historyFileError(err, path)
	}
	loss, err := curvePlot("Model Loss", "Loss", h.Loss, h.ValLoss)
	if err != nil {
		return historyFileError(err, path)
	}

	img := vgimg.New(12*vg.Inch, 4*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      4 * vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	plots := [][]*plot.Plot{{accuracy, loss}}
	canvases := plot.Align(plots, tiles, dc)
	for j, p := range plots[0] {
		p.Draw(canvases[0][j])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return historyFileError(err, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return historyFileError(err, path)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return historyFileError(err, path)
	}
	if err := f.Close(); err != nil {
		return historyFileError(err, path)
	}
	return nil
}

func curvePlot(title, metric string, train, val []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = metric
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name   string
		values []float64
		color  color.Color
	}{
		{"Train", train, trainColor},
		{"Validation", val, valColor},
	} {
		if len(series.values) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(series.values))
		for i, v := range series.values {
			pts[i].X = float64(i + 1)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = series.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	return p, nil
}
