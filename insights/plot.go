package insights

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// PlotImportances renders imps as a horizontal bar chart PNG at path, the
// most important feature on top.
func PlotImportances(imps []Importance, path string) error {
	n := len(imps)
	if n == 0 {
		return errors.Wrap(errors.ErrEmptyData, "no importances to plot")
	}

	// Bars are drawn bottom-up, so reverse to put the largest first.
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, imp := range imps {
		values[n-1-i] = imp.Importance
		names[n-1-i] = imp.Feature
	}

	p := plot.New()
	p.Title.Text = "Feature Importance from Random Forest"
	p.X.Label.Text = "Importance Score"
	p.Y.Label.Text = "Feature"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	bars.Horizontal = true
	bars.LineStyle.Width = 0
	bars.Color = barColor
	p.Add(bars)
	p.NominalY(names...)

	return save(p, 10*vg.Inch, 6*vg.Inch, path)
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}
