package insights

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Chart file names written by EDA.
const (
	DistributionPlot = "burn_rate_distribution.png"
	FatiguePlot      = "burnrate_vs_fatigue.png"
	DesignationPlot  = "burnrate_by_designation.png"
	CompanyTypePlot  = "burnrate_by_company_type.png"
	CorrelationPlot  = "correlation_heatmap.png"

	distributionBins = 30
	boxWidth         = vg.Length(28)
)

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	histColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

// CorrelationColumns are the numeric columns of the heatmap.
var CorrelationColumns = []string{
	dataset.ColDesignation,
	dataset.ColResourceAllocation,
	dataset.ColMentalFatigue,
	dataset.ColBurnRate,
	dataset.ColTenure,
}

// EDA renders the exploratory charts of the raw training table into dir
// and returns the written paths. Tenure is measured against now.
func EDA(t *dataset.Table, dir string, now time.Time, logger log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.Component("insights")
	}
	if !t.HasTarget {
		return nil, errors.NewMissingColumnError(t.Source, dataset.ColBurnRate)
	}
	if t.Len() == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s", t.Source)
	}

	charts := []struct {
		file string
		draw func(*dataset.Table, time.Time) (*plot.Plot, error)
		w, h vg.Length
	}{
		{DistributionPlot, distribution, 8 * vg.Inch, 4 * vg.Inch},
		{FatiguePlot, fatigueScatter, 8 * vg.Inch, 4 * vg.Inch},
		{DesignationPlot, byDesignation, 8 * vg.Inch, 4 * vg.Inch},
		{CompanyTypePlot, byCompanyType, 8 * vg.Inch, 4 * vg.Inch},
		{CorrelationPlot, correlationHeatmap, 10 * vg.Inch, 6 * vg.Inch},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := c.draw(t, now)
		if err != nil {
			return nil, errors.Wrapf(err, "draw %s", c.file)
		}
		path := filepath.Join(dir, c.file)
		if err := save(p, c.w, c.h, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	logger.Info("eda charts written", log.PhaseKey, log.PhaseReporting, "dir", dir, "charts", len(paths))
	return paths, nil
}

func observedTargets(t *dataset.Table) plotter.Values {
	var v plotter.Values
	for _, e := range t.Employees {
		if !math.IsNaN(e.BurnRate) {
			v = append(v, e.BurnRate)
		}
	}
	return v
}

func distribution(t *dataset.Table, _ time.Time) (*plot.Plot, error) {
	values := observedTargets(t)
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no observed burn rate")
	}
	p := plot.New()
	p.Title.Text = "Distribution of Burn Rate"
	p.X.Label.Text = dataset.ColBurnRate
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(values, distributionBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = histColor
	p.Add(h)
	return p, nil
}

func fatigueScatter(t *dataset.Table, _ time.Time) (*plot.Plot, error) {
	groups := map[string]plotter.XYs{}
	for _, e := range t.Employees {
		if math.IsNaN(e.BurnRate) || math.IsNaN(e.MentalFatigueScore) {
			continue
		}
		groups[e.Gender] = append(groups[e.Gender], plotter.XY{X: e.MentalFatigueScore, Y: e.BurnRate})
	}

	p := plot.New()
	p.Title.Text = "Burn Rate vs Mental Fatigue Score"
	p.X.Label.Text = dataset.ColMentalFatigue
	p.Y.Label.Text = dataset.ColBurnRate
	p.Legend.Top = true
	p.Legend.Left = true

	for i, gender := range sortedKeys(groups) {
		s, err := plotter.NewScatter(groups[gender])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add(gender, s)
	}
	return p, nil
}

func byDesignation(t *dataset.Table, _ time.Time) (*plot.Plot, error) {
	groups := map[float64]plotter.Values{}
	for _, e := range t.Employees {
		if math.IsNaN(e.BurnRate) || math.IsNaN(e.Designation) {
			continue
		}
		groups[e.Designation] = append(groups[e.Designation], e.BurnRate)
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	names := make([]string, len(keys))
	ordered := make([]plotter.Values, len(keys))
	for i, k := range keys {
		names[i] = strconv.FormatFloat(k, 'g', -1, 64)
		ordered[i] = groups[k]
	}
	return boxPlot("Burn Rate by Designation", dataset.ColDesignation, names, ordered)
}

func byCompanyType(t *dataset.Table, _ time.Time) (*plot.Plot, error) {
	groups := map[string]plotter.Values{}
	for _, e := range t.Employees {
		if math.IsNaN(e.BurnRate) {
			continue
		}
		groups[e.CompanyType] = append(groups[e.CompanyType], e.BurnRate)
	}
	names := sortedKeys(groups)
	ordered := make([]plotter.Values, len(names))
	for i, k := range names {
		ordered[i] = groups[k]
	}
	return boxPlot("Burn Rate by Company Type", dataset.ColCompanyType, names, ordered)
}

func boxPlot(title, xLabel string, names []string, groups []plotter.Values) (*plot.Plot, error) {
	if len(groups) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no observed burn rate")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = dataset.ColBurnRate

	for i, g := range groups {
		b, err := plotter.NewBoxPlot(boxWidth, float64(i), g)
		if err != nil {
			return nil, err
		}
		b.FillColor = plotutil.Color(i)
		p.Add(b)
	}
	p.NominalX(names...)
	return p, nil
}

// Correlations returns the pairwise Pearson correlation of
// CorrelationColumns, using for each pair only rows where both are present.
func Correlations(t *dataset.Table, now time.Time) [][]float64 {
	cols := make([][]float64, len(CorrelationColumns))
	for j, name := range CorrelationColumns {
		if name == dataset.ColTenure {
			cols[j] = make([]float64, t.Len())
			for i, e := range t.Employees {
				cols[j][i] = features.Tenure(e.JoinDate, now)
			}
			continue
		}
		cols[j] = t.Floats(name)
	}

	k := len(cols)
	corr := make([][]float64, k)
	for a := range corr {
		corr[a] = make([]float64, k)
	}
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			c := pairwise(cols[a], cols[b])
			corr[a][b], corr[b][a] = c, c
		}
	}
	return corr
}

func pairwise(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

type corrGrid [][]float64

func (g corrGrid) Dims() (c, r int)   { return len(g), len(g) }
func (g corrGrid) Z(c, r int) float64 { return g[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func correlationHeatmap(t *dataset.Table, now time.Time) (*plot.Plot, error) {
	corr := Correlations(t, now)

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	h := plotter.NewHeatMap(corrGrid(corr), cm.Palette(255))
	h.Min, h.Max = -1, 1
	h.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"
	p.Add(h)

	var cells plotter.XYLabels
	for r := range corr {
		for c := range corr[r] {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			cells.Labels = append(cells.Labels, fmt.Sprintf("%.2f", corr[r][c]))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = -0.5
		labels.TextStyle[i].YAlign = -0.5
	}
	p.Add(labels)

	p.NominalX(CorrelationColumns...)
	p.NominalY(CorrelationColumns...)
	return p, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
