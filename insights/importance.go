// Package insights reports what drives the burn-rate estimate: the feature
// importances of the random forest and exploratory charts of the raw
// training table.
package insights

import (
	"cmp"
	"encoding/csv"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"

	// The random forest envelope decodes only once its type is registered.
	_ "github.com/YuminosukeSato/burnrate/ensemble"
)

// ImportanceModel is the candidate whose importances are reported.
const ImportanceModel = "RandomForest"

// ImportancePlotFile is the chart written by Generate.
const ImportancePlotFile = "feature_importance_plot.png"

// Importance is one feature's share of the model's total impurity decrease.
type Importance struct {
	Feature    string
	Importance float64
}

// FeatureImportances pairs the importances of m with names, sorted by
// importance descending and then by name.
func FeatureImportances(m any, names []string) ([]Importance, error) {
	fi, ok := m.(model.FeatureImporter)
	if !ok {
		return nil, errors.NewValueError("FeatureImportances", "model does not expose feature importances")
	}
	values, err := fi.FeatureImportances()
	if err != nil {
		return nil, err
	}
	if len(values) != len(names) {
		return nil, errors.NewDimensionError("FeatureImportances", len(names), len(values), 1)
	}

	out := make([]Importance, len(names))
	for i, name := range names {
		out[i] = Importance{Feature: name, Importance: values[i]}
	}
	slices.SortFunc(out, func(a, b Importance) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return strings.Compare(a.Feature, b.Feature)
	})
	return out, nil
}

// WriteImportances writes "Feature,Importance" rows to path.
func WriteImportances(path string, imps []Importance) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"Feature", "Importance"}); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	for _, imp := range imps {
		if err := w.Write([]string{imp.Feature, strconv.FormatFloat(imp.Importance, 'g', -1, 64)}); err != nil {
			f.Close()
			return errors.Wrapf(err, "write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// ReadImportances reads a file written by WriteImportances.
func ReadImportances(path string) ([]Importance, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrArtifactNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s", path)
	}
	out := make([]Importance, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s row %d", path, i+1)
		}
		out = append(out, Importance{Feature: rec[0], Importance: v})
	}
	return out, nil
}

// Report lists what Generate wrote.
type Report struct {
	Importances []Importance
	CSVPath     string
	PlotPath    string
}

// Generate loads the random forest candidate from store, writes its
// importances next to the models and renders the bar chart into plotDir.
func Generate(store *registry.Store, plotDir string, logger log.Logger) (*Report, error) {
	if logger == nil {
		logger = log.Component("insights")
	}
	env, err := store.LoadModel(registry.ModelName(ImportanceModel))
	if err != nil {
		return nil, err
	}
	imps, err := FeatureImportances(env.Model, env.FeatureNames)
	if err != nil {
		return nil, errors.Wrapf(err, "importances of %s", env.Name)
	}
	if len(imps) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no features", env.Name)
	}

	r := &Report{
		Importances: imps,
		CSVPath:     store.File(registry.ImportanceCSV),
		PlotPath:    filepath.Join(plotDir, ImportancePlotFile),
	}
	if err := WriteImportances(r.CSVPath, imps); err != nil {
		return nil, err
	}
	if err := PlotImportances(imps, r.PlotPath); err != nil {
		return nil, err
	}

	logger.Info("feature importances written",
		log.ModelNameKey, env.Name,
		log.PhaseKey, log.PhaseReporting,
		log.ArtifactKey, r.CSVPath,
		"top_feature", imps[0].Feature,
	)
	return r, nil
}
