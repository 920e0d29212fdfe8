package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FeatureColumns is the model input order used by training, batch
// prediction and the dashboard.
var FeatureColumns = []string{
	ColGender,
	ColCompanyType,
	ColWFHSetupAvailable,
	ColResourceAllocation,
	ColMentalFatigue,
	ColDesignation,
	ColTenure,
}

// Frame is a processed, numeric-only table: identifiers, a feature matrix in
// Columns order and an optional target.
type Frame struct {
	IDs     []string
	Columns []string
	X       *mat.Dense
	// Target is nil for tables without a Burn Rate column.
	Target []float64
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.IDs) }

// Subset returns a new frame holding rows in the given order.
func (f *Frame) Subset(rows []int) *Frame {
	_, c := f.X.Dims()
	out := &Frame{
		IDs:     make([]string, len(rows)),
		Columns: slices.Clone(f.Columns),
		X:       &mat.Dense{},
	}
	if len(rows) > 0 {
		out.X = mat.NewDense(len(rows), c, nil)
	}
	if f.Target != nil {
		out.Target = make([]float64, len(rows))
	}
	for i, r := range rows {
		out.IDs[i] = f.IDs[r]
		out.X.SetRow(i, f.X.RawRowView(r))
		if f.Target != nil {
			out.Target[i] = f.Target[r]
		}
	}
	return out
}

// TargetMatrix returns the target as an n×1 matrix.
func (f *Frame) TargetMatrix() (*mat.Dense, error) {
	if f.Target == nil {
		return nil, errors.NewMissingColumnError("frame", ColBurnRate)
	}
	return mat.NewDense(len(f.Target), 1, slices.Clone(f.Target)), nil
}

// WriteFrame writes f as CSV with the identifier first, then the features,
// then Burn Rate when present. NaN is written as an empty cell.
func WriteFrame(path string, f *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := EncodeFrame(out, f); err != nil {
		out.Close()
		return err
	}
	return errors.Wrapf(out.Close(), "close %s", path)
}

// EncodeFrame writes f as CSV to w.
func EncodeFrame(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	header := append([]string{ColEmployeeID}, f.Columns...)
	if f.Target != nil {
		header = append(header, ColBurnRate)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}

	record := make([]string, len(header))
	for i, id := range f.IDs {
		record[0] = id
		for j := range f.Columns {
			record[j+1] = formatFloat(f.X.At(i, j))
		}
		if f.Target != nil {
			record[len(record)-1] = formatFloat(f.Target[i])
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// ReadFrame reads a processed CSV written by WriteFrame. Every column other
// than the identifier and Burn Rate is treated as a feature, in file order.
func ReadFrame(path string) (*Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open processed table %s", path)
	}
	defer in.Close()
	return DecodeFrame(in, path)
}

// DecodeFrame parses a processed CSV from r.
func DecodeFrame(r io.Reader, source string) (*Frame, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", source)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no header", source)
	}

	header := rows[0]
	idIdx, targetIdx := -1, -1
	var featureIdx []int
	f := &Frame{}
	for i, h := range header {
		switch h {
		case ColEmployeeID:
			idIdx = i
		case ColBurnRate:
			targetIdx = i
		default:
			featureIdx = append(featureIdx, i)
			f.Columns = append(f.Columns, h)
		}
	}
	if idIdx < 0 {
		return nil, errors.NewMissingColumnError(source, ColEmployeeID)
	}
	if len(featureIdx) == 0 {
		return nil, errors.NewValueError("DecodeFrame", source+" has no feature columns")
	}

	body := rows[1:]
	f.IDs = make([]string, len(body))
	if targetIdx >= 0 {
		f.Target = make([]float64, len(body))
	}
	data := make([]float64, 0, len(body)*len(featureIdx))
	for i, rec := range body {
		f.IDs[i] = rec[idIdx]
		for _, j := range featureIdx {
			v, err := parseFloat(rec[j])
			if err != nil {
				return nil, errors.Wrapf(err, "%s row %d column %q", source, i+1, header[j])
			}
			data = append(data, v)
		}
		if targetIdx >= 0 {
			if f.Target[i], err = parseFloat(rec[targetIdx]); err != nil {
				return nil, errors.Wrapf(err, "%s row %d column %q", source, i+1, ColBurnRate)
			}
		}
	}
	if len(body) == 0 {
		f.X = &mat.Dense{}
		return f, nil
	}
	f.X = mat.NewDense(len(body), len(featureIdx), data)
	return f, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
