package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// Submission is one predicted row of the batch output.
type Submission struct {
	ID       string
	BurnRate float64
}

// WriteSubmissions writes "Employee ID,Burn Rate" rows in the given order.
func WriteSubmissions(path string, rows []Submission) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := EncodeSubmissions(out, rows); err != nil {
		out.Close()
		return err
	}
	return errors.Wrapf(out.Close(), "close %s", path)
}

// EncodeSubmissions writes rows as CSV to w.
func EncodeSubmissions(w io.Writer, rows []Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColEmployeeID, ColBurnRate}); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, formatFloat(r.BurnRate)}); err != nil {
			return errors.Wrapf(err, "write %s", r.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// ReadSubmissions reads a file written by WriteSubmissions.
func ReadSubmissions(path string) ([]Submission, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer in.Close()

	rows, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no header", path)
	}
	out := make([]Submission, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		v, err := parseFloat(rec[1])
		if err != nil {
			return nil, errors.Wrapf(err, "%s row %d", path, i+1)
		}
		out = append(out, Submission{ID: rec[0], BurnRate: v})
	}
	return out, nil
}
