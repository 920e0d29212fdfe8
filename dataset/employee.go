// Package dataset reads and writes the employee tables that flow through the
// pipeline: raw train/test CSVs, processed feature frames and submissions.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Raw column names.
const (
	ColEmployeeID         = "Employee ID"
	ColDateOfJoining      = "Date of Joining"
	ColGender             = "Gender"
	ColCompanyType        = "Company Type"
	ColWFHSetupAvailable  = "WFH Setup Available"
	ColDesignation        = "Designation"
	ColResourceAllocation = "Resource Allocation"
	ColMentalFatigue      = "Mental Fatigue Score"
	ColBurnRate           = "Burn Rate"
	ColTenure             = "Tenure"
)

// RequiredColumns must be present in every raw table.
var RequiredColumns = []string{
	ColEmployeeID,
	ColDateOfJoining,
	ColGender,
	ColCompanyType,
	ColWFHSetupAvailable,
	ColDesignation,
	ColResourceAllocation,
	ColMentalFatigue,
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", time.RFC3339}

// Employee is one row of a raw table. Missing numeric cells are NaN and a
// missing join date is nil.
type Employee struct {
	ID                 string
	JoinDate           *time.Time
	Gender             string
	CompanyType        string
	WFHSetupAvailable  string
	Designation        float64
	ResourceAllocation float64
	MentalFatigueScore float64
	BurnRate           float64
}

// Table is a parsed raw table. HasTarget is true when the source carried a
// Burn Rate column.
type Table struct {
	Source    string
	Employees []Employee
	HasTarget bool
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Employees) }

// Strings returns one categorical column by name.
func (t *Table) Strings(column string) []string {
	out := make([]string, len(t.Employees))
	for i, e := range t.Employees {
		switch column {
		case ColGender:
			out[i] = e.Gender
		case ColCompanyType:
			out[i] = e.CompanyType
		case ColWFHSetupAvailable:
			out[i] = e.WFHSetupAvailable
		case ColEmployeeID:
			out[i] = e.ID
		}
	}
	return out
}

// Floats returns one numeric column by name.
func (t *Table) Floats(column string) []float64 {
	out := make([]float64, len(t.Employees))
	for i, e := range t.Employees {
		switch column {
		case ColDesignation:
			out[i] = e.Designation
		case ColResourceAllocation:
			out[i] = e.ResourceAllocation
		case ColMentalFatigue:
			out[i] = e.MentalFatigueScore
		case ColBurnRate:
			out[i] = e.BurnRate
		default:
			out[i] = math.NaN()
		}
	}
	return out
}

// ReadEmployees opens path and parses it with ParseEmployees.
// A missing file is returned as an error; callers treat it as fatal.
func ReadEmployees(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return ParseEmployees(f, path)
}

// ParseEmployees reads a header-driven CSV. Columns are matched by name, so
// their order may vary and unknown columns are ignored.
func ParseEmployees(r io.Reader, source string) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no header", source)
		}
		return nil, errors.Wrapf(err, "read header of %s", source)
	}
	index := headerIndex(header)
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.NewMissingColumnError(source, col)
		}
	}
	targetIdx, hasTarget := index[ColBurnRate]

	table := &Table{Source: source, HasTarget: hasTarget}
	seen := make(map[string]int)
	missing := make(map[string]int)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", source, line)
		}

		// identifiers are kept byte for byte; only value cells are trimmed
		cell := func(col string) string { return strings.TrimSpace(rec[index[col]]) }
		num := func(col string) (float64, error) {
			v, err := parseFloat(cell(col))
			if err != nil {
				return 0, errors.Wrapf(err, "%s line %d column %q", source, line, col)
			}
			if math.IsNaN(v) {
				missing[col]++
			}
			return v, nil
		}

		e := Employee{
			ID:                rec[index[ColEmployeeID]],
			Gender:            cell(ColGender),
			CompanyType:       cell(ColCompanyType),
			WFHSetupAvailable: cell(ColWFHSetupAvailable),
			BurnRate:          math.NaN(),
		}
		if strings.TrimSpace(e.ID) == "" {
			return nil, errors.NewValidationError(ColEmployeeID, "empty identifier", line)
		}
		if prev, dup := seen[e.ID]; dup {
			return nil, errors.NewValidationError(ColEmployeeID,
				"duplicate identifier (first seen on line "+strconv.Itoa(prev)+")", e.ID)
		}
		seen[e.ID] = line

		if e.JoinDate, err = parseDate(cell(ColDateOfJoining)); err != nil {
			return nil, errors.Wrapf(err, "%s line %d", source, line)
		}
		if e.JoinDate == nil {
			missing[ColDateOfJoining]++
		}
		if e.Designation, err = num(ColDesignation); err != nil {
			return nil, err
		}
		if e.ResourceAllocation, err = num(ColResourceAllocation); err != nil {
			return nil, err
		}
		if e.MentalFatigueScore, err = num(ColMentalFatigue); err != nil {
			return nil, err
		}
		if hasTarget {
			if e.BurnRate, err = parseFloat(strings.TrimSpace(rec[targetIdx])); err != nil {
				return nil, errors.Wrapf(err, "%s line %d column %q", source, line, ColBurnRate)
			}
			if math.IsNaN(e.BurnRate) {
				missing[ColBurnRate]++
			}
		}
		table.Employees = append(table.Employees, e)
	}

	logger := log.Component("dataset")
	for col, n := range missing {
		logger.Debug("missing values", log.ColumnKey, col, log.MissingKey, n)
	}
	logger.Info("dataset loaded",
		log.ArtifactKey, source,
		log.SamplesKey, table.Len(),
		"has_target", hasTarget,
	)
	return table, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		// tolerate a UTF-8 BOM on the first header cell
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		index[h] = i
	}
	return index
}

// parseFloat maps an empty cell to NaN.
func parseFloat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.NewValidationError(ColDateOfJoining, "unrecognised date format", s)
}
