// Package types defines the tabular data structures exchanged with the Vena API.
package types

import (
	"fmt"
	"strings"
)

// DataSet is an ordered tabular payload: column names plus rows of scalar
// cell values. It is used both as import input and as export/hierarchy
// output. A nil cell is a missing value and renders as an empty string on
// the CSV path.
type DataSet struct {
	Columns []string
	Rows    [][]any
}

// ValidationError reports a data set that cannot be submitted.
type ValidationError struct {
	Reason  string
	Missing []string // required columns absent from the data set, if any
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid data set: missing required columns: %s", strings.Join(e.Missing, ", "))
	}

	return "invalid data set: " + e.Reason
}

// Validate checks that the data set is submittable: it has at least one row,
// every row has one cell per column, and every required column name appears
// in Columns.
func (d *DataSet) Validate(required ...string) error {
	if len(d.Rows) == 0 {
		return &ValidationError{Reason: "data set has no rows"}
	}

	if len(d.Columns) > 0 {
		for i, row := range d.Rows {
			if len(row) != len(d.Columns) {
				return &ValidationError{
					Reason: fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), len(d.Columns)),
				}
			}
		}
	}

	var missing []string

	for _, name := range required {
		found := false

		for _, col := range d.Columns {
			if col == name {
				found = true
				break
			}
		}

		if !found {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	return nil
}

// IsValidationError checks if an error is a data set validation error.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
