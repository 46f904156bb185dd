package contracts

import "fmt"

// InputShapeError means a required source table or column is missing.
// It is fatal: the run aborts before anything is written.
type InputShapeError struct {
	Table  string
	Column string // empty when the whole table is missing
}

func (e *InputShapeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("input shape: required table %q not found", e.Table)
	}
	return fmt.Sprintf("input shape: required column %q not found in table %q", e.Column, e.Table)
}

// MissingTable builds an InputShapeError for a missing table
func MissingTable(table string) error {
	return &InputShapeError{Table: table}
}

// MissingColumn builds an InputShapeError for a missing column
func MissingColumn(table, column string) error {
	return &InputShapeError{Table: table, Column: column}
}
