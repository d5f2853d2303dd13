// Package schema checks the runtime column kinds of a loaded table against
// the kinds an export is declared to carry.
package schema

import (
	"fmt"

	"loyaltycli/internal/table"
)

// SuccessMessage is logged by loaders after a table passes validation.
const SuccessMessage = "Successful validation"

// Schema maps column names to their expected kind. DateColumns must
// additionally hold timestamps.
type Schema struct {
	Types       map[string]table.Kind
	DateColumns []string
}

// New builds a schema from text, float and date column lists. Date columns
// are also declared as datetime in Types.
func New(text, floats, dates []string) Schema {
	types := make(map[string]table.Kind, len(text)+len(floats)+len(dates))
	for _, c := range text {
		types[c] = table.KindText
	}
	for _, c := range floats {
		types[c] = table.KindFloat
	}
	for _, c := range dates {
		types[c] = table.KindDateTime
	}
	return Schema{Types: types, DateColumns: append([]string(nil), dates...)}
}

// MismatchError identifies the first column whose kind disagrees with the schema.
type MismatchError struct {
	Column   string
	Observed table.Kind
	Expected table.Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s type is %s, but the expected type is %s", e.Column, e.Observed, e.Expected)
}

// Validate walks every column of types in order and returns the first
// mismatch. A column listed in Types must match its declared kind; a column
// listed in DateColumns must be datetime. Columns the schema does not mention
// are accepted.
func Validate(types []table.ColumnType, s Schema) error {
	dates := make(map[string]struct{}, len(s.DateColumns))
	for _, c := range s.DateColumns {
		dates[c] = struct{}{}
	}

	for _, ct := range types {
		if want, ok := s.Types[ct.Name]; ok && ct.Kind != want {
			return &MismatchError{Column: ct.Name, Observed: ct.Kind, Expected: want}
		}
		if _, ok := dates[ct.Name]; ok && ct.Kind != table.KindDateTime {
			return &MismatchError{Column: ct.Name, Observed: ct.Kind, Expected: table.KindDateTime}
		}
	}
	return nil
}

// ValidateTable is Validate over a table's own column kinds.
func ValidateTable(t *table.Table, s Schema) error {
	return Validate(t.Types(), s)
}
