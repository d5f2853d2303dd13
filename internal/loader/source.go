package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"loyaltycli/internal/charset"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/schema"
	"loyaltycli/internal/table"
)

// DefaultMissingTokens are read as absent by every source, on top of the
// source's own tokens.
var DefaultMissingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultDateLayouts are tried in order for declared date columns.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// Source describes how one export is read: which encodings to try, which
// tokens mean "absent", and the declared kind of each known column.
type Source struct {
	Name          string
	Encodings     []charset.Encoding
	MissingTokens []string
	Text          []string
	Floats        []string
	Dates         []string
	// Decorations maps a float column to literal text removed from every
	// cell before parsing, such as "$" or "%".
	Decorations map[string]string
	DateLayouts []string
}

// Schema returns the schema the source's columns must satisfy after coercion.
func (s Source) Schema() schema.Schema {
	return schema.New(s.Text, s.Floats, s.Dates)
}

// Parse decodes raw with the source's encodings and coerces every column.
// It does not validate the result.
func (s Source) Parse(raw []byte) (*table.Table, charset.Encoding, error) {
	decoded, enc, err := charset.DecodeFirst(raw, s.Encodings)
	if err != nil {
		return nil, "", apperrors.NewDecodeError(fmt.Sprintf("%s: cannot decode file", s.Name), err).
			WithContext("encodings", s.Encodings)
	}

	header, records, err := readRecords(decoded)
	if err != nil {
		return nil, enc, apperrors.NewParsingError(fmt.Sprintf("%s: malformed csv", s.Name), err)
	}

	t, err := s.coerce(header, records)
	if err != nil {
		return nil, enc, err
	}
	return t, enc, nil
}

func (s Source) coerce(header []string, records [][]string) (*table.Table, error) {
	missing := make(map[string]struct{}, len(DefaultMissingTokens)+len(s.MissingTokens))
	for _, tok := range DefaultMissingTokens {
		missing[tok] = struct{}{}
	}
	for _, tok := range s.MissingTokens {
		missing[tok] = struct{}{}
	}

	declared := make(map[string]table.Kind, len(s.Text)+len(s.Floats)+len(s.Dates))
	for _, c := range s.Text {
		declared[c] = table.KindText
	}
	for _, c := range s.Floats {
		declared[c] = table.KindFloat
	}
	for _, c := range s.Dates {
		declared[c] = table.KindDateTime
	}

	layouts := s.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	columns := make([]*table.Column, len(header))
	for j, name := range header {
		raw := make([]any, len(records))
		for i, rec := range records {
			cell := rec[j]
			if _, ok := missing[cell]; ok {
				continue
			}
			raw[i] = cell
		}

		kind, ok := declared[name]
		if !ok {
			kind = inferKind(raw)
		}

		values := make([]any, len(raw))
		for i, v := range raw {
			if v == nil {
				continue
			}
			cell := v.(string)
			var (
				out any
				err error
			)
			switch kind {
			case table.KindFloat:
				out, err = parseFloatCell(cell, s.Decorations[name])
			case table.KindDateTime:
				out, err = parseDateCell(cell, layouts)
			default:
				out = cell
			}
			if err != nil {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("%s: column %q line %d: cannot read %q as %s", s.Name, name, i+2, cell, kind), err).
					WithContext("column", name).
					WithContext("line", i+2)
			}
			values[i] = out
		}
		columns[j] = table.NewColumn(name, kind, values)
	}

	return table.New(columns...)
}

// inferKind picks float64 when every present cell parses as a number and
// text otherwise. A column with no present cells is float64.
func inferKind(cells []any) table.Kind {
	for _, v := range cells {
		if v == nil {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v.(string)), 64); err != nil {
			return table.KindText
		}
	}
	return table.KindFloat
}

func parseFloatCell(cell, decoration string) (any, error) {
	if decoration != "" {
		cell = strings.ReplaceAll(cell, decoration, "")
	}
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func parseDateCell(cell string, layouts []string) (any, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts.UTC(), nil
		}
	}
	return nil, fmt.Errorf("no date layout matches")
}
