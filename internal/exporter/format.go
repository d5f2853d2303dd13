package exporter

import (
	"time"

	"loyaltycli/internal/table"
)

// FormatTable renders t as a header plus string records. Absent cells are
// empty. A datetime column prints as a plain date when every timestamp in it
// falls on midnight, and as a full timestamp otherwise, so a written file
// reads back into the same values.
func FormatTable(t *table.Table) ([]string, [][]string) {
	headers := t.Names()
	records := make([][]string, t.Len())
	for i := range records {
		records[i] = make([]string, t.Width())
	}

	for j, c := range t.Columns() {
		layout := table.DateTimeLayout
		if c.Kind == table.KindDateTime && allMidnight(c.Values) {
			layout = table.DateLayout
		}
		for i, v := range c.Values {
			if ts, ok := v.(time.Time); ok {
				records[i][j] = ts.Format(layout)
				continue
			}
			records[i][j] = table.Format(v)
		}
	}
	return headers, records
}

func allMidnight(values []any) bool {
	for _, v := range values {
		ts, ok := v.(time.Time)
		if !ok {
			continue
		}
		if ts.Hour() != 0 || ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
			return false
		}
	}
	return true
}
