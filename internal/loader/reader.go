package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// readRecords parses decoded CSV text. Short rows are padded with empty
// cells; rows longer than the header are an error. Repeated header names get
// a ".1", ".2", ... suffix so every column stays addressable.
func readRecords(decoded []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("file has no header row")
	}
	if err != nil {
		return nil, nil, err
	}
	header = dedupeHeader(header)

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: %d fields for %d columns", line, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			out[i] = name
			continue
		}
		candidate := name + "." + strconv.Itoa(n)
		for seen[candidate] > 0 {
			n++
			candidate = name + "." + strconv.Itoa(n)
		}
		seen[candidate] = 1
		out[i] = candidate
	}
	return out
}
