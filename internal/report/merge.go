package report

import (
	"fmt"
	"strings"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

// JoinKind selects which unmatched rows a merge keeps.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
	JoinOuter JoinKind = "outer"
)

// ParseJoinKind validates a join kind name.
func ParseJoinKind(s string) (JoinKind, error) {
	switch k := JoinKind(strings.ToLower(s)); k {
	case JoinInner, JoinLeft, JoinRight, JoinOuter:
		return k, nil
	case "full", "full-outer":
		return JoinOuter, nil
	default:
		return "", fmt.Errorf("unsupported join kind %q", s)
	}
}

// DefaultSuffixes disambiguate non-key columns present on both sides.
var DefaultSuffixes = [2]string{"_x", "_y"}

// MergeSpec describes an equi-join. LeftOn and RightOn pair up key columns
// by position.
type MergeSpec struct {
	LeftOn   []string
	RightOn  []string
	How      JoinKind
	Suffixes [2]string
}

// Merge joins left and right on equal key tuples. The result holds every
// left column followed by every right column, except right key columns
// sharing their name with the paired left key, which merge into it. Rows
// with an absent key cell never match.
//
// Inner and left joins follow left row order, right joins follow right row
// order, and outer joins append unmatched right rows after the left join.
func (k *Toolkit) Merge(left, right *table.Table, spec MergeSpec) (*table.Table, error) {
	if len(spec.LeftOn) == 0 || len(spec.LeftOn) != len(spec.RightOn) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf(
			"merge needs matching key lists, got %d left and %d right", len(spec.LeftOn), len(spec.RightOn)))
	}
	how := spec.How
	if how == "" {
		how = JoinInner
	}
	if _, err := ParseJoinKind(string(how)); err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	suffixes := spec.Suffixes
	if suffixes == [2]string{} {
		suffixes = DefaultSuffixes
	}

	lkeys, err := lookupAll(left, spec.LeftOn)
	if err != nil {
		return nil, err
	}
	rkeys, err := lookupAll(right, spec.RightOn)
	if err != nil {
		return nil, err
	}

	// Right key columns folded into the left key column of the same name.
	shared := map[string]int{}
	for i := range spec.LeftOn {
		if spec.LeftOn[i] == spec.RightOn[i] {
			shared[spec.RightOn[i]] = i
		}
	}

	rightIndex := map[string][]int{}
	for r := 0; r < right.Len(); r++ {
		if key, ok := joinKey(rkeys, r); ok {
			rightIndex[key] = append(rightIndex[key], r)
		}
	}

	// Each output row is a (left, right) pair; -1 marks a missing side.
	var pairs [][2]int
	switch how {
	case JoinRight:
		leftIndex := map[string][]int{}
		for l := 0; l < left.Len(); l++ {
			if key, ok := joinKey(lkeys, l); ok {
				leftIndex[key] = append(leftIndex[key], l)
			}
		}
		for r := 0; r < right.Len(); r++ {
			key, ok := joinKey(rkeys, r)
			matches := leftIndex[key]
			if !ok || len(matches) == 0 {
				pairs = append(pairs, [2]int{-1, r})
				continue
			}
			for _, l := range matches {
				pairs = append(pairs, [2]int{l, r})
			}
		}
	default:
		matched := make([]bool, right.Len())
		for l := 0; l < left.Len(); l++ {
			key, ok := joinKey(lkeys, l)
			matches := rightIndex[key]
			if !ok || len(matches) == 0 {
				if how != JoinInner {
					pairs = append(pairs, [2]int{l, -1})
				}
				continue
			}
			for _, r := range matches {
				matched[r] = true
				pairs = append(pairs, [2]int{l, r})
			}
		}
		if how == JoinOuter {
			for r, m := range matched {
				if !m {
					pairs = append(pairs, [2]int{-1, r})
				}
			}
		}
	}

	leftNames := map[string]bool{}
	for _, n := range left.Names() {
		leftNames[n] = true
	}
	rightNames := map[string]bool{}
	for _, n := range right.Names() {
		if _, ok := shared[n]; !ok {
			rightNames[n] = true
		}
	}
	isLeftKey := map[string]bool{}
	for _, n := range spec.LeftOn {
		isLeftKey[n] = true
	}

	var cols []*table.Column
	for _, c := range left.Columns() {
		name := c.Name
		if rightNames[name] && !isLeftKey[name] {
			name += suffixes[0]
		}
		values := make([]any, len(pairs))
		var fill *table.Column
		if i, ok := shared[c.Name]; ok {
			fill = rkeys[i]
		}
		for p, pair := range pairs {
			switch {
			case pair[0] >= 0:
				values[p] = c.Values[pair[0]]
			case fill != nil:
				values[p] = fill.Values[pair[1]]
			}
		}
		cols = append(cols, table.NewColumn(name, c.Kind, values))
	}
	for _, c := range right.Columns() {
		if _, ok := shared[c.Name]; ok {
			continue
		}
		name := c.Name
		if leftNames[name] {
			name += suffixes[1]
		}
		values := make([]any, len(pairs))
		for p, pair := range pairs {
			if pair[1] >= 0 {
				values[p] = c.Values[pair[1]]
			}
		}
		cols = append(cols, table.NewColumn(name, c.Kind, values))
	}

	res, err := table.New(cols...)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	return res, nil
}

func lookupAll(t *table.Table, names []string) ([]*table.Column, error) {
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		c, err := t.Lookup(name)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		cols[i] = c
	}
	return cols, nil
}

// joinKey returns the key tuple of row r, or false when any cell is absent.
func joinKey(cols []*table.Column, r int) (string, bool) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := c.Values[r]
		if v == nil {
			return "", false
		}
		parts[i] = table.Key(v)
	}
	return strings.Join(parts, "\x1f"), true
}
