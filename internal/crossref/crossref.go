// Package crossref answers, for every distinct key of one table, whether the
// key also appears in a column of another table.
package crossref

import (
	"fmt"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

// DefaultIndicator is the indicator column name used when none is given.
const DefaultIndicator = "_merge"

// Membership maps each distinct non-null left key to its presence in the
// right column. Keys keep first-appearance order.
type Membership struct {
	KeyColumn string
	KeyKind   table.Kind
	Keys      []any
	Found     []bool
	index     map[string]int
}

// Compare left-joins the distinct values of left[leftKey] against
// right[rightKey]. The join fans out on duplicate right keys exactly like a
// relational join would, and the result must still hold one row per distinct
// left key; when it does not, Compare panics with an INVARIANT error because
// the key column upstream is not unique.
func Compare(left *table.Table, leftKey string, right *table.Table, rightKey string) (*Membership, error) {
	lc, err := left.Lookup(leftKey)
	if err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("left table: %v", err))
	}
	rc, err := right.Lookup(rightKey)
	if err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("right table: %v", err))
	}

	matches := make(map[string]int, rc.Len())
	for _, v := range rc.Values {
		if v == nil {
			continue
		}
		matches[table.Key(v)]++
	}

	keys := lc.Distinct()
	m := &Membership{
		KeyColumn: leftKey,
		KeyKind:   lc.Kind,
		Keys:      make([]any, 0, len(keys)),
		Found:     make([]bool, 0, len(keys)),
		index:     make(map[string]int, len(keys)),
	}

	joined := 0
	for _, k := range keys {
		n := matches[table.Key(k)]
		if n == 0 {
			joined++
		} else {
			joined += n
		}
		m.index[table.Key(k)] = len(m.Keys)
		m.Keys = append(m.Keys, k)
		m.Found = append(m.Found, n > 0)
	}

	if joined != len(keys) {
		panic(apperrors.NewInvariantError(fmt.Sprintf(
			"membership of %q in %q has %d rows for %d distinct keys (difference %d)",
			leftKey, rightKey, joined, len(keys), joined-len(keys))))
	}
	return m, nil
}

// Len returns the number of keys.
func (m *Membership) Len() int {
	return len(m.Keys)
}

// Lookup reports whether key was found in the right table. ok is false when
// key is not one of the left keys.
func (m *Membership) Lookup(key any) (found bool, ok bool) {
	i, ok := m.index[table.Key(key)]
	if !ok {
		return false, false
	}
	return m.Found[i], true
}

// Table renders the membership as a key column plus a bool indicator column.
// The indicator must not reuse the key column's name.
func (m *Membership) Table(indicator string) (*table.Table, error) {
	if indicator == "" {
		indicator = DefaultIndicator
	}
	found := make([]any, len(m.Found))
	for i, f := range m.Found {
		found[i] = f
	}
	keys := make([]any, len(m.Keys))
	copy(keys, m.Keys)
	out, err := table.New(
		table.NewColumn(m.KeyColumn, m.KeyKind, keys),
		table.NewColumn(indicator, table.KindBool, found),
	)
	if err != nil {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("indicator %q collides with key column: %v", indicator, err))
	}
	return out, nil
}

// Column maps the membership back onto every row of t's key column. Rows
// with an absent key get an absent indicator.
func (m *Membership) Column(t *table.Table, key, indicator string) (*table.Column, error) {
	kc, err := t.Lookup(key)
	if err != nil {
		return nil, err
	}
	values := make([]any, kc.Len())
	for i, v := range kc.Values {
		if v == nil {
			continue
		}
		if found, ok := m.Lookup(v); ok {
			values[i] = found
		} else {
			values[i] = false
		}
	}
	return table.NewColumn(indicator, table.KindBool, values), nil
}
