package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"loyaltycli/internal/table"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

// NullKind is a nullness test.
type NullKind string

const (
	IsNull    NullKind = "is-null"
	IsNotNull NullKind = "is-not-null"
)

// Predicate is a row test over one column. The only implementations are
// Comparison and NullCheck.
type Predicate interface {
	column() string
	fmt.Stringer
}

// Comparison compares every cell of Column with Value. Absent cells never
// match, except under OpNe where they always do.
type Comparison struct {
	Column string
	Op     Op
	Value  any
}

func (c Comparison) column() string { return c.Column }

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// NullCheck tests whether each cell of Column is absent.
type NullCheck struct {
	Column string
	Check  NullKind
}

func (n NullCheck) column() string { return n.Column }

func (n NullCheck) String() string {
	return fmt.Sprintf("%s %s", n.Column, n.Check)
}

// evaluate returns the row mask of p over t, or an error explaining why p
// cannot be applied to t.
func evaluate(t *table.Table, p Predicate) ([]bool, error) {
	col, ok := t.Column(p.column())
	if !ok {
		return nil, fmt.Errorf("column %q not found", p.column())
	}
	mask := make([]bool, t.Len())

	switch p := p.(type) {
	case NullCheck:
		var want bool
		switch p.Check {
		case IsNull:
			want = true
		case IsNotNull:
			want = false
		default:
			return nil, fmt.Errorf("unsupported null check %q", p.Check)
		}
		for i, v := range col.Values {
			mask[i] = (v == nil) == want
		}
		return mask, nil

	case Comparison:
		test, err := comparator(p.Op)
		if err != nil {
			return nil, err
		}
		value, err := normalizeValue(p.Value, col.Kind)
		if err != nil {
			return nil, err
		}
		for i, v := range col.Values {
			if v == nil {
				mask[i] = p.Op == OpNe
				continue
			}
			cmp, ok := table.Compare(v, value)
			if !ok {
				return nil, fmt.Errorf("cannot compare %s column %q with %v", col.Kind, col.Name, p.Value)
			}
			mask[i] = test(cmp)
		}
		return mask, nil

	default:
		return nil, fmt.Errorf("unsupported predicate %T", p)
	}
}

func comparator(op Op) (func(int) bool, error) {
	switch op {
	case OpEq:
		return func(c int) bool { return c == 0 }, nil
	case OpNe:
		return func(c int) bool { return c != 0 }, nil
	case OpGt:
		return func(c int) bool { return c > 0 }, nil
	case OpGte:
		return func(c int) bool { return c >= 0 }, nil
	case OpLt:
		return func(c int) bool { return c < 0 }, nil
	case OpLte:
		return func(c int) bool { return c <= 0 }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

// normalizeValue converts Go numeric values to float64 and checks the value
// belongs to the column's kind.
func normalizeValue(v any, kind table.Kind) (any, error) {
	if f, ok := table.ToFloat(v); ok {
		v = f
	}
	vk, ok := table.KindOf(v)
	if !ok {
		return nil, fmt.Errorf("unsupported comparison value %v (%T)", v, v)
	}
	if vk.Family() != kind.Family() || (vk == table.KindBool) != (kind == table.KindBool) {
		return nil, fmt.Errorf("value %v (%s) is not comparable with a %s column", v, vk, kind)
	}
	return v, nil
}

// opChars are the characters an operator token is made of. A run of them
// that is not a known Op still parses, and filtering skips it.
const opChars = "=!<>~^*%&|"

// ParsePredicate parses "COL<op>VALUE" or "COL <check>" where check is
// is-null or is-not-null. VALUE is converted to the kind of t's column COL;
// when COL is missing or the value does not convert, the raw text is kept.
// Unknown operators and check words are parsed as written so that filtering
// reports and skips them. Only an expression naming no column, or naming a
// column with nothing to test, is an error.
func ParsePredicate(t *table.Table, expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if i := strings.IndexAny(expr, opChars); i >= 0 {
		j := i
		for j < len(expr) && strings.IndexByte(opChars, expr[j]) >= 0 {
			j++
		}
		name := strings.TrimSpace(expr[:i])
		if name == "" {
			return nil, fmt.Errorf("predicate %q names no column", expr)
		}
		raw := strings.TrimSpace(expr[j:])
		return Comparison{Column: name, Op: Op(expr[i:j]), Value: typedValue(t, name, raw)}, nil
	}

	i := strings.LastIndexAny(expr, " \t")
	if i < 0 {
		if expr == "" {
			return nil, fmt.Errorf("empty predicate")
		}
		return nil, fmt.Errorf("predicate %q has no operator or check", expr)
	}
	return NullCheck{Column: strings.TrimSpace(expr[:i]), Check: NullKind(expr[i+1:])}, nil
}

func typedValue(t *table.Table, name, raw string) any {
	col, ok := t.Column(name)
	if !ok {
		return raw
	}
	switch col.Kind {
	case table.KindFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case table.KindDateTime:
		for _, layout := range []string{table.DateLayout, table.DateTimeLayout} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts
			}
		}
	case table.KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}
