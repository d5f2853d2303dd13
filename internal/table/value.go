package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is used when every timestamp of a column falls on midnight.
	DateLayout = "2006-01-02"
	// DateTimeLayout is used otherwise.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// IsNull reports whether v is an absent cell.
func IsNull(v any) bool {
	return v == nil
}

// Compare orders two non-null cells of the same dynamic type. The boolean is
// false when the cells cannot be ordered against each other.
func Compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}

// Less orders cells for sorting: nulls last, then by Compare, then by the
// formatted representation for mixed types.
func Less(a, b any) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	if c, ok := Compare(a, b); ok {
		return c < 0
	}
	return Format(a) < Format(b)
}

// Key returns a map key identifying the cell. Equal cells produce equal keys.
func Key(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00null"
	case string:
		return "s" + x
	case float64:
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "t" + strconv.FormatInt(x.UnixNano(), 10)
	case bool:
		return "b" + strconv.FormatBool(x)
	default:
		return fmt.Sprintf("?%v", x)
	}
}

// Format renders a cell the way the CSV writer does, with a full timestamp
// for dates.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case time.Time:
		return x.Format(DateTimeLayout)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// FormatFloat renders a float with the shortest exact representation.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat converts numeric Go values into a float cell.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	default:
		return 0, false
	}
}

// KindOf reports the kind a Go value would be stored as.
func KindOf(v any) (Kind, bool) {
	switch v.(type) {
	case string:
		return KindText, true
	case float64, float32, int, int32, int64:
		return KindFloat, true
	case time.Time:
		return KindDateTime, true
	case bool:
		return KindBool, true
	default:
		return 0, false
	}
}
