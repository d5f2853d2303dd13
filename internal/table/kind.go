package table

import "fmt"

// Kind is the semantic type held by every cell of a column.
type Kind int

const (
	// KindText holds free text. Cells are string.
	KindText Kind = iota
	// KindFloat holds 64-bit floats. Cells are float64.
	KindFloat
	// KindDateTime holds timestamps. Cells are time.Time.
	KindDateTime
	// KindCategory holds labels drawn from a small closed set. Cells are string.
	KindCategory
	// KindBool is produced by derivations only (membership flags, quota flags). Cells are bool.
	KindBool
)

// String returns the name used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFloat:
		return "float64"
	case KindDateTime:
		return "datetime"
	case KindCategory:
		return "category"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text", "object", "string":
		return KindText, nil
	case "float64", "float", "number":
		return KindFloat, nil
	case "datetime", "date", "datetime64":
		return KindDateTime, nil
	case "category":
		return KindCategory, nil
	case "bool", "boolean":
		return KindBool, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// Family groups kinds by how they aggregate.
type Family int

const (
	FamilyCategorical Family = iota
	FamilyNumeric
	FamilyTemporal
)

// Family resolves the aggregation family of k.
func (k Kind) Family() Family {
	switch k {
	case KindFloat:
		return FamilyNumeric
	case KindDateTime:
		return FamilyTemporal
	default:
		return FamilyCategorical
	}
}

func (f Family) String() string {
	switch f {
	case FamilyNumeric:
		return "numeric"
	case FamilyTemporal:
		return "temporal"
	default:
		return "categorical"
	}
}
