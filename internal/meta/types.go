package meta

import "fmt"

// Type is the logical type of a column.
// TypeInvalid is the "absence of value" type; it is never a valid field type.
type Type int

const (
	TypeInvalid Type = iota
	TypeText
	TypeInteger
	TypeBool
	TypeReal
	TypeBlob
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeBool:
		return "bool"
	case TypeReal:
		return "real"
	case TypeBlob:
		return "blob"
	case TypeInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Valid reports whether t names a real column type.
func (t Type) Valid() bool {
	return t >= TypeText && t <= TypeBlob
}

// ParseType maps a type name ("text", "integer", "bool", "real", "blob") to a Type.
// A few SQL spellings are accepted as aliases.
func ParseType(s string) (Type, error) {
	switch s {
	case "text", "string", "TEXT":
		return TypeText, nil
	case "integer", "int", "INTEGER":
		return TypeInteger, nil
	case "bool", "boolean", "BOOLEAN":
		return TypeBool, nil
	case "real", "float", "REAL":
		return TypeReal, nil
	case "blob", "bytes", "BLOB":
		return TypeBlob, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown field type %q", s)
	}
}

// Accepts reports whether a non-null, set value has this type.
func (t Type) Accepts(v Value) bool {
	switch v.(type) {
	case Text:
		return t == TypeText
	case Int:
		return t == TypeInteger
	case Bool:
		return t == TypeBool
	case Real:
		return t == TypeReal
	case Blob:
		return t == TypeBlob
	default:
		return false
	}
}
