package ident

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the outcome of checking a proposed identifier.
type Verdict int

const (
	Valid         Verdict = iota
	NotString             // value is not a string
	Empty                 // empty string
	NotIdentifier         // contains characters outside [A-Za-z0-9_] or starts with a digit
	Reserved              // SQLite or Go keyword
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case NotString:
		return "non-string"
	case Empty:
		return "empty"
	case NotIdentifier:
		return "not-an-identifier"
	case Reserved:
		return "reserved-word"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Err renders a verdict as an error about subject, or nil for Valid.
// subject describes where the name came from, e.g. "column" or "table name".
func (v Verdict) Err(subject string, name any) error {
	switch v {
	case Valid:
		return nil
	case NotString:
		return fmt.Errorf("%s: non-string name of type %T", subject, name)
	case Empty:
		return fmt.Errorf("%s: empty name", subject)
	case NotIdentifier:
		return fmt.Errorf("%s: %q is not a valid identifier", subject, name)
	case Reserved:
		return fmt.Errorf("%s: %q is a reserved word", subject, name)
	default:
		return fmt.Errorf("%s: %v", subject, v)
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Check classifies a string name.
func Check(name string) Verdict {
	if name == "" {
		return Empty
	}
	if !identPattern.MatchString(name) {
		return NotIdentifier
	}
	if IsReserved(name) {
		return Reserved
	}
	return Valid
}

// CheckAny classifies a value of unknown type. Anything other than a string
// is NotString.
func CheckAny(v any) Verdict {
	s, ok := v.(string)
	if !ok {
		return NotString
	}
	return Check(s)
}

// IsReserved reports whether name is an SQLite keyword (case-insensitive)
// or a Go keyword.
func IsReserved(name string) bool {
	if _, ok := goKeywords[name]; ok {
		return true
	}
	_, ok := sqliteKeywords[strings.ToUpper(name)]
	return ok
}
