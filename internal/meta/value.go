package meta

import (
	"bytes"
	"fmt"
	"strconv"
)

// Value is a sealed interface over the values a field can hold.
// Only NullValue, UnsetValue, Text, Int, Bool, Real and Blob implement it.
type Value interface {
	metaValue()
}

// NullValue is SQL NULL.
type NullValue struct{}

func (NullValue) metaValue() {}

func (NullValue) String() string { return "NULL" }

// UnsetValue marks a field as intentionally omitted. It is never written.
type UnsetValue struct{}

func (UnsetValue) metaValue() {}

func (UnsetValue) String() string { return "UNSET" }

// Null and Unset are the singleton markers.
var (
	Null  Value = NullValue{}
	Unset Value = UnsetValue{}
)

// Text is a TEXT value.
type Text string

func (Text) metaValue() {}

// Int is an INTEGER value.
type Int int64

func (Int) metaValue() {}

// Bool is a boolean value, stored as 0/1.
type Bool bool

func (Bool) metaValue() {}

// Real is a REAL value.
type Real float64

func (Real) metaValue() {}

// Blob is a BLOB value.
type Blob []byte

func (Blob) metaValue() {}

// IsUnset reports whether v is Unset or a nil interface.
func IsUnset(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(UnsetValue)
	return ok
}

// IsNull reports whether v is Null.
func IsNull(v Value) bool {
	_, ok := v.(NullValue)
	return ok
}

// Equal compares two values. nil and Unset compare equal.
func Equal(a, b Value) bool {
	if IsUnset(a) || IsUnset(b) {
		return IsUnset(a) && IsUnset(b)
	}
	if ab, ok := a.(Blob); ok {
		bb, ok := b.(Blob)
		return ok && bytes.Equal(ab, bb)
	}
	if _, ok := b.(Blob); ok {
		return false
	}
	return a == b
}

// Format renders a value for logs and CLI output.
func Format(v Value) string {
	switch val := v.(type) {
	case nil:
		return "UNSET"
	case NullValue:
		return "NULL"
	case UnsetValue:
		return "UNSET"
	case Text:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Blob:
		return fmt.Sprintf("x'%x'", []byte(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TypeName names the dynamic type of v for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, UnsetValue:
		return "unset"
	case NullValue:
		return "null"
	case Text:
		return TypeText.String()
	case Int:
		return TypeInteger.String()
	case Bool:
		return TypeBool.String()
	case Real:
		return TypeReal.String()
	case Blob:
		return TypeBlob.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValueOf converts a native Go value to a Value.
// nil becomes Null; all sized integers become Int.
func ValueOf(x any) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case float32:
		return Real(val), nil
	case float64:
		return Real(val), nil
	case []byte:
		return Blob(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", x)
	}
}

// DriverValue converts a set value to the form passed to database/sql.
// Null becomes nil and Bool becomes 0 or 1.
func DriverValue(v Value) (any, error) {
	switch val := v.(type) {
	case NullValue:
		return nil, nil
	case Text:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case Real:
		return float64(val), nil
	case Blob:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("value %s cannot be written", Format(v))
	}
}

// FromDriver converts a scanned column into a Value of the declared type.
func FromDriver(t Type, src any) (Value, error) {
	if src == nil {
		return Null, nil
	}
	switch t {
	case TypeText:
		switch s := src.(type) {
		case string:
			return Text(s), nil
		case []byte:
			return Text(string(s)), nil
		}
	case TypeInteger:
		if n, ok := src.(int64); ok {
			return Int(n), nil
		}
	case TypeBool:
		switch b := src.(type) {
		case int64:
			return Bool(b != 0), nil
		case bool:
			return Bool(b), nil
		}
	case TypeReal:
		switch f := src.(type) {
		case float64:
			return Real(f), nil
		case int64:
			return Real(float64(f)), nil
		}
	case TypeBlob:
		if b, ok := src.([]byte); ok {
			return Blob(bytes.Clone(b)), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", src, t)
}
