// Package values normalises attribute values so that equal data read through
// different paths (application structs, database drivers, JSON) compares equal.
package values

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Normalize maps every representation of NULL to nil, unwraps driver.Valuer
// implementations (sql.NullString and friends), dereferences pointers and
// widens numeric kinds: signed integers to int64, unsigned integers to
// uint64, floats to float64. Other values are returned unchanged.
//
// A nil pointer, map, slice, func or channel is NULL, so (*string)(nil)
// normalises to nil.
func Normalize(v interface{}) interface{} {
	if IsNull(v) {
		return nil
	}

	if valuer, ok := v.(driver.Valuer); ok {
		inner, err := valuer.Value()
		if err != nil {
			return v
		}
		return Normalize(inner)
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		return Normalize(rv.Elem().Interface())
	}

	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return uint64(i)
	case uint64:
		return i
	case uint32:
		return uint64(i)
	case uint16:
		return uint64(i)
	case uint8:
		return uint64(i)
	case float64:
		return i
	case float32:
		return float64(i)
	default:
		return v
	}
}

// IsNull reports whether v is nil or a typed nil pointer, map, slice, func,
// channel or interface.
func IsNull(v interface{}) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Equal reports whether a and b hold the same value.
//
// Nil and typed nils are all NULL. Pointers compare by the value they point
// to. Numbers compare exactly regardless of width or signedness: an integer
// equals a float only when the float is integral and holds the same value.
// Times compare
// with time.Time.Equal, and []byte compares against both []byte and string.
// Everything else falls through to reflect.DeepEqual.
func Equal(a, b interface{}) bool {
	a, b = Normalize(a), Normalize(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if equal, ok := numericEqual(a, b); ok {
		return equal
	}

	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}

	if ba, ok := asBytes(a); ok {
		bb, ok := asBytes(b)
		return ok && bytes.Equal(ba, bb)
	}

	return reflect.DeepEqual(a, b)
}

// numericEqual compares two normalised numbers. ok is false when either side
// is not numeric.
func numericEqual(a, b interface{}) (equal bool, ok bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y, true
		case uint64:
			return x >= 0 && uint64(x) == y, true
		case float64:
			return float64(x) == y, true
		}
	case uint64:
		switch y := b.(type) {
		case int64:
			return y >= 0 && x == uint64(y), true
		case uint64:
			return x == y, true
		case float64:
			return float64(x) == y, true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y), true
		case uint64:
			return x == float64(y), true
		case float64:
			return x == y || (math.IsNaN(x) && math.IsNaN(y)), true
		}
	}
	return false, false
}

// 2^63 and 2^64 are exact in float64; the ranges below are half-open so the
// conversions never overflow.
const (
	minInt64Float  = -(1 << 63)
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

// intEqualsFloat compares without rounding i to float64, which would make
// distinct integers above 2^53 equal to the same float.
func intEqualsFloat(i int64, f float64) bool {
	if f != math.Trunc(f) || f < minInt64Float || f >= maxInt64Float {
		return false
	}
	return int64(f) == i
}

func uintEqualsFloat(u uint64, f float64) bool {
	if f != math.Trunc(f) || f < 0 || f >= maxUint64Float {
		return false
	}
	return uint64(f) == u
}

func asBytes(v interface{}) ([]byte, bool) {
	switch s := v.(type) {
	case []byte:
		return s, true
	case string:
		return []byte(s), true
	default:
		return nil, false
	}
}

// Key renders a primary key as a stable string for storage and logging.
func Key(pk interface{}) string {
	if s, ok := pk.(fmt.Stringer); ok && !IsNull(pk) {
		return s.String()
	}
	switch k := Normalize(pk).(type) {
	case nil:
		return ""
	case string:
		return k
	case []byte:
		return string(k)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}
