package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface over the scalar types a database row can hold.
// Only Null, Integer, Real, Text, and Blob implement it.
//
// Values are immutable and are produced only by the query executor
// (see FromDriver).
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents SQL NULL.
type Null struct{}

func (Null) irValue() {}

// Integer represents a 64-bit signed integer column value.
type Integer int64

func (Integer) irValue() {}

// Real represents a floating point column value.
type Real float64

func (Real) irValue() {}

// Text represents a string column value.
type Text string

func (Text) irValue() {}

// Blob represents a byte-string column value.
// Blobs must not be modified after construction.
type Blob []byte

func (Blob) irValue() {}

// Format renders a Value as the text emitted into a template.
//
//   - Null    -> "null"
//   - Integer -> decimal
//   - Real    -> shortest decimal representation, no exponent
//   - Text    -> verbatim
//   - Blob    -> "[xx, xx, ...]", each byte as two-digit hex
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Integer:
		return strconv.FormatInt(int64(val), 10)
	case Real:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Text:
		return string(val)
	case Blob:
		parts := make([]string, len(val))
		for i, b := range val {
			parts[i] = fmt.Sprintf("%02x", b)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy reports the boolean interpretation of a Value, as used by
// the htmpl-if element.
//
// Null is false. Integers are true when nonzero. Reals are false when
// NaN, zero, or negative zero. Text and Blob are true when non-empty.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Integer:
		return val != 0
	case Real:
		f := float64(val)
		return !math.IsNaN(f) && f != 0
	case Text:
		return len(val) > 0
	case Blob:
		return len(val) > 0
	default:
		return false
	}
}

// TypeName returns the SQLite storage class name of a Value.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FromDriver converts a value scanned from database/sql into a Value.
//
// Drivers differ in what they hand back: mattn/go-sqlite3 and modernc
// return int64/float64/string/[]byte/time.Time, lib/pq returns bool for
// boolean columns, and go-sql-driver/mysql returns []byte for most textual
// columns. Byte slices are copied because drivers may reuse the buffer.
func FromDriver(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case int64:
		return Integer(val), nil
	case int32:
		return Integer(val), nil
	case int:
		return Integer(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Integer(val), nil
	case float64:
		return Real(val), nil
	case float32:
		return Real(val), nil
	case bool:
		if val {
			return Integer(1), nil
		}
		return Integer(0), nil
	case string:
		return Text(val), nil
	case []byte:
		b := make([]byte, len(val))
		copy(b, val)
		return Blob(b), nil
	case time.Time:
		return Text(val.Format(time.RFC3339Nano)), nil
	default:
		return nil, fmt.Errorf("unsupported driver value type: %T", v)
	}
}

// ToDriver converts a Value into an argument suitable for database/sql.
func ToDriver(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Integer:
		return int64(val)
	case Real:
		return float64(val)
	case Text:
		return string(val)
	case Blob:
		return []byte(val)
	default:
		return nil
	}
}
