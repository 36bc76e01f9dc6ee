package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders a QueryResult as deterministic JSON:
//
//	{"columns":["a","b"],"rows":[{"a":1,"b":"x"}, ...]}
//
// Row objects list columns in query order (not sorted), strings are NFC
// normalized and HTML characters are not escaped. Blobs render as arrays of
// byte values. Non-finite reals render as strings ("NaN", "+Inf", "-Inf")
// since JSON has no encoding for them.
func MarshalCanonical(q *QueryResult) ([]byte, error) {
	if q == nil {
		q = &QueryResult{}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"columns":[`)
	for i, c := range q.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		s, err := marshalCanonicalString(c)
		if err != nil {
			return nil, err
		}
		buf.Write(s)
	}
	buf.WriteString(`],"rows":[`)
	for i, row := range q.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		rowBytes, err := marshalCanonicalRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		buf.Write(rowBytes)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalCanonicalValue renders a single Value as canonical JSON.
func MarshalCanonicalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Integer:
		return []byte(fmt.Sprintf("%d", int64(val))), nil
	case Real:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return marshalCanonicalString(Format(val))
		}
		return []byte(Format(val)), nil
	case Text:
		return marshalCanonicalString(string(val))
	case Blob:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, b := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%d", b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported value type for canonical JSON: %T", v)
	}
}

func marshalCanonicalRow(row Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range row.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalCanonicalString(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := MarshalCanonicalValue(row.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalCanonicalString produces a JSON string with NFC normalization
// and without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
