package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes evaluation errors.
type ErrorCode string

const (
	// ErrCodeMissingAttr indicates a required attribute is absent.
	ErrCodeMissingAttr ErrorCode = "MISSING_ATTR"

	// ErrCodeMissingQuery indicates a query name is not bound in scope.
	ErrCodeMissingQuery ErrorCode = "MISSING_QUERY"

	// ErrCodeCardinality indicates a query returned the wrong number of rows.
	ErrCodeCardinality ErrorCode = "CARDINALITY"

	// ErrCodeMissingColumn indicates a specifier named a column the row lacks.
	ErrCodeMissingColumn ErrorCode = "MISSING_COLUMN"

	// ErrCodeNoDefaultColumn indicates a bare specifier on a multi-column row.
	ErrCodeNoDefaultColumn ErrorCode = "NO_DEFAULT_COLUMN"

	// ErrCodeInvalidParameter indicates a malformed specifier.
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// ErrCodeMissingParameter indicates a SQL parameter has no attribute.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeMultipleConditions indicates htmpl-if has both true and false.
	ErrCodeMultipleConditions ErrorCode = "MULTIPLE_CONDITIONS"

	// ErrCodeInvalidSelector indicates htmpl-attr has an unparseable selector.
	ErrCodeInvalidSelector ErrorCode = "INVALID_SELECTOR"

	// ErrCodeSQL indicates the database rejected or failed a query.
	ErrCodeSQL ErrorCode = "SQL"

	// ErrCodeHTMLParse indicates the template is not well-formed.
	ErrCodeHTMLParse ErrorCode = "HTML_PARSE"

	// ErrCodeSerialize indicates the output tree could not be rendered.
	ErrCodeSerialize ErrorCode = "SERIALIZE"
)

// Error is the single structured error type returned by evaluation.
//
// Which fields are set depends on Code:
//
//	MISSING_ATTR          Element, Attr
//	MISSING_QUERY         Element, Query
//	CARDINALITY           Element, Query, Got, Want
//	MISSING_COLUMN        Element, Query, Available, Column
//	NO_DEFAULT_COLUMN     Element, Query, Available
//	INVALID_PARAMETER     Element, Text
//	MISSING_PARAMETER     Element, Query (the parameter name)
//	MULTIPLE_CONDITIONS   Element
//	INVALID_SELECTOR      Element, Text, Err
//	SQL                   Query, Err
//	HTML_PARSE            Messages
//	SERIALIZE             Err
//
// Element is the tag name of the construct where the error surfaced. Errors
// raised by generic resolution code start with an empty Element and are
// annotated by the caller that knows the construct (see WithElement).
type Error struct {
	Code      ErrorCode
	Element   string
	Attr      string
	Query     string
	Got       int
	Want      int
	Available string
	Column    string
	Text      string
	Messages  []string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeMissingAttr:
		return fmt.Sprintf("missing attribute: from element %s, attribute %s", e.Element, e.Attr)
	case ErrCodeMissingQuery:
		return fmt.Sprintf("missing query: from element %s, query %s is not in scope", e.Element, e.Query)
	case ErrCodeCardinality:
		return fmt.Sprintf("incorrect cardinality: from element %s, query %s returned %d rows, wanted %d", e.Element, e.Query, e.Got, e.Want)
	case ErrCodeMissingColumn:
		return fmt.Sprintf("invalid column: from element %s, query %s has columns %s, wanted %s", e.Element, e.Query, e.Available, e.Column)
	case ErrCodeNoDefaultColumn:
		return fmt.Sprintf("invalid column: from element %s, query %s has columns %s, wanted one column", e.Element, e.Query, e.Available)
	case ErrCodeInvalidParameter:
		return fmt.Sprintf("invalid parameter: from element %s, %q is not of the form query or query(column)", e.Element, e.Text)
	case ErrCodeMissingParameter:
		return fmt.Sprintf("missing parameter: from element %s, no attribute provides parameter %s", e.Element, e.Query)
	case ErrCodeMultipleConditions:
		return fmt.Sprintf("multiple conditions: element %s has both true and false attributes", e.Element)
	case ErrCodeInvalidSelector:
		return fmt.Sprintf("invalid selector: from element %s, %q: %v", e.Element, e.Text, e.Err)
	case ErrCodeSQL:
		return fmt.Sprintf("SQL error: in query %s: %v", e.Query, e.Err)
	case ErrCodeHTMLParse:
		return fmt.Sprintf("HTML parse error: %s", strings.Join(e.Messages, "; "))
	case ErrCodeSerialize:
		return fmt.Sprintf("reserializing error: %v", e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
}

// Unwrap returns the underlying SQL, selector, or serialization error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithElement annotates the error with the tag name of the element where it
// surfaced. An existing, more specific annotation is never overwritten.
// Returns e for chaining.
func (e *Error) WithElement(tag string) *Error {
	if e.Element == "" {
		e.Element = tag
	}
	return e
}

// annotate attaches tag to err if err is an *Error without an element.
// Other errors pass through untouched.
func annotate(err error, tag string) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithElement(tag)
	}
	return err
}

// CodeOf returns the code of an *Error anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func newMissingAttr(element, attr string) *Error {
	return &Error{Code: ErrCodeMissingAttr, Element: element, Attr: attr}
}

func newMissingQuery(name string) *Error {
	return &Error{Code: ErrCodeMissingQuery, Query: name}
}

func newCardinality(name string, got, want int) *Error {
	return &Error{Code: ErrCodeCardinality, Query: name, Got: got, Want: want}
}

func newMissingColumn(name, available, column string) *Error {
	return &Error{Code: ErrCodeMissingColumn, Query: name, Available: available, Column: column}
}

func newNoDefaultColumn(name, available string) *Error {
	return &Error{Code: ErrCodeNoDefaultColumn, Query: name, Available: available}
}

func newInvalidParameter(text string) *Error {
	return &Error{Code: ErrCodeInvalidParameter, Text: text}
}

func newMissingParameter(element, param string) *Error {
	return &Error{Code: ErrCodeMissingParameter, Element: element, Query: param}
}

func newSQLError(query string, err error) *Error {
	return &Error{Code: ErrCodeSQL, Query: query, Err: err}
}
