package harness

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/htmpl/internal/engine"
)

// Assertion type names, used to categorize failures.
const (
	AssertOutput   = "output"
	AssertContains = "contains"
	AssertAbsent   = "absent"
	AssertError    = "error"
)

// AssertionError is returned when an expectation fails.
// It includes the full output to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Full rendered output, if evaluation succeeded
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Output != "" {
		fmt.Fprintf(&buf, "\nFull output:\n%s\n", e.Output)
	}
	return buf.String()
}

// EvaluateExpect checks an evaluation outcome against expect and returns
// one error per failed expectation, in the order output, contains, absent.
// evalErr is the error returned by the engine, if any.
func EvaluateExpect(expect Expect, output string, evalErr error) []error {
	if expect.Error != "" {
		return assertError(expect.Error, evalErr)
	}
	if evalErr != nil {
		return []error{&AssertionError{
			Type:     AssertError,
			Expected: "successful evaluation",
			Actual:   evalErr.Error(),
		}}
	}

	var errs []error
	if expect.Output != nil {
		if err := assertOutput(*expect.Output, output); err != nil {
			errs = append(errs, err)
		}
	}
	for _, want := range expect.Contains {
		if !strings.Contains(output, want) {
			errs = append(errs, &AssertionError{
				Type:     AssertContains,
				Expected: fmt.Sprintf("output containing %q", want),
				Actual:   "not found",
				Output:   output,
			})
		}
	}
	for _, unwanted := range expect.Absent {
		if strings.Contains(output, unwanted) {
			errs = append(errs, &AssertionError{
				Type:     AssertAbsent,
				Expected: fmt.Sprintf("output without %q", unwanted),
				Actual:   "found",
				Output:   output,
			})
		}
	}
	return errs
}

// assertError checks that evaluation failed with the given code.
func assertError(code string, evalErr error) []error {
	if evalErr == nil {
		return []error{&AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s", code),
			Actual:   "evaluation succeeded",
		}}
	}
	if got := engine.CodeOf(evalErr); string(got) != code {
		return []error{&AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s", code),
			Actual:   fmt.Sprintf("error %s: %v", got, evalErr),
		}}
	}
	return nil
}

// assertOutput compares outputs ignoring all whitespace.
func assertOutput(want, got string) error {
	if squash(want) == squash(got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutput,
		Expected: strings.TrimSpace(want),
		Actual:   strings.TrimSpace(got),
	}
}

// squash removes every whitespace rune.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
