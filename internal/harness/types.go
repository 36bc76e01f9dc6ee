package harness

import "time"

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Output is the rendered output. Empty if evaluation failed.
	Output string `json:"output,omitempty"`

	// ErrorCode is the engine error code if evaluation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// EvalError is the evaluation error message, if any.
	EvalError string `json:"eval_error,omitempty"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Duration is the evaluation time, excluding database setup.
	Duration time.Duration `json:"duration_ns"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot is the text compared against a golden file: the output on
// success, or the error code and message on failure.
func (r *Result) Snapshot() []byte {
	if r.ErrorCode != "" || r.EvalError != "" {
		return []byte("error " + r.ErrorCode + ": " + r.EvalError + "\n")
	}
	return []byte(r.Output)
}
