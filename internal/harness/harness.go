package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/htmpl/internal/engine"
	"github.com/roach88/htmpl/internal/store"
)

// Harness runs scenarios. The zero value is not usable; use New.
type Harness struct {
	logger *slog.Logger
}

// New creates a Harness that passes logger to every engine it builds.
// A nil logger discards everything.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a Harness that discards logs.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New(nil).Run(ctx, scenario)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation:
//  1. Create the database and run the scenario's setup SQL
//  2. Switch the database to read-only
//  3. Evaluate the template
//  4. Check the outcome against the scenario's expectations
//
// An error is returned only when the scenario could not be run at all (for
// example, its setup SQL failed). Evaluation errors are outcomes, checked
// against Expect like any other.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.OpenMemory(scenario.Setup)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer st.Close()

	eng := engine.New(st,
		engine.WithLogger(h.logger.With("scenario", scenario.Name)),
		engine.WithStrict(scenario.IsStrict()),
	)

	result := NewResult(scenario.Name)
	start := time.Now()
	output, evalErr := eng.Evaluate(ctx, scenario.Template)
	result.Duration = time.Since(start)

	if evalErr != nil {
		result.ErrorCode = string(engine.CodeOf(evalErr))
		result.EvalError = evalErr.Error()
	} else {
		result.Output = output
	}

	for _, err := range EvaluateExpect(scenario.Expect, output, evalErr) {
		result.AddError(err.Error())
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"duration", result.Duration,
	)
	return result, nil
}
