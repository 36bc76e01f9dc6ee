package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/htmpl/internal/markup"
)

// Engine evaluates htmpl templates against an Executor.
//
// An Engine holds no per-evaluation state: every call to Evaluate starts
// from a fresh root scope, so one Engine may serve any number of
// evaluations. Evaluation itself is single-threaded; concurrent calls are
// safe only if the Executor is.
type Engine struct {
	exec   Executor
	logger *slog.Logger
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for query and patch diagnostics.
//
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrict controls whether malformed templates are rejected before
// evaluation (true) or repaired by the HTML parser (false).
//
// Default: true.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an Engine that runs queries on exec.
func New(exec Executor, opts ...Option) *Engine {
	e := &Engine{
		exec:   exec,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		strict: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate parses src, evaluates every control element in document order,
// and renders the result.
//
// Evaluation is fail-fast: the first error aborts it and no partial output
// is returned. Errors are *Error values except for context cancellation.
func (e *Engine) Evaluate(ctx context.Context, src string) (string, error) {
	start := time.Now()

	doc, err := markup.Parse(src, e.strict)
	if err != nil {
		var perr *markup.ParseError
		if errors.As(err, &perr) {
			return "", &Error{Code: ErrCodeHTMLParse, Messages: perr.Messages}
		}
		return "", &Error{Code: ErrCodeHTMLParse, Messages: []string{err.Error()}}
	}

	out := markup.NewFragment()
	if err := e.visitChildren(ctx, NewScope(e.exec), doc.Root, out); err != nil {
		return "", err
	}

	rendered, err := markup.Render(out)
	if err != nil {
		return "", &Error{Code: ErrCodeSerialize, Err: err}
	}

	e.logger.Debug("template evaluated",
		"bytes_in", len(src),
		"bytes_out", len(rendered),
		"duration", time.Since(start),
	)
	return rendered, nil
}

// EvaluateReader reads a whole template from r and writes the rendered
// output to w. Nothing is written if evaluation fails.
func (e *Engine) EvaluateReader(ctx context.Context, r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	out, err := e.Evaluate(ctx, string(src))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
