package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/htmpl/internal/engine"
	"github.com/roach88/htmpl/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output   string
	Database string
	Driver   string
	Strict   bool
	Watch    bool
}

// RenderResult is the JSON payload of a successful render.
type RenderResult struct {
	Template string `json:"template"`
	Output   string `json:"output,omitempty"` // rendered HTML, when not written to a file
	Path     string `json:"path,omitempty"`   // output file, when -o is set
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Evaluate a template against a database",
		Long: `Evaluate a template against a read-only database and print the result.

Use "-" to read the template from standard input. With --watch, the
template is rendered again every time it changes, until interrupted.

Exit codes:
  0 - Template rendered
  1 - Evaluation failed (malformed template, SQL error, ...)
  2 - Command error (missing file, no database, ...)

Examples:
  htmpl render --db ./app.db page.html
  htmpl render --db ./app.db page.html -o page.out.html --watch
  htmpl render --driver postgres --db "postgres://localhost/app" page.html
  cat page.html | htmpl render --db ./app.db -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&opts.Database, "db", "", "database DSN; a file path for SQLite (or HTMPL_DSN)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite3, sqlite, postgres, mysql (default sqlite3)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", true, "reject malformed templates instead of repairing them")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "render again whenever the template changes")

	return cmd
}

func runRender(opts *RenderOptions, templatePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if opts.Watch && templatePath == "-" {
		return outputCommandError(formatter, ErrCodeGeneric, "--watch needs a template file, not stdin")
	}

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}

	st, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Debug("database ready", "driver", st.Driver().Name)

	eng := engine.New(st,
		engine.WithLogger(logger.With("template", templatePath)),
		engine.WithStrict(cfg.Strict),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r := &renderer{
		opts:      opts,
		eng:       eng,
		template:  templatePath,
		formatter: formatter,
		stdin:     cmd.InOrStdin(),
	}
	if !opts.Watch {
		return r.renderOnce(ctx)
	}
	return r.watch(ctx)
}

// renderer evaluates one template with a fixed engine.
type renderer struct {
	opts      *RenderOptions
	eng       *engine.Engine
	template  string
	formatter *OutputFormatter
	stdin     io.Reader
}

// renderOnce renders the template and reports the outcome. The returned
// error carries the exit code.
func (r *renderer) renderOnce(ctx context.Context) error {
	src, err := r.readTemplate()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outputCommandError(r.formatter, ErrCodeNotFound, fmt.Sprintf("template not found: %s", r.template))
		}
		return outputCommandError(r.formatter, ErrCodeReadFailed, err.Error())
	}

	out, err := r.eng.Evaluate(ctx, src)
	if err != nil {
		return outputEvalError(r.formatter, err)
	}

	result := RenderResult{Template: r.template}
	if r.opts.Output != "" {
		if err := afero.WriteFile(r.opts.fs(), r.opts.Output, []byte(out), 0o644); err != nil {
			return outputCommandError(r.formatter, ErrCodeWriteFailed, fmt.Sprintf("failed to write output: %v", err))
		}
		result.Path = r.opts.Output
		r.formatter.VerboseLog("Wrote %s", r.opts.Output)
	} else {
		result.Output = out
	}

	if r.formatter.Format == "json" {
		return r.formatter.Success(result)
	}
	if result.Output != "" {
		fmt.Fprintln(r.formatter.Writer, result.Output)
	}
	return nil
}

// watch renders on every change until ctx is done or the process is
// interrupted. Evaluation errors are reported but do not stop the watch.
func (r *renderer) watch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := r.opts.logger()
	w, err := NewWatcher(r.template, defaultDebounce, logger, func() error {
		err := r.renderOnce(ctx)
		if GetExitCode(err) == ExitCommandError {
			return err
		}
		return nil
	})
	if err != nil {
		return outputCommandError(r.formatter, ErrCodeGeneric, err.Error())
	}

	logger.Info("watching template", "file", r.template)
	w.Start()
	<-ctx.Done()
	return w.Stop()
}

func (r *renderer) readTemplate() (string, error) {
	if r.template == "-" {
		data, err := io.ReadAll(r.stdin)
		return string(data), err
	}
	data, err := afero.ReadFile(r.opts.fs(), r.template)
	return string(data), err
}

// outputEvalError reports an evaluation failure under its engine code.
func outputEvalError(formatter *OutputFormatter, err error) error {
	code := string(engine.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	_ = formatter.Error(code, err.Error(), nil)
	// Evaluation failures = exit code 1
	return WrapExitError(ExitFailure, "evaluation failed", err)
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
