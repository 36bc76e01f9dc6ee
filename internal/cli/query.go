package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/htmpl/internal/engine"
	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Driver   string
	Params   []string // ":name=value"
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one read-only query",
		Long: `Run a single query the way a template's htmpl-query would, and print
the rows. Useful for checking what a template will see.

Named parameters are given with --param, sigil included. Values are
passed as text.

Examples:
  htmpl query --db ./app.db "SELECT * FROM users"
  htmpl query --db ./app.db "SELECT name FROM users WHERE uuid = :uuid" --param :uuid=18adfb4d
  htmpl query --db ./app.db "SELECT * FROM users" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database DSN; a file path for SQLite (or HTMPL_DSN)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite3, sqlite, postgres, mysql (default sqlite3)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "named parameter value, as :name=value (repeatable)")

	return cmd
}

func runQuery(opts *QueryOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	params, err := parseParams(opts.Params)
	if err != nil {
		return outputCommandError(formatter, ErrCodeParam, err.Error())
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	names, err := st.Parameters(ctx, query)
	if err != nil {
		return outputQueryError(formatter, err)
	}
	for _, name := range names {
		if _, ok := params[name]; !ok {
			return outputCommandError(formatter, ErrCodeParam, fmt.Sprintf("no value for parameter %s; pass --param %s=...", name, name))
		}
	}

	result, err := st.Query(ctx, query, params)
	if err != nil {
		return outputQueryError(formatter, err)
	}
	logger.Debug("query executed", "rows", result.Len())

	if formatter.Format == "json" {
		data, err := ir.MarshalCanonical(result)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		return formatter.Success(json.RawMessage(data))
	}
	return writeRows(formatter, result)
}

// parseParams turns ":name=value" flags into query parameters.
func parseParams(flags []string) (map[string]ir.Value, error) {
	params := make(map[string]ir.Value, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || len(name) < 2 || !strings.ContainsAny(name[:1], ":@$") {
			return nil, fmt.Errorf("invalid --param %q: want :name=value", f)
		}
		params[name] = ir.Text(value)
	}
	return params, nil
}

// writeRows prints a result as an aligned table with a header line.
func writeRows(formatter *OutputFormatter, result *ir.QueryResult) error {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = ir.Format(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "(%d row(s))\n", result.Len())
	return nil
}

func outputQueryError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(string(engine.ErrCodeSQL), err.Error(), nil)
	return WrapExitError(ExitFailure, "query failed", err)
}
