package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/htmpl/internal/engine"
	"github.com/roach88/htmpl/internal/markup"
)

// CheckResult holds the outcome of checking one template.
type CheckResult struct {
	Template string   `json:"template"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <template>...",
		Short: "Check that templates are well-formed",
		Long: `Check templates with the strict HTML parser, without touching a database.

Reports every structural problem found (stray end tags, end tags on void
elements, self-closing tags on non-void elements, ...).

Exit codes:
  0 - All templates are well-formed
  1 - One or more templates have problems
  2 - Command error (missing file, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, templates []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	results := make([]CheckResult, 0, len(templates))
	failed := 0
	for _, path := range templates {
		src, err := afero.ReadFile(opts.fs(), path)
		if errors.Is(err, os.ErrNotExist) {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("template not found: %s", path))
		}
		if err != nil {
			return outputCommandError(formatter, ErrCodeReadFailed, err.Error())
		}

		result := CheckResult{Template: path, Valid: true}
		if msgs := markup.Check(string(src)); len(msgs) > 0 {
			result.Valid = false
			result.Errors = msgs
			failed++
		}
		formatter.VerboseLog("Checked %s: %d problem(s)", path, len(result.Errors))
		results = append(results, result)
	}

	if formatter.Format == "json" {
		return outputCheckJSON(formatter, results, failed)
	}

	w := formatter.Writer
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", formatter.Mark(r.Valid), r.Template)
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  %s: %s\n", engine.ErrCodeHTMLParse, msg)
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d template(s) malformed", failed))
	}
	return nil
}

func outputCheckJSON(formatter *OutputFormatter, results []CheckResult, failed int) error {
	response := CLIResponse{Status: "ok", Data: results}
	if failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    string(engine.ErrCodeHTMLParse),
			Message: fmt.Sprintf("%d template(s) malformed", failed),
		}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d template(s) malformed", failed))
	}
	return nil
}
