package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(RenderResult{Template: "page.html", Output: "<p>x</p>"})
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "<p>x</p>", resp.Data.Output)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("CARDINALITY", "query q returned 2 rows, wanted 1", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CARDINALITY", resp.Error.Code)
	assert.Equal(t, "query q returned 2 rows, wanted 1", resp.Error.Message)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("E005", "template not found: page.html", map[string]string{"hint": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Error [E005]: template not found: page.html\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("E001", "boom", map[string]string{"file": "page.html"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]: boom")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Color(t *testing.T) {
	plain := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}
	assert.Equal(t, "✓", plain.Mark(true))
	assert.Equal(t, "✗", plain.Mark(false))

	colored := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}, Color: true}
	assert.Contains(t, colored.Mark(true), "\x1b[")
	assert.Contains(t, colored.Mark(true), "✓")

	buf := &bytes.Buffer{}
	colored.Writer = buf
	require.NoError(t, colored.Error("SQL", "no such table: t", nil))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "no such table: t")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Wrote %s", "page.out.html")

			assert.Empty(t, buf.String(), "verbose logs never go to the output writer")
			if tt.wantLog {
				assert.Equal(t, "Wrote page.out.html\n", errBuf.String())
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitSuccess, "fine", nil))
	assert.Equal(t, ExitSuccess, GetExitCode(wrapped))
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write output", cause)
	assert.Equal(t, "failed to write output: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}
