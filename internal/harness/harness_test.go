package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htmpl/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Template:    "<p>hello</p>",
		Expect:      Expect{Output: strPtr("<p>hello</p>")},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "<p>hello</p>", result.Output)
	assert.Empty(t, result.ErrorCode)
}

func TestRun_WithSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_setup",
		Description: "Queries see the setup rows",
		Setup:       testutil.UsersSetupSQL(),
		Template: `<htmpl-query name="q">SELECT name FROM users ORDER BY name</htmpl-query>` +
			`<htmpl-foreach query="q"><i><htmpl-insert query="q"></htmpl-insert></i></htmpl-foreach>`,
		Expect: Expect{Output: strPtr("<i>cceckman</i><i>ddedkman</i>")},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_WithErrorExpect(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_query",
		Description: "Inserting an undeclared query fails",
		Template:    `<htmpl-insert query="nope"></htmpl-insert>`,
		Expect:      Expect{Error: "MISSING_QUERY"},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "MISSING_QUERY", result.ErrorCode)
	assert.Contains(t, result.EvalError, "nope")
	assert.Empty(t, result.Output)
}

func TestRun_WrongErrorCodeFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_code",
		Description: "Expecting the wrong error code fails the scenario",
		Template:    `<htmpl-insert query="nope"></htmpl-insert>`,
		Expect:      Expect{Error: "CARDINALITY"},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error CARDINALITY")
	assert.Contains(t, result.Errors[0], "MISSING_QUERY")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "An evaluation error fails an output expectation",
		Template:    `<htmpl-insert query="nope"></htmpl-insert>`,
		Expect:      Expect{Contains: []string{"anything"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "successful evaluation")
}

func TestRun_SetupFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_setup",
		Description: "Broken setup SQL",
		Setup:       "CREATE TABLE",
		Template:    "<p></p>",
		Expect:      Expect{Output: strPtr("<p></p>")},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_setup")
	assert.Contains(t, err.Error(), "failed to run setup SQL")
}

func TestRun_Lenient(t *testing.T) {
	strict := false
	scenario := &Scenario{
		Name:        "lenient",
		Description: "Lenient parsing repairs stray end tags",
		Template:    "<p>x</div></p>",
		Strict:      &strict,
		Expect:      Expect{Output: strPtr("<p>x</p>")},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/foreach_query_parameter.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	for range 5 {
		again, err := Run(context.Background(), scenario)
		require.NoError(t, err)
		assert.Equal(t, first.Output, again.Output)
	}
}

func TestRun_FreshDatabasePerScenario(t *testing.T) {
	// A scenario's setup is not visible to the next one.
	withTable := &Scenario{
		Name:        "with_table",
		Description: "Creates a table",
		Setup:       "CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1);",
		Template:    `<htmpl-query name="q">SELECT x FROM t</htmpl-query><htmpl-insert query="q"></htmpl-insert>`,
		Expect:      Expect{Output: strPtr("1")},
	}
	withoutTable := &Scenario{
		Name:        "without_table",
		Description: "Does not see the table",
		Template:    `<htmpl-query name="q">SELECT x FROM t</htmpl-query>`,
		Expect:      Expect{Error: "SQL"},
	}

	r1, err := Run(context.Background(), withTable)
	require.NoError(t, err)
	assert.True(t, r1.Pass, "errors: %v", r1.Errors)

	r2, err := Run(context.Background(), withoutTable)
	require.NoError(t, err)
	assert.True(t, r2.Pass, "errors: %v", r2.Errors)
}

func TestHarness_LogsScenarioName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scenario := &Scenario{
		Name:        "logged",
		Description: "Logs carry the scenario name",
		Setup:       "CREATE TABLE t (x INTEGER);",
		Template:    `<htmpl-query name="q">SELECT x FROM t</htmpl-query>`,
		Expect:      Expect{Output: strPtr("")},
	}

	result, err := New(logger).Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	logs := buf.String()
	assert.Contains(t, logs, "scenario=logged")
	assert.Contains(t, logs, "query executed")
	assert.Contains(t, logs, "scenario finished")
}

func TestResult_AddError(t *testing.T) {
	result := NewResult("test")
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	result.AddError("first error")
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 1)

	result.AddError("second error")
	assert.Equal(t, []string{"first error", "second error"}, result.Errors)
}

func TestResult_Snapshot(t *testing.T) {
	ok := NewResult("ok")
	ok.Output = "<p>x</p>"
	assert.Equal(t, "<p>x</p>", string(ok.Snapshot()))

	failed := NewResult("failed")
	failed.ErrorCode = "SQL"
	failed.EvalError = "SQL error in query q: boom"
	assert.Equal(t, "error SQL: SQL error in query q: boom\n", string(failed.Snapshot()))
}

// Every checked-in scenario must pass and match its golden snapshot.
func TestScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
