// Package harness runs htmpl template scenarios as executable tests.
//
// # Scenario Format
//
// Scenarios are YAML files (.yaml, .yml):
//
//	name: insert_named_column
//	description: "What this scenario validates"
//	setup: |
//	  CREATE TABLE users (uuid TEXT, name TEXT);
//	  INSERT INTO users VALUES ('u1', 'alice');
//	template: >-
//	  <htmpl-query name="q">SELECT * FROM users</htmpl-query>
//	  <htmpl-insert query="q(name)"></htmpl-insert>
//	expect:
//	  output: alice
//
// or CUE files (.cue) with the same fields under a top-level "scenario":
//
//	scenario: {
//		name:        "empty_is_falsy"
//		description: "A condition over no rows is false"
//		template:    #"<htmpl-if false="q">none</htmpl-if>"#
//		expect: error: "MISSING_QUERY"
//	}
//
// # Expectations
//
//   - output: the whole output, compared ignoring whitespace
//   - contains / absent: substrings that must or must not appear
//   - error: the engine error code evaluation must fail with
//
// # Isolation
//
// Every scenario gets a fresh in-memory SQLite database seeded by its setup
// SQL and then switched to read-only, so scenarios cannot affect each other.
//
// # Golden Files
//
// RunWithGolden compares a scenario's snapshot (its output, or its error)
// with testdata/golden/{name}.golden via goldie. The CLI keeps golden files
// next to the scenarios instead; see GoldenPath.
package harness
