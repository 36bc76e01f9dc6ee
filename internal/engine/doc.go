// Package engine evaluates htmpl templates.
//
// A template is an HTML fragment with five control elements:
//
//	<htmpl-query name="q" :uuid="other(uuid)">SELECT ...</htmpl-query>
//	<htmpl-insert query="q(column)"></htmpl-insert>
//	<htmpl-foreach query="q">...</htmpl-foreach>
//	<htmpl-if true="q(flag)">...</htmpl-if>
//	<htmpl-attr select=".css" attr="class" query="q(column)"></htmpl-attr>
//
// The engine walks the parsed tree depth-first in document order and builds
// a new output tree. Query declarations bind their results in the current
// lexical Scope; every element opens a child scope, so bindings made inside
// an element are invisible outside it. Everything that is not a control
// element is copied through, with attribute patches from htmpl-attr merged
// into the elements they target.
//
// PATTERNS:
//
// Fail-fast: the first error aborts evaluation with a structured *Error.
// No partial output is ever returned.
//
// Read-only: queries run through an Executor; the engine never writes.
//
// Determinism: traversal order fixes both output order and the order in
// which attribute patches are applied. The last patch registered for an
// attribute wins.
package engine
