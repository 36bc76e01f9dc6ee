// Package markup adapts golang.org/x/net/html to the needs of the template
// evaluator: strict parsing of fragments, stable node identities, CSS
// selection (github.com/andybalholm/cascadia), and serialization without
// the parser's synthetic wrapper elements.
package markup
