package querysql

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// SQLLexer splits query text into just enough token classes to find named
// parameters without being fooled by literals, quoted identifiers, comments,
// or PostgreSQL casts. A parameter name after the sigil may start with a
// digit (":1"), as SQLite allows; "$1" is PostgreSQL's positional form.
//
// Rules are tried in order at each position; the first match wins.
var SQLLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LineComment", Pattern: `--[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
	{Name: "BacktickIdent", Pattern: "`[^`]*`"},
	{Name: "Unterminated", Pattern: `(?:'(?:[^']|'')*|"(?:[^"]|"")*|/\*(?:[^*]|\*+[^*/])*)$`},
	{Name: "DollarQuote", Pattern: `\$(?:[\p{L}_][\p{L}\p{N}_]*)?\$`},
	{Name: "Cast", Pattern: `::`},
	{Name: "Positional", Pattern: `\?\d*|\$\d+\b`},
	{Name: "Param", Pattern: `[:@$][\p{L}\p{N}_]+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Number", Pattern: `\d+(?:\.\d*)?(?:[eE][+-]?\d+)?`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[^\s]`},
})

var (
	paramToken        = SQLLexer.Symbols()["Param"]
	positionalToken   = SQLLexer.Symbols()["Positional"]
	unterminatedToken = SQLLexer.Symbols()["Unterminated"]
	dollarQuoteToken  = SQLLexer.Symbols()["DollarQuote"]
)

// tokenize lexes query text into tokens, excluding the trailing EOF.
func tokenize(query string) ([]lexer.Token, error) {
	lex, err := SQLLexer.LexString("query", query)
	if err != nil {
		return nil, fmt.Errorf("lex query: %w", err)
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("lex query: %w", err)
	}
	if n := len(tokens); n > 0 && tokens[n-1].EOF() {
		tokens = tokens[:n-1]
	}
	for _, tok := range tokens {
		switch tok.Type {
		case unterminatedToken:
			return nil, fmt.Errorf("%s: unterminated quoted text or comment", tok.Pos)
		case dollarQuoteToken:
			// The body of a dollar-quoted string cannot be told apart from
			// parameters without matching its closing tag.
			return nil, fmt.Errorf("%s: dollar-quoted string %s is not supported; use single quotes", tok.Pos, tok.Value)
		}
	}
	return tokens, nil
}

// Parameters returns the named parameters referenced by query, sigil
// included (":uuid", "@name", "$id"), deduplicated, in order of first use.
//
// Returns an error if the query mixes named and positional parameters,
// since positional parameters have no attribute to be bound from.
func Parameters(query string) ([]string, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return nil, err
	}

	var params []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		switch tok.Type {
		case positionalToken:
			return nil, fmt.Errorf("%s: positional parameter %q is not supported; use a named parameter such as :name", tok.Pos, tok.Value)
		case paramToken:
			if !seen[tok.Value] {
				seen[tok.Value] = true
				params = append(params, tok.Value)
			}
		}
	}
	return params, nil
}
