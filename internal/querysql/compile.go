package querysql

import (
	"fmt"
	"strings"
)

// Placeholder selects how named parameters are presented to a driver.
type Placeholder int

const (
	// PlaceholderNamed leaves ":name" parameters in place and binds with
	// sql.Named. Used for SQLite drivers, which resolve names natively.
	PlaceholderNamed Placeholder = iota

	// PlaceholderQuestion rewrites each parameter use to "?" (MySQL).
	PlaceholderQuestion

	// PlaceholderDollar rewrites each distinct parameter to "$n" (PostgreSQL).
	PlaceholderDollar
)

// String returns the placeholder style name.
func (p Placeholder) String() string {
	switch p {
	case PlaceholderNamed:
		return "named"
	case PlaceholderQuestion:
		return "question"
	case PlaceholderDollar:
		return "dollar"
	default:
		return fmt.Sprintf("Placeholder(%d)", int(p))
	}
}

// Compiled is a query ready to hand to database/sql.
type Compiled struct {
	// SQL is the query text in the driver's placeholder style.
	SQL string

	// Params lists the named parameter for each positional argument, in
	// argument order. For PlaceholderNamed it lists each distinct parameter
	// once.
	Params []string
}

// Compile rewrites query text for the given placeholder style.
//
// Values are never interpolated into the SQL text; callers bind arguments
// in the order given by Compiled.Params.
func Compile(query string, style Placeholder) (Compiled, error) {
	if style == PlaceholderNamed {
		params, err := Parameters(query)
		if err != nil {
			return Compiled{}, err
		}
		return Compiled{SQL: query, Params: params}, nil
	}

	tokens, err := tokenize(query)
	if err != nil {
		return Compiled{}, err
	}

	var (
		sb     strings.Builder
		params []string
		index  = make(map[string]int)
	)
	for _, tok := range tokens {
		switch tok.Type {
		case positionalToken:
			return Compiled{}, fmt.Errorf("%s: positional parameter %q is not supported; use a named parameter such as :name", tok.Pos, tok.Value)
		case paramToken:
			switch style {
			case PlaceholderQuestion:
				params = append(params, tok.Value)
				sb.WriteString("?")
			case PlaceholderDollar:
				n, ok := index[tok.Value]
				if !ok {
					params = append(params, tok.Value)
					n = len(params)
					index[tok.Value] = n
				}
				fmt.Fprintf(&sb, "$%d", n)
			default:
				return Compiled{}, fmt.Errorf("unsupported placeholder style: %s", style)
			}
		default:
			sb.WriteString(tok.Value)
		}
	}
	return Compiled{SQL: sb.String(), Params: params}, nil
}

// BareName strips the sigil from a parameter name (":uuid" -> "uuid").
func BareName(param string) string {
	if len(param) > 0 && strings.ContainsRune(":@$", rune(param[0])) {
		return param[1:]
	}
	return param
}
