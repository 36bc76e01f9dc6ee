package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/markup"
)

// Executor runs read-only queries for the engine.
// Implemented by *store.Store (production) and by fakes in tests.
type Executor interface {
	// Parameters prepares text and lists its named parameters in
	// first-use order, sigils included (":uuid").
	Parameters(ctx context.Context, text string) ([]string, error)

	// Query executes text with one value per named parameter and
	// materializes every row.
	Query(ctx context.Context, text string, params map[string]ir.Value) (*ir.QueryResult, error)
}

// doQuery evaluates an htmpl-query element and binds its result in s.
//
// The query is prepared before any parameter is resolved, so malformed SQL
// is reported as an SQL error even when attributes are missing too.
// Each named parameter of the query text is supplied by the element
// attribute of the same name, sigil included; the attribute's value is a
// specifier resolved in s. HTML attribute names are case-insensitive and
// the parser lowercases them, so the lookup is too.
func (e *Engine) doQuery(ctx context.Context, s *Scope, el *html.Node) error {
	name, ok := markup.Attr(el, attrName)
	if !ok {
		return newMissingAttr(tagQuery, attrName)
	}
	text := markup.Text(el)

	names, err := s.exec.Parameters(ctx, text)
	if err != nil {
		return newSQLError(name, err)
	}

	params := make(map[string]ir.Value, len(names))
	for _, p := range names {
		spec, ok := markup.Attr(el, strings.ToLower(p))
		if !ok {
			return newMissingParameter(tagQuery, p)
		}
		v, err := s.GetSingle(spec)
		if err != nil {
			return annotate(err, tagQuery)
		}
		params[p] = v
	}

	start := time.Now()
	result, err := s.exec.Query(ctx, text, params)
	if err != nil {
		return newSQLError(name, err)
	}
	e.logger.Debug("query executed",
		"name", name,
		"params", len(params),
		"rows", result.Len(),
		"duration", time.Since(start),
	)

	s.Bind(name, result)
	return nil
}
