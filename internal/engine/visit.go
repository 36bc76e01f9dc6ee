package engine

import (
	"context"
	"errors"

	"golang.org/x/net/html"

	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/markup"
)

// Control element tag names.
const (
	tagQuery   = "htmpl-query"
	tagInsert  = "htmpl-insert"
	tagForEach = "htmpl-foreach"
	tagIf      = "htmpl-if"
	tagAttr    = "htmpl-attr"
)

// Control element attribute names.
const (
	attrName   = "name"
	attrQuery  = "query"
	attrTrue   = "true"
	attrFalse  = "false"
	attrSelect = "select"
	attrAttr   = "attr"
)

// elementKind is the closed set of constructs the visitor dispatches on.
type elementKind int

const (
	kindDefault elementKind = iota
	kindQuery
	kindInsert
	kindForEach
	kindIf
	kindAttr
)

func kindOf(n *html.Node) elementKind {
	if n.Namespace != "" {
		return kindDefault
	}
	switch n.Data {
	case tagQuery:
		return kindQuery
	case tagInsert:
		return kindInsert
	case tagForEach:
		return kindForEach
	case tagIf:
		return kindIf
	case tagAttr:
		return kindAttr
	default:
		return kindDefault
	}
}

// visit evaluates src in scope s, appending whatever it produces to out.
func (e *Engine) visit(ctx context.Context, s *Scope, src, out *html.Node) error {
	if src.Type != html.ElementNode {
		n := markup.Clone(src)
		out.AppendChild(n)
		if src.FirstChild == nil {
			return nil
		}
		return e.visitChildren(ctx, s.Push(), src, n)
	}

	switch kindOf(src) {
	case kindQuery:
		return e.doQuery(ctx, s, src)
	case kindInsert:
		return e.visitInsert(s, src, out)
	case kindForEach:
		return e.visitForEach(ctx, s, src, out)
	case kindIf:
		return e.visitIf(ctx, s, src, out)
	case kindAttr:
		return e.visitAttr(s, src)
	default:
		n := markup.Clone(src)
		for _, a := range s.Attrs(markup.ID(src)) {
			markup.SetAttr(n, a.Name, a.Value)
		}
		out.AppendChild(n)
		return e.visitChildren(ctx, s.Push(), src, n)
	}
}

// visitChildren visits every child of src in document order, all in the
// same scope s, so declarations made by one child are visible to the
// children after it.
func (e *Engine) visitChildren(ctx context.Context, s *Scope, src, out *html.Node) error {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.visit(ctx, s, c, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) visitInsert(s *Scope, src, out *html.Node) error {
	spec, ok := markup.Attr(src, attrQuery)
	if !ok {
		return newMissingAttr(tagInsert, attrQuery)
	}
	v, err := s.GetSingle(spec)
	if err != nil {
		return annotate(err, tagInsert)
	}
	out.AppendChild(&html.Node{Type: html.TextNode, Data: ir.Format(v)})
	return nil
}

func (e *Engine) visitForEach(ctx context.Context, s *Scope, src, out *html.Node) error {
	name, ok := markup.Attr(src, attrQuery)
	if !ok {
		return newMissingAttr(tagForEach, attrQuery)
	}
	rows, ok := s.ForEachRow(name)
	if !ok {
		return newMissingQuery(name).WithElement(tagForEach)
	}
	for row := range rows {
		if err := e.visitChildren(ctx, row, src, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) visitIf(ctx context.Context, s *Scope, src, out *html.Node) error {
	whenTrue, hasTrue := markup.Attr(src, attrTrue)
	whenFalse, hasFalse := markup.Attr(src, attrFalse)

	var spec string
	var polarity bool
	switch {
	case hasTrue && hasFalse:
		return &Error{Code: ErrCodeMultipleConditions, Element: tagIf}
	case hasTrue:
		spec, polarity = whenTrue, true
	case hasFalse:
		spec, polarity = whenFalse, false
	default:
		return newMissingAttr(tagIf, attrTrue)
	}

	truth, err := s.truthy(spec)
	if err != nil {
		return annotate(err, tagIf)
	}
	if truth != polarity {
		return nil
	}
	return e.visitChildren(ctx, s.Push(), src, out)
}

// truthy resolves spec for a conditional. A bound query with no rows is
// falsy; any other cardinality than one is an error.
func (s *Scope) truthy(spec string) (bool, error) {
	parsed, err := ParseSpecifier(spec)
	if err != nil {
		return false, err
	}
	if q, err := s.Get(parsed.Query); err == nil && q.Len() == 0 {
		return false, nil
	}
	v, err := s.GetSingle(spec)
	if err != nil {
		return false, err
	}
	return ir.Truthy(v), nil
}

// visitAttr registers attribute patches for every element under src's
// parent that matches the selector. It produces no output.
func (e *Engine) visitAttr(s *Scope, src *html.Node) error {
	var vals [3]string
	for i, key := range [...]string{attrSelect, attrAttr, attrQuery} {
		v, ok := markup.Attr(src, key)
		if !ok {
			return newMissingAttr(tagAttr, key)
		}
		vals[i] = v
	}
	selector, name, spec := vals[0], vals[1], vals[2]

	v, err := s.GetSingle(spec)
	if err != nil {
		return annotate(err, tagAttr)
	}
	value := ir.Format(v)

	matched, err := markup.Select(src.Parent, selector)
	if err != nil {
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		return &Error{Code: ErrCodeInvalidSelector, Element: tagAttr, Text: selector, Err: cause}
	}
	for _, m := range matched {
		s.AddAttr(markup.ID(m), Attribute{Name: name, Value: value})
	}
	e.logger.Debug("attribute patch registered",
		"select", selector,
		"attr", name,
		"matched", len(matched),
	)
	return nil
}
