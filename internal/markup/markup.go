package markup

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID is the stable identity of a source node, valid for the lifetime of
// the parsed Document. It is comparable and usable as a map key.
type NodeID struct {
	n *html.Node
}

// ID returns the identity of n.
func ID(n *html.Node) NodeID {
	return NodeID{n: n}
}

// IsZero reports whether the ID refers to no node.
func (id NodeID) IsZero() bool {
	return id.n == nil
}

// Document is a parsed template.
//
// Root is the node whose children are the template's top-level nodes. For a
// fragment it is a synthetic document node that is never rendered itself;
// for a full document (one that starts with a doctype, <html>, <head>, or
// <body>) it is the parser's document node.
type Document struct {
	Root *html.Node
	Full bool
}

// ParseError collects the problems found by a strict parse.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("HTML parse errors: %s", strings.Join(e.Messages, "; "))
}

var fullDocument = regexp.MustCompile(`(?is)^\s*(?:<!--.*?-->\s*)*<(?:!doctype|html|head|body)[\s>]`)

// Parse parses template source.
//
// Fragments are parsed in a <body> context so the parser does not
// synthesize <html>, <head>, and <body> wrappers around them. Sources that
// start with a doctype or an <html>, <head>, or <body> tag are parsed as
// whole documents, since a body context would drop those tags and their
// attributes; missing wrappers are then added by the parser.
//
// In strict mode the source is first checked by Check; any problem is
// returned as a *ParseError and nothing is parsed.
func Parse(src string, strict bool) (*Document, error) {
	if strict {
		if msgs := Check(src); len(msgs) > 0 {
			return nil, &ParseError{Messages: msgs}
		}
	}

	if fullDocument.MatchString(src) {
		root, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return nil, &ParseError{Messages: []string{err.Error()}}
		}
		return &Document{Root: root, Full: true}, nil
	}

	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, &ParseError{Messages: []string{err.Error()}}
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{Root: root}, nil
}

// NewFragment returns an empty output root to build a rendered tree under.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr inserts or overwrites the named attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Text returns the text content of n's descendants, with text nodes joined
// by single spaces and the result trimmed.
func Text(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				parts = append(parts, c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Clone returns a detached shallow copy of n: same type, tag, namespace,
// and a copy of its attributes, with no parent, siblings, or children.
func Clone(n *html.Node) *html.Node {
	attrs := make([]html.Attribute, len(n.Attr))
	copy(attrs, n.Attr)
	return &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      attrs,
	}
}

// TagName returns the lower-case tag name of an element node, or "" for
// other node types.
func TagName(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}
