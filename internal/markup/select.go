package markup

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Select returns every descendant of root matching the CSS selector, in
// document order. root itself is never included.
func Select(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	var matched []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		matched = append(matched, sel.MatchAll(c)...)
	}
	return matched, nil
}

// Render serializes the children of root. root itself is not rendered, so
// the synthetic container produced by NewFragment never reaches the output.
func Render(root *html.Node) (string, error) {
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
