package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Check tokenizes src and reports structural problems that the HTML parser
// would otherwise recover from silently:
//
//   - an end tag that closes no open element
//   - an end tag for a void element
//   - self-closing syntax on a non-void HTML element, which HTML ignores
//     (so <htmpl-insert query="q"/> would swallow its following siblings);
//     inside <svg> and <math> it is honored and allowed
//   - tokenizer errors other than end of input
//
// Messages carry the 1-based line of the offending token. An empty result
// means the source is acceptable.
func Check(src string) []string {
	var (
		msgs  []string
		stack []string
		line  = 1
	)

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		raw := string(z.Raw())
		tokenLine := line
		line += strings.Count(raw, "\n")

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				msgs = append(msgs, fmt.Sprintf("line %d: %v", tokenLine, err))
			}
			return msgs

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidElements[tag] {
				stack = append(stack, tag)
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] || foreignRoots[tag] || inForeign(stack) {
				continue
			}
			msgs = append(msgs, fmt.Sprintf("line %d: self-closing tag on non-void element <%s>", tokenLine, tag))
			stack = append(stack, tag)

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				msgs = append(msgs, fmt.Sprintf("line %d: end tag for void element </%s>", tokenLine, tag))
				continue
			}
			i := lastIndex(stack, tag)
			if i < 0 {
				msgs = append(msgs, fmt.Sprintf("line %d: unexpected end tag </%s>", tokenLine, tag))
				continue
			}
			stack = stack[:i]
		}
	}
}

// foreignRoots open SVG and MathML content, where self-closing syntax is
// honored.
var foreignRoots = map[string]bool{"svg": true, "math": true}

// inForeign reports whether the innermost open element is in SVG or MathML
// content. foreignObject switches back to HTML.
func inForeign(stack []string) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		switch {
		case foreignRoots[stack[i]]:
			return true
		case stack[i] == "foreignobject":
			return false
		}
	}
	return false
}

func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}
