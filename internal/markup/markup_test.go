package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseFragmentHasNoWrapper(t *testing.T) {
	doc, err := Parse(`<div class="a">x</div> tail`, true)
	require.NoError(t, err)
	assert.False(t, doc.Full)

	first := doc.Root.FirstChild
	require.NotNil(t, first)
	assert.Equal(t, "div", TagName(first))
	require.NotNil(t, first.NextSibling)
	assert.Equal(t, html.TextNode, first.NextSibling.Type)

	out, err := Render(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, `<div class="a">x</div> tail`, out)
}

func TestParseFullDocument(t *testing.T) {
	src := "<!DOCTYPE html><html><head><title>t</title></head><body><p>x</p></body></html>"
	doc, err := Parse(src, true)
	require.NoError(t, err)
	assert.True(t, doc.Full)

	out, err := Render(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestParseDocumentWrappers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"body", `<body class="x"><p>y</p></body>`, `<html><head></head><body class="x"><p>y</p></body></html>`},
		{"head", `<head><title>t</title></head><body><p>y</p></body>`, `<html><head><title>t</title></head><body><p>y</p></body></html>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse(tc.src, true)
			require.NoError(t, err)
			assert.True(t, doc.Full)

			out, err := Render(doc.Root)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestParseHeaderIsFragment(t *testing.T) {
	doc, err := Parse(`<header>x</header>`, true)
	require.NoError(t, err)
	assert.False(t, doc.Full)
}

func TestParseCustomElements(t *testing.T) {
	doc, err := Parse(`<htmpl-query name="q" :uuid="other(uuid)">SELECT 1</htmpl-query>`, true)
	require.NoError(t, err)

	q := doc.Root.FirstChild
	require.NotNil(t, q)
	assert.Equal(t, "htmpl-query", TagName(q))

	name, ok := Attr(q, "name")
	require.True(t, ok)
	assert.Equal(t, "q", name)

	param, ok := Attr(q, ":uuid")
	require.True(t, ok)
	assert.Equal(t, "other(uuid)", param)

	_, ok = Attr(q, "missing")
	assert.False(t, ok)
}

func TestStrictRejectsInvalidStructure(t *testing.T) {
	_, err := Parse(`<html></div>`, true)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Len(t, perr.Messages, 1)
	assert.Contains(t, perr.Messages[0], "unexpected end tag </div>")
}

func TestLenientAcceptsInvalidStructure(t *testing.T) {
	_, err := Parse(`<div></span></div>`, false)
	require.NoError(t, err)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"balanced", `<div><p>x</p></div>`, nil},
		{"void elements", `<p>a<br>b<img src="x"></p>`, nil},
		{"void self-closing", `<br/>`, nil},
		{"implied close", `<ul><li>a<li>b</ul>`, nil},
		{"stray end tag", "<div>\n</span></div>", []string{"line 2: unexpected end tag </span>"}},
		{"void end tag", `<p></br></p>`, []string{"line 1: end tag for void element </br>"}},
		{"self-closing custom", `<htmpl-insert query="q"/>`, []string{"line 1: self-closing tag on non-void element <htmpl-insert>"}},
		{"raw text", `<script>if (a </b) {}</script>`, nil},
		{"svg self-closing", `<svg viewBox="0 0 10 10"><circle r="4"/><path d="M0 0"/></svg>`, nil},
		{"math self-closing", `<math><mspace width="1em"/></math>`, nil},
		{"svg root self-closing", `<p><svg/></p>`, nil},
		{"html inside foreignObject", `<svg><foreignObject><div/></foreignObject></svg>`, []string{"line 1: self-closing tag on non-void element <div>"}},
		{"after svg closes", `<svg><g/></svg><span/>`, []string{"line 1: self-closing tag on non-void element <span>"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Check(tc.src))
		})
	}
}

func TestText(t *testing.T) {
	doc, err := Parse("<htmpl-query name=\"q\">\n  SELECT uuid\n  FROM users;\n</htmpl-query>", true)
	require.NoError(t, err)

	assert.Equal(t, "SELECT uuid\n  FROM users;", Text(doc.Root.FirstChild))
}

func TestSetAttr(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "div", Attr: []html.Attribute{{Key: "class", Val: "a"}}}

	SetAttr(n, "class", "b")
	SetAttr(n, "id", "x")

	assert.Equal(t, []html.Attribute{{Key: "class", Val: "b"}, {Key: "id", Val: "x"}}, n.Attr)
}

func TestClone(t *testing.T) {
	doc, err := Parse(`<div id="a"><span>x</span></div>`, true)
	require.NoError(t, err)

	src := doc.Root.FirstChild
	c := Clone(src)
	assert.Equal(t, "div", c.Data)
	assert.Nil(t, c.FirstChild)
	assert.Nil(t, c.Parent)

	SetAttr(c, "id", "b")
	v, _ := Attr(src, "id")
	assert.Equal(t, "a", v, "clone must not share attribute storage")
}

func TestNodeID(t *testing.T) {
	a := &html.Node{}
	b := &html.Node{}

	assert.Equal(t, ID(a), ID(a))
	assert.NotEqual(t, ID(a), ID(b))
	assert.True(t, NodeID{}.IsZero())
	assert.False(t, ID(a).IsZero())
}

func TestSelect(t *testing.T) {
	doc, err := Parse(`<div class="name"><a class="name">x</a></div><p class="other"></p>`, true)
	require.NoError(t, err)

	matched, err := Select(doc.Root, ".name")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "div", matched[0].Data)
	assert.Equal(t, "a", matched[1].Data)

	// The root itself is excluded.
	div := doc.Root.FirstChild
	matched, err = Select(div, ".name")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "a", matched[0].Data)
}

func TestSelectInvalid(t *testing.T) {
	_, err := Select(NewFragment(), "[[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selector")
}

func TestRenderEscapesText(t *testing.T) {
	root := NewFragment()
	root.AppendChild(&html.Node{Type: html.TextNode, Data: "<b>&</b>"})

	out, err := Render(root)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;&amp;&lt;/b&gt;", out)
}
