package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/markup"
)

func result(columns []string, rows ...[]ir.Value) *ir.QueryResult {
	q := &ir.QueryResult{Columns: columns, Rows: []ir.Row{}}
	for _, values := range rows {
		q.Rows = append(q.Rows, ir.NewRow(columns, values))
	}
	return q
}

func usersResult() *ir.QueryResult {
	return result([]string{"uuid", "name"},
		[]ir.Value{ir.Text("u1"), ir.Text("alice")},
		[]ir.Value{ir.Text("u2"), ir.Text("bob")},
	)
}

func TestScope_BindAndGet(t *testing.T) {
	s := NewScope(nil)
	q := usersResult()
	s.Bind("q", q)

	got, err := s.Get("q")
	require.NoError(t, err)
	assert.Same(t, q, got)
}

func TestScope_GetUnbound(t *testing.T) {
	s := NewScope(nil)

	_, err := s.Get("q")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeMissingQuery))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "q", e.Query)
	assert.Empty(t, e.Element, "resolution errors carry no element until annotated")
}

func TestScope_PushIsolatesChild(t *testing.T) {
	parent := NewScope(nil)
	outer := result([]string{"v"}, []ir.Value{ir.Integer(1)})
	parent.Bind("q", outer)

	child := parent.Push()
	inner := result([]string{"v"}, []ir.Value{ir.Integer(2)})
	child.Bind("q", inner)
	child.Bind("only_child", inner)

	got, err := child.Get("q")
	require.NoError(t, err)
	assert.Same(t, inner, got, "child sees its own shadowing binding")

	got, err = parent.Get("q")
	require.NoError(t, err)
	assert.Same(t, outer, got, "parent is unaffected by the child")

	_, err = parent.Get("only_child")
	assert.True(t, IsCode(err, ErrCodeMissingQuery))
}

func TestScope_PushInheritsBindings(t *testing.T) {
	parent := NewScope(nil)
	q := usersResult()
	parent.Bind("q", q)

	grandchild := parent.Push().Push()
	got, err := grandchild.Get("q")
	require.NoError(t, err)
	assert.Same(t, q, got, "results are shared, not copied")
}

func TestScope_ForEachRow(t *testing.T) {
	s := NewScope(nil)
	s.Bind("q", usersResult())

	rows, ok := s.ForEachRow("q")
	require.True(t, ok)

	var names []string
	for row := range rows {
		v, err := row.GetSingle("q(name)")
		require.NoError(t, err)
		names = append(names, ir.Format(v))
	}
	assert.Equal(t, []string{"alice", "bob"}, names)

	q, err := s.Get("q")
	require.NoError(t, err)
	assert.Equal(t, 2, q.Len(), "iteration must not rebind the caller's scope")
}

func TestScope_ForEachRowEmpty(t *testing.T) {
	s := NewScope(nil)
	s.Bind("q", result([]string{"uuid"}))

	rows, ok := s.ForEachRow("q")
	require.True(t, ok)

	count := 0
	for range rows {
		count++
	}
	assert.Zero(t, count)
}

func TestScope_ForEachRowUnbound(t *testing.T) {
	_, ok := NewScope(nil).ForEachRow("q")
	assert.False(t, ok)
}

func TestScope_ForEachRowStopsEarly(t *testing.T) {
	s := NewScope(nil)
	s.Bind("q", usersResult())

	rows, _ := s.ForEachRow("q")
	count := 0
	for range rows {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestScope_Attrs(t *testing.T) {
	target := &html.Node{Type: html.ElementNode, Data: "div"}
	other := &html.Node{Type: html.ElementNode, Data: "p"}

	s := NewScope(nil)
	s.AddAttr(markup.ID(target), Attribute{Name: "class", Value: "a"})
	s.AddAttr(markup.ID(target), Attribute{Name: "class", Value: "b"})

	assert.Equal(t, []Attribute{{"class", "a"}, {"class", "b"}}, s.Attrs(markup.ID(target)))
	assert.Nil(t, s.Attrs(markup.ID(other)))
}

func TestScope_AttrsVisibleToChildren(t *testing.T) {
	target := &html.Node{Type: html.ElementNode, Data: "div"}
	id := markup.ID(target)

	parent := NewScope(nil)
	parent.AddAttr(id, Attribute{Name: "id", Value: "x"})

	child := parent.Push()
	assert.Equal(t, []Attribute{{"id", "x"}}, child.Attrs(id))
}

func TestScope_AttrsDoNotLeakBetweenSiblings(t *testing.T) {
	target := &html.Node{Type: html.ElementNode, Data: "div"}
	id := markup.ID(target)

	parent := NewScope(nil)
	parent.AddAttr(id, Attribute{Name: "a", Value: "1"})

	first := parent.Push()
	second := parent.Push()
	first.AddAttr(id, Attribute{Name: "b", Value: "2"})
	second.AddAttr(id, Attribute{Name: "c", Value: "3"})

	assert.Equal(t, []Attribute{{"a", "1"}}, parent.Attrs(id))
	assert.Equal(t, []Attribute{{"a", "1"}, {"b", "2"}}, first.Attrs(id))
	assert.Equal(t, []Attribute{{"a", "1"}, {"c", "3"}}, second.Attrs(id))
}
