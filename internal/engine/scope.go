package engine

import (
	"iter"
	"maps"
	"slices"

	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/markup"
)

// Attribute is a pending attribute patch registered by htmpl-attr and
// merged into its target element when that element is emitted.
type Attribute struct {
	Name  string
	Value string
}

// Scope is one lexical environment of query bindings and attribute patches.
//
// Scopes nest to mirror the document: the visitor pushes a child scope when
// it descends into an element and for every foreach row. A child inherits
// all of its parent's bindings; binding a name in the child is invisible to
// the parent and to siblings, and is discarded when the child's subtree has
// been visited.
//
// INVARIANTS:
//   - QueryResults are shared between scopes, never copied or mutated
//   - Push copies the maps, so it is O(bindings + patched nodes), not O(rows)
//   - Patch lists are never appended in place after a Push (see AddAttr)
type Scope struct {
	exec     Executor
	bindings map[string]*ir.QueryResult
	attrs    map[markup.NodeID][]Attribute
}

// NewScope creates a root scope with no bindings and no patches.
// Queries declared in this scope or its descendants run on exec.
func NewScope(exec Executor) *Scope {
	return &Scope{
		exec:     exec,
		bindings: make(map[string]*ir.QueryResult),
		attrs:    make(map[markup.NodeID][]Attribute),
	}
}

// Push returns a child scope equal to s.
func (s *Scope) Push() *Scope {
	return &Scope{
		exec:     s.exec,
		bindings: maps.Clone(s.bindings),
		attrs:    maps.Clone(s.attrs),
	}
}

// Bind installs name -> result in this scope only, shadowing any binding
// of the same name inherited from an ancestor.
func (s *Scope) Bind(name string, result *ir.QueryResult) {
	s.bindings[name] = result
}

// Get looks up the results of the named query.
// Returns a MISSING_QUERY error (without an element) if name is unbound.
func (s *Scope) Get(name string) (*ir.QueryResult, error) {
	q, ok := s.bindings[name]
	if !ok {
		return nil, newMissingQuery(name)
	}
	return q, nil
}

// ForEachRow returns a sequence of child scopes, one per row of the named
// query, in row order. In each child, name is rebound to a result holding
// only that row. Returns false if name is unbound.
//
// The sequence is single-pass and does not modify s.
func (s *Scope) ForEachRow(name string) (iter.Seq[*Scope], bool) {
	q, ok := s.bindings[name]
	if !ok {
		return nil, false
	}
	return func(yield func(*Scope) bool) {
		for i := range q.Rows {
			child := s.Push()
			child.bindings[name] = q.Single(i)
			if !yield(child) {
				return
			}
		}
	}, true
}

// AddAttr registers a patch for the node with the given identity.
//
// The list is clipped before appending so a scope never writes into a
// backing array it shares with its parent or siblings.
func (s *Scope) AddAttr(node markup.NodeID, attr Attribute) {
	s.attrs[node] = append(slices.Clip(s.attrs[node]), attr)
}

// Attrs returns the patches registered for node, in registration order.
// Returns nil if there are none.
func (s *Scope) Attrs(node markup.NodeID) []Attribute {
	return s.attrs[node]
}
