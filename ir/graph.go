package ir

import (
	"errors"

	"github.com/google/uuid"
)

// ErrReturnAlreadySet is returned by [Graph.SetReturn] when a return apply
// is already installed; a graph's return, once set, is never overwritten.
var ErrReturnAlreadySet = errors.New("ir: graph return already set")

// Graph is a function-like unit: an ordered list of parameters and a
// single return apply. Two graphs are equal only by identity; ID gives
// each graph a stable key for caches and indexes.
//
// Graphs are mutable while the parser builds them and frozen by
// convention afterwards. They are not safe for concurrent mutation.
type Graph struct {
	id         uuid.UUID
	parameters []*Parameter
	ret        *Apply
	debug      *DebugInfo
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{id: uuid.New(), debug: &DebugInfo{}}
}

// ID returns the graph's stable identity key.
func (g *Graph) ID() uuid.UUID { return g.id }

// Debug returns the graph's debug metadata, never nil.
func (g *Graph) Debug() *DebugInfo { return g.debug }

// Parameters returns the parameter list in order. Callers must not
// mutate the returned slice.
func (g *Graph) Parameters() []*Parameter { return g.parameters }

// AddParameter constructs a parameter, appends it to the parameter list,
// and returns it. Parameter order is the order of AddParameter calls;
// the parser relies on this for deterministic phi ordering.
func (g *Graph) AddParameter() *Parameter {
	p := NewParameter(g)
	g.parameters = append(g.parameters, p)
	return p
}

// Return returns the graph's return apply, or nil while unset.
func (g *Graph) Return() *Apply { return g.ret }

// SetReturn installs the return apply. A second call is
// [ErrReturnAlreadySet]; the first installation is final.
func (g *Graph) SetReturn(ret *Apply) error {
	if g.ret != nil {
		return ErrReturnAlreadySet
	}
	g.ret = ret
	return nil
}

// Apply constructs an Apply owned by this graph.
func (g *Graph) Apply(inputs ...Node) *Apply {
	return NewApply(g, inputs...)
}

// Constant constructs a constant node. Constants belong to no graph; the
// method exists for construction-site symmetry with Apply.
func (g *Graph) Constant(value any) *Constant {
	return NewConstant(value)
}
