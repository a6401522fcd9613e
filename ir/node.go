package ir

// Node is the closed sum of ANF node variants: [Apply], [Constant],
// [Parameter], and [Special].
//
// Node identity is pointer identity. The incoming set of a node equals
// its inputs; it is empty for everything but Apply.
type Node interface {
	// OwningGraph returns the graph the node belongs to. Constants and
	// Specials belong to no graph and return nil.
	OwningGraph() *Graph

	// Inputs returns the node's incoming nodes in order. Only Apply has
	// inputs; the returned slice must not be mutated by callers.
	Inputs() []Node

	// Debug returns the node's debug metadata, never nil.
	Debug() *DebugInfo

	// unexported marker to close the variant set
	node()
}

// Apply is the application of a callee (Inputs()[0]) to arguments
// (Inputs()[1:]). Every Apply belongs to exactly one graph.
type Apply struct {
	inputs []Node
	graph  *Graph
	debug  *DebugInfo
}

// NewApply constructs an Apply owned by graph with the given inputs.
// Prefer [Graph.Apply] which fills in the receiver graph.
func NewApply(graph *Graph, inputs ...Node) *Apply {
	return &Apply{inputs: inputs, graph: graph, debug: &DebugInfo{}}
}

// OwningGraph implements Node.
func (a *Apply) OwningGraph() *Graph { return a.graph }

// Inputs implements Node.
func (a *Apply) Inputs() []Node { return a.inputs }

// Debug implements Node.
func (a *Apply) Debug() *DebugInfo { return a.debug }

// AppendInput grows the input list by one node. This is the phi-argument
// backfill hook: a jump apply's inputs grow only through it, in
// predecessor order, during block maturation.
func (a *Apply) AppendInput(n Node) {
	a.inputs = append(a.inputs, n)
}

func (*Apply) node() {}

// Constant carries an immutable value of any host type, including a
// *Graph (a graph constant) or a prim.Primitive tag. Constants belong to
// no graph.
type Constant struct {
	value any
	debug *DebugInfo
}

// NewConstant constructs a constant node.
func NewConstant(value any) *Constant {
	return &Constant{value: value, debug: &DebugInfo{}}
}

// Value returns the wrapped host value.
func (c *Constant) Value() any { return c.value }

// OwningGraph implements Node; constants belong to no graph.
func (c *Constant) OwningGraph() *Graph { return nil }

// Inputs implements Node.
func (c *Constant) Inputs() []Node { return nil }

// Debug implements Node.
func (c *Constant) Debug() *DebugInfo { return c.debug }

func (*Constant) node() {}

// Parameter is a formal parameter of its graph. Position within the graph
// is determined by the graph's parameter list, not by the node itself.
type Parameter struct {
	graph *Graph
	debug *DebugInfo
}

// NewParameter constructs a parameter owned by graph without appending it
// to the parameter list; prefer [Graph.AddParameter].
func NewParameter(graph *Graph) *Parameter {
	return &Parameter{graph: graph, debug: &DebugInfo{}}
}

// OwningGraph implements Node.
func (p *Parameter) OwningGraph() *Graph { return p.graph }

// Inputs implements Node.
func (p *Parameter) Inputs() []Node { return nil }

// Debug implements Node.
func (p *Parameter) Debug() *DebugInfo { return p.debug }

func (*Parameter) node() {}

// Special is an opaque marker node carrying an arbitrary tag. It is not
// evaluable; the VM rejects it.
type Special struct {
	tag   any
	debug *DebugInfo
}

// NewSpecial constructs a special node with the given tag.
func NewSpecial(tag any) *Special {
	return &Special{tag: tag, debug: &DebugInfo{}}
}

// Tag returns the marker tag.
func (s *Special) Tag() any { return s.tag }

// OwningGraph implements Node; specials belong to no graph.
func (s *Special) OwningGraph() *Graph { return nil }

// Inputs implements Node.
func (s *Special) Inputs() []Node { return nil }

// Debug implements Node.
func (s *Special) Debug() *DebugInfo { return s.debug }

func (*Special) node() {}

// IsApply reports whether n is an Apply.
func IsApply(n Node) bool {
	_, ok := n.(*Apply)
	return ok
}

// IsConstant reports whether n is a Constant.
func IsConstant(n Node) bool {
	_, ok := n.(*Constant)
	return ok
}

// IsParameter reports whether n is a Parameter.
func IsParameter(n Node) bool {
	_, ok := n.(*Parameter)
	return ok
}

// IsSpecial reports whether n is a Special.
func IsSpecial(n Node) bool {
	_, ok := n.(*Special)
	return ok
}

// IsConstantGraph reports whether n is a Constant wrapping a *Graph.
func IsConstantGraph(n Node) bool {
	c, ok := n.(*Constant)
	if !ok {
		return false
	}
	_, ok = c.value.(*Graph)
	return ok
}

// ConstantGraph returns the graph wrapped by a graph constant, or nil.
func ConstantGraph(n Node) *Graph {
	if c, ok := n.(*Constant); ok {
		if g, ok := c.value.(*Graph); ok {
			return g
		}
	}
	return nil
}
