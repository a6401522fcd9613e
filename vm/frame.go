package vm

import "github.com/simon-lentz/anf/ir"

// frame holds the state for one application of a graph.
//
// todo is the graph's work list in reverse topological order: the top of
// the list (last element) is the next node to process and the bottom
// (first element) is always the graph's return. Free variables of nested
// graphs appear before the graph constants that need them, so closure
// materialization always sees computed values.
type frame struct {
	graph   *ir.Graph
	values  map[ir.Node]any
	todo    []ir.Node
	closure map[ir.Node]any
}

func newFrame(g *ir.Graph, nodes []ir.Node, closure map[ir.Node]any) *frame {
	todo := make([]ir.Node, len(nodes))
	for i, n := range nodes {
		todo[len(nodes)-1-i] = n
	}
	return &frame{
		graph:   g,
		values:  make(map[ir.Node]any),
		todo:    todo,
		closure: closure,
	}
}

// lookup indexes the frame by a node: a computed value, a closure
// binding, or a constant's payload, in that order.
func (f *frame) lookup(n ir.Node) (any, error) {
	if v, ok := f.values[n]; ok {
		return v, nil
	}
	if f.closure != nil {
		if v, ok := f.closure[n]; ok {
			return v, nil
		}
	}
	if c, ok := n.(*ir.Constant); ok {
		return c.Value(), nil
	}
	return nil, &UnknownNodeError{Node: n}
}

// top returns the next node to process.
func (f *frame) top() ir.Node {
	return f.todo[len(f.todo)-1]
}

// pop removes the processed top node.
func (f *frame) pop() {
	f.todo = f.todo[:len(f.todo)-1]
}

// tailPosition reports whether the node being processed is the last real
// work before the frame's trailing return: a call issued here replaces
// the frame instead of stacking a new one.
func (f *frame) tailPosition() bool {
	return len(f.todo) == 2
}
