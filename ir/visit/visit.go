// Package visit provides generic traversal over ANF graphs: depth-first
// search and topological ordering parameterized by a successor function
// and an inclusion predicate.
//
// Traversals are deterministic given the successor ordering. A cycle
// among followed value edges is a structural violation reported as
// [InvalidGraphError]; recursion through graph constants is legitimate
// and never treated as a cycle.
package visit

import (
	"fmt"

	"github.com/simon-lentz/anf/ir"
)

// Decision controls how a traversal treats one node.
type Decision uint8

const (
	// Follow yields the node and descends into its successors.
	Follow Decision = iota

	// NoFollow yields the node but does not descend.
	NoFollow

	// Exclude skips the node entirely.
	Exclude
)

// Successors enumerates the nodes a traversal reaches from n, in order.
type Successors func(n ir.Node) []ir.Node

// Include decides how a traversal treats n.
type Include func(n ir.Node) Decision

// InvalidGraphError reports a structural violation found during
// traversal, such as a cycle on value edges.
type InvalidGraphError struct {
	Node ir.Node
}

// Error implements error.
func (e *InvalidGraphError) Error() string {
	return fmt.Sprintf("visit: invalid graph: cycle through %s", e.Node.Debug().Label())
}

// FollowAll includes every node with Follow.
func FollowAll(ir.Node) Decision { return Follow }

// ExcludeFromSet excludes the given nodes and follows everything else.
func ExcludeFromSet(stops map[ir.Node]struct{}) Include {
	return func(n ir.Node) Decision {
		if _, ok := stops[n]; ok {
			return Exclude
		}
		return Follow
	}
}

// FreevarsBoundary follows nodes belonging to graph (or to no graph) and
// stops at free variables. When includeBoundary is true, the boundary
// nodes are yielded without descent; otherwise they are excluded.
func FreevarsBoundary(graph *ir.Graph, includeBoundary bool) Include {
	return func(n ir.Node) Decision {
		g := n.OwningGraph()
		if g == nil || g == graph {
			return Follow
		}
		if includeBoundary {
			return NoFollow
		}
		return Exclude
	}
}

// SuccIncoming yields the node's inputs.
func SuccIncoming(n ir.Node) []ir.Node {
	return n.Inputs()
}

// SuccDeep yields the node's inputs, except for graph constants, which
// yield the referred graph's return node.
func SuccDeep(n ir.Node) []ir.Node {
	if g := ir.ConstantGraph(n); g != nil {
		if ret := g.Return(); ret != nil {
			return []ir.Node{ret}
		}
		return nil
	}
	return n.Inputs()
}

// SuccDeeper is SuccDeep plus, when crossing into a node that belongs to
// a graph, that graph's return node. This visits every encountered graph
// thoroughly, including graphs reached through free variables.
func SuccDeeper(n ir.Node) []ir.Node {
	if g := ir.ConstantGraph(n); g != nil {
		if ret := g.Return(); ret != nil {
			return []ir.Node{ret}
		}
		return nil
	}
	if g := n.OwningGraph(); g != nil && g.Return() != nil {
		return append(append([]ir.Node(nil), n.Inputs()...), g.Return())
	}
	return n.Inputs()
}

// DFS returns the nodes reachable from root in depth-first pre-order,
// visiting each node once. The include decision is consulted per node:
// Follow yields and descends, NoFollow yields only, Exclude skips. A nil
// include follows everything.
//
// A cycle among followed non-graph-constant edges returns an
// [InvalidGraphError].
func DFS(root ir.Node, succ Successors, include Include) ([]ir.Node, error) {
	if include == nil {
		include = FollowAll
	}

	var order []ir.Node
	seen := make(map[ir.Node]bool) // true once fully processed
	open := make(map[ir.Node]bool) // on the current descent path

	type frame struct {
		node ir.Node
		next int
		kids []ir.Node
	}

	switch include(root) {
	case Exclude:
		return nil, nil
	case NoFollow:
		return []ir.Node{root}, nil
	}

	order = append(order, root)
	open[root] = true
	stack := []frame{{node: root, kids: succ(root)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.kids) {
			open[top.node] = false
			seen[top.node] = true
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.kids[top.next]
		top.next++

		if open[child] {
			crossesGraph := false
			for i := len(stack) - 1; i >= 0; i-- {
				if ir.IsConstantGraph(stack[i].node) {
					crossesGraph = true
					break
				}
				if stack[i].node == child {
					break
				}
			}
			if !crossesGraph {
				return nil, &InvalidGraphError{Node: child}
			}
			continue
		}
		if seen[child] {
			continue
		}

		switch include(child) {
		case Exclude:
			continue
		case NoFollow:
			seen[child] = true
			order = append(order, child)
			continue
		}

		order = append(order, child)
		open[child] = true
		stack = append(stack, frame{node: child, kids: succ(child)})
	}

	return order, nil
}

// Toposort returns a finite ordering of the nodes reachable from root in
// which every node appears after all of its followed successors
// (dependencies first, root last). The ordering is deterministic given
// the successor ordering.
func Toposort(root ir.Node, succ Successors, include Include) ([]ir.Node, error) {
	if include == nil {
		include = FollowAll
	}

	var order []ir.Node
	seen := make(map[ir.Node]bool)
	open := make(map[ir.Node]bool)

	type frame struct {
		node ir.Node
		next int
		kids []ir.Node
	}

	push := func(stack []frame, n ir.Node, kids []ir.Node) []frame {
		open[n] = true
		return append(stack, frame{node: n, kids: kids})
	}

	switch include(root) {
	case Exclude:
		return nil, nil
	case NoFollow:
		return []ir.Node{root}, nil
	}

	stack := push(nil, root, succ(root))

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.kids) {
			open[top.node] = false
			seen[top.node] = true
			order = append(order, top.node)
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.kids[top.next]
		top.next++

		if open[child] {
			crossesGraph := false
			for i := len(stack) - 1; i >= 0; i-- {
				if ir.IsConstantGraph(stack[i].node) {
					crossesGraph = true
					break
				}
				if stack[i].node == child {
					break
				}
			}
			if !crossesGraph {
				return nil, &InvalidGraphError{Node: child}
			}
			continue
		}
		if seen[child] {
			continue
		}

		switch include(child) {
		case Exclude:
			continue
		case NoFollow:
			seen[child] = true
			order = append(order, child)
			continue
		}

		stack = push(stack, child, succ(child))
	}

	return order, nil
}
