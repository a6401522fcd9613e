package ir

import "github.com/simon-lentz/anf/internal/value"

// equivKey keys in-flight graph pair queries in the equivalence map.
type equivKey struct {
	g1, g2 *Graph
}

// isoState marks the progress of a graph-pair isomorphism query.
type isoState uint8

const (
	isoPending isoState = iota
	isoTrue
	isoFalse
)

// equiv threads node pairings and graph-pair states through a (possibly
// recursive) isomorphism query.
type equiv struct {
	nodes  map[Node]Node
	graphs map[equivKey]isoState
}

// Isomorphic reports whether g1 and g2 are structurally equivalent.
//
// The graphs match when they have the same parameter count and their
// return subgraphs are equivalent under a map pairing g1's parameters
// with g2's in order. Constants match on value equality, or on recursive
// isomorphism for graph constants; nested queries reuse the current
// equivalence so nested graphs can match free variables of their parents.
// Parameters match only when already paired. A pending marker guards
// recursive queries against infinite regress.
func Isomorphic(g1, g2 *Graph) bool {
	return isomorphic(g1, g2, &equiv{
		nodes:  make(map[Node]Node),
		graphs: make(map[equivKey]isoState),
	})
}

func isomorphic(g1, g2 *Graph, e *equiv) bool {
	if st, ok := e.graphs[equivKey{g1, g2}]; ok {
		// A pending pair is treated as equivalent: the outer walk is
		// still matching it, and any mismatch will fail there.
		return st != isoFalse
	}

	if len(g1.Parameters()) != len(g2.Parameters()) {
		return false
	}
	if (g1.Return() == nil) != (g2.Return() == nil) {
		return false
	}

	for i, p := range g1.Parameters() {
		e.nodes[p] = g2.Parameters()[i]
	}

	e.graphs[equivKey{g1, g2}] = isoPending
	ok := g1.Return() == nil || sameSubgraph(g1.Return(), g2.Return(), e)
	if ok {
		e.graphs[equivKey{g1, g2}] = isoTrue
	} else {
		e.graphs[equivKey{g1, g2}] = isoFalse
	}
	return ok
}

// sameSubgraph walks the two subgraphs in lockstep, a modified toposort
// that matches successor lists positionally.
func sameSubgraph(root1, root2 Node, e *equiv) bool {
	type pair struct {
		n1, n2 Node
	}

	done := make(map[Node]bool)
	todo := []pair{{root1, root2}}

	for len(todo) > 0 {
		p := todo[len(todo)-1]
		if done[p.n1] {
			todo = todo[:len(todo)-1]
			continue
		}

		s1 := p.n1.Inputs()
		s2 := p.n2.Inputs()
		if len(s1) != len(s2) {
			return false
		}

		descend := false
		for i, c1 := range s1 {
			if !done[c1] {
				todo = append(todo, pair{c1, s2[i]})
				descend = true
			}
		}
		if descend {
			continue
		}

		done[p.n1] = true
		if !sameNode(p.n1, p.n2, e) {
			return false
		}
		e.nodes[p.n1] = p.n2
		todo = todo[:len(todo)-1]
	}

	return true
}

// sameNode matches an Apply input-wise and everything else shallowly.
func sameNode(n1, n2 Node, e *equiv) bool {
	a1, ok1 := n1.(*Apply)
	a2, ok2 := n2.(*Apply)
	if ok1 != ok2 {
		return false
	}
	if ok1 {
		if len(a1.Inputs()) != len(a2.Inputs()) {
			return false
		}
		for i, in1 := range a1.Inputs() {
			if !sameNodeShallow(in1, a2.Inputs()[i], e) {
				return false
			}
		}
		return true
	}
	return sameNodeShallow(n1, n2, e)
}

// sameNodeShallow matches constants, parameters, and previously-paired
// nodes without descending.
func sameNodeShallow(n1, n2 Node, e *equiv) bool {
	if paired, ok := e.nodes[n1]; ok && paired == n2 {
		return true
	}

	k1, k2 := ConstantGraph(n1), ConstantGraph(n2)
	if k1 != nil && k2 != nil {
		// Nested graphs reuse the current equivalence so their free
		// variables match through the parent's pairings.
		return isomorphic(k1, k2, e)
	}

	c1, ok1 := n1.(*Constant)
	c2, ok2 := n2.(*Constant)
	if ok1 && ok2 {
		return constantValuesEqual(c1.Value(), c2.Value())
	}

	// Parameters are paired when graphs are matched; reaching an unpaired
	// parameter means a free-variable mismatch.
	return false
}

// constantValuesEqual compares constant payloads by value. Ordered
// values unify across numeric widths; other comparable host values use
// ==. Uncomparable payloads are unequal rather than a panic.
func constantValuesEqual(v1, v2 any) (eq bool) {
	if value.Equal(v1, v2) {
		return true
	}
	if v1 == nil || v2 == nil {
		return v1 == nil && v2 == nil
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return v1 == v2
}
