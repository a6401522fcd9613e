// Package ir defines the graph-based ANF intermediate representation.
//
// A [Graph] is a function-like unit: an ordered parameter list and a
// single return apply. Nodes form a closed sum of four variants —
// [Apply], [Constant], [Parameter], and [Special] — with identity
// semantics: two nodes are the same node only when they are the same
// pointer, and two graphs are equal only by identity. [Isomorphic] is the
// only structural equality.
//
// Graphs reference each other through graph constants (a [Constant] whose
// value is a *Graph); the parser uses them as callees of the tail calls
// that encode control flow. A [Manager] owns the set of graphs reachable
// from a root and maintains cross-graph adjacency: total free-variable
// sets and a graph-constant index, both recomputed on demand.
package ir
