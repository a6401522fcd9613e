// Package anf is the root of a graph-based compiler front-end and
// reference evaluator for a functional intermediate representation.
//
// The module converts function definitions written in a small imperative
// surface (assignments, conditionals, while-loops, returns, tuples,
// calls) into Administrative Normal Form graphs, evaluates those graphs
// directly, and abstractly interprets them to infer per-node properties
// such as array shape.
//
// # Architecture Overview
//
// The module is organized into layers with strict dependency ordering:
//
//	Foundation tier (no internal dependencies):
//	  - location: Source positions, spans, and source identifiers
//	  - diag: Structured diagnostics with stable error codes
//	  - immutable: Read-only wrappers for runtime tuple values
//
//	IR tier:
//	  - ir: ANF nodes, graphs, the graph manager, and isomorphism
//	  - ir/visit: Depth-first search and topological ordering
//
//	Language tier:
//	  - ast: The surface abstract syntax
//	  - adapter/json: JSONC descriptor decoding
//	  - namespace: Abstract name resolution
//	  - prim: The closed primitive catalog and host implementations
//	  - parser: Surface AST to ANF graphs (block functions, phi nodes)
//
//	Execution tier:
//	  - vm: Frame-based reference evaluator with closures and partials
//	  - infer: Abstract interpretation engine and the shape track
//
// # Entry Points
//
// Parsing and evaluation:
//
//	g, err := parser.Parse(funcDef)
//	machine := vm.New()
//	result, err := machine.Evaluate(ctx, g, []any{2, 3})
//
// Shape inference:
//
//	engine := infer.NewEngine()
//	shape, err := engine.InferShape(g, argRefs)
package anf
