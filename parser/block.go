package parser

import (
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/location"
	"github.com/simon-lentz/anf/namespace"
	"github.com/simon-lentz/anf/prim"
)

// block is a basic block under construction.
//
// A block owns exactly one graph and resolves variable names during
// parsing. Jumping between blocks becomes a tail call; unresolved reads
// become phi parameters whose arguments are backfilled once every
// predecessor is known (maturation).
type block struct {
	parser *Parser

	// graph is the function graph this block lowers into.
	graph *ir.Graph

	// matured is set once all predecessors are known. After maturation no
	// new predecessors may be added and outstanding phis are backfilled.
	matured bool

	// variables maps names to the node bound at this point of parsing.
	// Names absent here resolve through predecessors or namespaces.
	variables map[string]ir.Node

	// preds are the predecessor blocks in jump order.
	preds []*block

	// phiNodes maps phi parameters to the variable name they resolve.
	phiNodes map[*ir.Parameter]string

	// jumps maps a target block to the apply encoding the tail call to
	// it. The apply's inputs grow only through phi backfill.
	jumps map[*block]*ir.Apply
}

func newBlock(p *Parser) *block {
	return &block{
		parser:    p,
		graph:     ir.NewGraph(),
		variables: make(map[string]ir.Node),
		phiNodes:  make(map[*ir.Parameter]string),
		jumps:     make(map[*block]*ir.Apply),
	}
}

// write binds a name to a node for subsequent statements.
func (b *block) write(name string, n ir.Node) {
	b.variables[name] = n
}

// read resolves a variable name.
//
// A locally-bound name resolves trivially (constants are freshened so
// each use carries its own debug identity). Otherwise: a matured block
// with one predecessor delegates to it; a matured block with no
// predecessors resolves through the closure namespace, then the module
// namespace, as a resolve application; any other block allocates a phi
// parameter, recorded for backfill at maturation.
func (b *block) read(name string, span location.Span) (ir.Node, error) {
	if n, ok := b.variables[name]; ok {
		return fresh(n), nil
	}
	if b.matured {
		switch len(b.preds) {
		case 1:
			return b.preds[0].read(name, span)
		case 0:
			if b.parser.closureNS.Contains(name) {
				return b.makeResolve(b.parser.closureNS, name), nil
			}
			if b.parser.moduleNS.Contains(name) {
				return b.makeResolve(b.parser.moduleNS, name), nil
			}
			return nil, errUnresolved(name, span)
		}
	}

	phi := b.graph.AddParameter()
	phi.Debug().Name = name
	phi.Debug().Span = span
	phi.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "phi"}
	b.phiNodes[phi] = name
	b.write(name, phi)
	if b.matured {
		if err := b.setPhiArguments(phi); err != nil {
			return nil, err
		}
	}
	return phi, nil
}

// setPhiArguments backfills the arguments of one phi parameter: the name
// is read in every predecessor, in order, and each resolved node is
// appended to that predecessor's jump apply.
func (b *block) setPhiArguments(phi *ir.Parameter) error {
	name := b.phiNodes[phi]
	for _, pred := range b.preds {
		arg, err := pred.read(name, phi.Debug().Span)
		if err != nil {
			return err
		}
		pred.jumps[b].AppendInput(arg)
	}
	return nil
}

// mature finalizes the block's predecessors and backfills outstanding
// phis. The graph's parameter list drives the iteration so argument
// order matches parameter order. Matures exactly once.
func (b *block) mature() error {
	if b.matured {
		return nil
	}
	for _, p := range b.graph.Parameters() {
		if _, ok := b.phiNodes[p]; ok {
			if err := b.setPhiArguments(p); err != nil {
				return err
			}
		}
	}
	b.matured = true
	return nil
}

// makeResolve emits a subtree resolving a name in a namespace.
func (b *block) makeResolve(ns namespace.Namespace, name string) ir.Node {
	return b.graph.Apply(
		ir.NewConstant(prim.Resolve),
		ir.NewConstant(ns),
		ir.NewConstant(name),
	)
}

// jump installs the tail call from this block to target: an apply of the
// target's graph constant, wrapped in a return_ apply installed as this
// graph's return. The target gains this block as a predecessor.
func (b *block) jump(target *block) error {
	jump := b.graph.Apply(b.parser.blockFunction(target))
	jump.Debug().About = &ir.About{Origin: target.graph.Debug(), Relation: "jump"}
	b.jumps[target] = jump
	target.preds = append(target.preds, b)

	ret := b.graph.Apply(ir.NewConstant(prim.Return), jump)
	if err := b.graph.SetReturn(ret); err != nil {
		return errReturnAlreadySet(jump.Debug().Span)
	}
	return nil
}

// cond installs a conditional tail call: return_(if_(cond, true, false)).
func (b *block) cond(cond ir.Node, trueBlock, falseBlock *block) error {
	ifApply := b.graph.Apply(
		ir.NewConstant(prim.If),
		cond,
		b.parser.blockFunction(trueBlock),
		b.parser.blockFunction(falseBlock),
	)
	ret := b.graph.Apply(ir.NewConstant(prim.Return), ifApply)
	if err := b.graph.SetReturn(ret); err != nil {
		return errReturnAlreadySet(cond.Debug().Span)
	}
	return nil
}

// fresh duplicates pure constants so every use keeps its own debug
// identity; all other nodes are shared.
func fresh(n ir.Node) ir.Node {
	if c, ok := n.(*ir.Constant); ok {
		dup := ir.NewConstant(c.Value())
		dup.Debug().Name = c.Debug().Name
		dup.Debug().Span = c.Debug().Span
		return dup
	}
	return n
}
