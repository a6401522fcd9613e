// Package vm provides the reference evaluator for ANF graphs.
//
// The VM walks a graph's nodes in topological order using an explicit
// stack of frames. Control transfer is a step protocol rather than an
// exception: each processed node yields continue, enter-frame, or
// return-value, and the outer loop owns the frame stack. A call issued
// when only the frame's trailing return remains is a tail call and
// replaces the top frame in place, so tail-recursive programs run in
// constant frame space.
//
// The VM is strictly single-threaded. Don't expect stellar performance
// from this implementation; it exists for testing and as an executable
// specification of the IR's semantics.
package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/simon-lentz/anf/internal/trace"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/ir/visit"
	"github.com/simon-lentz/anf/prim"
)

// Option configures a VM.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	registry *prim.Registry
	observer func(n ir.Node, v any)
}

// WithLogger enables debug logging during evaluation.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithRegistry overrides the primitive implementation registry.
func WithRegistry(r *prim.Registry) Option {
	return func(cfg *config) { cfg.registry = r }
}

// WithObserver registers a hook invoked for every node-value binding.
func WithObserver(fn func(n ir.Node, v any)) Option {
	return func(cfg *config) { cfg.observer = fn }
}

// VM evaluates ANF graphs.
//
// A VM owns a graph [ir.Manager] for free-variable discovery and caches
// per-graph free-variable sets. It is not safe for concurrent use.
type VM struct {
	cfg     config
	manager *ir.Manager
	vars    map[*ir.Graph][]ir.Node

	// maxFrames records the deepest frame stack any evaluation on this
	// VM has reached; tail calls replace the top frame and do not grow
	// it.
	maxFrames int
}

// New creates a VM with the default primitive registry.
func New(opts ...Option) *VM {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prim.DefaultRegistry()
	}
	return &VM{
		cfg:     cfg,
		manager: ir.NewManager(),
		vars:    make(map[*ir.Graph][]ir.Node),
	}
}

// stepKind is the control-transfer protocol between node handling and
// the frame-stack loop.
type stepKind uint8

const (
	stepContinue stepKind = iota
	stepEnter
	stepReturn
)

type step struct {
	kind  stepKind
	frame *frame
	value any
}

// Evaluate runs a graph on an argument vector and returns the exported
// result value.
func (m *VM) Evaluate(ctx context.Context, g *ir.Graph, args []any) (any, error) {
	return m.evaluateWithClosure(ctx, g, args, nil, true)
}

func (m *VM) evaluateWithClosure(ctx context.Context, g *ir.Graph, args []any, closure map[ir.Node]any, doExport bool) (any, error) {
	op := trace.Begin(ctx, m.cfg.logger, "anf.vm.evaluate",
		slog.String("graph", g.Debug().Label()),
		slog.Int("args", len(args)),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	top, err := m.buildFrame(g, args, closure)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	frames := []*frame{top}
	if len(frames) > m.maxFrames {
		m.maxFrames = len(frames)
	}
	for len(frames) > 0 {
		if err := ctx.Err(); err != nil {
			retErr = err
			return nil, retErr
		}

		fr := frames[len(frames)-1]
		if len(fr.todo) == 0 {
			retErr = fmt.Errorf("vm: frame for %s drained without returning", fr.graph.Debug().Label())
			return nil, retErr
		}

		st, err := m.handleNode(ctx, fr.top(), fr)
		if err != nil {
			retErr = err
			return nil, retErr
		}

		switch st.kind {
		case stepContinue:
			fr.pop()

		case stepEnter:
			if fr.tailPosition() {
				frames[len(frames)-1] = st.frame
			} else {
				frames = append(frames, st.frame)
				if len(frames) > m.maxFrames {
					m.maxFrames = len(frames)
				}
			}

		case stepReturn:
			frames = frames[:len(frames)-1]
			if len(frames) == 0 {
				if doExport {
					return m.export(st.value), nil
				}
				return st.value, nil
			}
			parent := frames[len(frames)-1]
			m.setNodeValue(parent, parent.top(), st.value)
			parent.pop()
		}
	}

	retErr = errors.New("vm: evaluation ended without a return")
	return nil, retErr
}

// Call applies fn — a primitive, graph, closure, or partial — to args.
// Primitive implementations use it to re-enter the evaluator.
func (m *VM) Call(ctx context.Context, fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case prim.Primitive:
		impl, ok := m.cfg.registry.Lookup(f)
		if !ok {
			return nil, &UncallableError{Value: fn}
		}
		return impl(ctx, m, args)
	case *ir.Graph:
		return m.evaluateWithClosure(ctx, f, args, nil, false)
	case *Closure:
		return m.evaluateWithClosure(ctx, f.graph, args, f.values, false)
	case *Partial:
		return m.evaluateWithClosure(ctx, f.graph, append(f.Args(), args...), nil, false)
	case Callable:
		return f(ctx, args...)
	default:
		return nil, &UncallableError{Value: fn}
	}
}

// Export converts a VM value into its caller-facing form.
func (m *VM) Export(v any) any {
	return m.export(v)
}

// MaxFrameDepth returns the deepest frame stack any evaluation on this
// VM has reached. Instrumentation for tests and diagnostics: a
// tail-recursive program holds this at one regardless of iteration
// count.
func (m *VM) MaxFrameDepth() int {
	return m.maxFrames
}

// buildFrame validates arity, binds parameters, and lays out the work
// list for one activation of g.
func (m *VM) buildFrame(g *ir.Graph, args []any, closure map[ir.Node]any) (*frame, error) {
	params := g.Parameters()
	if len(args) != len(params) {
		return nil, &WrongArityError{Graph: g, Want: len(params), Got: len(args)}
	}
	if g.Return() == nil {
		return nil, fmt.Errorf("vm: graph %s has no return", g.Debug().Label())
	}

	nodes, err := visit.Toposort(g.Return(), m.succVM, visit.FreevarsBoundary(g, false))
	if err != nil {
		return nil, err
	}

	fr := newFrame(g, nodes, closure)
	for i, p := range params {
		m.setNodeValue(fr, p, convertValue(args[i]))
	}
	return fr, nil
}

// succVM yields the nodes an activation must compute before n: inputs
// belonging to the same graph, graph-constant inputs (they may need to
// be rewritten to closures), and — for a graph constant — the free
// variables of the referred graph.
func (m *VM) succVM(n ir.Node) []ir.Node {
	var out []ir.Node
	for _, in := range n.Inputs() {
		if in.OwningGraph() == n.OwningGraph() || ir.IsConstantGraph(in) {
			out = append(out, in)
		}
	}
	if g := ir.ConstantGraph(n); g != nil {
		out = append(out, m.varsOf(g)...)
	}
	return out
}

// varsOf returns the cached total free variables of g, acquiring the
// graph into the manager on first sight.
func (m *VM) varsOf(g *ir.Graph) []ir.Node {
	if fvs, ok := m.vars[g]; ok {
		return fvs
	}
	m.manager.Add(g)
	for _, h := range m.manager.Graphs() {
		m.vars[h] = m.manager.FreeVariablesTotal(h)
	}
	return m.vars[g]
}

func (m *VM) setNodeValue(fr *frame, n ir.Node, v any) {
	fr.values[n] = v
	if m.cfg.observer != nil {
		m.cfg.observer(n, v)
	}
}

// makeClosure snapshots the free variables of g from the current frame.
func (m *VM) makeClosure(g *ir.Graph, fr *frame) (*Closure, error) {
	values := make(map[ir.Node]any)
	for _, fv := range m.varsOf(g) {
		v, err := fr.lookup(fv)
		if err != nil {
			return nil, err
		}
		values[fv] = v
	}
	return &Closure{graph: g, values: values}, nil
}

// handleNode processes one node and reports the resulting control
// transfer.
func (m *VM) handleNode(ctx context.Context, n ir.Node, fr *frame) (step, error) {
	switch node := n.(type) {
	case *ir.Parameter:
		// Already bound when the frame was built.
		return step{kind: stepContinue}, nil

	case *ir.Constant:
		return m.handleConstant(node, fr)

	case *ir.Apply:
		return m.handleApply(ctx, node, fr)

	default:
		return step{}, fmt.Errorf("vm: special node %s is not evaluable", n.Debug().Label())
	}
}

// handleConstant materializes closures for graph constants whose graphs
// have free variables. The work list only ever contains graph constants.
func (m *VM) handleConstant(node *ir.Constant, fr *frame) (step, error) {
	if fr.closure != nil {
		if _, ok := fr.closure[node]; ok {
			return step{kind: stepContinue}, nil
		}
	}

	g := ir.ConstantGraph(node)
	if g == nil {
		return step{}, fmt.Errorf("vm: non-graph constant %s in work list", node.Debug().Label())
	}
	if len(m.varsOf(g)) != 0 {
		clos, err := m.makeClosure(g, fr)
		if err != nil {
			return step{}, err
		}
		m.setNodeValue(fr, node, clos)
	}
	// Non-closure graph constants need no rewriting.
	return step{kind: stepContinue}, nil
}

func (m *VM) handleApply(ctx context.Context, node *ir.Apply, fr *frame) (step, error) {
	inputs := node.Inputs()
	fn, err := fr.lookup(inputs[0])
	if err != nil {
		return step{}, err
	}
	args := make([]any, len(inputs)-1)
	for i, in := range inputs[1:] {
		args[i], err = fr.lookup(in)
		if err != nil {
			return step{}, err
		}
	}

	if p, ok := fn.(prim.Primitive); ok {
		switch p {
		case prim.If:
			branch := args[2]
			if truthy(args[0]) {
				branch = args[1]
			}
			return m.enterCall(branch, nil)

		case prim.Return:
			return step{kind: stepReturn, value: args[0]}, nil

		case prim.Partial:
			g, ok := args[0].(*ir.Graph)
			if !ok {
				return step{}, fmt.Errorf("vm: partial of non-graph %T", args[0])
			}
			m.setNodeValue(fr, node, &Partial{graph: g, args: append([]any(nil), args[1:]...)})
			return step{kind: stepContinue}, nil

		default:
			impl, ok := m.cfg.registry.Lookup(p)
			if !ok {
				return step{}, &UncallableError{Value: p}
			}
			res, err := impl(ctx, m, args)
			if err != nil {
				return step{}, err
			}
			m.setNodeValue(fr, node, res)
			return step{kind: stepContinue}, nil
		}
	}

	return m.enterCall(fn, args)
}

// enterCall builds the frame for a graph, closure, or partial callee.
func (m *VM) enterCall(fn any, args []any) (step, error) {
	switch f := fn.(type) {
	case *ir.Graph:
		fr, err := m.buildFrame(f, args, nil)
		if err != nil {
			return step{}, err
		}
		return step{kind: stepEnter, frame: fr}, nil
	case *Closure:
		fr, err := m.buildFrame(f.graph, args, f.values)
		if err != nil {
			return step{}, err
		}
		return step{kind: stepEnter, frame: fr}, nil
	case *Partial:
		fr, err := m.buildFrame(f.graph, append(f.Args(), args...), nil)
		if err != nil {
			return step{}, err
		}
		return step{kind: stepEnter, frame: fr}, nil
	default:
		return step{}, &UncallableError{Value: fn}
	}
}
