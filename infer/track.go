package infer

import (
	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/namespace"
	"github.com/simon-lentz/anf/prim"
)

// Track computes one property of values. The engine is track-agnostic;
// additional tracks implement this interface and reuse the engine's
// memoization and scheduling.
type Track interface {
	// Name returns the property this track computes.
	Name() Property

	// FromValue lifts a concrete value into the track's abstract domain.
	// Function-like values (primitives, graphs) lift to Inferrers.
	FromValue(v any) any
}

// ShapeTrack infers array shapes.
type ShapeTrack struct {
	engine       *Engine
	constructors map[prim.Primitive]func(t *ShapeTrack) Inferrer

	// graphInferrers caches one inferrer per (graph, context) so
	// repeated references share memo entries.
	graphInferrers map[graphCtxKey]*GraphInferrer
}

type graphCtxKey struct {
	graph *ir.Graph
	ctx   *bindings
}

// NewShapeTrack creates the shape track bound to an engine.
func NewShapeTrack(e *Engine) *ShapeTrack {
	return &ShapeTrack{
		engine:         e,
		constructors:   shapeConstructors,
		graphInferrers: make(map[graphCtxKey]*GraphInferrer),
	}
}

// Name implements Track.
func (t *ShapeTrack) Name() Property { return PropShape }

// FromValue implements Track: primitives lift to their registered shape
// inferrer (scalar by default), graphs to a graph inferrer, arrays to
// their shape, and everything else to the empty (scalar) shape.
func (t *ShapeTrack) FromValue(v any) any {
	switch val := v.(type) {
	case prim.Primitive:
		if ctor, ok := t.constructors[val]; ok {
			return ctor(t)
		}
		return &ScalarShapeInferrer{}
	case *ir.Graph:
		return t.graphInferrer(val, nil)
	case *prim.Array:
		shape := val.Shape()
		dims := make([]int64, len(shape))
		for i, d := range shape {
			dims[i] = int64(d)
		}
		return KnownShape(dims...)
	default:
		return Shape{}
	}
}

func (t *ShapeTrack) graphInferrer(g *ir.Graph, ctx *bindings) *GraphInferrer {
	key := graphCtxKey{graph: g, ctx: ctx}
	if gi, ok := t.graphInferrers[key]; ok {
		return gi
	}
	gi := &GraphInferrer{track: t, graph: g, ctx: ctx}
	t.graphInferrers[key] = gi
	return gi
}

// bindings maps graph parameters to argument references; contexts nest
// so nested graphs see their enclosing graph's bindings.
type bindings struct {
	parent *bindings
	params map[*ir.Parameter]Reference

	// refs caches one node reference per node so queries share memo
	// entries within a context.
	refs map[ir.Node]*nodeRef
}

func newBindings(parent *bindings) *bindings {
	return &bindings{
		parent: parent,
		params: make(map[*ir.Parameter]Reference),
		refs:   make(map[ir.Node]*nodeRef),
	}
}

func (b *bindings) lookup(p *ir.Parameter) (Reference, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if ref, ok := cur.params[p]; ok {
			return ref, true
		}
	}
	return nil, false
}

// ScalarShapeInferrer is the shape inferrer for primitives that do not
// take arrays: the result shape is always the empty tuple.
type ScalarShapeInferrer struct{}

// Infer implements Inferrer.
func (*ScalarShapeInferrer) Infer(*Engine, []Reference) (any, error) {
	return Shape{}, nil
}

// GraphInferrer infers the shape of a graph's result by abstractly
// evaluating its return subtree with parameters bound to the call's
// argument references. The creation context carries the enclosing
// bindings so free variables of nested graphs resolve.
type GraphInferrer struct {
	track *ShapeTrack
	graph *ir.Graph
	ctx   *bindings
}

// Infer implements Inferrer.
func (gi *GraphInferrer) Infer(e *Engine, args []Reference) (any, error) {
	params := gi.graph.Parameters()
	if len(args) != len(params) {
		return nil, errUnsatisfiable("graph %s expects %d arguments, got %d",
			gi.graph.Debug().Label(), len(params), len(args))
	}
	b := newBindings(gi.ctx)
	for i, p := range params {
		b.params[p] = args[i]
	}
	if gi.graph.Return() == nil {
		return nil, errUnsatisfiable("graph %s has no return", gi.graph.Debug().Label())
	}
	return e.Ask(gi.track.nodeRef(gi.graph.Return(), b), PropShape)
}

// PartialInferrer closes over a function's inferrer and a prefix of its
// arguments.
type PartialInferrer struct {
	fn   Inferrer
	args []Reference
}

// Infer implements Inferrer.
func (pi *PartialInferrer) Infer(e *Engine, args []Reference) (any, error) {
	full := make([]Reference, 0, len(pi.args)+len(args))
	full = append(full, pi.args...)
	full = append(full, args...)
	return e.CallInferrer(pi.fn, full)
}

// nodeRef is a reference to the value an IR node computes under a
// binding context.
type nodeRef struct {
	track *ShapeTrack
	node  ir.Node
	ctx   *bindings
}

func (t *ShapeTrack) nodeRef(n ir.Node, ctx *bindings) *nodeRef {
	if ref, ok := ctx.refs[n]; ok {
		return ref
	}
	ref := &nodeRef{track: t, node: n, ctx: ctx}
	ctx.refs[n] = ref
	return ref
}

// Get implements Reference.
func (r *nodeRef) Get(e *Engine, prop Property) (any, error) {
	switch prop {
	case PropShape:
		return r.shape(e)
	case PropValue:
		return r.value(e)
	case PropType:
		return r.nodeType(e)
	default:
		return nil, errUnsatisfiable("unknown property %q", prop)
	}
}

func (r *nodeRef) shape(e *Engine) (any, error) {
	switch n := r.node.(type) {
	case *ir.Constant:
		// Graph constants capture the current bindings so their free
		// variables resolve through the enclosing graph's context.
		if g := ir.ConstantGraph(n); g != nil {
			return r.track.graphInferrer(g, r.ctx), nil
		}
		return r.track.FromValue(n.Value()), nil

	case *ir.Parameter:
		ref, ok := r.ctx.lookup(n)
		if !ok {
			return ANYTHING, nil
		}
		return e.Ask(ref, PropShape)

	case *ir.Apply:
		inf, err := r.calleeInferrer(e, n)
		if err != nil {
			return nil, err
		}
		args := make([]Reference, len(n.Inputs())-1)
		for i, in := range n.Inputs()[1:] {
			args[i] = r.track.nodeRef(in, r.ctx)
		}
		return e.CallInferrer(inf, args)

	default:
		return nil, errUnsatisfiable("special node %s has no shape", r.node.Debug().Label())
	}
}

// calleeInferrer resolves an apply's callee to an inferrer: through the
// callee's known value when there is one, else through the callee's own
// shape property (which is an inferrer for function-valued nodes).
func (r *nodeRef) calleeInferrer(e *Engine, apply *ir.Apply) (Inferrer, error) {
	calleeRef := r.track.nodeRef(apply.Inputs()[0], r.ctx)
	v, err := e.Ask(calleeRef, PropValue)
	if err != nil {
		return nil, err
	}
	if !IsAnything(v) {
		if g, ok := v.(*ir.Graph); ok {
			return r.track.graphInferrer(g, r.ctx), nil
		}
		lifted := r.track.FromValue(v)
		if inf, ok := lifted.(Inferrer); ok {
			return inf, nil
		}
		return nil, errUnsatisfiable("callee value %T is not callable", v)
	}

	s, err := e.Ask(calleeRef, PropShape)
	if err != nil {
		return nil, err
	}
	if inf, ok := s.(Inferrer); ok {
		return inf, nil
	}
	return nil, errUnsatisfiable("callee of %s is not a function", apply.Debug().Label())
}

// value computes the "value" property: constants are themselves,
// resolve applications look their name up, cons_tuple applications fold
// into tuples when every element is known, and everything else is
// ANYTHING.
func (r *nodeRef) value(e *Engine) (any, error) {
	switch n := r.node.(type) {
	case *ir.Constant:
		return n.Value(), nil

	case *ir.Parameter:
		ref, ok := r.ctx.lookup(n)
		if !ok {
			return ANYTHING, nil
		}
		return e.Ask(ref, PropValue)

	case *ir.Apply:
		callee, err := e.Ask(r.track.nodeRef(n.Inputs()[0], r.ctx), PropValue)
		if err != nil {
			return nil, err
		}
		switch callee {
		case any(prim.Resolve):
			return r.resolveValue(e, n)
		case any(prim.ConsTuple):
			return r.consTupleValue(e, n)
		default:
			return ANYTHING, nil
		}

	default:
		return ANYTHING, nil
	}
}

func (r *nodeRef) resolveValue(e *Engine, apply *ir.Apply) (any, error) {
	nsVal, err := e.Ask(r.track.nodeRef(apply.Inputs()[1], r.ctx), PropValue)
	if err != nil {
		return nil, err
	}
	nameVal, err := e.Ask(r.track.nodeRef(apply.Inputs()[2], r.ctx), PropValue)
	if err != nil {
		return nil, err
	}
	ns, nsOK := nsVal.(namespace.Namespace)
	name, nameOK := nameVal.(string)
	if !nsOK || !nameOK {
		return ANYTHING, nil
	}
	v, err := ns.Lookup(name)
	if err != nil {
		return ANYTHING, nil //nolint:nilerr // unknown symbol degrades to ANYTHING
	}
	return v, nil
}

func (r *nodeRef) consTupleValue(e *Engine, apply *ir.Apply) (any, error) {
	head, err := e.Ask(r.track.nodeRef(apply.Inputs()[1], r.ctx), PropValue)
	if err != nil {
		return nil, err
	}
	rest, err := e.Ask(r.track.nodeRef(apply.Inputs()[2], r.ctx), PropValue)
	if err != nil {
		return nil, err
	}
	if IsAnything(head) || IsAnything(rest) {
		return ANYTHING, nil
	}
	tail, ok := rest.(immutable.Slice)
	if !ok {
		return ANYTHING, nil
	}
	return tail.Prepend(head), nil
}

// nodeType computes the "type" property, tracking tuple lengths through
// cons_tuple chains so shape rules can recover rank from a tuple whose
// element values are unknown.
func (r *nodeRef) nodeType(e *Engine) (any, error) {
	switch n := r.node.(type) {
	case *ir.Constant:
		return typeOfValue(n.Value()), nil

	case *ir.Parameter:
		ref, ok := r.ctx.lookup(n)
		if !ok {
			return ScalarType{}, nil
		}
		return e.Ask(ref, PropType)

	case *ir.Apply:
		callee, err := e.Ask(r.track.nodeRef(n.Inputs()[0], r.ctx), PropValue)
		if err != nil {
			return nil, err
		}
		if callee == any(prim.ConsTuple) {
			restType, err := e.Ask(r.track.nodeRef(n.Inputs()[2], r.ctx), PropType)
			if err != nil {
				return nil, err
			}
			if tt, ok := restType.(TupleType); ok {
				return TupleType{Elements: tt.Elements + 1}, nil
			}
			return TupleType{Elements: 1}, nil
		}
		return ScalarType{}, nil

	default:
		return ScalarType{}, nil
	}
}

// typeOfValue classifies a concrete value for the "type" property.
func typeOfValue(v any) any {
	switch val := v.(type) {
	case *prim.Array:
		return ArrayType{}
	case immutable.Slice:
		return TupleType{Elements: val.Len()}
	case *ir.Graph, prim.Primitive:
		return FunctionType{}
	default:
		return ScalarType{}
	}
}
