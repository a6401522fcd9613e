package infer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simon-lentz/anf/internal/trace"
	"github.com/simon-lentz/anf/ir"
)

// Reference stands for a value the program would compute; queries ask it
// for properties through the engine.
type Reference interface {
	// Get answers a property query. Implementations route nested queries
	// back through the engine so memoization and cycle detection apply.
	Get(e *Engine, prop Property) (any, error)
}

// Inferrer is an abstract computation producing a property value from
// argument references. Inferrer identity keys the engine's memo table.
type Inferrer interface {
	Infer(e *Engine, args []Reference) (any, error)
}

// Option configures an engine.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	maxSteps int
}

// WithLogger enables debug logging during inference.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithMaxSteps bounds the engine's total work. Non-positive values keep
// the default.
func WithMaxSteps(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxSteps = n
		}
	}
}

const defaultMaxSteps = 100_000

// Engine answers abstract queries on a single thread by demand-driven,
// memoized recursion.
//
// The engine memoizes inferrer calls per (inferrer, argument tuple) and
// reference queries per (reference, property). A query re-entered while
// still pending is a cycle that can never unblock and fails with
// E_UNSATISFIABLE; exceeding the step budget fails with
// E_INFERENCE_TIMEOUT.
type Engine struct {
	cfg   config
	steps int

	callMemo    map[callKey]callEntry
	callPending map[callKey]bool

	refMemo    map[refKey]refEntry
	refPending map[refKey]bool
}

type callKey struct {
	inferrer Inferrer
	args     string
}

type callEntry struct {
	val any
	err error
}

type refKey struct {
	ref  Reference
	prop Property
}

type refEntry struct {
	val any
	err error
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	cfg := config{maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		cfg:         cfg,
		callMemo:    make(map[callKey]callEntry),
		callPending: make(map[callKey]bool),
		refMemo:     make(map[refKey]refEntry),
		refPending:  make(map[refKey]bool),
	}
}

// Reset clears the memo tables and the step counter.
func (e *Engine) Reset() {
	e.steps = 0
	e.callMemo = make(map[callKey]callEntry)
	e.callPending = make(map[callKey]bool)
	e.refMemo = make(map[refKey]refEntry)
	e.refPending = make(map[refKey]bool)
}

// InferShape infers the shape of applying graph g to the given abstract
// arguments.
func (e *Engine) InferShape(g *ir.Graph, args []Reference) (any, error) {
	op := trace.Begin(context.Background(), e.cfg.logger, "anf.infer.shape",
		slog.String("graph", g.Debug().Label()),
	)
	track := NewShapeTrack(e)
	res, err := e.CallInferrer(track.graphInferrer(g, nil), args)
	op.End(err)
	return res, err
}

// Ask answers a property query about a reference, memoized.
func (e *Engine) Ask(ref Reference, prop Property) (any, error) {
	if err := e.step(); err != nil {
		return nil, err
	}

	key := refKey{ref: ref, prop: prop}
	if entry, ok := e.refMemo[key]; ok {
		return entry.val, entry.err
	}
	if e.refPending[key] {
		return nil, errUnsatisfiable("query (%T, %s) depends on itself", ref, prop)
	}

	e.refPending[key] = true
	val, err := ref.Get(e, prop)
	delete(e.refPending, key)

	e.refMemo[key] = refEntry{val: val, err: err}
	return val, err
}

// CallInferrer invokes an inferrer on argument references, memoized per
// (inferrer, argument tuple).
func (e *Engine) CallInferrer(inf Inferrer, args []Reference) (any, error) {
	if err := e.step(); err != nil {
		return nil, err
	}

	key := callKey{inferrer: inf, args: argsKey(args)}
	if entry, ok := e.callMemo[key]; ok {
		return entry.val, entry.err
	}
	if e.callPending[key] {
		return nil, errUnsatisfiable("inferrer %T re-entered with identical arguments", inf)
	}

	e.callPending[key] = true
	val, err := inf.Infer(e, args)
	delete(e.callPending, key)

	e.callMemo[key] = callEntry{val: val, err: err}
	return val, err
}

// AssertSame evaluates two inferrer calls and unifies their shapes,
// failing with E_SHAPE_MISMATCH on incompatibility.
func (e *Engine) AssertSame(a, b func() (any, error)) (any, error) {
	av, err := a()
	if err != nil {
		return nil, err
	}
	bv, err := b()
	if err != nil {
		return nil, err
	}
	return unifyShapes(av, bv)
}

// unifyShapes merges two abstract shapes: agreeing dimensions stay,
// disagreeing known dimensions fail, and ANYTHING absorbs.
func unifyShapes(a, b any) (any, error) {
	if IsAnything(a) || IsAnything(b) {
		return ANYTHING, nil
	}
	as, aok := a.(Shape)
	bs, bok := b.(Shape)
	if !aok || !bok {
		return nil, errShapeMismatch("cannot unify %v with %v", a, b)
	}
	if len(as) != len(bs) {
		return nil, errShapeMismatch("cannot unify ranks %d and %d", len(as), len(bs))
	}
	out := make(Shape, len(as))
	for i := range as {
		da, db := as[i], bs[i]
		switch {
		case IsAnything(da) || IsAnything(db):
			out[i] = ANYTHING
		case da == db:
			out[i] = da
		default:
			return nil, errShapeMismatch("dimension %d differs: %v vs %v", i, da, db)
		}
	}
	return out, nil
}

func (e *Engine) step() error {
	e.steps++
	if e.steps > e.cfg.maxSteps {
		return errTimeout(e.cfg.maxSteps)
	}
	return nil
}

func argsKey(args []Reference) string {
	var sb strings.Builder
	for _, a := range args {
		fmt.Fprintf(&sb, "%p;", a)
	}
	return sb.String()
}

// Ref is an explicit reference: a bag of property values supplied by the
// caller. Missing properties default conservatively: value and shape to
// ANYTHING, type to ScalarType.
type Ref struct {
	props map[Property]any
}

// NewRef creates a reference with explicit property values.
func NewRef(props map[Property]any) *Ref {
	cp := make(map[Property]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return &Ref{props: cp}
}

// ValueRef creates a reference for a fully-known concrete value; shape
// and type derive from the value through the shape track.
func ValueRef(v any) *Ref {
	return NewRef(map[Property]any{
		PropValue: v,
		propFrom:  v,
	})
}

// propFrom is an internal marker property instructing Ref to derive
// shape and type from the held concrete value.
const propFrom Property = "derive-from-value"

// Get implements Reference.
func (r *Ref) Get(e *Engine, prop Property) (any, error) {
	if v, ok := r.props[prop]; ok {
		return v, nil
	}
	if src, ok := r.props[propFrom]; ok {
		switch prop {
		case PropShape:
			return NewShapeTrack(e).FromValue(src), nil
		case PropType:
			return typeOfValue(src), nil
		}
	}
	switch prop {
	case PropValue, PropShape:
		return ANYTHING, nil
	case PropType:
		return ScalarType{}, nil
	default:
		return nil, fmt.Errorf("infer: unknown property %q", prop)
	}
}
