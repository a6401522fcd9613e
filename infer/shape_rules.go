package infer

import (
	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/internal/value"
	"github.com/simon-lentz/anf/prim"
)

// primInferrer adapts a rule function to the Inferrer interface with an
// arity check. nargs < 0 accepts any arity.
type primInferrer struct {
	name  prim.Primitive
	nargs int
	track *ShapeTrack
	rule  func(e *Engine, t *ShapeTrack, args []Reference) (any, error)
}

// Infer implements Inferrer.
func (p *primInferrer) Infer(e *Engine, args []Reference) (any, error) {
	if p.nargs >= 0 && len(args) != p.nargs {
		return nil, errUnsatisfiable("%s expects %d arguments, got %d", p.name, p.nargs, len(args))
	}
	return p.rule(e, p.track, args)
}

// shapeConstructors registers the shape rule for each primitive with a
// non-scalar rule. Every other primitive falls back to
// [ScalarShapeInferrer].
var shapeConstructors = map[prim.Primitive]func(t *ShapeTrack) Inferrer{
	prim.Return:      rule(prim.Return, 1, inferShapeReturn),
	prim.If:          rule(prim.If, 3, inferShapeIf),
	prim.Partial:     rule(prim.Partial, -1, inferShapePartial),
	prim.MapArray:    rule(prim.MapArray, 2, inferShapeMapArray),
	prim.ScanArray:   rule(prim.ScanArray, 4, inferShapeScanArray),
	prim.ReduceArray: rule(prim.ReduceArray, 4, inferShapeReduceArray),
	prim.Distribute:  rule(prim.Distribute, 2, inferShapeDistribute),
	prim.Reshape:     rule(prim.Reshape, 2, inferShapeReshape),
	prim.Dot:         rule(prim.Dot, 2, inferShapeDot),
}

func rule(name prim.Primitive, nargs int, fn func(e *Engine, t *ShapeTrack, args []Reference) (any, error)) func(t *ShapeTrack) Inferrer {
	return func(t *ShapeTrack) Inferrer {
		return &primInferrer{name: name, nargs: nargs, track: t, rule: fn}
	}
}

func inferShapeReturn(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	return e.Ask(args[0], PropShape)
}

// inferShapeIf visits only the branch the condition proves; an ANYTHING
// condition unifies both branch shapes, and any other condition value is
// an invalid condition.
func inferShapeIf(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	tbShape, err := e.Ask(args[1], PropShape)
	if err != nil {
		return nil, err
	}
	fbShape, err := e.Ask(args[2], PropShape)
	if err != nil {
		return nil, err
	}
	tb, tbOK := tbShape.(Inferrer)
	fb, fbOK := fbShape.(Inferrer)
	if !tbOK || !fbOK {
		return nil, errUnsatisfiable("if_ branches must be functions")
	}

	cond, err := e.Ask(args[0], PropValue)
	if err != nil {
		return nil, err
	}
	switch {
	case cond == any(true):
		return e.CallInferrer(tb, nil)
	case cond == any(false):
		return e.CallInferrer(fb, nil)
	case IsAnything(cond):
		return e.AssertSame(
			func() (any, error) { return e.CallInferrer(tb, nil) },
			func() (any, error) { return e.CallInferrer(fb, nil) },
		)
	default:
		return nil, errInvalidCondition(cond)
	}
}

func inferShapePartial(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	if len(args) == 0 {
		return nil, errUnsatisfiable("partial expects a function argument")
	}
	fnShape, err := e.Ask(args[0], PropShape)
	if err != nil {
		return nil, err
	}
	fn, ok := fnShape.(Inferrer)
	if !ok {
		return nil, errUnsatisfiable("partial of non-function")
	}
	return &PartialInferrer{fn: fn, args: args[1:]}, nil
}

func inferShapeMapArray(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	return e.Ask(args[1], PropShape)
}

func inferShapeScanArray(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	return e.Ask(args[2], PropShape)
}

// inferShapeReduceArray drops the reduced dimension; an unknown axis
// leaves every remaining dimension unknown.
func inferShapeReduceArray(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	shp, err := askShape(e, args[2])
	if err != nil {
		return nil, err
	}
	axVal, err := e.Ask(args[3], PropValue)
	if err != nil {
		return nil, err
	}
	if IsAnything(shp) {
		return ANYTHING, nil
	}
	s := shp.(Shape)
	if IsAnything(axVal) {
		return UnknownDims(len(s) - 1), nil
	}
	ax, ok := value.GetInt64(axVal)
	if !ok || ax < 0 || int(ax) >= len(s) {
		return nil, errShapeMismatch("reduce_array axis %v out of range for rank %d", axVal, len(s))
	}
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:ax]...)
	out = append(out, s[ax+1:]...)
	return out, nil
}

// explicitShape reads a shape argument given by value; when the value is
// unknown, the rank is recovered from the argument's tuple type.
func explicitShape(e *Engine, ref Reference) (any, error) {
	v, err := e.Ask(ref, PropValue)
	if err != nil {
		return nil, err
	}
	if IsAnything(v) {
		t, err := e.Ask(ref, PropType)
		if err != nil {
			return nil, err
		}
		if tt, ok := t.(TupleType); ok {
			return UnknownDims(tt.Elements), nil
		}
		return ANYTHING, nil
	}
	tup, ok := v.(immutable.Slice)
	if !ok {
		return nil, errShapeMismatch("shape argument must be a tuple, got %T", v)
	}
	out := make(Shape, tup.Len())
	for i := range tup.Len() {
		el := tup.Get(i).Unwrap()
		if IsAnything(el) {
			out[i] = ANYTHING
			continue
		}
		d, ok := value.GetInt64(el)
		if !ok {
			return nil, errShapeMismatch("shape element %d is not an integer", i)
		}
		out[i] = d
	}
	return out, nil
}

// inferShapeDistribute validates broadcastability of the source shape
// against the explicit target shape.
func inferShapeDistribute(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	shp, err := explicitShape(e, args[1])
	if err != nil {
		return nil, err
	}

	vType, err := e.Ask(args[0], PropType)
	if err != nil {
		return nil, err
	}
	if _, isArray := vType.(ArrayType); isArray && !IsAnything(shp) {
		target := shp.(Shape)
		vShape, err := askShape(e, args[0])
		if err != nil {
			return nil, err
		}
		if vs, ok := vShape.(Shape); ok {
			if len(target) < len(vs) {
				return nil, errShapeMismatch("cannot distribute %v to smaller shape %v", vs, target)
			}
			// Source dimensions pair with the leading target dimensions.
			for i, vd := range vs {
				td := target[i]
				if IsAnything(vd) || IsAnything(td) {
					continue
				}
				if vd != td && vd != any(int64(1)) && td != any(int64(1)) {
					return nil, errShapeMismatch("cannot change dimension %d from %v to %v when distributing", i, vd, td)
				}
			}
		}
	}
	return shp, nil
}

// inferShapeReshape checks element-count preservation when both shapes
// are fully known.
func inferShapeReshape(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	shp, err := explicitShape(e, args[1])
	if err != nil {
		return nil, err
	}
	vShape, err := askShape(e, args[0])
	if err != nil {
		return nil, err
	}
	ts, tok := shp.(Shape)
	vs, vok := vShape.(Shape)
	if tok && vok && ts.FullyKnown() && vs.FullyKnown() && ts.Elements() != vs.Elements() {
		return nil, errShapeMismatch("cannot change the total number of elements in reshape: %v to %v", vs, ts)
	}
	return shp, nil
}

// inferShapeDot requires rank-2 operands with agreeing inner dimensions
// when both are known.
func inferShapeDot(e *Engine, _ *ShapeTrack, args []Reference) (any, error) {
	aAny, err := askShape(e, args[0])
	if err != nil {
		return nil, err
	}
	bAny, err := askShape(e, args[1])
	if err != nil {
		return nil, err
	}
	a, aok := aAny.(Shape)
	b, bok := bAny.(Shape)
	if !aok || !bok {
		return ANYTHING, nil
	}
	if len(a) != 2 || len(b) != 2 {
		return nil, errShapeMismatch("dot needs matrix inputs, got ranks %d and %d", len(a), len(b))
	}
	if !IsAnything(a[1]) && !IsAnything(b[0]) && a[1] != b[0] {
		return nil, errShapeMismatch("incompatible shapes in dot: %v x %v", a, b)
	}
	return Shape{a[0], b[1]}, nil
}

// askShape queries a reference's shape, normalizing inferrer results
// away (a function has no array shape).
func askShape(e *Engine, ref Reference) (any, error) {
	s, err := e.Ask(ref, PropShape)
	if err != nil {
		return nil, err
	}
	if _, isInf := s.(Inferrer); isInf {
		return nil, errShapeMismatch("expected an array-shaped value, got a function")
	}
	return s, nil
}
