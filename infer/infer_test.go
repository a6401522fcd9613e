package infer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/prim"
	"github.com/simon-lentz/anf/vm"
)

// callPrim invokes a primitive's shape inferrer directly.
func callPrim(t *testing.T, e *Engine, p prim.Primitive, args ...Reference) (any, error) {
	t.Helper()
	track := NewShapeTrack(e)
	inf, ok := track.FromValue(p).(Inferrer)
	require.True(t, ok)
	return e.CallInferrer(inf, args)
}

func shapeRef(dims ...any) *Ref {
	return NewRef(map[Property]any{PropShape: Shape(dims)})
}

func TestShape_Dot(t *testing.T) {
	e := NewEngine()

	// (3, 4) x (4, 5) -> (3, 5)
	out, err := callPrim(t, e, prim.Dot,
		shapeRef(int64(3), int64(4)),
		shapeRef(int64(4), int64(5)),
	)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(3, 5), out)
}

func TestShape_Dot_PartiallyKnown(t *testing.T) {
	e := NewEngine()

	// (3, ANYTHING) x (4, 5) infers (3, 5): the unknown inner dimension
	// is not provably wrong.
	out, err := callPrim(t, e, prim.Dot,
		shapeRef(int64(3), ANYTHING),
		shapeRef(int64(4), int64(5)),
	)
	require.NoError(t, err)
	assert.Equal(t, Shape{int64(3), int64(5)}, out)
}

func TestShape_Dot_Mismatch(t *testing.T) {
	e := NewEngine()

	// A later-constrained inner dimension of 7 against 4 fails.
	_, err := callPrim(t, e, prim.Dot,
		shapeRef(int64(3), int64(7)),
		shapeRef(int64(4), int64(5)),
	)
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

func TestShape_Dot_NeedsMatrices(t *testing.T) {
	e := NewEngine()
	_, err := callPrim(t, e, prim.Dot,
		shapeRef(int64(3)),
		shapeRef(int64(4), int64(5)),
	)
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

func TestShape_MapScan(t *testing.T) {
	e := NewEngine()
	fn := NewRef(nil)
	ary := shapeRef(int64(2), int64(3))

	out, err := callPrim(t, e, prim.MapArray, fn, ary)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 3), out)

	out, err = callPrim(t, e, prim.ScanArray, fn, NewRef(nil), ary,
		NewRef(map[Property]any{PropValue: int64(0)}))
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 3), out)
}

func TestShape_Reduce(t *testing.T) {
	e := NewEngine()
	fn := NewRef(nil)
	ary := shapeRef(int64(2), int64(3), int64(4))

	// Known axis drops that dimension.
	out, err := callPrim(t, e, prim.ReduceArray, fn, NewRef(nil), ary,
		NewRef(map[Property]any{PropValue: int64(1)}))
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 4), out)

	// Unknown axis leaves rank-1-less, all unknown.
	out, err = callPrim(t, e, prim.ReduceArray, fn, NewRef(nil), ary,
		NewRef(map[Property]any{PropValue: ANYTHING}))
	require.NoError(t, err)
	assert.Equal(t, UnknownDims(2), out)
}

func TestShape_Distribute(t *testing.T) {
	e := NewEngine()

	v := NewRef(map[Property]any{
		PropShape: KnownShape(1, 3),
		PropType:  ArrayType{},
	})
	target := ValueRef(tupleOf(int64(2), int64(3)))

	out, err := callPrim(t, e, prim.Distribute, v, target)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 3), out)
}

func TestShape_Distribute_Mismatch(t *testing.T) {
	e := NewEngine()

	v := NewRef(map[Property]any{
		PropShape: KnownShape(4, 3),
		PropType:  ArrayType{},
	})
	target := ValueRef(tupleOf(int64(2), int64(3)))

	_, err := callPrim(t, e, prim.Distribute, v, target)
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

func TestShape_Distribute_RankMismatchPairsLeadingDims(t *testing.T) {
	e := NewEngine()

	// (2,) distributed to (2, 3): the source pairs with the leading
	// target dimension, so the broadcast is valid.
	v := NewRef(map[Property]any{
		PropShape: KnownShape(2),
		PropType:  ArrayType{},
	})
	target := ValueRef(tupleOf(int64(2), int64(3)))

	out, err := callPrim(t, e, prim.Distribute, v, target)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 3), out)

	// (3,) against (2, 3): the leading dimensions disagree, even though
	// the source would match the target's trailing dimension.
	v3 := NewRef(map[Property]any{
		PropShape: KnownShape(3),
		PropType:  ArrayType{},
	})
	_, err = callPrim(t, e, prim.Distribute, v3, target)
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

func TestShape_Distribute_UnknownValueUsesTypeRank(t *testing.T) {
	e := NewEngine()

	v := NewRef(map[Property]any{PropShape: KnownShape(1), PropType: ArrayType{}})
	target := NewRef(map[Property]any{
		PropValue: ANYTHING,
		PropType:  TupleType{Elements: 3},
	})

	out, err := callPrim(t, e, prim.Distribute, v, target)
	require.NoError(t, err)
	assert.Equal(t, UnknownDims(3), out)
}

func TestShape_Reshape(t *testing.T) {
	e := NewEngine()

	v := shapeRef(int64(2), int64(6))
	target := ValueRef(tupleOf(int64(3), int64(4)))

	out, err := callPrim(t, e, prim.Reshape, v, target)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(3, 4), out)
}

func TestShape_Reshape_ElementCountMismatch(t *testing.T) {
	e := NewEngine()

	v := shapeRef(int64(2), int64(6))
	target := ValueRef(tupleOf(int64(5), int64(5)))

	_, err := callPrim(t, e, prim.Reshape, v, target)
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

// branchGraph builds a thunk graph returning a constant array of the
// given shape.
func branchGraph(t *testing.T, dims []int, n int) *ir.Graph {
	t.Helper()
	data := make([]float64, n)
	arr, err := prim.NewArray(dims, data)
	require.NoError(t, err)

	g := ir.NewGraph()
	require.NoError(t, g.SetReturn(g.Apply(ir.NewConstant(prim.Return), ir.NewConstant(arr))))
	return g
}

func TestShape_If_SelectsProvenBranch(t *testing.T) {
	e := NewEngine()
	track := NewShapeTrack(e)

	tb := track.graphInferrer(branchGraph(t, []int{2, 3}, 6), nil)
	fb := track.graphInferrer(branchGraph(t, []int{4}, 4), nil)

	tbRef := NewRef(map[Property]any{PropShape: tb})
	fbRef := NewRef(map[Property]any{PropShape: fb})

	out, err := callPrim(t, e, prim.If,
		NewRef(map[Property]any{PropValue: true}), tbRef, fbRef)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(2, 3), out)

	out, err = callPrim(t, e, prim.If,
		NewRef(map[Property]any{PropValue: false}), tbRef, fbRef)
	require.NoError(t, err)
	assert.Equal(t, KnownShape(4), out)
}

// constInferrer returns a fixed shape; used to model branches with
// partially-known results.
type constInferrer struct {
	shape any
}

func (c *constInferrer) Infer(*Engine, []Reference) (any, error) {
	return c.shape, nil
}

func TestShape_If_AnythingUnifies(t *testing.T) {
	e := NewEngine()

	tb := &constInferrer{shape: Shape{int64(2), int64(3)}}
	fb := &constInferrer{shape: Shape{int64(2), ANYTHING}}

	out, err := callPrim(t, e, prim.If,
		NewRef(map[Property]any{PropValue: ANYTHING}),
		NewRef(map[Property]any{PropShape: tb}),
		NewRef(map[Property]any{PropShape: fb}))
	require.NoError(t, err)
	assert.Equal(t, Shape{int64(2), ANYTHING}, out)
}

func TestShape_If_MismatchedBranches(t *testing.T) {
	e := NewEngine()
	track := NewShapeTrack(e)

	tb := track.graphInferrer(branchGraph(t, []int{2, 3}, 6), nil)
	fb := track.graphInferrer(branchGraph(t, []int{4}, 4), nil)

	_, err := callPrim(t, e, prim.If,
		NewRef(map[Property]any{PropValue: ANYTHING}),
		NewRef(map[Property]any{PropShape: tb}),
		NewRef(map[Property]any{PropShape: fb}))
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_SHAPE_MISMATCH, ierr.Code)
}

func TestShape_If_InvalidCondition(t *testing.T) {
	e := NewEngine()
	track := NewShapeTrack(e)

	tb := track.graphInferrer(branchGraph(t, []int{2}, 2), nil)

	_, err := callPrim(t, e, prim.If,
		NewRef(map[Property]any{PropValue: int64(3)}),
		NewRef(map[Property]any{PropShape: tb}),
		NewRef(map[Property]any{PropShape: tb}))
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_INVALID_CONDITION, ierr.Code)
}

func TestShape_Partial(t *testing.T) {
	e := NewEngine()
	track := NewShapeTrack(e)

	// dotg(a, b) = dot(a, b); partial(dotg, a) then applied to b.
	dotg := ir.NewGraph()
	pa := dotg.AddParameter()
	pb := dotg.AddParameter()
	d := dotg.Apply(ir.NewConstant(prim.Dot), pa, pb)
	require.NoError(t, dotg.SetReturn(dotg.Apply(ir.NewConstant(prim.Return), d)))

	aRef := shapeRef(int64(3), int64(4))
	bRef := shapeRef(int64(4), int64(5))

	partial, err := callPrim(t, e, prim.Partial,
		NewRef(map[Property]any{PropShape: track.graphInferrer(dotg, nil)}),
		aRef)
	require.NoError(t, err)
	pi, ok := partial.(*PartialInferrer)
	require.True(t, ok)

	out, err := e.CallInferrer(pi, []Reference{bRef})
	require.NoError(t, err)
	assert.Equal(t, KnownShape(3, 5), out)
}

func TestShape_ScalarDefault(t *testing.T) {
	e := NewEngine()
	out, err := callPrim(t, e, prim.Add, NewRef(nil), NewRef(nil))
	require.NoError(t, err)
	assert.Equal(t, Shape{}, out)
}

func TestInferShape_Graph(t *testing.T) {
	e := NewEngine()

	// g(a, b) = dot(a, b)
	g := ir.NewGraph()
	pa := g.AddParameter()
	pb := g.AddParameter()
	d := g.Apply(ir.NewConstant(prim.Dot), pa, pb)
	require.NoError(t, g.SetReturn(g.Apply(ir.NewConstant(prim.Return), d)))

	out, err := e.InferShape(g, []Reference{
		shapeRef(int64(3), int64(4)),
		shapeRef(int64(4), int64(5)),
	})
	require.NoError(t, err)
	assert.Equal(t, KnownShape(3, 5), out)
}

func TestInferShape_RoundTripWithVM(t *testing.T) {
	// For fully-known inputs, inferred shape equals the shape of the
	// evaluated result.
	g := ir.NewGraph()
	pa := g.AddParameter()
	pb := g.AddParameter()
	d := g.Apply(ir.NewConstant(prim.Dot), pa, pb)
	require.NoError(t, g.SetReturn(g.Apply(ir.NewConstant(prim.Return), d)))

	a, err := prim.NewArray([]int{3, 4}, make([]float64, 12))
	require.NoError(t, err)
	b, err := prim.NewArray([]int{4, 5}, make([]float64, 20))
	require.NoError(t, err)

	machine := vm.New()
	result, err := machine.Evaluate(context.Background(), g, []any{a, b})
	require.NoError(t, err)
	arr, ok := result.(*prim.Array)
	require.True(t, ok)

	e := NewEngine()
	inferred, err := e.InferShape(g, []Reference{ValueRef(a), ValueRef(b)})
	require.NoError(t, err)

	dims := make([]int64, len(arr.Shape()))
	for i, dim := range arr.Shape() {
		dims[i] = int64(dim)
	}
	assert.Equal(t, KnownShape(dims...), inferred)
}

func TestEngine_Timeout(t *testing.T) {
	// A self-recursive graph never converges; the step budget turns the
	// divergence into E_INFERENCE_TIMEOUT.
	g := ir.NewGraph()
	p := g.AddParameter()
	call := g.Apply(ir.NewConstant(g), p)
	require.NoError(t, g.SetReturn(g.Apply(ir.NewConstant(prim.Return), call)))

	e := NewEngine(WithMaxSteps(500))
	_, err := e.InferShape(g, []Reference{NewRef(nil)})
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, diag.E_INFERENCE_TIMEOUT, ierr.Code)
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "(3, ANYTHING)", Shape{int64(3), ANYTHING}.String())
	assert.Equal(t, "()", Shape{}.String())
	assert.True(t, KnownShape(2, 3).FullyKnown())
	assert.False(t, Shape{int64(2), ANYTHING}.FullyKnown())
	assert.Equal(t, int64(6), KnownShape(2, 3).Elements())
}

func tupleOf(vals ...any) any {
	return immutable.WrapSlice(vals)
}
