package prim

import (
	"context"
	"fmt"

	"github.com/simon-lentz/anf/internal/value"
)

func asArray(name string, v any) (*Array, error) {
	a, ok := v.(*Array)
	if !ok {
		return nil, fmt.Errorf("prim: %s requires an array, got %T", name, v)
	}
	return a, nil
}

// applyScalar invokes fn on float64 operands through the evaluator and
// coerces the result back to float64.
func applyScalar(ctx context.Context, call Caller, fn any, args ...float64) (float64, error) {
	boxed := make([]any, len(args))
	for i, a := range args {
		boxed[i] = a
	}
	out, err := call.Call(ctx, fn, boxed)
	if err != nil {
		return 0, err
	}
	f, ok := value.GetFloat64(out)
	if !ok {
		return 0, fmt.Errorf("prim: array function returned non-numeric %T", out)
	}
	return f, nil
}

func implMapArray(ctx context.Context, call Caller, args []any) (any, error) {
	a, err := asArray("map_array", args[1])
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(a.data))
	for i, v := range a.data {
		out[i], err = applyScalar(ctx, call, args[0], v)
		if err != nil {
			return nil, err
		}
	}
	return &Array{shape: a.Shape(), data: out}, nil
}

// axisLines iterates every line of a along the given axis, yielding the
// offsets of the line's elements in row-major order.
func axisLines(a *Array, axis int, visit func(offsets []int) error) error {
	if axis < 0 || axis >= len(a.shape) {
		return fmt.Errorf("prim: axis %d out of range for rank %d", axis, len(a.shape))
	}
	st := strides(a.shape)
	lineLen := a.shape[axis]

	// Iterate all index tuples with the axis coordinate fixed at zero.
	idx := make([]int, len(a.shape))
	offsets := make([]int, lineLen)
	for {
		base := 0
		for d, i := range idx {
			base += i * st[d]
		}
		for k := range lineLen {
			offsets[k] = base + k*st[axis]
		}
		if err := visit(offsets); err != nil {
			return err
		}

		// Odometer increment, skipping the fixed axis.
		d := len(idx) - 1
		for ; d >= 0; d-- {
			if d == axis {
				continue
			}
			idx[d]++
			if idx[d] < a.shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}

func implScanArray(ctx context.Context, call Caller, args []any) (any, error) {
	init, ok := value.GetFloat64(args[1])
	if !ok {
		return nil, fmt.Errorf("prim: scan_array init must be numeric, got %T", args[1])
	}
	a, err := asArray("scan_array", args[2])
	if err != nil {
		return nil, err
	}
	axis, ok := value.GetInt64(args[3])
	if !ok {
		return nil, fmt.Errorf("prim: scan_array axis must be an integer, got %T", args[3])
	}

	out := make([]float64, len(a.data))
	err = axisLines(a, int(axis), func(offsets []int) error {
		acc := init
		for _, off := range offsets {
			var err error
			acc, err = applyScalar(ctx, call, args[0], acc, a.data[off])
			if err != nil {
				return err
			}
			out[off] = acc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Array{shape: a.Shape(), data: out}, nil
}

func implReduceArray(ctx context.Context, call Caller, args []any) (any, error) {
	init, ok := value.GetFloat64(args[1])
	if !ok {
		return nil, fmt.Errorf("prim: reduce_array init must be numeric, got %T", args[1])
	}
	a, err := asArray("reduce_array", args[2])
	if err != nil {
		return nil, err
	}
	axis, ok := value.GetInt64(args[3])
	if !ok {
		return nil, fmt.Errorf("prim: reduce_array axis must be an integer, got %T", args[3])
	}
	ax := int(axis)
	if ax < 0 || ax >= len(a.shape) {
		return nil, fmt.Errorf("prim: axis %d out of range for rank %d", ax, len(a.shape))
	}

	outShape := make([]int, 0, len(a.shape)-1)
	for d, n := range a.shape {
		if d != ax {
			outShape = append(outShape, n)
		}
	}
	out := make([]float64, elemCount(outShape))

	i := 0
	err = axisLines(a, ax, func(offsets []int) error {
		acc := init
		for _, off := range offsets {
			var err error
			acc, err = applyScalar(ctx, call, args[0], acc, a.data[off])
			if err != nil {
				return err
			}
		}
		out[i] = acc
		i++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Array{shape: outShape, data: out}, nil
}

func implDistribute(_ context.Context, _ Caller, args []any) (any, error) {
	a, err := asArray("distribute", args[0])
	if err != nil {
		return nil, err
	}
	target, err := shapeOf(args[1])
	if err != nil {
		return nil, err
	}
	if len(target) < len(a.shape) {
		return nil, fmt.Errorf("prim: cannot distribute %v to smaller shape %v", a.shape, target)
	}
	// Source dimensions pair with the leading target dimensions; extra
	// trailing target dimensions replicate.
	for d, vs := range a.shape {
		if vs != 1 && vs != target[d] {
			return nil, fmt.Errorf("prim: cannot change dimension %d from %d to %d when distributing", d, vs, target[d])
		}
	}

	out := make([]float64, elemCount(target))
	srcStrides := strides(a.shape)
	tgtStrides := strides(target)
	for i := range out {
		src := 0
		for d, vs := range a.shape {
			coord := (i / tgtStrides[d]) % target[d]
			if vs != 1 {
				src += coord * srcStrides[d]
			}
		}
		out[i] = a.data[src]
	}
	return &Array{shape: append([]int(nil), target...), data: out}, nil
}

func implReshape(_ context.Context, _ Caller, args []any) (any, error) {
	a, err := asArray("reshape", args[0])
	if err != nil {
		return nil, err
	}
	target, err := shapeOf(args[1])
	if err != nil {
		return nil, err
	}
	if elemCount(target) != len(a.data) {
		return nil, fmt.Errorf("prim: cannot reshape %v to %v: element counts differ", a.shape, target)
	}
	return &Array{shape: append([]int(nil), target...), data: a.Data()}, nil
}

func implDot(_ context.Context, _ Caller, args []any) (any, error) {
	a, err := asArray("dot", args[0])
	if err != nil {
		return nil, err
	}
	b, err := asArray("dot", args[1])
	if err != nil {
		return nil, err
	}
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("prim: dot needs matrix inputs, got ranks %d and %d", a.Rank(), b.Rank())
	}
	if a.shape[1] != b.shape[0] {
		return nil, fmt.Errorf("prim: incompatible shapes in dot: %v x %v", a.shape, b.shape)
	}
	rows, inner, cols := a.shape[0], a.shape[1], b.shape[1]
	out := make([]float64, rows*cols)
	for i := range rows {
		for j := range cols {
			sum := 0.0
			for k := range inner {
				sum += a.data[i*inner+k] * b.data[k*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	return &Array{shape: []int{rows, cols}, data: out}, nil
}
