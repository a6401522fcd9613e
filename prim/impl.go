package prim

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/internal/value"
	"github.com/simon-lentz/anf/namespace"
)

// Caller re-enters the evaluator from a primitive implementation.
// Higher-order array primitives use it to apply the function argument.
type Caller interface {
	Call(ctx context.Context, fn any, args []any) (any, error)
}

// Impl is a host implementation of a primitive.
type Impl func(ctx context.Context, call Caller, args []any) (any, error)

// Registry maps primitives to host implementations.
//
// Control primitives (return_, if_, partial) never reach the registry;
// the VM dispatches them structurally.
type Registry struct {
	impls map[Primitive]Impl
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{impls: make(map[Primitive]Impl)}
}

// Register binds an implementation, replacing any previous binding.
func (r *Registry) Register(p Primitive, impl Impl) {
	r.impls[p] = impl
}

// Lookup returns the implementation for p, if bound.
func (r *Registry) Lookup(p Primitive) (Impl, bool) {
	impl, ok := r.impls[p]
	return impl, ok
}

// DefaultRegistry returns a registry with the reference implementations
// of every non-control primitive.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(Resolve, implResolve)

	r.Register(Add, numericBinary("add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	r.Register(Sub, numericBinary("sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	r.Register(Mul, numericBinary("mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	r.Register(TrueDiv, implTrueDiv)
	r.Register(FloorDiv, implFloorDiv)
	r.Register(Mod, implMod)
	r.Register(Pow, implPow)
	r.Register(MatMul, implDot) // matmul on arrays shares the dot kernel
	r.Register(LShift, integerBinary("lshift", func(a, b int64) int64 { return a << uint(b) }))
	r.Register(RShift, integerBinary("rshift", func(a, b int64) int64 { return a >> uint(b) }))
	r.Register(BitAnd, integerBinary("and_", func(a, b int64) int64 { return a & b }))
	r.Register(BitOr, integerBinary("or_", func(a, b int64) int64 { return a | b }))
	r.Register(BitXor, integerBinary("xor", func(a, b int64) int64 { return a ^ b }))

	r.Register(Pos, implPos)
	r.Register(Neg, implNeg)
	r.Register(Invert, implInvert)
	r.Register(Not, implNot)

	r.Register(Eq, comparison("eq", func(c int) bool { return c == 0 }))
	r.Register(Ne, comparison("ne", func(c int) bool { return c != 0 }))
	r.Register(Lt, comparison("lt", func(c int) bool { return c < 0 }))
	r.Register(Gt, comparison("gt", func(c int) bool { return c > 0 }))
	r.Register(Le, comparison("le", func(c int) bool { return c <= 0 }))
	r.Register(Ge, comparison("ge", func(c int) bool { return c >= 0 }))
	r.Register(Is, implIs)
	r.Register(IsNot, implIsNot)
	r.Register(Contains, implContains)

	r.Register(ConsTuple, implConsTuple)
	r.Register(GetItem, implGetItem)
	r.Register(GetAttr, implGetAttr)

	r.Register(MapArray, implMapArray)
	r.Register(ScanArray, implScanArray)
	r.Register(ReduceArray, implReduceArray)
	r.Register(Distribute, implDistribute)
	r.Register(Reshape, implReshape)
	r.Register(Dot, implDot)

	return r
}

// --- resolve ---

func implResolve(_ context.Context, _ Caller, args []any) (any, error) {
	ns, ok := args[0].(namespace.Namespace)
	if !ok {
		return nil, fmt.Errorf("prim: resolve of non-namespace %T", args[0])
	}
	name, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("prim: resolve of non-string name %T", args[1])
	}
	return ns.Lookup(name)
}

// --- arithmetic ---

func numericBinary(name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) Impl {
	return func(_ context.Context, _ Caller, args []any) (any, error) {
		if ai, aok := value.GetInt64(args[0]); aok {
			if bi, bok := value.GetInt64(args[1]); bok {
				return intOp(ai, bi), nil
			}
		}
		af, aok := value.GetFloat64(args[0])
		bf, bok := value.GetFloat64(args[1])
		if aok && bok {
			return floatOp(af, bf), nil
		}
		return nil, fmt.Errorf("prim: %s of non-numeric values %T, %T", name, args[0], args[1])
	}
}

func integerBinary(name string, op func(a, b int64) int64) Impl {
	return func(_ context.Context, _ Caller, args []any) (any, error) {
		a, aok := value.GetInt64(args[0])
		b, bok := value.GetInt64(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("prim: %s requires integers, got %T, %T", name, args[0], args[1])
		}
		return op(a, b), nil
	}
}

func implTrueDiv(_ context.Context, _ Caller, args []any) (any, error) {
	a, aok := value.GetFloat64(args[0])
	b, bok := value.GetFloat64(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("prim: truediv of non-numeric values %T, %T", args[0], args[1])
	}
	if b == 0 {
		return nil, fmt.Errorf("prim: division by zero")
	}
	return a / b, nil
}

func implFloorDiv(_ context.Context, _ Caller, args []any) (any, error) {
	if ai, aok := value.GetInt64(args[0]); aok {
		if bi, bok := value.GetInt64(args[1]); bok {
			if bi == 0 {
				return nil, fmt.Errorf("prim: division by zero")
			}
			q := ai / bi
			if (ai%bi != 0) && ((ai < 0) != (bi < 0)) {
				q--
			}
			return q, nil
		}
	}
	af, aok := value.GetFloat64(args[0])
	bf, bok := value.GetFloat64(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("prim: floordiv of non-numeric values %T, %T", args[0], args[1])
	}
	if bf == 0 {
		return nil, fmt.Errorf("prim: division by zero")
	}
	return math.Floor(af / bf), nil
}

func implMod(_ context.Context, _ Caller, args []any) (any, error) {
	a, aok := value.GetInt64(args[0])
	b, bok := value.GetInt64(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("prim: mod requires integers, got %T, %T", args[0], args[1])
	}
	if b == 0 {
		return nil, fmt.Errorf("prim: modulo by zero")
	}
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m, nil
}

func implPow(_ context.Context, _ Caller, args []any) (any, error) {
	if ai, aok := value.GetInt64(args[0]); aok {
		if bi, bok := value.GetInt64(args[1]); bok && bi >= 0 {
			out := int64(1)
			for range bi {
				out *= ai
			}
			return out, nil
		}
	}
	af, aok := value.GetFloat64(args[0])
	bf, bok := value.GetFloat64(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("prim: pow of non-numeric values %T, %T", args[0], args[1])
	}
	return math.Pow(af, bf), nil
}

func implPos(_ context.Context, _ Caller, args []any) (any, error) {
	if !value.IsNumeric(args[0]) {
		return nil, fmt.Errorf("prim: pos of non-numeric %T", args[0])
	}
	return args[0], nil
}

func implNeg(_ context.Context, _ Caller, args []any) (any, error) {
	if i, ok := value.GetInt64(args[0]); ok {
		return -i, nil
	}
	if f, ok := value.GetFloat64(args[0]); ok {
		return -f, nil
	}
	return nil, fmt.Errorf("prim: neg of non-numeric %T", args[0])
}

func implInvert(_ context.Context, _ Caller, args []any) (any, error) {
	i, ok := value.GetInt64(args[0])
	if !ok {
		return nil, fmt.Errorf("prim: invert requires an integer, got %T", args[0])
	}
	return ^i, nil
}

func implNot(_ context.Context, _ Caller, args []any) (any, error) {
	b, ok := args[0].(bool)
	if !ok {
		return nil, fmt.Errorf("prim: not_ expects a boolean, got %T", args[0])
	}
	return !b, nil
}

// --- comparison ---

func comparison(name string, accept func(c int) bool) Impl {
	return func(_ context.Context, _ Caller, args []any) (any, error) {
		c, err := value.Order(args[0], args[1])
		if err != nil {
			return nil, fmt.Errorf("prim: %s: %w", name, err)
		}
		return accept(c), nil
	}
}

func implIs(_ context.Context, _ Caller, args []any) (any, error) {
	return sameIdentity(args[0], args[1]), nil
}

func implIsNot(_ context.Context, _ Caller, args []any) (any, error) {
	return !sameIdentity(args[0], args[1]), nil
}

// sameIdentity approximates host identity: nils match, comparable values
// match under ==, everything else is distinct.
func sameIdentity(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func implContains(_ context.Context, _ Caller, args []any) (any, error) {
	needle, hay := args[0], args[1]
	switch h := hay.(type) {
	case immutable.Slice:
		for _, v := range h.Range() {
			if value.Equal(needle, v.Unwrap()) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := needle.(string)
		if !ok {
			return nil, fmt.Errorf("prim: contains on string needs a string, got %T", needle)
		}
		return strings.Contains(h, s), nil
	default:
		return nil, fmt.Errorf("prim: contains of non-sequence %T", hay)
	}
}

// --- structural ---

func implConsTuple(_ context.Context, _ Caller, args []any) (any, error) {
	rest, ok := args[1].(immutable.Slice)
	if !ok {
		return nil, fmt.Errorf("prim: cons_tuple tail must be a tuple, got %T", args[1])
	}
	return rest.Prepend(args[0]), nil
}

func implGetItem(_ context.Context, _ Caller, args []any) (any, error) {
	idx, ok := value.GetInt64(args[1])
	if !ok {
		return nil, fmt.Errorf("prim: getitem index must be an integer, got %T", args[1])
	}
	switch v := args[0].(type) {
	case immutable.Slice:
		el, ok := v.GetOK(int(idx))
		if !ok {
			return nil, fmt.Errorf("prim: getitem index %d out of range for tuple of %d", idx, v.Len())
		}
		return el.Unwrap(), nil
	case string:
		runes := []rune(v)
		if idx < 0 || idx >= int64(len(runes)) {
			return nil, fmt.Errorf("prim: getitem index %d out of range for string of %d", idx, len(runes))
		}
		return string(runes[idx]), nil
	default:
		return nil, fmt.Errorf("prim: getitem of non-indexable %T", args[0])
	}
}

func implGetAttr(_ context.Context, _ Caller, args []any) (any, error) {
	name, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("prim: getattr name must be a string, got %T", args[1])
	}
	switch v := args[0].(type) {
	case *Array:
		switch name {
		case "shape":
			return shapeTuple(v.shape), nil
		case "size":
			return int64(len(v.data)), nil
		}
		return nil, fmt.Errorf("prim: array has no attribute %q", name)
	case map[string]any:
		attr, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("prim: no attribute %q", name)
		}
		return attr, nil
	default:
		return nil, fmt.Errorf("prim: getattr of %T", args[0])
	}
}
