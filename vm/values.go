package vm

import (
	"context"

	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/internal/value"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/prim"
)

// Closure pairs a graph with a snapshot of its free-variable bindings.
type Closure struct {
	graph  *ir.Graph
	values map[ir.Node]any
}

// Graph returns the closed-over graph.
func (c *Closure) Graph() *ir.Graph { return c.graph }

// Binding returns the captured value for a free-variable node.
func (c *Closure) Binding(n ir.Node) (any, bool) {
	v, ok := c.values[n]
	return v, ok
}

// Partial pairs a graph with a prefix argument tuple. Invoking a partial
// prepends the captured arguments.
type Partial struct {
	graph *ir.Graph
	args  []any
}

// Graph returns the partially-applied graph.
func (p *Partial) Graph() *ir.Graph { return p.graph }

// Args returns a copy of the captured argument prefix.
func (p *Partial) Args() []any {
	return append([]any(nil), p.args...)
}

// Callable is an exported function value: graphs, closures, partials,
// and primitives export to Callables bound to the VM that produced them.
type Callable func(ctx context.Context, args ...any) (any, error)

// truthy evaluates a runtime value as an if_ condition: nil, false,
// numeric zero, the empty string, and the empty tuple are false;
// everything else is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case immutable.Slice:
		return val.Len() > 0
	default:
		if f, ok := value.GetFloat64(v); ok {
			return f != 0
		}
		return true
	}
}

// convertValue normalizes caller-provided values into the VM's runtime
// representation: []any becomes an immutable tuple and numeric literals
// widen to int64/float64.
func convertValue(v any) any {
	switch n := v.(type) {
	case []any:
		converted := make([]any, len(n))
		for i, el := range n {
			converted[i] = convertValue(el)
		}
		return immutable.WrapSlice(converted)
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// export converts a VM value into its caller-facing form: sequences
// element-wise, graphs and closures and partials into Callables, and
// primitives into their host implementations.
func (m *VM) export(v any) any {
	switch val := v.(type) {
	case immutable.Slice:
		return immutable.WrapSlice(val.Export(m.export))
	case *ir.Graph:
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			return m.Evaluate(ctx, val, args)
		})
	case *Closure:
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			return m.evaluateWithClosure(ctx, val.graph, args, val.values, true)
		})
	case *Partial:
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			return m.Evaluate(ctx, val.graph, append(val.Args(), args...))
		})
	case prim.Primitive:
		impl, ok := m.cfg.registry.Lookup(val)
		if !ok {
			return v
		}
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			converted := make([]any, len(args))
			for i, a := range args {
				converted[i] = convertValue(a)
			}
			return impl(ctx, m, converted)
		})
	default:
		return v
	}
}
