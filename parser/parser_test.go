package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/namespace"
	"github.com/simon-lentz/anf/prim"
)

func name(id string) *ast.Name { return &ast.Name{ID: id} }

func lit(v any) *ast.Literal { return &ast.Literal{Val: v} }

func binop(op ast.OpKind, l, r ast.Expr) *ast.BinOp {
	return &ast.BinOp{Op: op, Left: l, Right: r}
}

func compare(op ast.OpKind, l, r ast.Expr) *ast.Compare {
	return &ast.Compare{Ops: []ast.OpKind{op}, Left: l, Comparators: []ast.Expr{r}}
}

func assign(target string, v ast.Expr) *ast.Assign {
	return &ast.Assign{Target: &ast.NameTarget{Name: target}, Value: v}
}

func ret(v ast.Expr) *ast.Return { return &ast.Return{Value: v} }

// addFunc is `def f(x, y): return x + y`.
func addFunc() *ast.FuncDef {
	return &ast.FuncDef{
		Name:   "f",
		Params: []ast.Param{{Name: "x"}, {Name: "y"}},
		Body:   []ast.Stmt{ret(binop(ast.OpAdd, name("x"), name("y")))},
	}
}

// absFunc is `def f(x): if x > 0: return x else: return -x`.
func absFunc() *ast.FuncDef {
	return &ast.FuncDef{
		Name:   "f",
		Params: []ast.Param{{Name: "x"}},
		Body: []ast.Stmt{
			&ast.If{
				Cond: compare(ast.OpGt, name("x"), lit(int64(0))),
				Then: []ast.Stmt{ret(name("x"))},
				Else: []ast.Stmt{ret(&ast.UnaryOp{Op: ast.OpNeg, Operand: name("x")})},
			},
		},
	}
}

// sumFunc is `def f(n): s = 0; i = 0; while i < n: s = s + i; i = i + 1; return s`.
func sumFunc() *ast.FuncDef {
	return &ast.FuncDef{
		Name:   "f",
		Params: []ast.Param{{Name: "n"}},
		Body: []ast.Stmt{
			assign("s", lit(int64(0))),
			assign("i", lit(int64(0))),
			&ast.While{
				Cond: compare(ast.OpLt, name("i"), name("n")),
				Body: []ast.Stmt{
					assign("s", binop(ast.OpAdd, name("s"), name("i"))),
					assign("i", binop(ast.OpAdd, name("i"), lit(int64(1)))),
				},
			},
			ret(name("s")),
		},
	}
}

func TestParse_StraightLine(t *testing.T) {
	t.Cleanup(ResetCache)

	g, err := Parse(addFunc())
	require.NoError(t, err)
	require.Len(t, g.Parameters(), 2)

	// return_(add-apply)
	retApply := g.Return()
	require.NotNil(t, retApply)
	require.Len(t, retApply.Inputs(), 2)
	callee, ok := retApply.Inputs()[0].(*ir.Constant)
	require.True(t, ok)
	assert.Equal(t, prim.Return, callee.Value())

	// The value is an apply of a resolve(operator, "add") subtree.
	sum, ok := retApply.Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	require.Len(t, sum.Inputs(), 3)

	resolve, ok := sum.Inputs()[0].(*ir.Apply)
	require.True(t, ok)
	require.Len(t, resolve.Inputs(), 3)
	resolveTag, ok := resolve.Inputs()[0].(*ir.Constant)
	require.True(t, ok)
	assert.Equal(t, prim.Resolve, resolveTag.Value())

	ns, ok := resolve.Inputs()[1].(*ir.Constant)
	require.True(t, ok)
	assert.Same(t, prim.OperatorNamespace(), ns.Value())
	sym, ok := resolve.Inputs()[2].(*ir.Constant)
	require.True(t, ok)
	assert.Equal(t, "add", sym.Value())

	// The operands are the graph's parameters in order.
	assert.Same(t, ir.Node(g.Parameters()[0]), sum.Inputs()[1])
	assert.Same(t, ir.Node(g.Parameters()[1]), sum.Inputs()[2])
}

func TestParse_Memoized(t *testing.T) {
	t.Cleanup(ResetCache)

	fd := addFunc()
	g1, err := Parse(fd)
	require.NoError(t, err)
	g2, err := Parse(fd)
	require.NoError(t, err)
	assert.Same(t, g1, g2, "parse must return the same graph identity")
}

func TestParse_IsomorphicAcrossDescriptors(t *testing.T) {
	t.Cleanup(ResetCache)

	g1, err := Parse(addFunc())
	require.NoError(t, err)
	g2, err := Parse(addFunc())
	require.NoError(t, err)

	assert.NotSame(t, g1, g2)
	assert.True(t, ir.Isomorphic(g1, g2))
	assert.True(t, ir.Isomorphic(g2, g1))
}

func TestParse_Branch(t *testing.T) {
	t.Cleanup(ResetCache)

	g, err := Parse(absFunc())
	require.NoError(t, err)

	// Entry returns return_(if_(cond, true_gfn, false_gfn)).
	retApply := g.Return()
	require.NotNil(t, retApply)
	ifApply, ok := retApply.Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	require.Len(t, ifApply.Inputs(), 4)
	ifTag, ok := ifApply.Inputs()[0].(*ir.Constant)
	require.True(t, ok)
	assert.Equal(t, prim.If, ifTag.Value())

	trueGraph := ir.ConstantGraph(ifApply.Inputs()[2])
	falseGraph := ir.ConstantGraph(ifApply.Inputs()[3])
	require.NotNil(t, trueGraph)
	require.NotNil(t, falseGraph)

	// Both branches returned, so neither jumps to the continuation and
	// the reachable set is exactly the three subgraphs.
	m := ir.NewManager()
	m.Add(g)
	assert.Len(t, m.Graphs(), 3)

	// The true branch returns the parameter read through the entry graph
	// (a free variable), not a jump.
	trueRet := trueGraph.Return()
	require.NotNil(t, trueRet)
	assert.Same(t, ir.Node(g.Parameters()[0]), trueRet.Inputs()[1])
}

func TestParse_Loop_PhiOrdering(t *testing.T) {
	t.Cleanup(ResetCache)

	g, err := Parse(sumFunc())
	require.NoError(t, err)

	// Entry tail-calls the loop header.
	retApply := g.Return()
	jump, ok := retApply.Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	header := ir.ConstantGraph(jump.Inputs()[0])
	require.NotNil(t, header)

	// Header phis appear in first-read order within the header: the
	// condition reads i then n, and the body's read of s adds the third.
	params := header.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, "i", params[0].Debug().Name)
	assert.Equal(t, "n", params[1].Debug().Name)
	assert.Equal(t, "s", params[2].Debug().Name)

	// The entry jump supplies one argument per header parameter, in
	// parameter order.
	require.Len(t, jump.Inputs(), 1+len(params))

	// Find the body graph: header returns if_(cond, body, after).
	headerIf, ok := header.Return().Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	body := ir.ConstantGraph(headerIf.Inputs()[2])
	require.NotNil(t, body)

	// The body's terminal jump back to the header supplies the same
	// number of arguments, in the same order.
	bodyJump, ok := body.Return().Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	assert.Same(t, header, ir.ConstantGraph(bodyJump.Inputs()[0]))
	require.Len(t, bodyJump.Inputs(), 1+len(params))
}

func TestParse_NestedFunction(t *testing.T) {
	t.Cleanup(ResetCache)

	// def outer(x): def inner(y): return x + y; return inner
	fd := &ast.FuncDef{
		Name:   "outer",
		Params: []ast.Param{{Name: "x"}},
		Body: []ast.Stmt{
			&ast.FuncDef{
				Name:   "inner",
				Params: []ast.Param{{Name: "y"}},
				Body:   []ast.Stmt{ret(binop(ast.OpAdd, name("x"), name("y")))},
			},
			ret(name("inner")),
		},
	}

	g, err := Parse(fd)
	require.NoError(t, err)

	inner := ir.ConstantGraph(g.Return().Inputs()[1])
	require.NotNil(t, inner, "outer must return the inner graph constant")

	// x flows into inner as a free variable.
	m := ir.NewManager()
	m.Add(g)
	fvs := m.FreeVariablesTotal(inner)
	require.Len(t, fvs, 1)
	assert.Same(t, ir.Node(g.Parameters()[0]), fvs[0])
}

func TestParse_MultipleComparators(t *testing.T) {
	t.Cleanup(ResetCache)

	fd := &ast.FuncDef{
		Name:   "f",
		Params: []ast.Param{{Name: "x"}},
		Body: []ast.Stmt{
			ret(&ast.Compare{
				Ops:         []ast.OpKind{ast.OpLt, ast.OpLt},
				Left:        lit(int64(0)),
				Comparators: []ast.Expr{name("x"), lit(int64(10))},
			}),
		},
	}

	_, err := Parse(fd)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, diag.E_MULTIPLE_COMPARATORS, perr.Code)
}

func TestParse_UnresolvedName(t *testing.T) {
	t.Cleanup(ResetCache)

	fd := &ast.FuncDef{
		Name: "f",
		Body: []ast.Stmt{ret(name("missing"))},
	}

	_, err := Parse(fd)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, diag.E_UNRESOLVED_NAME, perr.Code)
}

func TestParse_ModuleNamespaceResolution(t *testing.T) {
	t.Cleanup(ResetCache)

	ns := namespace.NewModuleNamespace("testmod", map[string]any{"answer": int64(42)})
	fd := &ast.FuncDef{
		Name: "f",
		Body: []ast.Stmt{ret(name("answer"))},
	}

	g, err := Parse(fd, WithModuleNamespace(ns))
	require.NoError(t, err)

	// The read lowers to resolve(testmod-namespace, "answer").
	resolve, ok := g.Return().Inputs()[1].(*ir.Apply)
	require.True(t, ok)
	tag, ok := resolve.Inputs()[0].(*ir.Constant)
	require.True(t, ok)
	assert.Equal(t, prim.Resolve, tag.Value())
	nsConst, ok := resolve.Inputs()[1].(*ir.Constant)
	require.True(t, ok)
	assert.Same(t, namespace.Namespace(ns), nsConst.Value())
}

func TestParse_ReturnAlreadySet(t *testing.T) {
	t.Cleanup(ResetCache)

	fd := &ast.FuncDef{
		Name: "f",
		Body: []ast.Stmt{ret(lit(int64(1))), ret(lit(int64(2)))},
	}

	_, err := Parse(fd)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, diag.E_RETURN_ALREADY_SET, perr.Code)
}

func TestParse_ExprStmtIgnored(t *testing.T) {
	t.Cleanup(ResetCache)

	fd := &ast.FuncDef{
		Name:   "f",
		Params: []ast.Param{{Name: "x"}},
		Body: []ast.Stmt{
			&ast.ExprStmt{X: binop(ast.OpAdd, name("x"), lit(int64(1)))},
			ret(name("x")),
		},
	}

	g, err := Parse(fd)
	require.NoError(t, err)
	assert.Same(t, ir.Node(g.Parameters()[0]), g.Return().Inputs()[1])
}

func TestParse_NodesBelongToTheirGraphs(t *testing.T) {
	t.Cleanup(ResetCache)

	g, err := Parse(absFunc())
	require.NoError(t, err)

	m := ir.NewManager()
	m.Add(g)
	for _, h := range m.Graphs() {
		var check func(n ir.Node)
		seen := map[ir.Node]bool{}
		check = func(n ir.Node) {
			if seen[n] {
				return
			}
			seen[n] = true
			if og := n.OwningGraph(); og != nil && og != h {
				// Cross-graph nodes must be free variables of h.
				found := false
				for _, fv := range m.FreeVariablesTotal(h) {
					if fv == n {
						found = true
					}
				}
				assert.True(t, found, "node %s of foreign graph is not a free variable", n.Debug().Label())
				return
			}
			for _, in := range n.Inputs() {
				check(in)
			}
		}
		if h.Return() != nil {
			check(h.Return())
		}
	}
}

func TestResetCache(t *testing.T) {
	fd := addFunc()
	g1, err := Parse(fd)
	require.NoError(t, err)
	ResetCache()
	g2, err := Parse(fd)
	require.NoError(t, err)
	assert.NotSame(t, g1, g2)
}
