package parser

import (
	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/prim"
)

func (p *Parser) processExpr(b *block, e ast.Expr) (ir.Node, error) {
	switch expr := e.(type) {
	case *ast.Name:
		return b.read(expr.ID, expr.Span())

	case *ast.Literal:
		c := ir.NewConstant(normalizeLiteral(expr.Val))
		c.Debug().Span = expr.Span()
		return c, nil

	case *ast.BinOp:
		return p.processBinOp(b, expr)

	case *ast.UnaryOp:
		return p.processUnaryOp(b, expr)

	case *ast.Compare:
		return p.processCompare(b, expr)

	case *ast.Call:
		return p.processCall(b, expr)

	case *ast.TupleExpr:
		return p.processTuple(b, expr)

	case *ast.Subscript:
		return p.processSubscript(b, expr)

	case *ast.Attribute:
		return p.processAttribute(b, expr)

	default:
		return nil, errNotSupported("expression", e.Span())
	}
}

// normalizeLiteral widens host literal types so that constants compare
// predictably: integers become int64, floats become float64.
func normalizeLiteral(v any) any {
	switch n := v.(type) {
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

func (p *Parser) processBinOp(b *block, expr *ast.BinOp) (ir.Node, error) {
	fn := b.makeResolve(prim.OperatorNamespace(), expr.Op.String())
	left, err := p.processExpr(b, expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := p.processExpr(b, expr.Right)
	if err != nil {
		return nil, err
	}
	apply := b.graph.Apply(fn, left, right)
	apply.Debug().Span = expr.Span()
	return apply, nil
}

func (p *Parser) processUnaryOp(b *block, expr *ast.UnaryOp) (ir.Node, error) {
	fn := b.makeResolve(prim.OperatorNamespace(), expr.Op.String())
	operand, err := p.processExpr(b, expr.Operand)
	if err != nil {
		return nil, err
	}
	apply := b.graph.Apply(fn, operand)
	apply.Debug().Span = expr.Span()
	return apply, nil
}

func (p *Parser) processCompare(b *block, expr *ast.Compare) (ir.Node, error) {
	if len(expr.Ops) != 1 || len(expr.Comparators) != 1 {
		return nil, errMultipleComparators(expr.Span())
	}
	fn := b.makeResolve(prim.OperatorNamespace(), expr.Ops[0].String())
	left, err := p.processExpr(b, expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := p.processExpr(b, expr.Comparators[0])
	if err != nil {
		return nil, err
	}
	apply := b.graph.Apply(fn, left, right)
	apply.Debug().Span = expr.Span()
	return apply, nil
}

func (p *Parser) processCall(b *block, expr *ast.Call) (ir.Node, error) {
	fn, err := p.processExpr(b, expr.Func)
	if err != nil {
		return nil, err
	}
	inputs := make([]ir.Node, 0, len(expr.Args)+1)
	inputs = append(inputs, fn)
	for _, arg := range expr.Args {
		node, err := p.processExpr(b, arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, node)
	}
	apply := b.graph.Apply(inputs...)
	apply.Debug().Span = expr.Span()
	return apply, nil
}

// processTuple right-folds tuple literals into cons_tuple applications
// terminated by the empty-tuple constant.
func (p *Parser) processTuple(b *block, expr *ast.TupleExpr) (ir.Node, error) {
	elems := make([]ir.Node, len(expr.Elems))
	for i, e := range expr.Elems {
		node, err := p.processExpr(b, e)
		if err != nil {
			return nil, err
		}
		elems[i] = node
	}

	var cons func(rest []ir.Node) ir.Node
	cons = func(rest []ir.Node) ir.Node {
		if len(rest) == 0 {
			return ir.NewConstant(immutable.Slice{})
		}
		apply := b.graph.Apply(ir.NewConstant(prim.ConsTuple), rest[0], cons(rest[1:]))
		apply.Debug().Span = expr.Span()
		return apply
	}
	return cons(elems), nil
}

func (p *Parser) processSubscript(b *block, expr *ast.Subscript) (ir.Node, error) {
	op := b.makeResolve(prim.OperatorNamespace(), "getitem")
	v, err := p.processExpr(b, expr.Value)
	if err != nil {
		return nil, err
	}
	idx, err := p.processExpr(b, expr.Index)
	if err != nil {
		return nil, err
	}
	apply := b.graph.Apply(op, v, idx)
	apply.Debug().Span = expr.Span()
	return apply, nil
}

func (p *Parser) processAttribute(b *block, expr *ast.Attribute) (ir.Node, error) {
	op := b.makeResolve(prim.BuiltinsNamespace(), "getattr")
	v, err := p.processExpr(b, expr.Value)
	if err != nil {
		return nil, err
	}
	apply := b.graph.Apply(op, v, ir.NewConstant(expr.Attr))
	apply.Debug().Span = expr.Span()
	return apply, nil
}
