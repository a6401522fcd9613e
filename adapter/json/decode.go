package json

import (
	"encoding/json"
	"fmt"

	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/location"
)

// decodeError is a positioned decode failure.
type decodeError struct {
	code diag.Code
	msg  string
	span location.Span
}

func (e *decodeError) issue() diag.Issue {
	return diag.NewIssue(diag.Error, e.code, e.msg).WithSpan(e.span).Build()
}

type decoder struct {
	source location.SourceID
}

func (d *decoder) span(raw *rawNode) location.Span {
	if raw.Line == 0 {
		return location.Span{}
	}
	return location.Point(d.source, raw.Line, raw.Col)
}

func (d *decoder) pos(raw *rawNode) ast.Pos {
	return ast.Pos{Loc: d.span(raw)}
}

func (d *decoder) fail(raw *rawNode, code diag.Code, format string, args ...any) *decodeError {
	return &decodeError{code: code, msg: fmt.Sprintf(format, args...), span: d.span(raw)}
}

func (d *decoder) funcDef(raw *rawNode) (*ast.FuncDef, *decodeError) {
	if raw.Node != "funcdef" {
		return nil, d.fail(raw, diag.E_UNKNOWN_NODE_TAG, "expected funcdef at root, got %q", raw.Node)
	}
	if raw.Name == "" {
		return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "funcdef requires a name")
	}
	params := make([]ast.Param, len(raw.Params))
	for i, name := range raw.Params {
		params[i] = ast.Param{Pos: d.pos(raw), Name: name}
	}
	body, err := d.stmts(raw.Body)
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Pos: d.pos(raw), Name: raw.Name, Params: params, Body: body}, nil
}

func (d *decoder) stmts(raws []rawNode) ([]ast.Stmt, *decodeError) {
	out := make([]ast.Stmt, len(raws))
	for i := range raws {
		s, err := d.stmt(&raws[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (d *decoder) stmt(raw *rawNode) (ast.Stmt, *decodeError) {
	switch raw.Node {
	case "funcdef":
		return d.funcDef(raw)

	case "assign":
		if raw.Target == nil || raw.Value == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "assign requires target and value")
		}
		target, err := d.target(raw.Target)
		if err != nil {
			return nil, err
		}
		val, err := d.expr(raw.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Pos: d.pos(raw), Target: target, Value: val}, nil

	case "return":
		if raw.Value == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "return requires a value")
		}
		val, err := d.expr(raw.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Pos: d.pos(raw), Value: val}, nil

	case "if":
		if raw.Cond == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "if requires a condition")
		}
		cond, err := d.expr(raw.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.stmts(raw.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.stmts(raw.Else)
		if err != nil {
			return nil, err
		}
		return &ast.If{Pos: d.pos(raw), Cond: cond, Then: then, Else: els}, nil

	case "while":
		if raw.Cond == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "while requires a condition")
		}
		cond, err := d.expr(raw.Cond)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(raw.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Pos: d.pos(raw), Cond: cond, Body: body}, nil

	case "exprstmt":
		if raw.X == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "exprstmt requires x")
		}
		x, err := d.expr(raw.X)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Pos: d.pos(raw), X: x}, nil

	default:
		return nil, d.fail(raw, diag.E_UNKNOWN_NODE_TAG, "unknown statement tag %q", raw.Node)
	}
}

func (d *decoder) target(raw *rawNode) (ast.Target, *decodeError) {
	switch raw.Node {
	case "name":
		if raw.ID == "" {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "name target requires id")
		}
		return &ast.NameTarget{Pos: d.pos(raw), Name: raw.ID}, nil
	case "tuple":
		elems := make([]ast.Target, len(raw.Elems))
		for i := range raw.Elems {
			t, err := d.target(&raw.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &ast.TupleTarget{Pos: d.pos(raw), Elems: elems}, nil
	default:
		return nil, d.fail(raw, diag.E_UNKNOWN_NODE_TAG, "unknown target tag %q", raw.Node)
	}
}

func (d *decoder) expr(raw *rawNode) (ast.Expr, *decodeError) {
	switch raw.Node {
	case "name":
		if raw.ID == "" {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "name requires id")
		}
		return &ast.Name{Pos: d.pos(raw), ID: raw.ID}, nil

	case "lit":
		val, err := d.literal(raw)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Pos: d.pos(raw), Val: val}, nil

	case "tuple":
		elems := make([]ast.Expr, len(raw.Elems))
		for i := range raw.Elems {
			e, err := d.expr(&raw.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &ast.TupleExpr{Pos: d.pos(raw), Elems: elems}, nil

	case "binop":
		op, ok := ast.OpKindOf(raw.Op)
		if !ok {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "unknown operator %q", raw.Op)
		}
		if raw.Left == nil || raw.Right == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "binop requires left and right")
		}
		left, err := d.expr(raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(raw.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Pos: d.pos(raw), Op: op, Left: left, Right: right}, nil

	case "unaryop":
		op, ok := ast.OpKindOf(raw.Op)
		if !ok {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "unknown operator %q", raw.Op)
		}
		if raw.Operand == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "unaryop requires operand")
		}
		operand, err := d.expr(raw.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Pos: d.pos(raw), Op: op, Operand: operand}, nil

	case "compare":
		if raw.Left == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "compare requires left")
		}
		left, err := d.expr(raw.Left)
		if err != nil {
			return nil, err
		}
		ops := make([]ast.OpKind, len(raw.Ops))
		for i, name := range raw.Ops {
			op, ok := ast.OpKindOf(name)
			if !ok {
				return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "unknown operator %q", name)
			}
			ops[i] = op
		}
		comparators := make([]ast.Expr, len(raw.Comparators))
		for i := range raw.Comparators {
			c, err := d.expr(&raw.Comparators[i])
			if err != nil {
				return nil, err
			}
			comparators[i] = c
		}
		return &ast.Compare{Pos: d.pos(raw), Ops: ops, Left: left, Comparators: comparators}, nil

	case "call":
		if raw.Func == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "call requires func")
		}
		fn, err := d.expr(raw.Func)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Expr, len(raw.Args))
		for i := range raw.Args {
			a, err := d.expr(&raw.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &ast.Call{Pos: d.pos(raw), Func: fn, Args: args}, nil

	case "subscript":
		if raw.Value == nil || raw.Index == nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "subscript requires value and index")
		}
		val, err := d.expr(raw.Value)
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(raw.Index)
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{Pos: d.pos(raw), Value: val, Index: idx}, nil

	case "attribute":
		if raw.Value == nil || raw.Attr == "" {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "attribute requires value and attr")
		}
		val, err := d.expr(raw.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Attribute{Pos: d.pos(raw), Value: val, Attr: raw.Attr}, nil

	default:
		return nil, d.fail(raw, diag.E_UNKNOWN_NODE_TAG, "unknown expression tag %q", raw.Node)
	}
}

// literal converts a decoded "lit" payload: json.Number splits into
// int64 or float64, strings, booleans, and null pass through.
func (d *decoder) literal(raw *rawNode) (any, *decodeError) {
	switch v := raw.Lit.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "invalid number literal %q", v.String())
		}
		return f, nil
	case float64:
		// Reached when the payload bypassed UseNumber (nested decode).
		if v == float64(int64(v)) {
			return int64(v), nil
		}
		return v, nil
	default:
		return nil, d.fail(raw, diag.E_MALFORMED_DESCRIPTOR, "unsupported literal of type %T", v)
	}
}
