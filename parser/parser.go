// Package parser converts surface function definitions into graph-based
// ANF intermediate representation.
//
// Graph construction follows the way FIRM constructs its SSA graph: basic
// blocks correspond to functions, jumping from one block to another is a
// tail call, and phi nodes become formal parameters whose arguments are
// filled in at the call sites in predecessor blocks. Blocks referenced
// before all their predecessors are known (loop headers, join points)
// allocate phi parameters eagerly and backfill the corresponding call
// arguments when the block matures.
//
// Parsing is memoized by descriptor identity: repeated Parse calls for
// the same *ast.FuncDef return the same graph. Clone the result before
// mutating it.
package parser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/internal/trace"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/namespace"
	"github.com/simon-lentz/anf/prim"
)

var (
	cacheMu    sync.Mutex
	parseCache = map[*ast.FuncDef]*ir.Graph{}
)

// Option configures a parse.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	moduleNS namespace.Namespace
	closure  namespace.Namespace
}

// WithLogger enables debug logging during parsing.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithModuleNamespace sets the namespace used for the function's global
// names. Defaults to an empty module namespace named "main".
func WithModuleNamespace(ns namespace.Namespace) Option {
	return func(cfg *config) { cfg.moduleNS = ns }
}

// WithClosureNamespace sets the namespace used for the function's
// nonlocal names. Defaults to an empty closure namespace.
func WithClosureNamespace(ns namespace.Namespace) Option {
	return func(cfg *config) { cfg.closure = ns }
}

// Parse converts a function descriptor into an ANF graph.
//
// The result is cached by descriptor identity: parsing the same
// descriptor again returns the same graph. Options are consulted only on
// the call that populates the cache.
func Parse(fd *ast.FuncDef, opts ...Option) (*ir.Graph, error) {
	cacheMu.Lock()
	if g, ok := parseCache[fd]; ok {
		cacheMu.Unlock()
		return g, nil
	}
	cacheMu.Unlock()

	p := newParser(fd, opts...)
	g, err := p.parse()
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached, ok := parseCache[fd]; ok {
		// A concurrent parse won; both results are isomorphic, so hand
		// every caller the cached graph for identity stability.
		return cached, nil
	}
	parseCache[fd] = g
	return g, nil
}

// ResetCache clears the process-wide parse cache.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	parseCache = map[*ast.FuncDef]*ir.Graph{}
}

// Parser manages the parsing of a single function descriptor.
//
// References to global names become resolve(moduleNS, name) applications;
// nonlocal names resolve through closureNS the same way.
type Parser struct {
	function *ast.FuncDef
	cfg      config

	// blockMap caches the graph constant standing for each block's
	// function; repeated uses return freshened copies.
	blockMap map[*block]*ir.Constant

	moduleNS  namespace.Namespace
	closureNS namespace.Namespace

	// graph is the top-level graph, set when the root block is created.
	graph *ir.Graph
}

func newParser(fd *ast.FuncDef, opts ...Option) *Parser {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.moduleNS == nil {
		cfg.moduleNS = namespace.NewModuleNamespace("main", nil)
	}
	if cfg.closure == nil {
		cfg.closure = namespace.NewClosureNamespace(fd.Name, nil)
	}
	return &Parser{
		function:  fd,
		cfg:       cfg,
		blockMap:  make(map[*block]*ir.Constant),
		moduleNS:  cfg.moduleNS,
		closureNS: cfg.closure,
	}
}

func (p *Parser) parse() (*ir.Graph, error) {
	op := trace.Begin(context.Background(), p.cfg.logger, "anf.parse",
		slog.String("function", p.function.Name),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	if _, _, retErr = p.processFunction(nil, p.function); retErr != nil {
		return nil, retErr
	}
	return p.graph, nil
}

// blockFunction returns the node representing the function of a block.
// The first request creates and caches the graph constant; later
// requests return freshened copies sharing the graph.
func (p *Parser) blockFunction(b *block) ir.Node {
	if c, ok := p.blockMap[b]; ok {
		return fresh(c)
	}
	c := ir.NewConstant(b.graph)
	p.blockMap[b] = c
	return c
}

// processFunction lowers a function definition and returns its final and
// entry blocks. A nil pred marks the top-level function.
func (p *Parser) processFunction(pred *block, fd *ast.FuncDef) (final, entry *block, err error) {
	fnBlock := newBlock(p)
	if pred != nil {
		fnBlock.preds = append(fnBlock.preds, pred)
	} else {
		c := p.blockFunction(fnBlock)
		p.graph = c.(*ir.Constant).Value().(*ir.Graph)
	}

	if err := fnBlock.mature(); err != nil {
		return nil, nil, err
	}
	fnBlock.graph.Debug().Name = fd.Name
	fnBlock.graph.Debug().Span = fd.Span()

	for _, param := range fd.Params {
		node := fnBlock.graph.AddParameter()
		node.Debug().Name = param.Name
		node.Debug().Span = param.Span()
		fnBlock.write(param.Name, node)
	}
	// Bind the function's own name so recursive references skip the
	// namespaces.
	fnBlock.write(fd.Name, p.blockFunction(fnBlock))

	final, err = p.processStatements(fnBlock, fd.Body)
	if err != nil {
		return nil, nil, err
	}
	return final, fnBlock, nil
}

// processStatements lowers a statement list, threading the current block.
//
// An empty list returns the input block unchanged, so empty branch
// bodies still have a block the continuation can be called from.
func (p *Parser) processStatements(b *block, stmts []ast.Stmt) (*block, error) {
	var err error
	for _, s := range stmts {
		b, err = p.processStmt(b, s)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *Parser) processStmt(b *block, s ast.Stmt) (*block, error) {
	switch stmt := s.(type) {
	case *ast.Assign:
		return p.processAssign(b, stmt)
	case *ast.Return:
		return p.processReturn(b, stmt)
	case *ast.If:
		return p.processIf(b, stmt)
	case *ast.While:
		return p.processWhile(b, stmt)
	case *ast.ExprStmt:
		// Expression statements have no effect on the graph.
		return b, nil
	case *ast.FuncDef:
		return p.processFuncDef(b, stmt)
	default:
		return nil, errNotSupported("statement", s.Span())
	}
}

// processFuncDef lowers a nested function definition and binds its name
// in the enclosing block.
func (p *Parser) processFuncDef(b *block, fd *ast.FuncDef) (*block, error) {
	_, entry, err := p.processFunction(b, fd)
	if err != nil {
		return nil, err
	}
	b.write(fd.Name, p.blockFunction(entry))
	return b, nil
}

func (p *Parser) processReturn(b *block, stmt *ast.Return) (*block, error) {
	v, err := p.processExpr(b, stmt.Value)
	if err != nil {
		return nil, err
	}
	ret := b.graph.Apply(ir.NewConstant(prim.Return), v)
	ret.Debug().Span = stmt.Span()
	if err := b.graph.SetReturn(ret); err != nil {
		return nil, errReturnAlreadySet(stmt.Span())
	}
	return b, nil
}

func (p *Parser) processAssign(b *block, stmt *ast.Assign) (*block, error) {
	rhs, err := p.processExpr(b, stmt.Value)
	if err != nil {
		return nil, err
	}
	if err := p.writeTarget(b, stmt.Target, rhs); err != nil {
		return nil, err
	}
	return b, nil
}

// writeTarget binds a value to a target, projecting tuple elements with
// getitem for destructuring targets.
func (p *Parser) writeTarget(b *block, target ast.Target, rhs ir.Node) error {
	switch t := target.(type) {
	case *ast.NameTarget:
		rhs.Debug().Name = t.Name
		b.write(t.Name, rhs)
		return nil
	case *ast.TupleTarget:
		for i, elem := range t.Elems {
			op := b.makeResolve(prim.OperatorNamespace(), "getitem")
			item := b.graph.Apply(op, rhs, ir.NewConstant(int64(i)))
			item.Debug().Span = elem.Span()
			if err := p.writeTarget(b, elem, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return errNotSupported("assignment target", target.Span())
	}
}

// processIf lowers a conditional. Three blocks are created: the true
// branch, the false branch, and the continuation. A branch that already
// returned emits no jump to the continuation.
func (p *Parser) processIf(b *block, stmt *ast.If) (*block, error) {
	cond, err := p.processExpr(b, stmt.Cond)
	if err != nil {
		return nil, err
	}

	trueBlock := newBlock(p)
	trueBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "if_true"}
	falseBlock := newBlock(p)
	falseBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "if_false"}
	trueBlock.preds = append(trueBlock.preds, b)
	falseBlock.preds = append(falseBlock.preds, b)
	if err := trueBlock.mature(); err != nil {
		return nil, err
	}
	if err := falseBlock.mature(); err != nil {
		return nil, err
	}

	afterBlock := newBlock(p)
	afterBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "if_after"}

	trueEnd, err := p.processStatements(trueBlock, stmt.Then)
	if err != nil {
		return nil, err
	}
	if trueEnd.graph.Return() == nil {
		if err := trueEnd.jump(afterBlock); err != nil {
			return nil, err
		}
	}

	falseEnd, err := p.processStatements(falseBlock, stmt.Else)
	if err != nil {
		return nil, err
	}
	if falseEnd.graph.Return() == nil {
		if err := falseEnd.jump(afterBlock); err != nil {
			return nil, err
		}
	}

	if err := b.cond(cond, trueBlock, falseBlock); err != nil {
		return nil, err
	}
	if err := afterBlock.mature(); err != nil {
		return nil, err
	}
	return afterBlock, nil
}

// processWhile lowers a pre-test loop into header, body, and
// continuation blocks. The body's terminal jump back to the header
// supplies the header's phi arguments; the header matures only after the
// body is processed.
func (p *Parser) processWhile(b *block, stmt *ast.While) (*block, error) {
	headerBlock := newBlock(p)
	headerBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "while_header"}
	bodyBlock := newBlock(p)
	bodyBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "while_body"}
	afterBlock := newBlock(p)
	afterBlock.graph.Debug().About = &ir.About{Origin: b.graph.Debug(), Relation: "while_after"}

	bodyBlock.preds = append(bodyBlock.preds, headerBlock)
	afterBlock.preds = append(afterBlock.preds, headerBlock)
	if err := b.jump(headerBlock); err != nil {
		return nil, err
	}

	cond, err := p.processExpr(headerBlock, stmt.Cond)
	if err != nil {
		return nil, err
	}
	if err := bodyBlock.mature(); err != nil {
		return nil, err
	}
	if err := headerBlock.cond(cond, bodyBlock, afterBlock); err != nil {
		return nil, err
	}

	afterBody, err := p.processStatements(bodyBlock, stmt.Body)
	if err != nil {
		return nil, err
	}
	if afterBody.graph.Return() == nil {
		if err := afterBody.jump(headerBlock); err != nil {
			return nil, err
		}
	}
	if err := headerBlock.mature(); err != nil {
		return nil, err
	}
	if err := afterBlock.mature(); err != nil {
		return nil, err
	}
	return afterBlock, nil
}
