package prim

import "github.com/simon-lentz/anf/namespace"

// operatorSymbols is the operator-module table the parser resolves
// surface operators through. Each symbol maps to its primitive tag; the
// VM calls primitives directly as callees.
var operatorSymbols = map[string]any{
	"add":      Add,
	"sub":      Sub,
	"mul":      Mul,
	"truediv":  TrueDiv,
	"floordiv": FloorDiv,
	"mod":      Mod,
	"pow":      Pow,
	"matmul":   MatMul,
	"lshift":   LShift,
	"rshift":   RShift,
	"and_":     BitAnd,
	"or_":      BitOr,
	"xor":      BitXor,
	"pos":      Pos,
	"neg":      Neg,
	"invert":   Invert,
	"not_":     Not,
	"eq":       Eq,
	"ne":       Ne,
	"lt":       Lt,
	"gt":       Gt,
	"le":       Le,
	"ge":       Ge,
	"is_":      Is,
	"is_not":   IsNot,
	"contains": Contains,
	"getitem":  GetItem,
}

var builtinSymbols = map[string]any{
	"getattr": GetAttr,
}

var (
	operatorNS = namespace.NewModuleNamespace("operator", operatorSymbols)
	builtinsNS = namespace.NewModuleNamespace("builtins", builtinSymbols)
)

// OperatorNamespace returns the shared operator-module namespace.
func OperatorNamespace() *namespace.ModuleNamespace { return operatorNS }

// BuiltinsNamespace returns the shared builtins namespace.
func BuiltinsNamespace() *namespace.ModuleNamespace { return builtinsNS }
