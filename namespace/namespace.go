// Package namespace provides abstract name resolution for module globals
// and lexical closures.
//
// The parser embeds a Namespace as a constant in every `resolve`
// application it emits for a non-local name; the VM's resolve primitive
// performs the lookup at run time. Namespaces carry a stable Key so that
// embedding them in constants stays cache-correct.
package namespace

import "fmt"

// Namespace resolves names to values.
type Namespace interface {
	// Contains reports whether the namespace binds name.
	Contains(name string) bool

	// Lookup returns the value bound to name, or an error when absent.
	Lookup(name string) (any, error)

	// Key returns a stable identity string for caches and diagnostics.
	Key() string
}

// ModuleNamespace resolves a module's global names from a registered
// symbol table.
type ModuleNamespace struct {
	module  string
	symbols map[string]any
}

// NewModuleNamespace creates a namespace over the given symbol table.
// The table is retained, not copied; callers populate it before parsing
// and must not mutate it concurrently with evaluation.
func NewModuleNamespace(module string, symbols map[string]any) *ModuleNamespace {
	return &ModuleNamespace{module: module, symbols: symbols}
}

// Module returns the module identifier.
func (n *ModuleNamespace) Module() string { return n.module }

// Contains implements Namespace.
func (n *ModuleNamespace) Contains(name string) bool {
	_, ok := n.symbols[name]
	return ok
}

// Lookup implements Namespace.
func (n *ModuleNamespace) Lookup(name string) (any, error) {
	v, ok := n.symbols[name]
	if !ok {
		return nil, fmt.Errorf("namespace: %s has no symbol %q", n.Key(), name)
	}
	return v, nil
}

// Key implements Namespace.
func (n *ModuleNamespace) Key() string {
	return "module:" + n.module
}

// ClosureNamespace resolves a function's nonlocal names from the frames
// captured by its descriptor.
type ClosureNamespace struct {
	function string
	captured map[string]any
}

// NewClosureNamespace creates a namespace over a function's captured
// bindings.
func NewClosureNamespace(function string, captured map[string]any) *ClosureNamespace {
	return &ClosureNamespace{function: function, captured: captured}
}

// Contains implements Namespace.
func (n *ClosureNamespace) Contains(name string) bool {
	_, ok := n.captured[name]
	return ok
}

// Lookup implements Namespace.
func (n *ClosureNamespace) Lookup(name string) (any, error) {
	v, ok := n.captured[name]
	if !ok {
		return nil, fmt.Errorf("namespace: %s captures no %q", n.Key(), name)
	}
	return v, nil
}

// Key implements Namespace.
func (n *ClosureNamespace) Key() string {
	return "closure:" + n.function
}
