package vm

import (
	"fmt"

	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/ir"
)

// WrongArityError reports an argument vector whose length does not match
// the graph's parameter list.
type WrongArityError struct {
	Graph *ir.Graph
	Want  int
	Got   int
}

// Error implements error.
func (e *WrongArityError) Error() string {
	return fmt.Sprintf("vm: %s: call with wrong number of arguments: want %d, got %d",
		diag.E_WRONG_ARITY, e.Want, e.Got)
}

// Code returns the stable diagnostic code.
func (e *WrongArityError) Code() diag.Code { return diag.E_WRONG_ARITY }

// UnknownNodeError reports a frame lookup for a node with no binding.
type UnknownNodeError struct {
	Node ir.Node
}

// Error implements error.
func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("vm: %s: no value for node %s", diag.E_UNKNOWN_NODE, e.Node.Debug().Label())
}

// Code returns the stable diagnostic code.
func (e *UnknownNodeError) Code() diag.Code { return diag.E_UNKNOWN_NODE }

// UncallableError reports a callee value the VM cannot apply.
type UncallableError struct {
	Value any
}

// Error implements error.
func (e *UncallableError) Error() string {
	return fmt.Sprintf("vm: %s: cannot call value of type %T", diag.E_UNCALLABLE, e.Value)
}

// Code returns the stable diagnostic code.
func (e *UncallableError) Code() diag.Code { return diag.E_UNCALLABLE }
