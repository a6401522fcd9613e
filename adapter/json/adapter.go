// Package json decodes function descriptors from JSON documents.
//
// A descriptor is a tagged tree: every node is an object with a "node"
// tag naming the AST variant, e.g.
//
//	{
//	  "node": "funcdef",
//	  "name": "f",
//	  "params": ["x", "y"],
//	  "body": [
//	    {"node": "return", "value": {
//	      "node": "binop", "op": "add",
//	      "left": {"node": "name", "id": "x"},
//	      "right": {"node": "name", "id": "y"}
//	    }}
//	  ]
//	}
//
// Input is preprocessed with tidwall/jsonc by default, so descriptors
// may carry comments and trailing commas; WithStrictJSON disables the
// preprocessing. Optional "line"/"col" fields on any node become
// location spans on the decoded AST.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/location"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithStrictJSON disables jsonc preprocessing; input must be plain JSON.
func WithStrictJSON(strict bool) Option {
	return func(a *Adapter) { a.strictJSON = strict }
}

// Adapter decodes descriptors. The zero configuration accepts JSONC.
type Adapter struct {
	strictJSON bool
}

// NewAdapter creates an adapter.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Decode parses a descriptor document into a function definition.
//
// The diag result carries decode issues; a nil FuncDef with a non-error
// result never occurs. The error return is used only for an empty or
// invalid source name: all malformed-input conditions surface as issues,
// not errors.
func (a *Adapter) Decode(data []byte, sourceName string) (*ast.FuncDef, diag.Result, error) {
	source, err := location.NewSourceID(sourceName)
	if err != nil {
		return nil, diag.OK(), err
	}

	processed := data
	if !a.strictJSON {
		processed = jsonc.ToJSON(data)
	}

	dec := json.NewDecoder(bytes.NewReader(processed))
	dec.UseNumber()

	var raw rawNode
	if err := dec.Decode(&raw); err != nil {
		issue := diag.NewIssue(diag.Error, diag.E_MALFORMED_DESCRIPTOR,
			fmt.Sprintf("invalid JSON: %v", err)).Build()
		return nil, diag.ResultOf(issue), nil
	}

	d := &decoder{source: source}
	fd, derr := d.funcDef(&raw)
	if derr != nil {
		return nil, diag.ResultOf(derr.issue()), nil
	}
	return fd, diag.OK(), nil
}

// rawNode is the wire form of one descriptor node.
type rawNode struct {
	Node string `json:"node"`
	Line int    `json:"line"`
	Col  int    `json:"col"`

	// funcdef
	Name   string    `json:"name"`
	Params []string  `json:"params"`
	Body   []rawNode `json:"body"`

	// assign / return / exprstmt
	Target *rawNode `json:"target"`
	Value  *rawNode `json:"value"`

	// if / while
	Cond *rawNode  `json:"cond"`
	Then []rawNode `json:"then"`
	Else []rawNode `json:"else"`

	// expressions
	ID          string      `json:"id"`
	Op          string      `json:"op"`
	Left        *rawNode    `json:"left"`
	Right       *rawNode    `json:"right"`
	Operand     *rawNode    `json:"operand"`
	Comparators []rawNode   `json:"comparators"`
	Ops         []string    `json:"ops"`
	Func        *rawNode    `json:"func"`
	Args        []rawNode   `json:"args"`
	Elems       []rawNode   `json:"elems"`
	Index       *rawNode  `json:"index"`
	Attr        string    `json:"attr"`
	Lit         any       `json:"lit"`
	Targets     []rawNode `json:"targets"`
	X           *rawNode  `json:"x"`
}
