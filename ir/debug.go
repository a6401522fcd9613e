package ir

import "github.com/simon-lentz/anf/location"

// DebugInfo carries human-facing metadata for a node or graph. It never
// affects semantics; two nodes with identical debug info are still
// distinct nodes.
type DebugInfo struct {
	// Name is the variable or function name associated with the entity,
	// when one exists.
	Name string

	// Span is the source location the entity was lowered from.
	Span location.Span

	// About links derived entities (a while header, a phi parameter) to
	// the entity they were derived from.
	About *About
}

// About records the provenance relation of derived debug info.
type About struct {
	// Origin is the debug info of the entity this one derives from.
	Origin *DebugInfo

	// Relation names the derivation (e.g. "if_true", "while_header", "phi").
	Relation string
}

// NewDebugInfo creates debug info with a name.
func NewDebugInfo(name string) *DebugInfo {
	return &DebugInfo{Name: name}
}

// DerivedDebugInfo creates debug info related to origin by relation.
func DerivedDebugInfo(origin *DebugInfo, relation string) *DebugInfo {
	return &DebugInfo{About: &About{Origin: origin, Relation: relation}}
}

// Label renders a best-effort display name: the entity's own name, or its
// origin's label suffixed with the relation, or "<anon>".
func (d *DebugInfo) Label() string {
	if d == nil {
		return "<anon>"
	}
	if d.Name != "" {
		return d.Name
	}
	if d.About != nil {
		return d.About.Origin.Label() + ":" + d.About.Relation
	}
	return "<anon>"
}
