// Package location provides source positions, spans, and source identifiers.
//
// Spans attach to surface AST nodes when function descriptors are decoded
// and flow through parsing into IR debug metadata and diagnostics. A span
// is a half-open range [Start, End) within a source identified by a
// SourceID.
//
// SourceID values are canonical: the raw identifier is NFC-normalized so
// that two descriptors naming the same source compare equal regardless of
// how the name was composed. This package depends only on the standard
// library and golang.org/x/text/unicode/norm.
package location
