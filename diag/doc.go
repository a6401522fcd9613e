// Package diag provides structured diagnostics with stable error codes.
//
// Diagnostics flow from the parser, the VM, and the inference engine into
// [Issue] values identified by a [Code] from a closed set. Issues are
// immutable; construct them with [NewIssue] and the fluent [IssueBuilder].
// A [Collector] accumulates issues (thread-safe) and produces an immutable
// [Result] snapshot.
//
// Codes are stable programmatic identifiers: tools match on Code values,
// not on message text.
package diag
