package diag

import "github.com/simon-lentz/anf/location"

// IssueBuilder constructs Issues fluently.
//
// The builder is a value type: each With* method returns a modified copy,
// so a partially-built issue can be forked safely.
//
//	issue := diag.NewIssue(diag.Error, diag.E_SHAPE_MISMATCH, "incompatible shapes").
//		WithDetail("want", "(3, 5)").
//		WithDetail("got", "(3, 4)").
//		Build()
type IssueBuilder struct {
	issue Issue
}

// NewIssue starts building an issue with the required fields.
func NewIssue(severity Severity, code Code, message string) IssueBuilder {
	return IssueBuilder{issue: Issue{
		severity: severity,
		code:     code,
		message:  message,
	}}
}

// WithSpan attaches a source location span.
func (b IssueBuilder) WithSpan(span location.Span) IssueBuilder {
	b.issue.span = span
	return b
}

// WithHint attaches a resolution suggestion.
func (b IssueBuilder) WithHint(hint string) IssueBuilder {
	b.issue.hint = hint
	return b
}

// WithDetail appends a key-value context pair.
func (b IssueBuilder) WithDetail(key, value string) IssueBuilder {
	details := make([]Detail, len(b.issue.details), len(b.issue.details)+1)
	copy(details, b.issue.details)
	b.issue.details = append(details, Detail{Key: key, Value: value})
	return b
}

// Build returns the completed immutable Issue.
//
// Panics if the required fields are missing; NewIssue guarantees them, so
// a panic here indicates builder misuse via a zero IssueBuilder.
func (b IssueBuilder) Build() Issue {
	if !b.issue.IsValid() {
		panic("diag: Build on invalid issue; use NewIssue")
	}
	return b.issue
}
