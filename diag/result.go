package diag

import "strings"

// Result is an immutable snapshot of collected issues.
//
// The zero value is a successful empty result; [OK] provides it by name.
type Result struct {
	issues     []Issue
	errorCount int
}

// OK returns an empty successful result.
func OK() Result {
	return Result{}
}

// ResultOf builds a result directly from issues. Intended for single-issue
// failure paths where allocating a Collector is noise.
func ResultOf(issues ...Issue) Result {
	errs := 0
	cp := make([]Issue, len(issues))
	copy(cp, issues)
	for _, i := range cp {
		if i.Severity().IsError() {
			errs++
		}
	}
	return Result{issues: cp, errorCount: errs}
}

// Issues returns a copy of the issues, or nil when empty.
func (r Result) Issues() []Issue {
	if len(r.issues) == 0 {
		return nil
	}
	cp := make([]Issue, len(r.issues))
	copy(cp, r.issues)
	return cp
}

// HasErrors reports whether any Fatal or Error issue is present.
func (r Result) HasErrors() bool {
	return r.errorCount > 0
}

// IsOK reports whether the result carries no error-level issues.
func (r Result) IsOK() bool {
	return r.errorCount == 0
}

// Len returns the number of issues.
func (r Result) Len() int {
	return len(r.issues)
}

// FindCode returns the first issue with the given code, if any.
func (r Result) FindCode(code Code) (Issue, bool) {
	for _, i := range r.issues {
		if i.Code() == code {
			return i, true
		}
	}
	return Issue{}, false
}

// String renders all issues, one per line.
func (r Result) String() string {
	if len(r.issues) == 0 {
		return "ok"
	}
	var sb strings.Builder
	for n, i := range r.issues {
		if n > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(i.String())
	}
	return sb.String()
}

// Merge returns a result containing the issues of r followed by those of
// other.
func (r Result) Merge(other Result) Result {
	if other.Len() == 0 {
		return r
	}
	if r.Len() == 0 {
		return other
	}
	issues := make([]Issue, 0, len(r.issues)+len(other.issues))
	issues = append(issues, r.issues...)
	issues = append(issues, other.issues...)
	return Result{issues: issues, errorCount: r.errorCount + other.errorCount}
}
