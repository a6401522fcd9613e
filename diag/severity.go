package diag

// Severity indicates the impact level of an issue.
//
// The zero value is Fatal. When constructing Issue literals in tests, set
// severity explicitly to avoid unintentionally creating Fatal issues.
type Severity uint8

const (
	// Fatal indicates the operation cannot produce any result.
	Fatal Severity = iota

	// Error indicates the operation produced no usable result.
	Error

	// Warning indicates a suspicious construct that does not prevent a result.
	Warning

	// Info indicates a purely informational note.
	Info

	// Hint indicates an optional suggestion.
	Hint
)

// String returns a human-readable label for the severity.
func (s Severity) String() string {
	switch s {
	case Fatal:
		return "fatal"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// IsError reports whether the severity is Fatal or Error.
func (s Severity) IsError() bool {
	return s <= Error
}
