package location

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SourceID identifies a source document (a function descriptor file, an
// inline test descriptor, or a synthetic origin such as "inline:demo").
//
// SourceID is an opaque value type. Construct with [NewSourceID]; the raw
// string is NFC-normalized and trimmed so that equality is canonical.
// The zero value means "no source"; use IsZero to check.
type SourceID struct {
	canonical string
}

// ErrEmptySourceID is returned by NewSourceID for empty or all-space input.
var ErrEmptySourceID = errors.New("location: empty source identifier")

// NewSourceID creates a canonical SourceID from a raw identifier.
func NewSourceID(raw string) (SourceID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SourceID{}, ErrEmptySourceID
	}
	return SourceID{canonical: norm.NFC.String(trimmed)}, nil
}

// MustNewSourceID is NewSourceID that panics on error. Intended for
// constants and tests where the identifier is known valid.
func MustNewSourceID(raw string) SourceID {
	id, err := NewSourceID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical identifier.
func (s SourceID) String() string {
	return s.canonical
}

// IsZero reports whether the SourceID is unset.
func (s SourceID) IsZero() bool {
	return s.canonical == ""
}
