package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies why prompts could not be loaded.
type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration"
	KindAuthentication   ErrorKind = "authentication"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindNotFound         ErrorKind = "not_found"
	KindInvalidGrant     ErrorKind = "invalid_grant"
	KindUnknown          ErrorKind = "unknown"
)

// LoadError is returned by prompt sources when a load fails. Title and Hint
// are meant for the error banner; Err keeps the underlying cause.
type LoadError struct {
	Kind    ErrorKind
	Title   string
	Hint    string
	Missing []string
	Details []string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Title)
	if len(e.Missing) > 0 {
		b.WriteString(" (missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Detail joins the hint and any provider details into the banner body.
func (e *LoadError) Detail() string {
	if len(e.Details) == 0 {
		return e.Hint
	}
	return e.Hint + "\n" + strings.Join(e.Details, "\n")
}

// KindOf returns the kind of the first LoadError in err's chain, or
// KindUnknown.
func KindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
