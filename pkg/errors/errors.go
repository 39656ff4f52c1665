package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the different failure classes of a sync run
type ErrorType string

const (
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeHeading    ErrorType = "heading"
	ErrorTypeCaption    ErrorType = "caption"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

var (
	// ErrMissingHeading is returned when the first page of a collection has no heading
	ErrMissingHeading = &Error{Type: ErrorTypeHeading, Op: "parse heading", Err: errors.New("no heading found")}

	// ErrMalformedHeading is returned when the heading does not name a collection
	ErrMalformedHeading = &Error{Type: ErrorTypeHeading, Op: "parse heading", Err: errors.New("heading does not match collection pattern")}

	// ErrUnsafeDirectory is returned when a collection title would resolve outside the mirror base
	ErrUnsafeDirectory = &Error{Type: ErrorTypeFilesystem, Op: "resolve directory", Err: errors.New("title is not a single path element")}

	// ErrUnparsableCaption is returned when a thumbnail caption cannot be turned into a filename
	ErrUnparsableCaption = &Error{Type: ErrorTypeCaption, Op: "parse caption", Err: errors.New("caption does not match issue pattern")}
)

// Error carries the failure class together with the operation and target it happened on
type Error struct {
	Type   ErrorType
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: %s %s: %v", e.Type, e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by type and operation so that wrapped copies
// carrying a target still compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Target == "" && t.Type == e.Type && t.Op == e.Op && errors.Is(e.Err, t.Err)
}

// WithTarget returns a copy of e naming the url or path it applies to
func (e *Error) WithTarget(target string) *Error {
	c := *e
	c.Target = target
	return &c
}

// Transport wraps a fetch failure
func Transport(op, url string, err error) error {
	return &Error{Type: ErrorTypeTransport, Op: op, Target: url, Err: err}
}

// Filesystem wraps a mkdir/stat/write/delete failure
func Filesystem(op, path string, err error) error {
	return &Error{Type: ErrorTypeFilesystem, Op: op, Target: path, Err: err}
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsCollectionFatal reports whether err should stop processing of the collection it occurred in.
// Caption failures only drop one record and transport failures only truncate a crawl.
func IsCollectionFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return true
	}
	switch e.Type {
	case ErrorTypeHeading, ErrorTypeFilesystem, ErrorTypeConfig:
		return true
	case ErrorTypeCaption, ErrorTypeTransport:
		return false
	default:
		return true
	}
}
