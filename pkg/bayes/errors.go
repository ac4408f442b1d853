package bayes

import (
	"fmt"

	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// kind is an error category. A kind may refine a broader one, in which
// case errors.Is matches both.
type kind struct {
	msg    string
	parent error
}

func (k *kind) Error() string { return k.msg }

func (k *kind) Is(target error) bool { return k.parent != nil && target == k.parent }

// Error kinds. Every error returned by this package has one of them as
// its cause.
var (
	ErrOutOfMemory     error = &kind{msg: "out of memory"}
	ErrInvalidArgument error = &kind{msg: "invalid argument"}
	ErrParse           error = &kind{msg: "parse error"}

	ErrDuplicateClass     error = &kind{msg: "duplicate class", parent: ErrParse}
	ErrMissingClass       error = &kind{msg: "missing class", parent: ErrParse}
	ErrUnknownAttribute   error = &kind{msg: "unknown attribute", parent: ErrParse}
	ErrDuplicateAttribute error = &kind{msg: "duplicate attribute", parent: ErrParse}
	ErrMissingAttribute   error = &kind{msg: "missing attribute", parent: ErrParse}
	ErrUnknownClass       error = &kind{msg: "unknown class", parent: ErrParse}
	ErrNotReady           error = &kind{msg: "classifier has not been set up", parent: ErrInvalidArgument}
)

// ParseError reports a malformed classifier description
type ParseError struct {
	Kind   error
	File   string
	Line   int
	Token  string
	Detail string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Token != "" {
		msg += fmt.Sprintf(" (at %q)", e.Token)
	}
	return msg
}

// Cause returns the error kind
func (e *ParseError) Cause() error { return e.Kind }

// Unwrap returns the error kind
func (e *ParseError) Unwrap() error { return e.Kind }

func fromScan(err error) error {
	if se, ok := err.(*scan.Error); ok {
		return &ParseError{Kind: ErrParse, File: se.File, Line: se.Line, Token: se.Token, Detail: se.Msg}
	}
	return err
}
