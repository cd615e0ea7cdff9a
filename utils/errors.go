package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindCrypto ErrorKind = iota
	KindCompression
	KindSchema
	KindStructural
	KindReference
	KindAnalysis
)

func (k ErrorKind) String() string {
	switch k {
	case KindCrypto:
		return "crypto"
	case KindCompression:
		return "compression"
	case KindSchema:
		return "schema"
	case KindStructural:
		return "structural"
	case KindReference:
		return "reference"
	case KindAnalysis:
		return "analysis"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the typed error returned across package boundaries.
// Err keeps the wrapped cause, if any.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%v error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

func WrapError(kind ErrorKind, err error, format string, a ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...), Err: errors.WithStack(err)}
}

// IsKind reports whether any *Error in the chain, outer or wrapped, is of
// kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
