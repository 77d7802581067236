package executor

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindValidation: a descriptor parameter is outside its contract
	// range. Rejected before any pixel work happens.
	KindValidation Kind = "validation"

	// KindDecode: the source bytes are not a supported or valid image.
	// Fatal for the invocation.
	KindDecode Kind = "decode"

	// KindComposite: the overlay input could not be fetched or decoded.
	// Non-fatal: the composite step is skipped and execution continues.
	KindComposite Kind = "composite"

	// KindEncode: the target format/options combination failed to encode.
	KindEncode Kind = "encode"

	// KindTimeout: the invocation exceeded its execution budget.
	KindTimeout Kind = "timeout"
)

// Error is the typed result returned across the execution boundary.
// Pipeline errors are never thrown uncaught to the caller.
type Error struct {
	Kind Kind
	Op   string // pipeline step that failed
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errKind(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind of err, or "" for a nil or untyped error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
