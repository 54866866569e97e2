package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Kind classifies an error for callers that must react differently to
// bad input, illegal state changes, missing records and transient conflicts.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindValidation        Kind = "validation"
	KindIllegalTransition Kind = "illegal_transition"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict_retryable"
	KindDegraded          Kind = "dependency_degraded"
)

// Error is a kinded sentinel. Compare with errors.Is, classify with KindOf.
type Error struct {
	kind Kind
	msg  string
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() Kind     { return e.kind }

// KindOf returns the kind of the first kinded error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// WithStack captures a stack trace once. Use it at the root cause boundary only.
func WithStack(err error) error {
	if err == nil {
		return nil
	}

	var se *StackError
	if errors.As(err, &se) {
		return err
	}

	return &StackError{
		err:   err,
		stack: debug.Stack(),
	}
}

// StackError wraps an error and stores a stack trace.
type StackError struct {
	err   error
	stack []byte
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }
func (e *StackError) Stack() []byte { return e.stack }

// Loggable encodes an error as structured slog fields.
// Usage: slog.Any("err", errs.Loggable(err))
type loggable struct{ err error }

func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.String("kind", string(KindOf(l.err))),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}

	var se *StackError
	if errors.As(l.err, &se) {
		attrs = append(attrs, slog.String("stack", string(se.Stack())))
	}

	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings (outer -> inner).
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
