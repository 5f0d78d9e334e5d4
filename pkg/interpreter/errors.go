package interpreter

import (
	"errors"
	"fmt"

	"snapcode/interpreter-go/pkg/ast"
)

type ErrorKind string

const (
	ErrUnsupported     ErrorKind = "unsupported"
	ErrType            ErrorKind = "type"
	ErrNullDereference ErrorKind = "null_dereference"
	ErrMissingBinding  ErrorKind = "missing_binding"
	ErrArithmetic      ErrorKind = "arithmetic"
	ErrIndex           ErrorKind = "index"
	ErrStackOverflow   ErrorKind = "stack_overflow"
	ErrHost            ErrorKind = "host"
)

// RuntimeError is the single failure value a run reports. Node is the
// construct being evaluated when the failure happened.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Node    ast.Node
	Cause   error
}

func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if e.Node != nil {
		return fmt.Sprintf("%s (in %s)", msg, e.Node.NodeType())
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is, or wraps, a RuntimeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rt *RuntimeError
	return errors.As(err, &rt) && rt.Kind == kind
}

func newRuntimeError(kind ErrorKind, node ast.Node, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Node: node}
}

func unsupported(node ast.Node, what string) error {
	return newRuntimeError(ErrUnsupported, node, "%s is not supported", what)
}

func typeError(node ast.Node, format string, args ...any) error {
	return newRuntimeError(ErrType, node, format, args...)
}

func nullDereference(node ast.Node, format string, args ...any) error {
	return newRuntimeError(ErrNullDereference, node, format, args...)
}

func missingBinding(node ast.Node, format string, args ...any) error {
	return newRuntimeError(ErrMissingBinding, node, format, args...)
}

// wrapHostError tags a failure coming back from the host. Failures the
// interpreter raised itself (a lambda body called from host code) and
// control signals pass through untouched.
func wrapHostError(node ast.Node, what string, err error) error {
	if err == nil {
		return nil
	}
	var rt *RuntimeError
	if errors.As(err, &rt) || isStop(err) {
		return err
	}
	return &RuntimeError{Kind: ErrHost, Message: what, Node: node, Cause: err}
}
