package interpreter

import (
	"errors"

	"snapcode/interpreter-go/pkg/runtime"
)

// Control flow travels on the error path. Loops consume break and continue,
// method bodies consume return, and only the top-level run consumes stop.

type breakSignal struct{}

func (breakSignal) Error() string { return "break" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue" }

type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return" }

type stopSignal struct{}

func (stopSignal) Error() string { return "stopped" }

func isStop(err error) bool {
	var stop stopSignal
	return errors.As(err, &stop)
}

// loopControl decides what a loop does with an error from its body:
// exit reports whether the loop ends, out is the error to propagate.
func loopControl(err error) (exit bool, out error) {
	switch err.(type) {
	case breakSignal:
		return true, nil
	case continueSignal:
		return false, nil
	default:
		return true, err
	}
}
