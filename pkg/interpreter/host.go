package interpreter

import (
	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// Host is the resolution layer: it knows the classes that are not
// interpreted, performs native calls and owns field storage.
type Host interface {
	// ResolveClass finds a class by simple or qualified name.
	ResolveClass(name string) *ast.Class
	// ClassOf returns the runtime class of a value.
	ClassOf(v runtime.Value) *ast.Class
	// GetField reads a field; target is ignored for static fields.
	GetField(field *ast.Field, target runtime.Value) (runtime.Value, error)
	SetField(field *ast.Field, target runtime.Value, value runtime.Value) error
	// Invoke calls a method that has no interpreted body.
	Invoke(method *ast.Method, receiver runtime.Value, args []runtime.Value) (runtime.Value, error)
	// Construct calls a host constructor.
	Construct(ctor *ast.Constructor, args []runtime.Value) (runtime.Value, error)
	// NewInstance creates an instance with default field values.
	NewInstance(class *ast.Class) (runtime.Value, error)
}
