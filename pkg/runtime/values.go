package runtime

import (
	"fmt"

	"snapcode/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindVoid
	KindBool
	KindChar
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindArray
	KindObject
	KindClass
	KindFunctional
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	case KindBool:
		return "boolean"
	case KindChar:
		return "char"
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "String"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindClass:
		return "class"
	case KindFunctional:
		return "functional"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// VoidValue is what `return;` produces. It is distinct from NullValue so a
// caller can tell "returned nothing" from "returned null".
type VoidValue struct{}

func (VoidValue) Kind() Kind { return KindVoid }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type CharValue struct {
	Val uint16
}

func (v CharValue) Kind() Kind { return KindChar }

type ByteValue struct {
	Val int8
}

func (v ByteValue) Kind() Kind { return KindByte }

type ShortValue struct {
	Val int16
}

func (v ShortValue) Kind() Kind { return KindShort }

type IntValue struct {
	Val int32
}

func (v IntValue) Kind() Kind { return KindInt }

type LongValue struct {
	Val int64
}

func (v LongValue) Kind() Kind { return KindLong }

type FloatValue struct {
	Val float32
}

func (v FloatValue) Kind() Kind { return KindFloat }

type DoubleValue struct {
	Val float64
}

func (v DoubleValue) Kind() Kind { return KindDouble }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// References
//-----------------------------------------------------------------------------

type ArrayValue struct {
	Component *ast.Class
	Elements  []Value
}

func (v *ArrayValue) Kind() Kind { return KindArray }

// Class returns the array's runtime class.
func (v *ArrayValue) Class() *ast.Class { return ast.ArrayOf(v.Component) }

// NewArray allocates an array whose elements hold the component's zero value.
func NewArray(component *ast.Class, length int) *ArrayValue {
	elems := make([]Value, length)
	zero := ZeroValue(component)
	for i := range elems {
		elems[i] = zero
	}
	return &ArrayValue{Component: component, Elements: elems}
}

// ObjectValue is an instance of a program or host class. Fields holds
// interpreted field storage; Native holds the host's backing data, if any.
type ObjectValue struct {
	Class  *ast.Class
	Fields map[string]Value
	Native any
}

func (v *ObjectValue) Kind() Kind { return KindObject }

func NewObject(class *ast.Class, native any) *ObjectValue {
	return &ObjectValue{Class: class, Fields: make(map[string]Value), Native: native}
}

// ClassValue is a reference to a class used as a value (`String.class`, or
// the prefix of a static member access).
type ClassValue struct {
	Class *ast.Class
}

func (v ClassValue) Kind() Kind { return KindClass }

// Callable is a value implementing a functional interface. Host code invokes
// it through the interface's methods.
type Callable interface {
	Value
	Interface() *ast.Class
	Call(method *ast.Method, args []Value) (Value, error)
}

// Iterable is implemented by host values a for-each loop can walk.
type Iterable interface {
	Values() []Value
}

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

// ZeroValue returns the default value of a field or array element of class c.
func ZeroValue(c *ast.Class) Value {
	if c == nil {
		return NullValue{}
	}
	switch c.Primitive {
	case ast.PrimitiveBoolean:
		return BoolValue{}
	case ast.PrimitiveByte:
		return ByteValue{}
	case ast.PrimitiveShort:
		return ShortValue{}
	case ast.PrimitiveChar:
		return CharValue{}
	case ast.PrimitiveInt:
		return IntValue{}
	case ast.PrimitiveLong:
		return LongValue{}
	case ast.PrimitiveFloat:
		return FloatValue{}
	case ast.PrimitiveDouble:
		return DoubleValue{}
	default:
		return NullValue{}
	}
}

// IsNull reports whether v is null (a nil interface counts).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}

// IsNumeric reports whether v is a primitive number or char.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case CharValue, ByteValue, ShortValue, IntValue, LongValue, FloatValue, DoubleValue:
		return true
	}
	return false
}

// ToFloat64 widens any numeric or char value.
func ToFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case CharValue:
		return float64(n.Val), true
	case ByteValue:
		return float64(n.Val), true
	case ShortValue:
		return float64(n.Val), true
	case IntValue:
		return float64(n.Val), true
	case LongValue:
		return float64(n.Val), true
	case FloatValue:
		return float64(n.Val), true
	case DoubleValue:
		return n.Val, true
	}
	return 0, false
}

// ToInt64 converts any numeric or char value, truncating floating values.
func ToInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case CharValue:
		return int64(n.Val), true
	case ByteValue:
		return int64(n.Val), true
	case ShortValue:
		return int64(n.Val), true
	case IntValue:
		return int64(n.Val), true
	case LongValue:
		return n.Val, true
	case FloatValue:
		return floatToLong(float64(n.Val)), true
	case DoubleValue:
		return floatToLong(n.Val), true
	}
	return 0, false
}

// PrimitiveClassOf returns the primitive class of a scalar value, or nil.
func PrimitiveClassOf(v Value) *ast.Class {
	switch v.(type) {
	case BoolValue:
		return ast.BooleanClass
	case CharValue:
		return ast.CharClass
	case ByteValue:
		return ast.ByteClass
	case ShortValue:
		return ast.ShortClass
	case IntValue:
		return ast.IntClass
	case LongValue:
		return ast.LongClass
	case FloatValue:
		return ast.FloatClass
	case DoubleValue:
		return ast.DoubleClass
	}
	return nil
}
