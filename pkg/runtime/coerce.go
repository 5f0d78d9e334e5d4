package runtime

import (
	"errors"
	"fmt"
	"math"

	"snapcode/interpreter-go/pkg/ast"
)

// ErrIncompatibleType is wrapped by every conversion failure.
var ErrIncompatibleType = errors.New("incompatible types")

// Coerce converts v for storage in a variable, parameter or element of class
// target. Primitive targets get a truncating numeric conversion; reference
// targets receive v unchanged.
func Coerce(v Value, target *ast.Class) (Value, error) {
	if target == nil || !target.IsPrimitive() || target.Primitive == ast.PrimitiveVoid {
		return v, nil
	}
	if IsNull(v) {
		return nil, fmt.Errorf("%w: null cannot be converted to %s", ErrIncompatibleType, target.Name)
	}
	if target.Primitive == ast.PrimitiveBoolean {
		if b, ok := v.(BoolValue); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%w: %s cannot be converted to boolean", ErrIncompatibleType, v.Kind())
	}
	if !IsNumeric(v) {
		return nil, fmt.Errorf("%w: %s cannot be converted to %s", ErrIncompatibleType, v.Kind(), target.Name)
	}
	switch target.Primitive {
	case ast.PrimitiveDouble:
		f, _ := ToFloat64(v)
		return DoubleValue{Val: f}, nil
	case ast.PrimitiveFloat:
		f, _ := ToFloat64(v)
		return FloatValue{Val: float32(f)}, nil
	case ast.PrimitiveLong:
		l, _ := ToInt64(v)
		return LongValue{Val: l}, nil
	case ast.PrimitiveInt:
		return IntValue{Val: toInt32(v)}, nil
	case ast.PrimitiveShort:
		return ShortValue{Val: int16(toInt32(v))}, nil
	case ast.PrimitiveByte:
		return ByteValue{Val: int8(toInt32(v))}, nil
	case ast.PrimitiveChar:
		return CharValue{Val: uint16(toInt32(v))}, nil
	}
	return v, nil
}

// IsAssignablePrimitive reports whether v already has exactly the primitive
// type target, so a cast can return it unchanged.
func IsAssignablePrimitive(v Value, target *ast.Class) bool {
	return PrimitiveClassOf(v) == target
}

// toInt32 narrows to int the way a cast does: floating values saturate,
// integral values keep their low 32 bits.
func toInt32(v Value) int32 {
	switch n := v.(type) {
	case FloatValue:
		return floatToInt(float64(n.Val))
	case DoubleValue:
		return floatToInt(n.Val)
	}
	l, _ := ToInt64(v)
	return int32(l)
}

func floatToInt(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func floatToLong(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
