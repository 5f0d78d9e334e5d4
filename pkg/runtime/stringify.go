package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// String renders v the way string concatenation and println show it.
func String(v Value) string {
	switch val := v.(type) {
	case nil, NullValue:
		return "null"
	case VoidValue:
		return ""
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case CharValue:
		return string(utf16.Decode([]uint16{val.Val}))
	case ByteValue:
		return strconv.FormatInt(int64(val.Val), 10)
	case ShortValue:
		return strconv.FormatInt(int64(val.Val), 10)
	case IntValue:
		return strconv.FormatInt(int64(val.Val), 10)
	case LongValue:
		return strconv.FormatInt(val.Val, 10)
	case FloatValue:
		return FormatFloating(float64(val.Val), 32)
	case DoubleValue:
		return FormatFloating(val.Val, 64)
	case StringValue:
		return val.Val
	case ClassValue:
		if val.Class == nil {
			return "class ?"
		}
		if val.Class.Interface {
			return "interface " + val.Class.Name
		}
		return "class " + val.Class.Name
	case *ArrayValue:
		return identity(val.Class().Name, val)
	case *ObjectValue:
		if s, ok := val.Native.(fmt.Stringer); ok {
			return s.String()
		}
		return identity(val.Class.Name, val)
	case Callable:
		name := "Lambda"
		if iface := val.Interface(); iface != nil {
			name = iface.Name + "$$Lambda"
		}
		return identity(name, val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func identity(name string, ref any) string {
	return name + "@" + strings.TrimPrefix(fmt.Sprintf("%p", ref), "0x")
}

// FormatFloating prints a float or double the way Double.toString does:
// plain decimal for magnitudes in [1e-3, 1e7), scientific otherwise, and
// always with a fractional digit.
func FormatFloating(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, bits), "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}
