package host

import (
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

func (r *Registry) initLangBuiltins() {
	r.Object = r.defineClass("Object", nil)
	r.register(r.Object, "java.lang.Object")
	r.Class = r.defineClass("Class", r.Object)
	r.String = r.defineClass("String", r.Object)
	r.register(r.String, "java.lang.String")
	r.Number = r.defineClass("Number", r.Object)
	r.Integer = r.defineClass("Integer", r.Number)
	r.Long = r.defineClass("Long", r.Number)
	r.Double = r.defineClass("Double", r.Number)
	r.Float = r.defineClass("Float", r.Number)
	r.Short = r.defineClass("Short", r.Number)
	r.Byte = r.defineClass("Byte", r.Number)
	r.Boolean = r.defineClass("Boolean", r.Object)
	r.Character = r.defineClass("Character", r.Object)

	r.initObjectBuiltins()
	r.initStringBuiltins()
	r.initBoxBuiltins()
	r.initMathBuiltins()
	r.initSystemBuiltins()
	r.initStringBuilderBuiltins()
}

func (r *Registry) initObjectBuiltins() {
	obj := r.Object
	r.method(obj, "toString", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: runtime.String(recv)}, nil
	})
	r.method(obj, "equals", ast.BooleanClass, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: recv == args[0]}, nil
	})
	r.method(obj, "hashCode", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.IntValue{Val: hashOf(recv)}, nil
	})
	r.method(obj, "getClass", r.Class, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.ClassValue{Class: r.ClassOf(recv)}, nil
	})

	r.method(r.Class, "getName", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		cv, ok := recv.(runtime.ClassValue)
		if !ok {
			return nil, fmt.Errorf("getName expects a class, got %s", kindName(recv))
		}
		return runtime.StringValue{Val: cv.Class.Name}, nil
	})
	r.method(r.Class, "getSimpleName", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		cv, ok := recv.(runtime.ClassValue)
		if !ok {
			return nil, fmt.Errorf("getSimpleName expects a class, got %s", kindName(recv))
		}
		name := cv.Class.Name
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
			name = name[idx+1:]
		}
		return runtime.StringValue{Val: name}, nil
	})

	objects := r.defineClass("Objects", r.Object)
	r.staticMethod(objects, "equals", ast.BooleanClass, params(obj, obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		eq, err := r.equals(args[0], args[1])
		return runtime.BoolValue{Val: eq}, err
	})
	r.staticMethod(objects, "isNull", ast.BooleanClass, params(obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: runtime.IsNull(args[0])}, nil
	})
	r.staticMethod(objects, "nonNull", ast.BooleanClass, params(obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: !runtime.IsNull(args[0])}, nil
	})
	r.staticMethod(objects, "requireNonNull", obj, params(obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if runtime.IsNull(args[0]) {
			return nil, fmt.Errorf("requireNonNull: value is null")
		}
		return args[0], nil
	})
	r.staticMethod(objects, "toString", r.String, params(obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := r.stringify(args[0])
		return runtime.StringValue{Val: s}, err
	})
}

func (r *Registry) initStringBuiltins() {
	str := r.String
	text := func(recv runtime.Value) string {
		s, _ := recv.(runtime.StringValue)
		return s.Val
	}
	units := func(s string) []uint16 { return utf16.Encode([]rune(s)) }
	fromUnits := func(u []uint16) runtime.Value {
		return runtime.StringValue{Val: string(utf16.Decode(u))}
	}

	r.method(str, "length", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.IntValue{Val: int32(len(units(text(recv))))}, nil
	})
	r.method(str, "isEmpty", ast.BooleanClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: text(recv) == ""}, nil
	})
	r.method(str, "charAt", ast.CharClass, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		u := units(text(recv))
		if idx < 0 || idx >= len(u) {
			return nil, fmt.Errorf("charAt: index %d out of bounds for length %d", idx, len(u))
		}
		return runtime.CharValue{Val: u[idx]}, nil
	})
	r.method(str, "substring", str, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		u := units(text(recv))
		begin, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if begin < 0 || begin > len(u) {
			return nil, fmt.Errorf("substring: begin %d out of bounds for length %d", begin, len(u))
		}
		return fromUnits(u[begin:]), nil
	})
	r.method(str, "substring", str, params(ast.IntClass, ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		u := units(text(recv))
		begin, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		end, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		if begin < 0 || end > len(u) || begin > end {
			return nil, fmt.Errorf("substring: begin %d, end %d, length %d", begin, end, len(u))
		}
		return fromUnits(u[begin:end]), nil
	})
	r.method(str, "indexOf", ast.IntClass, params(r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		needle := runtime.String(args[0])
		idx := strings.Index(text(recv), needle)
		if idx < 0 {
			return runtime.IntValue{Val: -1}, nil
		}
		return runtime.IntValue{Val: int32(len(units(text(recv)[:idx])))}, nil
	})
	r.method(str, "contains", ast.BooleanClass, params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		return runtime.BoolValue{Val: strings.Contains(text(recv), s)}, err
	})
	r.method(str, "startsWith", ast.BooleanClass, params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		return runtime.BoolValue{Val: strings.HasPrefix(text(recv), s)}, err
	})
	r.method(str, "endsWith", ast.BooleanClass, params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		return runtime.BoolValue{Val: strings.HasSuffix(text(recv), s)}, err
	})
	r.method(str, "toUpperCase", str, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: strings.ToUpper(text(recv))}, nil
	})
	r.method(str, "toLowerCase", str, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: strings.ToLower(text(recv))}, nil
	})
	r.method(str, "trim", str, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: strings.TrimSpace(text(recv))}, nil
	})
	r.method(str, "concat", str, params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		return runtime.StringValue{Val: text(recv) + s}, err
	})
	r.method(str, "repeat", str, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("repeat: negative count %d", n)
		}
		return runtime.StringValue{Val: strings.Repeat(text(recv), n)}, nil
	})
	r.method(str, "split", ast.ArrayOf(str), params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sep, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(text(recv), sep)
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		arr := runtime.NewArray(str, len(parts))
		for idx, p := range parts {
			arr.Elements[idx] = runtime.StringValue{Val: p}
		}
		return arr, nil
	})
	r.method(str, "compareTo", ast.IntClass, params(str), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.IntValue{Val: int32(compareUnits(units(text(recv)), units(s)))}, nil
	})
	r.method(str, "equals", ast.BooleanClass, params(r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		other, ok := args[0].(runtime.StringValue)
		return runtime.BoolValue{Val: ok && other.Val == text(recv)}, nil
	})
	r.method(str, "hashCode", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.IntValue{Val: hashOf(recv)}, nil
	})
	r.method(str, "toString", str, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return recv, nil
	})
	r.staticMethod(str, "valueOf", str, params(r.Object), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := r.stringify(args[0])
		return runtime.StringValue{Val: s}, err
	})
}

func utf16Units(s string) []uint16 { return utf16.Encode([]rune(s)) }

// compareUnits orders strings the way String.compareTo does.
func compareUnits(a, b []uint16) int {
	for idx := 0; idx < len(a) && idx < len(b); idx++ {
		if a[idx] != b[idx] {
			return int(a[idx]) - int(b[idx])
		}
	}
	return len(a) - len(b)
}

func (r *Registry) initBoxBuiltins() {
	str := r.String
	for _, cls := range []*ast.Class{r.Integer, r.Long, r.Double, r.Float, r.Short, r.Byte} {
		for name, target := range map[string]*ast.Class{
			"intValue":    ast.IntClass,
			"longValue":   ast.LongClass,
			"doubleValue": ast.DoubleClass,
			"floatValue":  ast.FloatClass,
		} {
			r.method(cls, name, target, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
				return runtime.Coerce(recv, target)
			})
		}
	}

	r.staticField(r.Integer, "MAX_VALUE", ast.IntClass, runtime.IntValue{Val: math.MaxInt32})
	r.staticField(r.Integer, "MIN_VALUE", ast.IntClass, runtime.IntValue{Val: math.MinInt32})
	r.staticMethod(r.Integer, "parseInt", ast.IntClass, params(str), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parseInt: invalid input %q", s)
		}
		return runtime.IntValue{Val: int32(n)}, nil
	})
	r.staticMethod(r.Integer, "valueOf", r.Integer, params(ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Coerce(args[0], ast.IntClass)
	})
	r.staticMethod(r.Integer, "toString", str, params(ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: runtime.String(args[0])}, nil
	})
	r.staticMethod(r.Integer, "compare", ast.IntClass, params(ast.IntClass, ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		a, _ := runtime.ToInt64(args[0])
		b, _ := runtime.ToInt64(args[1])
		return runtime.IntValue{Val: int32(cmpInt64(a, b))}, nil
	})
	r.staticMethod(r.Integer, "sum", ast.IntClass, params(ast.IntClass, ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		a, _ := runtime.ToInt64(args[0])
		b, _ := runtime.ToInt64(args[1])
		return runtime.IntValue{Val: int32(a + b)}, nil
	})

	r.staticField(r.Long, "MAX_VALUE", ast.LongClass, runtime.LongValue{Val: math.MaxInt64})
	r.staticField(r.Long, "MIN_VALUE", ast.LongClass, runtime.LongValue{Val: math.MinInt64})
	r.staticMethod(r.Long, "parseLong", ast.LongClass, params(str), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parseLong: invalid input %q", s)
		}
		return runtime.LongValue{Val: n}, nil
	})

	r.staticField(r.Double, "MAX_VALUE", ast.DoubleClass, runtime.DoubleValue{Val: math.MaxFloat64})
	r.staticField(r.Double, "MIN_VALUE", ast.DoubleClass, runtime.DoubleValue{Val: math.SmallestNonzeroFloat64})
	r.staticField(r.Double, "NaN", ast.DoubleClass, runtime.DoubleValue{Val: math.NaN()})
	r.staticField(r.Double, "POSITIVE_INFINITY", ast.DoubleClass, runtime.DoubleValue{Val: math.Inf(1)})
	r.staticField(r.Double, "NEGATIVE_INFINITY", ast.DoubleClass, runtime.DoubleValue{Val: math.Inf(-1)})
	r.staticMethod(r.Double, "parseDouble", ast.DoubleClass, params(str), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("parseDouble: invalid input %q", s)
		}
		return runtime.DoubleValue{Val: f}, nil
	})
	r.staticMethod(r.Double, "isNaN", ast.BooleanClass, params(ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		f, err := argFloat(args, 0)
		return runtime.BoolValue{Val: math.IsNaN(f)}, err
	})

	r.staticMethod(r.Boolean, "parseBoolean", ast.BooleanClass, params(str), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, _ := args[0].(runtime.StringValue)
		return runtime.BoolValue{Val: strings.EqualFold(s.Val, "true")}, nil
	})
	r.method(r.Boolean, "booleanValue", ast.BooleanClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return recv, nil
	})

	chr := r.Character
	charTest := func(name string, test func(rune) bool) {
		r.staticMethod(chr, name, ast.BooleanClass, params(ast.CharClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			c, err := runtime.Coerce(args[0], ast.CharClass)
			if err != nil {
				return nil, err
			}
			return runtime.BoolValue{Val: test(rune(c.(runtime.CharValue).Val))}, nil
		})
	}
	charTest("isDigit", unicode.IsDigit)
	charTest("isLetter", unicode.IsLetter)
	charTest("isLetterOrDigit", func(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) })
	charTest("isWhitespace", unicode.IsSpace)
	charTest("isUpperCase", unicode.IsUpper)
	charTest("isLowerCase", unicode.IsLower)
	charMap := func(name string, fn func(rune) rune) {
		r.staticMethod(chr, name, ast.CharClass, params(ast.CharClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			c, err := runtime.Coerce(args[0], ast.CharClass)
			if err != nil {
				return nil, err
			}
			return runtime.CharValue{Val: uint16(fn(rune(c.(runtime.CharValue).Val)))}, nil
		})
	}
	charMap("toUpperCase", unicode.ToUpper)
	charMap("toLowerCase", unicode.ToLower)
	r.staticMethod(chr, "getNumericValue", ast.IntClass, params(ast.CharClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		c, err := runtime.Coerce(args[0], ast.CharClass)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(string(rune(c.(runtime.CharValue).Val)), 36, 32)
		if err != nil {
			return runtime.IntValue{Val: -1}, nil
		}
		return runtime.IntValue{Val: int32(n)}, nil
	})
	r.method(chr, "charValue", ast.CharClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return recv, nil
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// widest returns the result class of a two-operand Math method: int or long
// when both arguments are integral, double otherwise.
func widest(args []runtime.Value) *ast.Class {
	cls := ast.IntClass
	for _, arg := range args {
		switch arg.(type) {
		case runtime.LongValue:
			if cls == ast.IntClass {
				cls = ast.LongClass
			}
		case runtime.FloatValue:
			if cls != ast.DoubleClass {
				cls = ast.FloatClass
			}
		case runtime.DoubleValue:
			cls = ast.DoubleClass
		}
	}
	return cls
}

func (r *Registry) initMathBuiltins() {
	m := r.defineClass("Math", r.Object)
	r.staticField(m, "PI", ast.DoubleClass, runtime.DoubleValue{Val: math.Pi})
	r.staticField(m, "E", ast.DoubleClass, runtime.DoubleValue{Val: math.E})

	unary := func(name string, fn func(float64) float64) {
		r.staticMethod(m, name, ast.DoubleClass, params(ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			f, err := argFloat(args, 0)
			if err != nil {
				return nil, err
			}
			return runtime.DoubleValue{Val: fn(f)}, nil
		})
	}
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("log", math.Log)
	unary("log10", math.Log10)
	unary("exp", math.Exp)

	r.staticMethod(m, "pow", ast.DoubleClass, params(ast.DoubleClass, ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		a, err := argFloat(args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argFloat(args, 1)
		if err != nil {
			return nil, err
		}
		return runtime.DoubleValue{Val: math.Pow(a, b)}, nil
	})
	r.staticMethod(m, "abs", nil, params(ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if !runtime.IsNumeric(args[0]) {
			return nil, fmt.Errorf("abs expects a number, got %s", kindName(args[0]))
		}
		switch cls := widest(args); cls {
		case ast.IntClass, ast.LongClass:
			n, _ := runtime.ToInt64(args[0])
			if n < 0 {
				n = -n
			}
			return runtime.Coerce(runtime.LongValue{Val: n}, cls)
		default:
			f, _ := runtime.ToFloat64(args[0])
			return runtime.Coerce(runtime.DoubleValue{Val: math.Abs(f)}, cls)
		}
	})
	minMax := func(name string, pickFirst func(a, b float64) bool) {
		r.staticMethod(m, name, nil, params(ast.DoubleClass, ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			if !runtime.IsNumeric(args[0]) || !runtime.IsNumeric(args[1]) {
				return nil, fmt.Errorf("%s expects numbers", name)
			}
			cls := widest(args)
			if cls == ast.IntClass || cls == ast.LongClass {
				a, _ := runtime.ToInt64(args[0])
				b, _ := runtime.ToInt64(args[1])
				if pickFirst(float64(a), float64(b)) {
					return runtime.Coerce(runtime.LongValue{Val: a}, cls)
				}
				return runtime.Coerce(runtime.LongValue{Val: b}, cls)
			}
			a, _ := runtime.ToFloat64(args[0])
			b, _ := runtime.ToFloat64(args[1])
			if math.IsNaN(a) || math.IsNaN(b) {
				return runtime.Coerce(runtime.DoubleValue{Val: math.NaN()}, cls)
			}
			if pickFirst(a, b) {
				return runtime.Coerce(runtime.DoubleValue{Val: a}, cls)
			}
			return runtime.Coerce(runtime.DoubleValue{Val: b}, cls)
		})
	}
	minMax("max", func(a, b float64) bool { return a >= b })
	minMax("min", func(a, b float64) bool { return a <= b })
	r.staticMethod(m, "round", ast.LongClass, params(ast.DoubleClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		f, err := argFloat(args, 0)
		if err != nil {
			return nil, err
		}
		rounded := runtime.DoubleValue{Val: math.Floor(f + 0.5)}
		if _, single := args[0].(runtime.FloatValue); single {
			return runtime.Coerce(rounded, ast.IntClass)
		}
		return runtime.Coerce(rounded, ast.LongClass)
	})
	r.staticMethod(m, "floorMod", ast.IntClass, params(ast.IntClass, ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		a, _ := runtime.ToInt64(args[0])
		b, _ := runtime.ToInt64(args[1])
		if b == 0 {
			return nil, fmt.Errorf("floorMod: / by zero")
		}
		mod := a % b
		if mod != 0 && (mod < 0) != (b < 0) {
			mod += b
		}
		return runtime.Coerce(runtime.LongValue{Val: mod}, widest(args))
	})
}

// console is the native state behind a PrintStream object.
type console struct {
	writer func() io.Writer
}

func (r *Registry) initSystemBuiltins() {
	r.PrintStream = r.defineClass("PrintStream", r.Object)
	ps := r.PrintStream
	write := func(recv runtime.Value, text string) error {
		obj, ok := recv.(*runtime.ObjectValue)
		if !ok {
			return fmt.Errorf("print expects a PrintStream, got %s", kindName(recv))
		}
		c, ok := obj.Native.(*console)
		if !ok {
			return fmt.Errorf("PrintStream has no console")
		}
		_, err := io.WriteString(c.writer(), text)
		return err
	}
	r.method(ps, "println", ast.VoidClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.VoidValue{}, write(recv, "\n")
	})
	r.method(ps, "println", ast.VoidClass, params(r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := r.printable(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.VoidValue{}, write(recv, s+"\n")
	})
	r.method(ps, "print", ast.VoidClass, params(r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s, err := r.printable(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.VoidValue{}, write(recv, s)
	})

	system := r.defineClass("System", r.Object)
	r.staticField(system, "out", ps, runtime.NewObject(ps, &console{writer: func() io.Writer { return r.out }}))
	r.staticField(system, "err", ps, runtime.NewObject(ps, &console{writer: func() io.Writer { return os.Stderr }}))
	r.staticMethod(system, "currentTimeMillis", ast.LongClass, nil, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.LongValue{Val: time.Now().UnixMilli()}, nil
	})
	r.staticMethod(system, "nanoTime", ast.LongClass, nil, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.LongValue{Val: time.Now().UnixNano()}, nil
	})
	r.staticMethod(system, "lineSeparator", r.String, nil, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: "\n"}, nil
	})
}

// printable is println's rendering: char arrays print as text.
func (r *Registry) printable(v runtime.Value) (string, error) {
	if arr, ok := v.(*runtime.ArrayValue); ok && arr.Component == ast.CharClass {
		u := make([]uint16, len(arr.Elements))
		for idx, el := range arr.Elements {
			c, _ := el.(runtime.CharValue)
			u[idx] = c.Val
		}
		return string(utf16.Decode(u)), nil
	}
	return r.stringify(v)
}

// builder is the native state behind a StringBuilder object.
type builder struct {
	units []uint16
}

func (b *builder) String() string { return string(utf16.Decode(b.units)) }

func (r *Registry) initStringBuilderBuiltins() {
	sb := r.defineClass("StringBuilder", r.Object)
	r.constructor(sb, nil, func(_ []runtime.Value) (runtime.Value, error) {
		return runtime.NewObject(sb, &builder{}), nil
	})
	r.constructor(sb, params(r.String), func(args []runtime.Value) (runtime.Value, error) {
		s, err := r.stringify(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.NewObject(sb, &builder{units: utf16.Encode([]rune(s))}), nil
	})
	state := func(recv runtime.Value) (*builder, error) {
		if obj, ok := recv.(*runtime.ObjectValue); ok {
			if b, ok := obj.Native.(*builder); ok {
				return b, nil
			}
		}
		return nil, fmt.Errorf("expected a StringBuilder, got %s", kindName(recv))
	}

	r.method(sb, "append", sb, params(r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		s, err := r.stringify(args[0])
		if err != nil {
			return nil, err
		}
		b.units = append(b.units, utf16.Encode([]rune(s))...)
		return recv, nil
	})
	r.method(sb, "insert", sb, params(ast.IntClass, r.Object), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx > len(b.units) {
			return nil, fmt.Errorf("insert: offset %d out of bounds for length %d", idx, len(b.units))
		}
		s, err := r.stringify(args[1])
		if err != nil {
			return nil, err
		}
		ins := utf16.Encode([]rune(s))
		b.units = append(b.units[:idx], append(ins, b.units[idx:]...)...)
		return recv, nil
	})
	r.method(sb, "reverse", sb, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		runes := []rune(b.String())
		for lo, hi := 0, len(runes)-1; lo < hi; lo, hi = lo+1, hi-1 {
			runes[lo], runes[hi] = runes[hi], runes[lo]
		}
		b.units = utf16.Encode(runes)
		return recv, nil
	})
	r.method(sb, "length", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		return runtime.IntValue{Val: int32(len(b.units))}, nil
	})
	r.method(sb, "charAt", ast.CharClass, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(b.units) {
			return nil, fmt.Errorf("charAt: index %d out of bounds for length %d", idx, len(b.units))
		}
		return runtime.CharValue{Val: b.units[idx]}, nil
	})
	r.method(sb, "deleteCharAt", sb, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(b.units) {
			return nil, fmt.Errorf("deleteCharAt: index %d out of bounds for length %d", idx, len(b.units))
		}
		b.units = append(b.units[:idx], b.units[idx+1:]...)
		return recv, nil
	})
	r.method(sb, "toString", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		b, err := state(recv)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: b.String()}, nil
	})
}

// hashOf mirrors Object.hashCode closely enough for hashing and printing.
func hashOf(v runtime.Value) int32 {
	switch val := v.(type) {
	case runtime.StringValue:
		var h int32
		for _, u := range utf16.Encode([]rune(val.Val)) {
			h = 31*h + int32(u)
		}
		return h
	case runtime.IntValue:
		return val.Val
	case runtime.LongValue:
		return int32(val.Val ^ int64(uint64(val.Val)>>32))
	case runtime.BoolValue:
		if val.Val {
			return 1231
		}
		return 1237
	case runtime.CharValue:
		return int32(val.Val)
	case runtime.DoubleValue:
		bits := math.Float64bits(val.Val)
		return int32(bits ^ bits>>32)
	}
	h := fnv.New32a()
	io.WriteString(h, runtime.String(v))
	return int32(h.Sum32())
}
