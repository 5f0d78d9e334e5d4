package host

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

func invoke(t *testing.T, r *Registry, cls *ast.Class, name string, recv runtime.Value, args ...runtime.Value) runtime.Value {
	t.Helper()
	m := cls.FindMethod(name, len(args))
	if m == nil {
		t.Fatalf("expected %s.%s/%d to exist", cls.Name, name, len(args))
	}
	if recv == nil {
		recv = runtime.NullValue{}
	}
	val, err := r.Invoke(m, recv, args)
	if err != nil {
		t.Fatalf("%s.%s: unexpected error: %v", cls.Name, name, err)
	}
	return val
}

func str(s string) runtime.Value   { return runtime.StringValue{Val: s} }
func num(n int32) runtime.Value    { return runtime.IntValue{Val: n} }
func dbl(f float64) runtime.Value  { return runtime.DoubleValue{Val: f} }
func long(n int64) runtime.Value   { return runtime.LongValue{Val: n} }
func flt(f float32) runtime.Value  { return runtime.FloatValue{Val: f} }
func char(c rune) runtime.Value    { return runtime.CharValue{Val: uint16(c)} }
func boolean(b bool) runtime.Value { return runtime.BoolValue{Val: b} }

func TestResolveClass(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name     string
		expected *ast.Class
	}{
		{"String", r.String},
		{"java.lang.String", r.String},
		{"java.util.ArrayList", r.ArrayList},
		{"LinkedList", r.ArrayList},
		{"TreeMap", r.HashMap},
		{"Collection", r.List},
		{"NoSuchClass", nil},
	}
	for _, tc := range cases {
		if got := r.ResolveClass(tc.name); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestClassOf(t *testing.T) {
	r := NewRegistry()
	arr := runtime.NewArray(ast.IntClass, 1)
	cases := []struct {
		value    runtime.Value
		expected *ast.Class
	}{
		{num(1), r.Integer},
		{long(1), r.Long},
		{dbl(1), r.Double},
		{char('x'), r.Character},
		{boolean(true), r.Boolean},
		{str("s"), r.String},
		{arr, ast.ArrayOf(ast.IntClass)},
		{runtime.ClassValue{Class: r.String}, r.Class},
		{runtime.NullValue{}, nil},
	}
	for _, tc := range cases {
		if got := r.ClassOf(tc.value); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.value.Kind(), tc.expected, got)
		}
	}
	if !r.Object.IsAssignableFrom(r.ClassOf(num(1))) {
		t.Fatalf("expected Integer to be an Object")
	}
}

func TestStringMethods(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		method   string
		recv     string
		args     []runtime.Value
		expected runtime.Value
	}{
		{"length", "héllo", nil, num(5)},
		{"isEmpty", "", nil, boolean(true)},
		{"charAt", "abc", []runtime.Value{num(1)}, char('b')},
		{"substring", "hello", []runtime.Value{num(1)}, str("ello")},
		{"substring", "hello", []runtime.Value{num(1), num(3)}, str("el")},
		{"indexOf", "hello", []runtime.Value{str("l")}, num(2)},
		{"indexOf", "hello", []runtime.Value{char('o')}, num(4)},
		{"indexOf", "hello", []runtime.Value{str("z")}, num(-1)},
		{"contains", "hello", []runtime.Value{str("ell")}, boolean(true)},
		{"startsWith", "hello", []runtime.Value{str("he")}, boolean(true)},
		{"toUpperCase", "Go", nil, str("GO")},
		{"trim", "  x ", nil, str("x")},
		{"repeat", "ab", []runtime.Value{num(3)}, str("ababab")},
		{"concat", "ab", []runtime.Value{str("cd")}, str("abcd")},
		{"equals", "ab", []runtime.Value{str("ab")}, boolean(true)},
		{"equals", "ab", []runtime.Value{num(1)}, boolean(false)},
		{"hashCode", "hello", nil, num(99162322)},
	}
	for _, tc := range cases {
		got := invoke(t, r, r.String, tc.method, str(tc.recv), tc.args...)
		if got != tc.expected {
			t.Fatalf("%q.%s: expected %#v, got %#v", tc.recv, tc.method, tc.expected, got)
		}
	}

	parts := invoke(t, r, r.String, "split", str("a,b,,"), str(",")).(*runtime.ArrayValue)
	if len(parts.Elements) != 2 || parts.Elements[1] != str("b") {
		t.Fatalf("expected trailing empty parts dropped, got %v", parts.Elements)
	}
	if c := invoke(t, r, r.String, "compareTo", str("apple"), str("banana")).(runtime.IntValue); c.Val >= 0 {
		t.Fatalf("expected apple before banana, got %d", c.Val)
	}
	m := r.String.FindMethod("charAt", 1)
	if _, err := r.Invoke(m, str("abc"), []runtime.Value{num(3)}); err == nil {
		t.Fatalf("expected out of bounds error")
	}
}

func TestMathResultTypes(t *testing.T) {
	r := NewRegistry()
	mathClass := r.ResolveClass("Math")
	cases := []struct {
		method   string
		args     []runtime.Value
		expected runtime.Value
	}{
		{"max", []runtime.Value{num(3), num(7)}, num(7)},
		{"max", []runtime.Value{num(3), dbl(2.5)}, dbl(3)},
		{"min", []runtime.Value{long(3), num(1)}, long(1)},
		{"min", []runtime.Value{flt(1.5), num(2)}, flt(1.5)},
		{"abs", []runtime.Value{num(-4)}, num(4)},
		{"abs", []runtime.Value{dbl(-0.5)}, dbl(0.5)},
		{"round", []runtime.Value{dbl(2.5)}, long(3)},
		{"round", []runtime.Value{dbl(-2.5)}, long(-2)},
		{"round", []runtime.Value{flt(2.4)}, num(2)},
		{"floorMod", []runtime.Value{num(-7), num(3)}, num(2)},
		{"sqrt", []runtime.Value{num(16)}, dbl(4)},
		{"pow", []runtime.Value{num(2), num(10)}, dbl(1024)},
	}
	for _, tc := range cases {
		got := invoke(t, r, mathClass, tc.method, nil, tc.args...)
		if got != tc.expected {
			t.Fatalf("Math.%s%v: expected %#v, got %#v", tc.method, tc.args, tc.expected, got)
		}
	}
	pi, err := r.GetField(mathClass.FindField("PI"), nil)
	if err != nil || pi != dbl(math.Pi) {
		t.Fatalf("expected Math.PI, got %#v (%v)", pi, err)
	}
}

func TestBoxedStatics(t *testing.T) {
	r := NewRegistry()
	if got := invoke(t, r, r.Integer, "parseInt", nil, str("-42")); got != num(-42) {
		t.Fatalf("expected -42, got %#v", got)
	}
	if _, err := r.Invoke(r.Integer.FindMethod("parseInt", 1), runtime.NullValue{}, []runtime.Value{str("4x")}); err == nil {
		t.Fatalf("expected parse error")
	}
	if got := invoke(t, r, r.Double, "parseDouble", nil, str("2.5")); got != dbl(2.5) {
		t.Fatalf("expected 2.5, got %#v", got)
	}
	if got := invoke(t, r, r.Character, "isDigit", nil, char('7')); got != boolean(true) {
		t.Fatalf("expected digit, got %#v", got)
	}
	if got := invoke(t, r, r.Character, "toUpperCase", nil, char('q')); got != char('Q') {
		t.Fatalf("expected Q, got %#v", got)
	}
	if got := invoke(t, r, r.Integer, "intValue", num(9)); got != num(9) {
		t.Fatalf("expected 9, got %#v", got)
	}
	maxValue, err := r.GetField(r.Integer.FindField("MAX_VALUE"), nil)
	if err != nil || maxValue != num(math.MaxInt32) {
		t.Fatalf("expected MAX_VALUE, got %#v (%v)", maxValue, err)
	}
	if err := r.SetField(r.Integer.FindField("MAX_VALUE"), nil, num(0)); err == nil {
		t.Fatalf("expected host statics to be read-only")
	}
}

func TestStringBuilder(t *testing.T) {
	r := NewRegistry()
	sb := r.ResolveClass("StringBuilder")
	b, err := r.NewInstance(sb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := invoke(t, r, sb, "append", b, str("ab")); got != b {
		t.Fatalf("expected append to return the builder")
	}
	invoke(t, r, sb, "append", b, num(1))
	invoke(t, r, sb, "append", b, char('c'))
	invoke(t, r, sb, "reverse", b)
	invoke(t, r, sb, "insert", b, num(0), str(">"))
	if got := invoke(t, r, sb, "toString", b); got != str(">c1ba") {
		t.Fatalf("expected >c1ba, got %#v", got)
	}
	if got := invoke(t, r, sb, "length", b); got != num(5) {
		t.Fatalf("expected length 5, got %#v", got)
	}
	if got := runtime.String(b); got != ">c1ba" {
		t.Fatalf("expected builder to print its content, got %q", got)
	}
}

func TestListOperations(t *testing.T) {
	r := NewRegistry()
	l, err := r.NewInstance(r.ArrayList)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range []runtime.Value{num(3), num(1), num(2)} {
		invoke(t, r, r.List, "add", l, v)
	}
	invoke(t, r, r.List, "add", l, num(0), str("first"))
	if got := invoke(t, r, r.List, "get", l, num(1)); got != num(3) {
		t.Fatalf("expected 3, got %#v", got)
	}
	if got := invoke(t, r, r.List, "remove", l, num(0)); got != str("first") {
		t.Fatalf("expected removal by index, got %#v", got)
	}
	if got := invoke(t, r, r.List, "remove", l, str("absent")); got != boolean(false) {
		t.Fatalf("expected removal by element to report false, got %#v", got)
	}
	if got := invoke(t, r, r.List, "contains", l, num(2)); got != boolean(true) {
		t.Fatalf("expected contains 2, got %#v", got)
	}

	comparator := r.ResolveClass("Comparator")
	natural := invoke(t, r, comparator, "naturalOrder", nil)
	reversed := invoke(t, r, comparator, "reversed", natural)
	invoke(t, r, r.List, "sort", l, reversed)
	if got := runtime.String(l); got != "[3, 2, 1]" {
		t.Fatalf("expected [3, 2, 1], got %s", got)
	}
	if got := invoke(t, r, r.List, "size", l); got != num(3) {
		t.Fatalf("expected size 3, got %#v", got)
	}

	predicate := r.ResolveClass("Predicate")
	even := r.functional(predicate, func(args []runtime.Value) (runtime.Value, error) {
		return boolean(args[0].(runtime.IntValue).Val%2 == 0), nil
	})
	invoke(t, r, r.List, "removeIf", l, even)
	if got := runtime.String(l); got != "[3, 1]" {
		t.Fatalf("expected [3, 1], got %s", got)
	}

	if _, err := r.Invoke(r.List.FindMethod("get", 1), l, []runtime.Value{num(5)}); err == nil {
		t.Fatalf("expected index error")
	}

	of := r.List.FindMethod("of", 2)
	arr := &runtime.ArrayValue{Component: r.Object, Elements: []runtime.Value{str("a"), str("b")}}
	fixed, err := r.Invoke(of, runtime.NullValue{}, []runtime.Value{arr})
	if err != nil || runtime.String(fixed) != "[a, b]" {
		t.Fatalf("expected [a, b], got %v (%v)", fixed, err)
	}
	var seen []runtime.Value
	for _, v := range fixed.(*runtime.ObjectValue).Native.(runtime.Iterable).Values() {
		seen = append(seen, v)
	}
	if len(seen) != 2 {
		t.Fatalf("expected a list to be iterable, got %v", seen)
	}
}

func TestMapOperations(t *testing.T) {
	r := NewRegistry()
	m, err := r.NewInstance(r.HashMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := invoke(t, r, r.Map, "put", m, str("b"), num(1)); got != (runtime.NullValue{}) {
		t.Fatalf("expected null for a new key, got %#v", got)
	}
	invoke(t, r, r.Map, "put", m, str("a"), num(2))
	if got := invoke(t, r, r.Map, "put", m, str("b"), num(3)); got != num(1) {
		t.Fatalf("expected previous value 1, got %#v", got)
	}
	if got := runtime.String(m); got != "{b=3, a=2}" {
		t.Fatalf("expected insertion order, got %s", got)
	}
	if got := invoke(t, r, r.Map, "get", m, str("zz")); got != (runtime.NullValue{}) {
		t.Fatalf("expected null for a missing key, got %#v", got)
	}
	if got := invoke(t, r, r.Map, "getOrDefault", m, str("zz"), num(0)); got != num(0) {
		t.Fatalf("expected default, got %#v", got)
	}

	sum := r.functional(r.ResolveClass("BiFunction"), func(args []runtime.Value) (runtime.Value, error) {
		return num(args[0].(runtime.IntValue).Val + args[1].(runtime.IntValue).Val), nil
	})
	invoke(t, r, r.Map, "merge", m, str("a"), num(10), sum)
	invoke(t, r, r.Map, "merge", m, str("c"), num(5), sum)
	if got := runtime.String(m); got != "{b=3, a=12, c=5}" {
		t.Fatalf("expected merged map, got %s", got)
	}
	keys := invoke(t, r, r.Map, "keySet", m)
	if got := runtime.String(keys); got != "[b, a, c]" {
		t.Fatalf("expected keys in order, got %s", got)
	}
}

func TestPrintStream(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(WithOutput(&buf))
	out, err := r.GetField(r.ResolveClass("System").FindField("out"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chars := &runtime.ArrayValue{Component: ast.CharClass, Elements: []runtime.Value{char('o'), char('k')}}
	invoke(t, r, r.PrintStream, "println", out, str("hi"))
	invoke(t, r, r.PrintStream, "print", out, num(3))
	invoke(t, r, r.PrintStream, "println", out)
	invoke(t, r, r.PrintStream, "println", out, dbl(0.5))
	invoke(t, r, r.PrintStream, "println", out, chars)
	invoke(t, r, r.PrintStream, "println", out, runtime.NullValue{})
	if got, want := buf.String(), "hi\n3\n0.5\nok\nnull\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFunctionalDefaults(t *testing.T) {
	r := NewRegistry()
	function := r.ResolveClass("Function")
	inc := r.functional(function, func(args []runtime.Value) (runtime.Value, error) {
		return num(args[0].(runtime.IntValue).Val + 1), nil
	})
	double := r.functional(function, func(args []runtime.Value) (runtime.Value, error) {
		return num(args[0].(runtime.IntValue).Val * 2), nil
	})
	then := invoke(t, r, function, "andThen", inc, double).(runtime.Callable)
	if got, err := then.Call(nil, []runtime.Value{num(3)}); err != nil || got != num(8) {
		t.Fatalf("expected (3+1)*2, got %#v (%v)", got, err)
	}
	compose := invoke(t, r, function, "compose", inc, double).(runtime.Callable)
	if got, err := compose.Call(nil, []runtime.Value{num(3)}); err != nil || got != num(7) {
		t.Fatalf("expected 3*2+1, got %#v (%v)", got, err)
	}

	predicate := r.ResolveClass("Predicate")
	positive := r.functional(predicate, func(args []runtime.Value) (runtime.Value, error) {
		return boolean(args[0].(runtime.IntValue).Val > 0), nil
	})
	negated := invoke(t, r, predicate, "negate", positive).(runtime.Callable)
	if got, err := negated.Call(nil, []runtime.Value{num(3)}); err != nil || got != boolean(false) {
		t.Fatalf("expected negation, got %#v (%v)", got, err)
	}

	if got := invoke(t, r, r.Object, "toString", inc); got == nil {
		t.Fatalf("expected Object methods on functional values")
	}
}

type recordingInvoker struct {
	calls []*ast.Method
}

func (ri *recordingInvoker) Invoke(method *ast.Method, _ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
	ri.calls = append(ri.calls, method)
	return str("overridden"), nil
}

func (ri *recordingInvoker) Stringify(runtime.Value) (string, error) {
	return "", errors.New("not used")
}

func TestVirtualDispatchReachesProgramOverride(t *testing.T) {
	r := NewRegistry()
	inv := &recordingInvoker{}
	r.SetInvoker(inv)

	decl := ast.NewClassDecl("Pet", nil, nil)
	pet := &ast.Class{Name: "Pet", Decl: decl}
	decl.Class = pet
	r.DefineProgramClass(pet)
	if pet.Super != r.Object || r.ResolveClass("Pet") != pet {
		t.Fatalf("expected program class registered under Object")
	}
	override := &ast.Method{Name: "toString", Owner: pet, Return: r.String, Decl: ast.NewMethodDecl("toString", nil, nil, ast.NewBlock(nil), false)}
	pet.Methods = append(pet.Methods, override)

	obj, err := r.NewInstance(pet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := invoke(t, r, r.Object, "toString", obj)
	if got != str("overridden") || len(inv.calls) != 1 || inv.calls[0] != override {
		t.Fatalf("expected the override to run, got %#v after %d calls", got, len(inv.calls))
	}
	if got := invoke(t, r, r.Object, "hashCode", obj); got.Kind() != runtime.KindInt {
		t.Fatalf("expected inherited hashCode, got %#v", got)
	}
	if err := r.SetField(&ast.Field{Name: "count", Owner: pet, Type: ast.IntClass, Static: true}, nil, num(1)); err != nil {
		t.Fatalf("expected program statics to be writable, got %v", err)
	}
}
