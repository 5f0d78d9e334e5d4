package interpreter

import (
	"testing"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// iface declares a functional interface with a single abstract method.
func (h *fakeHost) iface(name, method string, ret *ast.Class, params ...*ast.Class) (*ast.Class, *ast.Method) {
	cls := &ast.Class{Name: name, Interface: true}
	sam := &ast.Method{Name: method, Owner: cls, Params: params, Return: ret, Abstract: true}
	cls.Methods = append(cls.Methods, sam)
	h.classes[name] = cls
	return cls, sam
}

// call builds target.method(args...).
func call(target ast.Expression, method *ast.Method, args ...ast.Expression) ast.Expression {
	return ast.Dot(target, ast.Call(method, args...))
}

func TestLambdaOutlivesDefiningCall(t *testing.T) {
	h := newFakeHost()
	op, apply := h.iface("IntOp", "apply", ast.IntClass, ast.IntClass)
	owner := &ast.Class{Name: "Adders", Super: h.object}

	n := ast.Var("n", ast.IntClass, nil)
	x := ast.Var("x", ast.IntClass, nil)
	lambda := ast.Lambda(op, ast.Bin("+", ast.Ref(x), ast.Ref(n)), x)
	decl := ast.NewMethodDecl("adder", []*ast.VarDecl{n}, ast.Typ(op), ast.Blk(ast.Ret(lambda)), true)
	adder := &ast.Method{Name: "adder", Owner: owner, Params: []*ast.Class{ast.IntClass}, Return: op, Static: true, Decl: decl}
	decl.Method = adder

	five := ast.Var("five", op, ast.Call(adder, ast.Int(5)))
	ten := ast.Var("ten", op, ast.Call(adder, ast.Int(10)))
	interp := New(h)
	res := mustRun(t, interp,
		ast.Let(five),
		ast.Let(ten),
		ast.Ret(ast.Bin("*", call(ast.Ref(five), apply, ast.Int(3)), call(ast.Ref(ten), apply, ast.Int(1)))),
	)
	if res.Value != (runtime.IntValue{Val: 88}) {
		t.Fatalf("expected (3+5)*(1+10)=88, got %#v", res.Value)
	}
}

func TestLambdaCapturesEnclosingLocalsByValue(t *testing.T) {
	h := newFakeHost()
	supplier, get := h.iface("IntSupplier", "get", ast.IntClass)
	base := ast.Var("base", ast.IntClass, ast.Int(1))
	fn := ast.Var("fn", supplier, ast.Lambda(supplier, ast.Bin("*", ast.Ref(base), ast.Int(2))))
	interp := New(h)
	res := mustRun(t, interp,
		ast.Let(base),
		ast.Let(fn),
		ast.Expr(ast.Assign(ast.Ref(base), ast.Int(50))),
		ast.Ret(call(ast.Ref(fn), get)),
	)
	if res.Value != (runtime.IntValue{Val: 2}) {
		t.Fatalf("expected the captured value 1*2, got %#v", res.Value)
	}
}

func TestVoidLambdaMutatesCapturedArray(t *testing.T) {
	h := newFakeHost()
	runnable, run := h.iface("Runnable", "run", ast.VoidClass)
	counter := ast.Var("counter", ast.ArrayOf(ast.IntClass), ast.NewArray(ast.IntClass, ast.Int(1)))
	body := ast.Blk(ast.Expr(ast.Post("++", ast.Index(ast.Ref(counter), ast.Int(0)))))
	task := ast.Var("task", runnable, ast.Lambda(runnable, body))
	interp := New(h)
	res := mustRun(t, interp,
		ast.Let(counter),
		ast.Let(task),
		ast.Expr(call(ast.Ref(task), run)),
		ast.Expr(call(ast.Ref(task), run)),
		ast.Ret(ast.Index(ast.Ref(counter), ast.Int(0))),
	)
	if res.Value != (runtime.IntValue{Val: 2}) {
		t.Fatalf("expected 2 runs, got %#v", res.Value)
	}
}

func TestLambdaBlockBodyReturns(t *testing.T) {
	h := newFakeHost()
	op, apply := h.iface("IntOp", "apply", ast.IntClass, ast.IntClass)
	x := ast.Var("x", ast.IntClass, nil)
	doubled := ast.Var("doubled", ast.IntClass, ast.Bin("*", ast.Ref(x), ast.Int(2)))
	body := ast.Blk(ast.Let(doubled), ast.Ret(ast.Bin("+", ast.Ref(doubled), ast.Int(1))))
	fn := ast.Var("fn", op, ast.Lambda(op, body, x))
	res := mustRun(t, New(h), ast.Let(fn), ast.Ret(call(ast.Ref(fn), apply, ast.Int(20))))
	if res.Value != (runtime.IntValue{Val: 41}) {
		t.Fatalf("expected 41, got %#v", res.Value)
	}
}

func TestLambdaResultCoercedToInterfaceReturn(t *testing.T) {
	h := newFakeHost()
	supplier, get := h.iface("DoubleSupplier", "getAsDouble", ast.DoubleClass)
	fn := ast.Var("fn", supplier, ast.Lambda(supplier, ast.Int(3)))
	res := mustRun(t, New(h), ast.Let(fn), ast.Ret(call(ast.Ref(fn), get)))
	if res.Value != (runtime.DoubleValue{Val: 3}) {
		t.Fatalf("expected 3.0, got %#v", res.Value)
	}
}

func TestLambdaFailures(t *testing.T) {
	h := newFakeHost()
	supplier, get := h.iface("IntSupplier", "get", ast.IntClass)
	interp := New(h)

	if _, err := interp.Evaluate(nil, ast.Lambda(nil, ast.Int(1))); !IsKind(err, ErrMissingBinding) {
		t.Fatalf("expected missing interface error, got %v", err)
	}

	fn := ast.Var("fn", supplier, ast.Lambda(supplier, ast.Blk()))
	res := interp.Run(testContext(t), ast.Blk(ast.Let(fn), ast.Ret(call(ast.Ref(fn), get))), nil, nil)
	if !IsKind(res.Err, ErrType) {
		t.Fatalf("expected missing return value error, got %v", res.Err)
	}

	val, err := interp.Evaluate(nil, ast.Lambda(supplier, ast.Int(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := val.(runtime.Callable).Call(get, []runtime.Value{runtime.IntValue{Val: 1}}); !IsKind(err, ErrType) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestFunctionalForwardsDefaultMethodsToHost(t *testing.T) {
	h := newFakeHost()
	supplier, _ := h.iface("IntSupplier", "get", ast.IntClass)
	describe := h.native(supplier, "describe", false, h.str, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		res, err := recv.(runtime.Callable).Call(nil, nil)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: "supplies " + runtime.String(res)}, nil
	})
	describe.Default = true
	fn := ast.Var("fn", supplier, ast.Lambda(supplier, ast.Int(7)))
	res := mustRun(t, New(h), ast.Let(fn), ast.Ret(call(ast.Ref(fn), describe)))
	if res.Value != (runtime.StringValue{Val: "supplies 7"}) {
		t.Fatalf("expected default method result, got %#v", res.Value)
	}
}

func TestMethodReferences(t *testing.T) {
	h := newFakeHost()
	unary, apply := h.iface("IntUnary", "apply", ast.IntClass, ast.IntClass)
	toInt, applyAsInt := h.iface("ToInt", "applyAsInt", ast.IntClass, h.object)
	function, fapply := h.iface("Function", "apply", h.object, h.object)

	util := &ast.Class{Name: "Util", Super: h.object}
	h.classes["Util"] = util
	twice := h.native(util, "twice", true, ast.IntClass, []*ast.Class{ast.IntClass}, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.IntValue{Val: args[0].(runtime.IntValue).Val * 2}, nil
	})
	length := h.native(h.str, "length", false, ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.IntValue{Val: int32(len(recv.(runtime.StringValue).Val))}, nil
	})
	concat := h.native(h.str, "concat", false, h.str, []*ast.Class{h.str}, func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: recv.(runtime.StringValue).Val + args[0].(runtime.StringValue).Val}, nil
	})

	ref := func(target ast.Expression, name string, method *ast.Method, iface *ast.Class) ast.Expression {
		r := ast.NewMethodRefExpression(target, name)
		r.Method = method
		r.Interface = iface
		return r
	}

	static := ast.Var("static", unary, ref(ast.Bound("Util", util), "twice", twice, unary))
	unbound := ast.Var("unbound", toInt, ref(ast.Bound("String", h.str), "length", length, toInt))
	bound := ast.Var("bound", function, ref(ast.Str("abc"), "concat", concat, function))
	arrays := ast.Var("arrays", function, ref(ast.Bound("int[]", ast.ArrayOf(ast.IntClass)), "new", nil, function))

	var events []Event
	res := New(h).Run(testContext(t), ast.Blk(
		ast.Let(static, unbound, bound, arrays),
		ast.Expr(call(ast.Ref(static), apply, ast.Int(21))),
		ast.Expr(call(ast.Ref(unbound), applyAsInt, ast.Str("four"))),
		ast.Expr(call(ast.Ref(bound), fapply, ast.Str("def"))),
		ast.Expr(ast.Dot(call(ast.Ref(arrays), fapply, ast.Int(3)), ast.ID("length"))),
	), nil, func(ev Event) { events = append(events, ev) })
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s: %v", res.Outcome, res.Err)
	}
	expected := []runtime.Value{
		runtime.IntValue{Val: 42},
		runtime.IntValue{Val: 4},
		runtime.StringValue{Val: "abcdef"},
		runtime.IntValue{Val: 3},
	}
	for idx, want := range expected {
		if got := events[idx+1].Value; got != want {
			t.Fatalf("reference %d: expected %#v, got %#v", idx, want, got)
		}
	}
}

func TestMethodReferenceFailures(t *testing.T) {
	h := newFakeHost()
	function, fapply := h.iface("Function", "apply", h.object, h.object)
	concat := h.native(h.str, "concat", false, h.str, []*ast.Class{h.str}, func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: recv.(runtime.StringValue).Val + runtime.String(args[0])}, nil
	})
	interp := New(h)

	onNull := ast.NewMethodRefExpression(ast.Null(), "concat")
	onNull.Method = concat
	onNull.Interface = function
	if _, err := interp.Evaluate(nil, onNull); !IsKind(err, ErrNullDereference) {
		t.Fatalf("expected null dereference, got %v", err)
	}

	unresolved := ast.NewMethodRefExpression(ast.Str("x"), "missing")
	unresolved.Interface = function
	if _, err := interp.Evaluate(nil, unresolved); !IsKind(err, ErrMissingBinding) {
		t.Fatalf("expected missing binding, got %v", err)
	}

	unbound := ast.NewMethodRefExpression(ast.Bound("String", h.str), "concat")
	unbound.Method = concat
	unbound.Interface = function
	fn, err := interp.Evaluate(nil, unbound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fn.(runtime.Callable).Call(fapply, []runtime.Value{runtime.NullValue{}}); !IsKind(err, ErrNullDereference) {
		t.Fatalf("expected null receiver error, got %v", err)
	}
}
