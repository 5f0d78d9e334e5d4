package interpreter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

type nativeFunc func(recv runtime.Value, args []runtime.Value) (runtime.Value, error)

// fakeHost is a minimal resolution layer: named classes, field storage on
// ObjectValue, and natives keyed by method.
type fakeHost struct {
	classes map[string]*ast.Class
	statics map[*ast.Field]runtime.Value
	natives map[*ast.Method]nativeFunc
	ctors   map[*ast.Constructor]func(args []runtime.Value) (runtime.Value, error)
	object  *ast.Class
	str     *ast.Class
}

func newFakeHost() *fakeHost {
	object := &ast.Class{Name: "Object"}
	str := &ast.Class{Name: "String", Super: object}
	return &fakeHost{
		classes: map[string]*ast.Class{"Object": object, "String": str},
		statics: make(map[*ast.Field]runtime.Value),
		natives: make(map[*ast.Method]nativeFunc),
		ctors:   make(map[*ast.Constructor]func(args []runtime.Value) (runtime.Value, error)),
		object:  object,
		str:     str,
	}
}

// native declares a host method on cls.
func (h *fakeHost) native(cls *ast.Class, name string, static bool, ret *ast.Class, params []*ast.Class, fn nativeFunc) *ast.Method {
	m := &ast.Method{Name: name, Owner: cls, Params: params, Return: ret, Static: static}
	cls.Methods = append(cls.Methods, m)
	h.natives[m] = fn
	return m
}

func (h *fakeHost) ResolveClass(name string) *ast.Class { return h.classes[name] }

func (h *fakeHost) ClassOf(v runtime.Value) *ast.Class {
	switch val := v.(type) {
	case *runtime.ObjectValue:
		return val.Class
	case *runtime.ArrayValue:
		return val.Class()
	case runtime.StringValue:
		return h.str
	case runtime.Callable:
		return val.Interface()
	}
	return nil
}

func (h *fakeHost) GetField(field *ast.Field, target runtime.Value) (runtime.Value, error) {
	if field.Static {
		if v, ok := h.statics[field]; ok {
			return v, nil
		}
		return runtime.ZeroValue(field.Type), nil
	}
	obj, ok := target.(*runtime.ObjectValue)
	if !ok {
		return nil, fmt.Errorf("no fields on %s", kindOf(target))
	}
	if v, ok := obj.Fields[field.Name]; ok {
		return v, nil
	}
	return runtime.ZeroValue(field.Type), nil
}

func (h *fakeHost) SetField(field *ast.Field, target runtime.Value, value runtime.Value) error {
	if field.Static {
		h.statics[field] = value
		return nil
	}
	obj, ok := target.(*runtime.ObjectValue)
	if !ok {
		return fmt.Errorf("no fields on %s", kindOf(target))
	}
	obj.Fields[field.Name] = value
	return nil
}

func (h *fakeHost) Invoke(method *ast.Method, receiver runtime.Value, args []runtime.Value) (runtime.Value, error) {
	fn, ok := h.natives[method]
	if !ok {
		return nil, fmt.Errorf("no native for %s", method)
	}
	return fn(receiver, args)
}

func (h *fakeHost) Construct(ctor *ast.Constructor, args []runtime.Value) (runtime.Value, error) {
	fn, ok := h.ctors[ctor]
	if !ok {
		return nil, fmt.Errorf("no native constructor for %s", ctor.Owner.Name)
	}
	return fn(args)
}

func (h *fakeHost) NewInstance(cls *ast.Class) (runtime.Value, error) {
	return runtime.NewObject(cls, nil), nil
}

func mustRun(t *testing.T, interp *Interpreter, stmts ...ast.Statement) RunResult {
	t.Helper()
	res := interp.Run(context.Background(), ast.Blk(stmts...), nil, nil)
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed run, got %s: %v", res.Outcome, res.Err)
	}
	return res
}

func TestRunReturnsArithmeticResult(t *testing.T) {
	interp := New(newFakeHost())
	x := ast.Var("x", ast.IntClass, ast.Int(2))
	y := ast.Var("y", ast.IntClass, ast.Int(3))
	res := mustRun(t, interp,
		ast.Let(x),
		ast.Let(y),
		ast.Ret(ast.Bin("+", ast.Bin("*", ast.Ref(x), ast.Ref(y)), ast.Int(1))),
	)
	if res.Value != (runtime.IntValue{Val: 7}) {
		t.Fatalf("expected 7, got %#v", res.Value)
	}
	if interp.Stack().Len() != 0 {
		t.Fatalf("expected stack reset after run, got length %d", interp.Stack().Len())
	}
}

func TestForLoopBreak(t *testing.T) {
	interp := New(newFakeHost())
	count := ast.Var("count", ast.IntClass, ast.Int(0))
	i := ast.Var("i", ast.IntClass, ast.Int(0))
	loop := ast.For(
		[]ast.Statement{ast.Let(i)},
		ast.Bin("<", ast.Ref(i), ast.Int(10)),
		[]ast.Expression{ast.Post("++", ast.Ref(i))},
		ast.Blk(
			ast.If(ast.Bin("==", ast.Ref(i), ast.Int(3)), ast.Brk(), nil),
			ast.Expr(ast.Post("++", ast.Ref(count))),
		),
	)
	res := mustRun(t, interp, ast.Let(count), loop, ast.Ret(ast.Ref(count)))
	if res.Value != (runtime.IntValue{Val: 3}) {
		t.Fatalf("expected 3, got %#v", res.Value)
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	interp := New(newFakeHost())
	sum := ast.Var("sum", ast.IntClass, ast.Int(0))
	i := ast.Var("i", ast.IntClass, ast.Int(0))
	body := ast.Blk(
		ast.Expr(ast.Post("++", ast.Ref(i))),
		ast.If(ast.Bin("==", ast.Bin("%", ast.Ref(i), ast.Int(2)), ast.Int(0)), ast.Cont(), nil),
		ast.Expr(ast.AssignOp(ast.AssignmentAdd, ast.Ref(sum), ast.Ref(i))),
	)
	res := mustRun(t, interp,
		ast.Let(sum),
		ast.Let(i),
		ast.While(ast.Bin("<", ast.Ref(i), ast.Int(6)), body),
		ast.Ret(ast.Ref(sum)),
	)
	if res.Value != (runtime.IntValue{Val: 9}) {
		t.Fatalf("expected 1+3+5=9, got %#v", res.Value)
	}
}

func TestDoWhileRunsBodyFirst(t *testing.T) {
	interp := New(newFakeHost())
	n := ast.Var("n", ast.IntClass, ast.Int(10))
	res := mustRun(t, interp,
		ast.Let(n),
		ast.Do(ast.Expr(ast.Post("++", ast.Ref(n))), ast.Bool(false)),
		ast.Ret(ast.Ref(n)),
	)
	if res.Value != (runtime.IntValue{Val: 11}) {
		t.Fatalf("expected 11, got %#v", res.Value)
	}
}

// stopAfter returns a static native that requests a stop on its n-th call.
func stopAfter(h *fakeHost, interp **Interpreter, n int, calls *int) *ast.Method {
	cls := &ast.Class{Name: "Ticker", Super: h.object}
	return h.native(cls, "tick", true, ast.VoidClass, nil, func(runtime.Value, []runtime.Value) (runtime.Value, error) {
		*calls++
		if *calls == n {
			(*interp).Stop()
		}
		return runtime.VoidValue{}, nil
	})
}

func TestStopAtAnyLoopDepth(t *testing.T) {
	for depth := 1; depth <= 4; depth++ {
		t.Run(fmt.Sprintf("depth%d", depth), func(t *testing.T) {
			h := newFakeHost()
			var interp *Interpreter
			calls := 0
			tick := stopAfter(h, &interp, 5, &calls)
			interp = New(h)

			var body ast.Statement = ast.Expr(ast.Call(tick))
			for level := 0; level < depth; level++ {
				body = ast.While(ast.Bool(true), ast.Blk(body))
			}
			res := interp.Run(context.Background(), ast.Blk(body), nil, nil)
			if res.Outcome != OutcomeStopped {
				t.Fatalf("expected stopped, got %s: %v", res.Outcome, res.Err)
			}
			if res.Err != nil {
				t.Fatalf("expected no error for a stop, got %v", res.Err)
			}
			if calls != 5 {
				t.Fatalf("expected the loop to stop after 5 ticks, got %d", calls)
			}
			if interp.Stack().Len() != 0 {
				t.Fatalf("expected stack reset, got %d", interp.Stack().Len())
			}
		})
	}
}

func TestStopInsideForUpdate(t *testing.T) {
	h := newFakeHost()
	var interp *Interpreter
	calls := 0
	tick := stopAfter(h, &interp, 3, &calls)
	interp = New(h)
	loop := ast.For(nil, nil, []ast.Expression{ast.Call(tick)}, ast.Blk())
	res := interp.Run(context.Background(), ast.Blk(loop), nil, nil)
	if res.Outcome != OutcomeStopped || calls != 3 {
		t.Fatalf("expected stop after 3 updates, got %s after %d", res.Outcome, calls)
	}
}

func TestContextCancellationStopsRun(t *testing.T) {
	interp := New(newFakeHost())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := interp.Run(ctx, ast.Blk(ast.While(ast.Bool(true), ast.Blk())), nil, nil)
	if res.Outcome != OutcomeStopped {
		t.Fatalf("expected stopped, got %s", res.Outcome)
	}
	if res.Duration < 10*time.Millisecond {
		t.Fatalf("expected the run to last until the deadline, got %v", res.Duration)
	}
	// The flag is cleared for the next run.
	res = interp.Run(context.Background(), ast.Blk(ast.Ret(ast.Int(1))), nil, nil)
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected the next run to complete, got %s", res.Outcome)
	}
}

func TestStopBeforeRunIsKept(t *testing.T) {
	interp := New(newFakeHost())
	interp.Stop()
	var events []Event
	res := interp.Run(context.Background(), ast.Blk(ast.Expr(ast.Int(1)), ast.Ret(ast.Int(2))), nil, func(ev Event) { events = append(events, ev) })
	if res.Outcome != OutcomeStopped || len(events) != 0 {
		t.Fatalf("expected a stop before the first statement, got %s after %d events", res.Outcome, len(events))
	}
	if interp.StopRequested() {
		t.Fatalf("expected the stop request to be consumed by the run")
	}
	res = interp.Run(context.Background(), ast.Blk(ast.Ret(ast.Int(2))), nil, nil)
	if res.Outcome != OutcomeCompleted || res.Value != (runtime.IntValue{Val: 2}) {
		t.Fatalf("expected the next run to complete with 2, got %s %#v", res.Outcome, res.Value)
	}
}

func TestEventsPerTopLevelStatement(t *testing.T) {
	interp := New(newFakeHost())
	x := ast.Var("x", ast.IntClass, ast.Int(4))
	var events []Event
	res := interp.Run(context.Background(), ast.Blk(
		ast.Let(x),
		ast.Expr(ast.Bin("*", ast.Ref(x), ast.Int(2))),
		ast.If(ast.Bool(true), ast.Blk(), nil),
	), nil, func(ev Event) { events = append(events, ev) })
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s: %v", res.Outcome, res.Err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Value != (runtime.IntValue{Val: 4}) {
		t.Fatalf("expected declaration value 4, got %#v", events[0].Value)
	}
	if events[1].Value != (runtime.IntValue{Val: 8}) {
		t.Fatalf("expected expression value 8, got %#v", events[1].Value)
	}
	if events[2].Value != nil || events[2].Index != 2 {
		t.Fatalf("expected valueless event at index 2, got %#v", events[2])
	}
}

func TestFailedRunReportsErrorAndResetsStack(t *testing.T) {
	interp := New(newFakeHost())
	x := ast.Var("x", ast.IntClass, ast.Int(1))
	res := interp.Run(context.Background(), ast.Blk(
		ast.Let(x),
		ast.Expr(ast.Bin("/", ast.Ref(x), ast.Int(0))),
	), nil, nil)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %s", res.Outcome)
	}
	if !IsKind(res.Err, ErrArithmetic) {
		t.Fatalf("expected arithmetic error, got %v", res.Err)
	}
	if interp.Stack().Len() != 0 {
		t.Fatalf("expected stack reset, got %d", interp.Stack().Len())
	}
}

func TestBreakOutsideLoopFails(t *testing.T) {
	interp := New(newFakeHost())
	res := interp.Run(context.Background(), ast.Blk(ast.Brk()), nil, nil)
	if res.Outcome != OutcomeFailed || !IsKind(res.Err, ErrType) {
		t.Fatalf("expected type error, got %s: %v", res.Outcome, res.Err)
	}
}

func TestHostPanicBecomesError(t *testing.T) {
	h := newFakeHost()
	cls := &ast.Class{Name: "Boom", Super: h.object}
	boom := h.native(cls, "boom", true, ast.VoidClass, nil, func(runtime.Value, []runtime.Value) (runtime.Value, error) {
		panic("kaboom")
	})
	interp := New(h)
	res := interp.Run(context.Background(), ast.Blk(ast.Expr(ast.Call(boom))), nil, nil)
	if res.Outcome != OutcomeFailed || !IsKind(res.Err, ErrHost) {
		t.Fatalf("expected host failure, got %s: %v", res.Outcome, res.Err)
	}
}
