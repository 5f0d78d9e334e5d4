package interpreter

import (
	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// Functional is an interpreted lambda or method reference standing in for a
// functional interface. Invoking the interface's abstract method re-enters
// the interpreter; any other method is forwarded to the host, which owns the
// default implementations.
type Functional struct {
	interp   *Interpreter
	iface    *ast.Class
	sam      *ast.Method
	receiver runtime.Value

	lambda   *ast.LambdaExpression
	captures map[*ast.LocalVar]runtime.Value

	ref   *ast.MethodRefExpression
	class *ast.Class    // class a static, unbound or constructor reference names
	bound runtime.Value // evaluated target of a bound reference
}

func (f *Functional) Kind() runtime.Kind { return runtime.KindFunctional }

func (f *Functional) Interface() *ast.Class { return f.iface }

// Call invokes method on the functional value. A nil method means the
// interface's single abstract method.
func (f *Functional) Call(method *ast.Method, args []runtime.Value) (runtime.Value, error) {
	if method != nil && !method.Abstract {
		if method.Decl != nil && method.Decl.Body != nil {
			return f.interp.invoke(nil, method, f, args)
		}
		result, err := f.interp.host.Invoke(method, f, args)
		if err != nil {
			return nil, wrapHostError(nil, "call "+method.String(), err)
		}
		return result, nil
	}
	var (
		result runtime.Value
		err    error
	)
	if f.lambda != nil {
		result, err = f.callLambda(args)
	} else {
		result, err = f.callRef(args)
	}
	if err != nil {
		return nil, err
	}
	ret := f.sam.Return
	if method != nil {
		ret = method.Return
	}
	if ret == ast.VoidClass {
		return runtime.VoidValue{}, nil
	}
	if _, void := result.(runtime.VoidValue); void {
		return nil, typeError(f.node(), "%s must return a value", f.sam.Name)
	}
	return f.interp.coerce(f.node(), result, ret)
}

func (f *Functional) node() ast.Node {
	if f.lambda != nil {
		return f.lambda
	}
	return f.ref
}

func (f *Functional) callLambda(args []runtime.Value) (runtime.Value, error) {
	i := f.interp
	if len(args) != len(f.lambda.Parameters) {
		return nil, typeError(f.lambda, "lambda takes %d arguments, got %d", len(f.lambda.Parameters), len(args))
	}
	if i.depth >= i.maxDepth {
		return nil, newRuntimeError(ErrStackOverflow, f.lambda, "call depth exceeded %d in lambda", i.maxDepth)
	}
	i.ensureLayout(f.lambda)
	i.depth++
	i.stack.PushCapturedFrame(f.captures)
	defer func() {
		i.stack.PopFrame()
		i.depth--
	}()
	for idx, param := range f.lambda.Parameters {
		if err := i.bindLocal(param, param.Local, args[idx]); err != nil {
			return nil, err
		}
	}
	switch body := f.lambda.Body.(type) {
	case ast.Expression:
		return i.evalExpr(f.receiver, body)
	case *ast.Block:
		_, err := i.execBlock(f.receiver, body)
		if err == nil {
			return runtime.VoidValue{}, nil
		}
		switch sig := err.(type) {
		case returnSignal:
			return sig.value, nil
		case breakSignal, continueSignal:
			return nil, typeError(f.lambda, "%s outside of a loop", sig.Error())
		}
		return nil, err
	}
	return nil, missingBinding(f.lambda, "lambda has no body")
}

func (f *Functional) callRef(args []runtime.Value) (runtime.Value, error) {
	i := f.interp
	ref := f.ref
	if ref.Name == "new" {
		if f.class.IsArray() {
			if len(args) != 1 {
				return nil, typeError(ref, "array constructor reference takes one length")
			}
			size, err := i.coerce(ref, args[0], ast.IntClass)
			if err != nil {
				return nil, err
			}
			return allocArray(f.class, []int{int(size.(runtime.IntValue).Val)}), nil
		}
		ctor := ref.Constructor
		if ctor == nil && len(args) > 0 {
			ctor = f.class.FindConstructor(len(args))
		}
		return i.instantiate(ref, f.class, ctor, args)
	}
	method := ref.Method
	switch {
	case method.Static:
		return i.invoke(ref, method, runtime.NullValue{}, args)
	case f.bound != nil:
		return i.invoke(ref, method, f.bound, args)
	default:
		if len(args) == 0 {
			return nil, typeError(ref, "%s::%s needs a receiver argument", f.class.Name, ref.Name)
		}
		if runtime.IsNull(args[0]) {
			return nil, nullDereference(ref, "cannot invoke %s on null", ref.Name)
		}
		return i.invoke(ref, method, args[0], args[1:])
	}
}

// newLambda builds the functional value for a lambda, snapshotting the
// enclosing locals its body reads.
func (i *Interpreter) newLambda(this runtime.Value, n *ast.LambdaExpression) (runtime.Value, error) {
	iface, sam, err := functionalTarget(n, n.Interface, "lambda")
	if err != nil {
		return nil, err
	}
	free := i.lambdaFreeLocals(n)
	captures := make(map[*ast.LocalVar]runtime.Value, len(free))
	for _, local := range free {
		captures[local] = i.stack.GetForDeclaration(local)
	}
	return &Functional{interp: i, iface: iface, sam: sam, receiver: this, lambda: n, captures: captures}, nil
}

func (i *Interpreter) newMethodRef(this runtime.Value, n *ast.MethodRefExpression) (runtime.Value, error) {
	iface, sam, err := functionalTarget(n, n.Interface, "method reference")
	if err != nil {
		return nil, err
	}
	f := &Functional{interp: i, iface: iface, sam: sam, receiver: this, ref: n}
	target, err := i.evalExpr(this, n.Target)
	if err != nil {
		return nil, err
	}
	if cv, ok := target.(runtime.ClassValue); ok {
		f.class = cv.Class
	} else if n.Name == "new" {
		return nil, typeError(n, "constructor reference needs a class")
	} else {
		if runtime.IsNull(target) {
			return nil, nullDereference(n, "cannot reference %s on null", n.Name)
		}
		f.bound = target
	}
	if n.Name != "new" && n.Method == nil {
		return nil, missingBinding(n, "method %s not found", n.Name)
	}
	return f, nil
}

func functionalTarget(node ast.Node, iface *ast.Class, what string) (*ast.Class, *ast.Method, error) {
	if iface == nil {
		return nil, nil, missingBinding(node, "cannot determine the target interface of %s", what)
	}
	sam := iface.FunctionalMethod()
	if sam == nil {
		return nil, nil, typeError(node, "%s is not a functional interface", iface.Name)
	}
	return iface, sam, nil
}

// lambdaFreeLocals lists locals read in the lambda body but declared
// outside it.
func (i *Interpreter) lambdaFreeLocals(n *ast.LambdaExpression) []*ast.LocalVar {
	if free, ok := i.freeLocals[n]; ok {
		return free
	}
	declared := make(map[*ast.LocalVar]bool)
	for _, p := range n.Parameters {
		declared[p.Local] = true
	}
	seen := make(map[*ast.LocalVar]bool)
	var free []*ast.LocalVar
	ast.Inspect(n.Body, func(node ast.Node) bool {
		switch v := node.(type) {
		case *ast.VarDecl:
			declared[v.Local] = true
		case *ast.LambdaExpression:
			for _, p := range v.Parameters {
				declared[p.Local] = true
			}
		case *ast.Identifier:
			if local := v.Local(); local != nil && !seen[local] {
				seen[local] = true
				free = append(free, local)
			}
		}
		return true
	})
	out := free[:0]
	for _, local := range free {
		if !declared[local] {
			out = append(out, local)
		}
	}
	i.freeLocals[n] = out
	return out
}
