package interpreter

import (
	"github.com/charmbracelet/log"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evalExpr(this runtime.Value, expr ast.Expression) (runtime.Value, error) {
	switch n := expr.(type) {
	case nil:
		return nil, missingBinding(nil, "missing expression")
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.IntegerLiteral:
		if n.Long {
			return runtime.LongValue{Val: n.Value}, nil
		}
		return runtime.IntValue{Val: int32(n.Value)}, nil
	case *ast.FloatLiteral:
		if n.Single {
			return runtime.FloatValue{Val: float32(n.Value)}, nil
		}
		return runtime.DoubleValue{Val: n.Value}, nil
	case *ast.CharLiteral:
		return runtime.CharValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.NullLiteral:
		return runtime.NullValue{}, nil
	case *ast.Identifier:
		return i.evalIdentifier(this, n)
	case *ast.DotExpression:
		target, err := i.evalExpr(this, n.Target)
		if err != nil {
			return nil, err
		}
		return i.evalMember(this, target, n.Member)
	case *ast.ParenExpression:
		return i.evalExpr(this, n.Expression)
	case *ast.UnaryExpression:
		return i.evalUnary(this, n)
	case *ast.BinaryExpression:
		return i.evalBinary(this, n)
	case *ast.TernaryExpression:
		return i.evalTernary(this, n)
	case *ast.AssignmentExpression:
		return i.evalAssignment(this, n)
	case *ast.IndexExpression:
		return i.evalIndex(this, n)
	case *ast.NewExpression:
		return i.evalNew(this, n)
	case *ast.NewArrayExpression:
		return i.evalNewArray(this, n)
	case *ast.ArrayInitializer:
		return i.evalArrayInitializer(this, n, n.ArrayType)
	case *ast.CastExpression:
		return i.evalCast(this, n)
	case *ast.InstanceOfExpression:
		return i.evalInstanceOf(this, n)
	case *ast.MethodCall:
		return i.evalMethodCall(this, this, n)
	case *ast.LambdaExpression:
		return i.newLambda(this, n)
	case *ast.MethodRefExpression:
		return i.newMethodRef(this, n)
	case *ast.SwitchExpression:
		return nil, unsupported(n, "switch expression")
	default:
		return nil, unsupported(expr, "expression "+string(expr.NodeType()))
	}
}

// Identifiers

func (i *Interpreter) evalIdentifier(this runtime.Value, id *ast.Identifier) (runtime.Value, error) {
	if id.Name == "this" && id.Decl == nil {
		return this, nil
	}
	switch decl := id.Decl.(type) {
	case *ast.LocalVar:
		if decl.Slot < 0 {
			return nil, missingBinding(id, "local %s has no stack slot", decl.Name)
		}
		return i.stack.GetForDeclaration(decl), nil
	case *ast.Field:
		return i.readField(id, decl, this)
	case *ast.Class:
		return runtime.ClassValue{Class: decl}, nil
	}
	return i.lookupByName(id, this), nil
}

// lookupByName handles identifiers the resolver left unbound: a field of the
// receiver's runtime class, then a class name. Anything else reads as null.
func (i *Interpreter) lookupByName(id *ast.Identifier, target runtime.Value) runtime.Value {
	if cls := i.classOf(target); cls != nil {
		if field := cls.FindField(id.Name); field != nil {
			if val, err := i.readField(id, field, target); err == nil {
				return val
			}
		}
	}
	if cls := i.host.ResolveClass(id.Name); cls != nil {
		return runtime.ClassValue{Class: cls}
	}
	log.Debug("unresolved identifier reads as null", "name", id.Name)
	return runtime.NullValue{}
}

// evalMember evaluates the suffix of a dot expression against target, the
// value of the prefix. Call arguments are still evaluated against this.
func (i *Interpreter) evalMember(this, target runtime.Value, member ast.Expression) (runtime.Value, error) {
	switch m := member.(type) {
	case *ast.MethodCall:
		return i.evalMethodCall(this, target, m)
	case *ast.Identifier:
		return i.evalMemberIdentifier(target, m)
	default:
		return i.evalExpr(target, member)
	}
}

func (i *Interpreter) evalMemberIdentifier(target runtime.Value, id *ast.Identifier) (runtime.Value, error) {
	switch id.Name {
	case "class":
		if cv, ok := target.(runtime.ClassValue); ok {
			return cv, nil
		}
		if runtime.IsNull(target) {
			return nil, nullDereference(id, "cannot read class of null")
		}
		return runtime.ClassValue{Class: i.classOf(target)}, nil
	case "this":
		return target, nil
	case "length":
		if arr, ok := target.(*runtime.ArrayValue); ok && id.Decl == nil {
			return runtime.IntValue{Val: int32(len(arr.Elements))}, nil
		}
	}
	switch decl := id.Decl.(type) {
	case *ast.Field:
		return i.readField(id, decl, target)
	case *ast.Class:
		return runtime.ClassValue{Class: decl}, nil
	case *ast.LocalVar:
		return i.stack.GetForDeclaration(decl), nil
	}
	if runtime.IsNull(target) {
		return nil, nullDereference(id, "cannot read field %s of null", id.Name)
	}
	return i.lookupByName(id, target), nil
}

func (i *Interpreter) readField(node ast.Node, field *ast.Field, target runtime.Value) (runtime.Value, error) {
	if !field.Static && runtime.IsNull(target) {
		return nil, nullDereference(node, "cannot read field %s of null", field.Name)
	}
	if field.Static && field.Owner != nil && field.Owner.Decl != nil {
		if err := i.initClass(node, field.Owner); err != nil {
			return nil, err
		}
	}
	val, err := i.host.GetField(field, target)
	if err != nil {
		return nil, wrapHostError(node, "read field "+field.Name, err)
	}
	return val, nil
}

func (i *Interpreter) classOf(v runtime.Value) *ast.Class {
	switch val := v.(type) {
	case nil, runtime.NullValue:
		return nil
	case runtime.ClassValue:
		return val.Class
	}
	return i.host.ClassOf(v)
}

// Arrays

func (i *Interpreter) evalIndex(this runtime.Value, n *ast.IndexExpression) (runtime.Value, error) {
	arrVal, err := i.evalExpr(this, n.Array)
	if err != nil {
		return nil, err
	}
	arr, ok := arrVal.(*runtime.ArrayValue)
	if !ok {
		log.Debug("indexing a non-array reads as null", "kind", kindOf(arrVal))
		return runtime.NullValue{}, nil
	}
	idx, err := i.evalIndexValue(this, n.Index)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(arr.Elements) {
		return nil, indexError(n, idx, len(arr.Elements))
	}
	return arr.Elements[idx], nil
}

func (i *Interpreter) evalIndexValue(this runtime.Value, expr ast.Expression) (int, error) {
	val, err := i.evalExpr(this, expr)
	if err != nil {
		return 0, err
	}
	coerced, err := runtime.Coerce(val, ast.IntClass)
	if err != nil {
		return 0, typeError(expr, "array index: %v", err)
	}
	return int(coerced.(runtime.IntValue).Val), nil
}

func indexError(node ast.Node, idx, length int) error {
	return newRuntimeError(ErrIndex, node, "index %d out of bounds for length %d", idx, length)
}

func (i *Interpreter) evalNewArray(this runtime.Value, n *ast.NewArrayExpression) (runtime.Value, error) {
	arrType := n.Type.Class
	if n.Initializer != nil {
		if n.Initializer.ArrayType != nil {
			arrType = n.Initializer.ArrayType
		}
		return i.evalArrayInitializer(this, n.Initializer, arrType)
	}
	if !arrType.IsArray() {
		return nil, missingBinding(n, "unresolved array type %s", n.Type.Name)
	}
	dims := make([]int, len(n.Dimensions))
	for idx, dim := range n.Dimensions {
		size, err := i.evalIndexValue(this, dim)
		if err != nil {
			return nil, err
		}
		if size < 0 {
			return nil, newRuntimeError(ErrIndex, dim, "negative array size %d", size)
		}
		dims[idx] = size
	}
	return allocArray(arrType, dims), nil
}

func allocArray(arrType *ast.Class, dims []int) *runtime.ArrayValue {
	arr := runtime.NewArray(arrType.Component, dims[0])
	if len(dims) > 1 && arrType.Component.IsArray() {
		for idx := range arr.Elements {
			arr.Elements[idx] = allocArray(arrType.Component, dims[1:])
		}
	}
	return arr
}

func (i *Interpreter) evalArrayInitializer(this runtime.Value, init *ast.ArrayInitializer, arrType *ast.Class) (runtime.Value, error) {
	if !arrType.IsArray() {
		return nil, missingBinding(init, "array initializer without an array type")
	}
	component := arrType.Component
	arr := &runtime.ArrayValue{Component: component, Elements: make([]runtime.Value, len(init.Elements))}
	for idx, elem := range init.Elements {
		var (
			val runtime.Value
			err error
		)
		if nested, ok := elem.(*ast.ArrayInitializer); ok {
			val, err = i.evalArrayInitializer(this, nested, component)
		} else {
			val, err = i.evalExpr(this, elem)
		}
		if err != nil {
			return nil, err
		}
		if val, err = i.coerce(elem, val, component); err != nil {
			return nil, err
		}
		arr.Elements[idx] = val
	}
	return arr, nil
}

// Objects

func (i *Interpreter) evalNew(this runtime.Value, n *ast.NewExpression) (runtime.Value, error) {
	args, err := i.evalArgs(this, n.Arguments)
	if err != nil {
		return nil, err
	}
	cls := n.Type.Class
	if cls == nil {
		return nil, missingBinding(n, "unresolved class %s", n.Type.Name)
	}
	return i.instantiate(n, cls, n.Constructor, args)
}

// instantiate creates an instance of cls. Program classes get their field
// initializers and constructor body interpreted; host classes use the
// no-arg shortcut or the resolved constructor.
func (i *Interpreter) instantiate(node ast.Node, cls *ast.Class, ctor *ast.Constructor, args []runtime.Value) (runtime.Value, error) {
	if cls.Interface {
		return nil, typeError(node, "cannot instantiate interface %s", cls.Name)
	}
	if cls.Decl != nil {
		return i.constructProgramObject(node, cls, ctor, args)
	}
	if len(args) == 0 && ctor == nil {
		obj, err := i.host.NewInstance(cls)
		return obj, wrapHostError(node, "new "+cls.Name, err)
	}
	if ctor == nil {
		return nil, missingBinding(node, "no constructor of %s takes %d arguments", cls.Name, len(args))
	}
	if ctor.VarArgs {
		args = packVarArgs(ctor.Params, args)
	}
	obj, err := i.host.Construct(ctor, args)
	return obj, wrapHostError(node, "new "+cls.Name, err)
}

func (i *Interpreter) evalCast(this runtime.Value, n *ast.CastExpression) (runtime.Value, error) {
	val, err := i.evalExpr(this, n.Expression)
	if err != nil {
		return nil, err
	}
	target := n.Type.Class
	if target == nil || !target.IsPrimitive() {
		return val, nil
	}
	if runtime.IsNull(val) {
		return nil, typeError(n, "cannot cast null to %s", target.Name)
	}
	if runtime.IsAssignablePrimitive(val, target) {
		return val, nil
	}
	coerced, err := runtime.Coerce(val, target)
	if err != nil {
		return nil, typeError(n, "bad cast: %v", err)
	}
	return coerced, nil
}

func (i *Interpreter) evalInstanceOf(this runtime.Value, n *ast.InstanceOfExpression) (runtime.Value, error) {
	val, err := i.evalExpr(this, n.Expression)
	if err != nil {
		return nil, err
	}
	if runtime.IsNull(val) {
		return runtime.BoolValue{Val: false}, nil
	}
	target := n.Type.Class
	if target == nil {
		return nil, missingBinding(n, "unresolved type %s", n.Type.Name)
	}
	return runtime.BoolValue{Val: target.IsAssignableFrom(i.classOf(val))}, nil
}

// Calls

func (i *Interpreter) evalArgs(this runtime.Value, exprs []ast.Expression) ([]runtime.Value, error) {
	args := make([]runtime.Value, len(exprs))
	for idx, expr := range exprs {
		val, err := i.evalExpr(this, expr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}
	return args, nil
}

// evalMethodCall evaluates arguments against this and calls the resolved
// method on target (this itself for an unqualified call).
func (i *Interpreter) evalMethodCall(this, target runtime.Value, call *ast.MethodCall) (runtime.Value, error) {
	args, err := i.evalArgs(this, call.Arguments)
	if err != nil {
		return nil, err
	}
	method := call.Method
	if method == nil {
		return nil, missingBinding(call, "method %s not found", call.Name)
	}
	receiver := target
	if method.Static {
		receiver = runtime.NullValue{}
	} else if runtime.IsNull(target) {
		return nil, nullDereference(call, "cannot invoke %s on null", method.Name)
	}
	return i.invoke(call, method, receiver, args)
}

func (i *Interpreter) invoke(node ast.Node, method *ast.Method, receiver runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if method.VarArgs {
		args = packVarArgs(method.Params, args)
	}
	if method.Decl != nil && method.Decl.Body != nil {
		if method.Static && method.Owner != nil && method.Owner.Decl != nil {
			if err := i.initClass(node, method.Owner); err != nil {
				return nil, err
			}
		}
		result, err := i.callBody(node, method.Decl, receiver, args)
		if err != nil {
			return nil, err
		}
		if _, void := result.(runtime.VoidValue); void {
			return result, nil
		}
		return i.coerce(node, result, method.Return)
	}
	if fn, ok := receiver.(runtime.Callable); ok && method.Abstract {
		return fn.Call(method, args)
	}
	result, err := i.host.Invoke(method, receiver, args)
	if err != nil {
		return nil, wrapHostError(node, "call "+method.String(), err)
	}
	if result == nil {
		return runtime.VoidValue{}, nil
	}
	return result, nil
}

// callBody runs an interpreted method or constructor body in a fresh frame.
func (i *Interpreter) callBody(node ast.Node, decl *ast.MethodDecl, receiver runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if i.depth >= i.maxDepth {
		return nil, newRuntimeError(ErrStackOverflow, node, "call depth exceeded %d in %s", i.maxDepth, decl.Name)
	}
	i.ensureLayout(decl)
	i.depth++
	i.stack.PushFrame()
	defer func() {
		i.stack.PopFrame()
		i.depth--
	}()
	for idx, param := range decl.Parameters {
		var arg runtime.Value = runtime.NullValue{}
		if idx < len(args) {
			arg = args[idx]
		}
		if err := i.bindLocal(param, param.Local, arg); err != nil {
			return nil, err
		}
	}
	_, err := i.execBlock(receiver, decl.Body)
	if err == nil {
		return runtime.VoidValue{}, nil
	}
	switch sig := err.(type) {
	case returnSignal:
		return sig.value, nil
	case breakSignal, continueSignal:
		return nil, typeError(node, "%s outside of a loop", sig.Error())
	}
	return nil, err
}

// bindLocal coerces v to the local's declared type and stores it.
func (i *Interpreter) bindLocal(node ast.Node, local *ast.LocalVar, v runtime.Value) error {
	if local == nil {
		return missingBinding(node, "declaration was never resolved")
	}
	coerced, err := i.coerce(node, v, local.Type)
	if err != nil {
		return err
	}
	if !i.stack.SetForDeclaration(local, coerced) {
		return missingBinding(node, "local %s has no stack slot", local.Name)
	}
	return nil
}

func (i *Interpreter) coerce(node ast.Node, v runtime.Value, target *ast.Class) (runtime.Value, error) {
	coerced, err := runtime.Coerce(v, target)
	if err != nil {
		return nil, typeError(node, "%v", err)
	}
	return coerced, nil
}

// packVarArgs folds trailing arguments into the array the last parameter
// expects, unless the caller already passed one.
func packVarArgs(params []*ast.Class, args []runtime.Value) []runtime.Value {
	n := len(params)
	if n == 0 || !params[n-1].IsArray() {
		return args
	}
	if len(args) == n {
		if _, ok := args[n-1].(*runtime.ArrayValue); ok || runtime.IsNull(args[n-1]) {
			return args
		}
	}
	if len(args) < n-1 {
		return args
	}
	component := params[n-1].Component
	rest := &runtime.ArrayValue{Component: component, Elements: make([]runtime.Value, 0, len(args)-n+1)}
	for _, arg := range args[n-1:] {
		if coerced, err := runtime.Coerce(arg, component); err == nil {
			arg = coerced
		}
		rest.Elements = append(rest.Elements, arg)
	}
	packed := append(append([]runtime.Value{}, args[:n-1]...), rest)
	return packed
}

func kindOf(v runtime.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
