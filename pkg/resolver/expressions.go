package resolver

import (
	"fmt"

	"snapcode/interpreter-go/pkg/ast"
)

// resolveExpr binds expr and returns its static type. expected is the type
// the context wants, used to give lambdas and method references their
// interface and array initializers their array type.
func (r *Resolver) resolveExpr(env *Environment, expr ast.Expression, expected *ast.Class) staticType {
	switch e := expr.(type) {
	case nil:
		return staticType{}
	case *ast.BooleanLiteral:
		return staticType{class: ast.BooleanClass}
	case *ast.IntegerLiteral:
		if e.Long {
			return staticType{class: ast.LongClass}
		}
		return staticType{class: ast.IntClass}
	case *ast.FloatLiteral:
		if e.Single {
			return staticType{class: ast.FloatClass}
		}
		return staticType{class: ast.DoubleClass}
	case *ast.CharLiteral:
		return staticType{class: ast.CharClass}
	case *ast.StringLiteral:
		return staticType{class: r.stringClass()}
	case *ast.NullLiteral:
		return staticType{}
	case *ast.Identifier:
		return r.resolveIdentifier(env, e)
	case *ast.ParenExpression:
		return r.resolveExpr(env, e.Expression, expected)
	case *ast.DotExpression:
		target := r.resolveExpr(env, e.Target, nil)
		return r.resolveMember(env, target, e.Member)
	case *ast.MethodCall:
		return r.resolveCall(env, staticType{class: r.current}, e)
	case *ast.UnaryExpression:
		return r.resolveUnary(env, e)
	case *ast.BinaryExpression:
		return r.resolveBinary(env, e)
	case *ast.TernaryExpression:
		r.resolveExpr(env, e.Condition, ast.BooleanClass)
		then := r.resolveExpr(env, e.Then, expected)
		other := r.resolveExpr(env, e.Else, expected)
		if then.class == nil {
			return other
		}
		return then
	case *ast.AssignmentExpression:
		target := r.resolveExpr(env, e.Target, nil)
		r.resolveExpr(env, e.Value, target.class)
		return target
	case *ast.IndexExpression:
		arr := r.resolveExpr(env, e.Array, nil)
		r.resolveExpr(env, e.Index, ast.IntClass)
		if arr.class.IsArray() {
			return staticType{class: arr.class.Component}
		}
		return staticType{}
	case *ast.NewExpression:
		return r.resolveNew(env, e)
	case *ast.NewArrayExpression:
		typ := r.resolveType(e.Type)
		for _, dim := range e.Dimensions {
			r.resolveExpr(env, dim, ast.IntClass)
		}
		if e.Initializer != nil {
			r.resolveExpr(env, e.Initializer, typ)
		}
		return staticType{class: typ}
	case *ast.ArrayInitializer:
		if e.ArrayType == nil && expected.IsArray() {
			e.ArrayType = expected
		}
		var component *ast.Class
		if e.ArrayType != nil {
			component = e.ArrayType.Component
		}
		for _, el := range e.Elements {
			if nested, ok := el.(*ast.ArrayInitializer); ok && nested.ArrayType == nil && component.IsArray() {
				nested.ArrayType = component
			}
			r.resolveExpr(env, el, component)
		}
		return staticType{class: e.ArrayType}
	case *ast.CastExpression:
		typ := r.resolveType(e.Type)
		r.resolveExpr(env, e.Expression, typ)
		return staticType{class: typ}
	case *ast.InstanceOfExpression:
		r.resolveExpr(env, e.Expression, nil)
		r.resolveType(e.Type)
		return staticType{class: ast.BooleanClass}
	case *ast.LambdaExpression:
		r.resolveLambda(env, e, expected)
		return staticType{class: e.Interface}
	case *ast.MethodRefExpression:
		r.resolveMethodRef(env, e, expected)
		return staticType{class: e.Interface}
	case *ast.SwitchExpression:
		r.resolveExpr(env, e.Selector, nil)
		return staticType{}
	}
	return staticType{}
}

func (r *Resolver) stringClass() *ast.Class {
	return r.classes.ResolveClass("String")
}

// resolveIdentifier binds a bare name: a local, a field of the program
// class, then a class. "this" stays unbound and evaluates to the receiver.
func (r *Resolver) resolveIdentifier(env *Environment, id *ast.Identifier) staticType {
	if id.Name == "this" {
		id.Decl = nil
		return staticType{class: r.current}
	}
	if local, ok := env.Lookup(id.Name); ok {
		id.Decl = local
		return staticType{class: local.Type}
	}
	if r.current != nil {
		if field := r.current.FindField(id.Name); field != nil {
			id.Decl = field
			return staticType{class: field.Type}
		}
	}
	if cls := r.lookupType(id.Name); cls != nil {
		id.Decl = cls
		return staticType{class: cls, static: true}
	}
	r.warn(id, "unresolved name %s", id.Name)
	return staticType{}
}

// resolveMember binds the suffix of a dot expression against the prefix's
// static type.
func (r *Resolver) resolveMember(env *Environment, target staticType, member ast.Expression) staticType {
	switch m := member.(type) {
	case *ast.MethodCall:
		return r.resolveCall(env, target, m)
	case *ast.Identifier:
		switch {
		case m.Name == "class" && target.static:
			return staticType{class: r.classes.ResolveClass("Class")}
		case m.Name == "length" && target.class.IsArray():
			return staticType{class: ast.IntClass}
		case m.Name == "this":
			return staticType{class: target.class}
		}
		if target.class != nil {
			if field := target.class.FindField(m.Name); field != nil {
				m.Decl = field
				return staticType{class: field.Type}
			}
		}
		r.warn(m, "unresolved member %s", m.Name)
		return staticType{}
	default:
		return r.resolveExpr(env, member, nil)
	}
}

// resolveCall picks the method by name and argument count on the
// receiver's static type. A call on a receiver whose type is unknown, or
// whose type lacks the method, is bound late: the host dispatches it on the
// runtime class.
func (r *Resolver) resolveCall(env *Environment, recv staticType, call *ast.MethodCall) staticType {
	var method *ast.Method
	if recv.class != nil {
		method = recv.class.FindMethod(call.Name, len(call.Arguments))
		if method != nil && recv.static && !method.Static {
			method = nil
		}
	}
	if method == nil {
		if recv.static {
			r.warn(call, "no static method %s.%s taking %d arguments", recv.class.Name, call.Name, len(call.Arguments))
		} else {
			method = r.lateBoundMethod(call.Name, len(call.Arguments))
		}
	}
	call.Method = method
	for idx, arg := range call.Arguments {
		r.resolveExpr(env, arg, paramType(method, idx))
	}
	if method == nil {
		return staticType{}
	}
	return staticType{class: method.Return}
}

// lateBoundMethod is the shared placeholder for name and arity.
func (r *Resolver) lateBoundMethod(name string, argCount int) *ast.Method {
	key := fmt.Sprintf("%s/%d", name, argCount)
	if m, ok := r.lateBound[key]; ok {
		return m
	}
	params := make([]*ast.Class, argCount)
	for idx := range params {
		params[idx] = r.object
	}
	m := &ast.Method{Name: name, Owner: r.object, Params: params}
	r.lateBound[key] = m
	return m
}

// paramType is the declared type of argument idx, unwrapping a var-args
// array for the trailing arguments.
func paramType(method *ast.Method, idx int) *ast.Class {
	if method == nil || len(method.Params) == 0 {
		return nil
	}
	last := len(method.Params) - 1
	if method.VarArgs && idx >= last {
		if method.Params[last].IsArray() {
			return method.Params[last].Component
		}
		return nil
	}
	if idx > last {
		return nil
	}
	return method.Params[idx]
}

func (r *Resolver) resolveNew(env *Environment, e *ast.NewExpression) staticType {
	cls := r.resolveType(e.Type)
	if cls == nil {
		for _, arg := range e.Arguments {
			r.resolveExpr(env, arg, nil)
		}
		return staticType{}
	}
	ctor := cls.FindConstructor(len(e.Arguments))
	e.Constructor = ctor
	for idx, arg := range e.Arguments {
		var expected *ast.Class
		if ctor != nil && idx < len(ctor.Params) {
			expected = ctor.Params[idx]
		}
		r.resolveExpr(env, arg, expected)
	}
	return staticType{class: cls}
}

func isString(cls *ast.Class) bool {
	return cls != nil && cls.Name == "String"
}

func (r *Resolver) resolveUnary(env *Environment, e *ast.UnaryExpression) staticType {
	operand := r.resolveExpr(env, e.Operand, nil)
	switch e.Operator {
	case "!":
		return staticType{class: ast.BooleanClass}
	case "++", "--":
		return operand
	default:
		return staticType{class: promote(operand.class, ast.IntClass)}
	}
}

func (r *Resolver) resolveBinary(env *Environment, e *ast.BinaryExpression) staticType {
	left := r.resolveExpr(env, e.Left, nil)
	right := r.resolveExpr(env, e.Right, nil)
	switch e.Operator {
	case "&&", "||", "==", "!=", "<", "<=", ">", ">=":
		return staticType{class: ast.BooleanClass}
	case "+":
		if isString(left.class) || isString(right.class) {
			return staticType{class: r.stringClass()}
		}
	}
	return staticType{class: promote(left.class, right.class)}
}

// promote is binary numeric promotion over static types; unknown operands
// give an unknown result.
func promote(a, b *ast.Class) *ast.Class {
	if !a.IsNumeric() || !b.IsNumeric() {
		return nil
	}
	for _, wide := range []*ast.Class{ast.DoubleClass, ast.FloatClass, ast.LongClass} {
		if a == wide || b == wide {
			return wide
		}
	}
	return ast.IntClass
}

//-----------------------------------------------------------------------------
// Functional expressions
//-----------------------------------------------------------------------------

func (r *Resolver) resolveLambda(env *Environment, e *ast.LambdaExpression, expected *ast.Class) {
	var sam *ast.Method
	if expected != nil && expected.Interface {
		e.Interface = expected
		sam = expected.FunctionalMethod()
	}
	if e.Interface == nil {
		r.warn(e, "cannot infer the interface of a lambda")
	}
	scope := env.Extend()
	for idx, p := range e.Parameters {
		typ := r.resolveType(p.Type)
		if typ == nil && sam != nil && idx < len(sam.Params) {
			typ = sam.Params[idx]
		}
		scope.Declare(p, typ)
	}
	var ret *ast.Class
	if sam != nil {
		ret = sam.Return
	}
	switch body := e.Body.(type) {
	case *ast.Block:
		r.returnTypes = append(r.returnTypes, ret)
		r.resolveBlock(scope, body)
		r.returnTypes = r.returnTypes[:len(r.returnTypes)-1]
	case ast.Expression:
		if ret == ast.VoidClass {
			ret = nil
		}
		r.resolveExpr(scope, body, ret)
	}
}

func (r *Resolver) resolveMethodRef(env *Environment, e *ast.MethodRefExpression, expected *ast.Class) {
	target := r.resolveExpr(env, e.Target, nil)
	var arity int
	if expected != nil && expected.Interface {
		e.Interface = expected
		if sam := expected.FunctionalMethod(); sam != nil {
			arity = len(sam.Params)
		}
	}
	if e.Interface == nil {
		r.warn(e, "cannot infer the interface of %s::%s", describe(target), e.Name)
	}
	cls := target.class
	if cls == nil {
		r.warn(e, "unresolved method reference target")
		return
	}
	if e.Name == "new" {
		if !cls.IsArray() {
			e.Constructor = cls.FindConstructor(arity)
		}
		return
	}
	if target.static {
		// Class::method is a static method taking every argument, or an
		// instance method whose receiver is the first argument.
		for _, m := range cls.FindMethods(e.Name) {
			if m.Static && len(m.Params) == arity {
				e.Method = m
				return
			}
		}
		if arity > 0 {
			if m := cls.FindMethod(e.Name, arity-1); m != nil && !m.Static {
				e.Method = m
				return
			}
		}
	} else if m := cls.FindMethod(e.Name, arity); m != nil {
		e.Method = m
		return
	}
	if !target.static && e.Method == nil {
		e.Method = r.lateBoundMethod(e.Name, arity)
		return
	}
	r.warn(e, "no method %s::%s taking %d arguments", cls.Name, e.Name, arity)
}

func describe(t staticType) string {
	if t.class == nil {
		return "?"
	}
	return t.class.Name
}
