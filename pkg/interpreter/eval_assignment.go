package interpreter

import (
	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

type lvalueKind int

const (
	lvalueLocal lvalueKind = iota
	lvalueField
	lvalueElement
)

// lvalue is an evaluated assignment target.
type lvalue struct {
	kind   lvalueKind
	node   ast.Node
	local  *ast.LocalVar
	field  *ast.Field
	object runtime.Value
	array  *runtime.ArrayValue
	index  int
}

// declaredType is the class values stored through the lvalue are coerced to.
func (lv lvalue) declaredType() *ast.Class {
	switch lv.kind {
	case lvalueLocal:
		return lv.local.Type
	case lvalueField:
		return lv.field.Type
	default:
		return lv.array.Component
	}
}

func (i *Interpreter) resolveTarget(this runtime.Value, target ast.Expression) (lvalue, error) {
	switch t := target.(type) {
	case *ast.ParenExpression:
		return i.resolveTarget(this, t.Expression)
	case *ast.Identifier:
		switch decl := t.Decl.(type) {
		case *ast.LocalVar:
			return lvalue{kind: lvalueLocal, node: t, local: decl}, nil
		case *ast.Field:
			return i.fieldTarget(t, decl, this)
		}
		return i.fieldTargetByName(t, this)
	case *ast.DotExpression:
		id, ok := t.Member.(*ast.Identifier)
		if !ok {
			return lvalue{}, typeError(t, "invalid assignment target")
		}
		obj, err := i.evalExpr(this, t.Target)
		if err != nil {
			return lvalue{}, err
		}
		if field, ok := id.Decl.(*ast.Field); ok {
			return i.fieldTarget(id, field, obj)
		}
		return i.fieldTargetByName(id, obj)
	case *ast.IndexExpression:
		arrVal, err := i.evalExpr(this, t.Array)
		if err != nil {
			return lvalue{}, err
		}
		arr, ok := arrVal.(*runtime.ArrayValue)
		if !ok {
			if runtime.IsNull(arrVal) {
				return lvalue{}, nullDereference(t, "cannot store into null array")
			}
			return lvalue{}, typeError(t, "cannot index %s", kindOf(arrVal))
		}
		idx, err := i.evalIndexValue(this, t.Index)
		if err != nil {
			return lvalue{}, err
		}
		if idx < 0 || idx >= len(arr.Elements) {
			return lvalue{}, indexError(t, idx, len(arr.Elements))
		}
		return lvalue{kind: lvalueElement, node: t, array: arr, index: idx}, nil
	}
	return lvalue{}, typeError(target, "invalid assignment target")
}

func (i *Interpreter) fieldTarget(node ast.Node, field *ast.Field, obj runtime.Value) (lvalue, error) {
	if !field.Static && runtime.IsNull(obj) {
		return lvalue{}, nullDereference(node, "cannot assign field %s of null", field.Name)
	}
	return lvalue{kind: lvalueField, node: node, field: field, object: obj}, nil
}

func (i *Interpreter) fieldTargetByName(id *ast.Identifier, obj runtime.Value) (lvalue, error) {
	if cls := i.classOf(obj); cls != nil {
		if field := cls.FindField(id.Name); field != nil {
			return i.fieldTarget(id, field, obj)
		}
	}
	return lvalue{}, missingBinding(id, "cannot assign to unresolved name %s", id.Name)
}

func (i *Interpreter) load(lv lvalue) (runtime.Value, error) {
	switch lv.kind {
	case lvalueLocal:
		if lv.local.Slot < 0 {
			return nil, missingBinding(lv.node, "local %s has no stack slot", lv.local.Name)
		}
		return i.stack.GetForDeclaration(lv.local), nil
	case lvalueField:
		return i.readField(lv.node, lv.field, lv.object)
	default:
		return lv.array.Elements[lv.index], nil
	}
}

// store coerces v to the target's declared type, writes it and returns the
// stored value.
func (i *Interpreter) store(lv lvalue, v runtime.Value) (runtime.Value, error) {
	coerced, err := i.coerce(lv.node, v, lv.declaredType())
	if err != nil {
		return nil, err
	}
	switch lv.kind {
	case lvalueLocal:
		if !i.stack.SetForDeclaration(lv.local, coerced) {
			return nil, missingBinding(lv.node, "local %s has no stack slot", lv.local.Name)
		}
	case lvalueField:
		if lv.field.Static && lv.field.Owner != nil && lv.field.Owner.Decl != nil {
			if err := i.initClass(lv.node, lv.field.Owner); err != nil {
				return nil, err
			}
		}
		if err := i.host.SetField(lv.field, lv.object, coerced); err != nil {
			return nil, wrapHostError(lv.node, "assign field "+lv.field.Name, err)
		}
	default:
		lv.array.Elements[lv.index] = coerced
	}
	return coerced, nil
}

func (i *Interpreter) evalAssignment(this runtime.Value, n *ast.AssignmentExpression) (runtime.Value, error) {
	op := n.Operator.BinaryOperator()
	if isBitwiseOperator(op) {
		return nil, unsupported(n, "bitwise assignment "+string(n.Operator))
	}
	target, err := i.resolveTarget(this, n.Target)
	if err != nil {
		return nil, err
	}
	value, err := i.evalExpr(this, n.Value)
	if err != nil {
		return nil, err
	}
	if op != "" {
		current, err := i.load(target)
		if err != nil {
			return nil, err
		}
		if value, err = i.applyBinary(n, op, current, value); err != nil {
			return nil, err
		}
	}
	return i.store(target, value)
}

// evalIncrement handles ++ and -- in both positions. The stored value keeps
// the target's type, so a char stays a char.
func (i *Interpreter) evalIncrement(this runtime.Value, n *ast.UnaryExpression) (runtime.Value, error) {
	target, err := i.resolveTarget(this, n.Operand)
	if err != nil {
		return nil, err
	}
	current, err := i.load(target)
	if err != nil {
		return nil, err
	}
	if !runtime.IsNumeric(current) {
		return nil, typeError(n, "operator %s requires a number, got %s", n.Operator, kindOf(current))
	}
	op := "+"
	if n.Operator == "--" {
		op = "-"
	}
	next, err := arithmetic(n, op, current, runtime.IntValue{Val: 1})
	if err != nil {
		return nil, err
	}
	if target.declaredType() == nil {
		if next, err = i.coerce(n, next, runtime.PrimitiveClassOf(current)); err != nil {
			return nil, err
		}
	}
	stored, err := i.store(target, next)
	if err != nil {
		return nil, err
	}
	if n.Postfix {
		return current, nil
	}
	return stored, nil
}
