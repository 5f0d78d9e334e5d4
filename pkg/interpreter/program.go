package interpreter

import (
	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// initClass evaluates a program class's static field initializers the first
// time the class is used in a run.
func (i *Interpreter) initClass(node ast.Node, cls *ast.Class) error {
	if cls.Decl == nil || i.initialized[cls] {
		return nil
	}
	i.initialized[cls] = true
	i.ensureLayout(cls.Decl)
	for _, fd := range cls.Decl.Fields {
		if !fd.Static {
			continue
		}
		if err := i.initField(fd, runtime.NullValue{}); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) initField(fd *ast.FieldDecl, target runtime.Value) error {
	if fd.Field == nil {
		return missingBinding(fd, "field %s was never resolved", fd.Name)
	}
	val := runtime.ZeroValue(fd.Field.Type)
	if fd.Initializer != nil {
		i.stack.PushFrame()
		v, err := i.evalExpr(target, fd.Initializer)
		i.stack.PopFrame()
		if err != nil {
			return err
		}
		if val, err = i.coerce(fd, v, fd.Field.Type); err != nil {
			return err
		}
	}
	return wrapHostError(fd, "initialize field "+fd.Name, i.host.SetField(fd.Field, target, val))
}

// constructProgramObject runs field initializers and then the constructor
// body, with the new object as receiver.
func (i *Interpreter) constructProgramObject(node ast.Node, cls *ast.Class, ctor *ast.Constructor, args []runtime.Value) (runtime.Value, error) {
	if err := i.initClass(node, cls); err != nil {
		return nil, err
	}
	if ctor == nil && (len(args) > 0 || len(cls.Constructors) > 0) {
		ctor = cls.FindConstructor(len(args))
		if ctor == nil {
			return nil, missingBinding(node, "no constructor of %s takes %d arguments", cls.Name, len(args))
		}
	}
	obj, err := i.host.NewInstance(cls)
	if err != nil {
		return nil, wrapHostError(node, "new "+cls.Name, err)
	}
	for _, fd := range cls.Decl.Fields {
		if fd.Static {
			continue
		}
		if err := i.initField(fd, obj); err != nil {
			return nil, err
		}
	}
	if ctor != nil && ctor.Decl != nil {
		if ctor.VarArgs {
			args = packVarArgs(ctor.Params, args)
		}
		if _, err := i.callBody(node, ctor.Decl, obj, args); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// stringify renders v for string concatenation, running an interpreted
// toString when the value's class declares one.
func (i *Interpreter) stringify(node ast.Node, v runtime.Value) (string, error) {
	if obj, ok := v.(*runtime.ObjectValue); ok && obj.Class.Decl != nil {
		if m := obj.Class.FindMethod("toString", 0); m != nil && m.Decl != nil {
			res, err := i.invoke(node, m, obj, nil)
			if err != nil {
				return "", err
			}
			return i.stringify(node, res)
		}
	}
	return runtime.String(v), nil
}

// Stringify is stringify for host code, e.g. a console printing a program
// object.
func (i *Interpreter) Stringify(v runtime.Value) (string, error) {
	return i.stringify(nil, v)
}
