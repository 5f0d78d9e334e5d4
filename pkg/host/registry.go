package host

import (
	"fmt"
	"io"
	"os"
	"strings"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// NativeFunc implements a host method. recv is NullValue for static methods.
type NativeFunc func(recv runtime.Value, args []runtime.Value) (runtime.Value, error)

// NativeCtor implements a host constructor.
type NativeCtor func(args []runtime.Value) (runtime.Value, error)

// Invoker runs interpreted code on behalf of host methods: program-class
// overrides reached through virtual dispatch, and interpreted toString.
type Invoker interface {
	Invoke(method *ast.Method, receiver runtime.Value, args []runtime.Value) (runtime.Value, error)
	Stringify(v runtime.Value) (string, error)
}

// Registry is the class library programs run against. It resolves class
// names, stores fields and dispatches native methods.
type Registry struct {
	classes map[string]*ast.Class
	methods map[*ast.Method]NativeFunc
	ctors   map[*ast.Constructor]NativeCtor
	statics map[*ast.Field]runtime.Value

	out     io.Writer
	invoker Invoker

	Object, String, Number, Class *ast.Class
	Integer, Long, Double, Float  *ast.Class
	Short, Byte                   *ast.Class
	Boolean, Character            *ast.Class
	PrintStream                   *ast.Class
	Iterable, List, Map           *ast.Class
	ArrayList, HashMap            *ast.Class
}

type Option func(*Registry)

// WithOutput sends System.out to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Registry) { r.out = w }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		classes: make(map[string]*ast.Class),
		methods: make(map[*ast.Method]NativeFunc),
		ctors:   make(map[*ast.Constructor]NativeCtor),
		statics: make(map[*ast.Field]runtime.Value),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.initLangBuiltins()
	r.initFunctionBuiltins()
	r.initCollectionBuiltins()
	return r
}

// SetInvoker connects the registry to the interpreter running programs.
func (r *Registry) SetInvoker(inv Invoker) { r.invoker = inv }

// SetOutput redirects System.out.
func (r *Registry) SetOutput(w io.Writer) { r.out = w }

//-----------------------------------------------------------------------------
// Declaring classes
//-----------------------------------------------------------------------------

func (r *Registry) defineClass(name string, super *ast.Class, ifaces ...*ast.Class) *ast.Class {
	cls := &ast.Class{Name: name, Super: super, Interfaces: ifaces}
	r.register(cls, name)
	return cls
}

func (r *Registry) defineInterface(name string, ifaces ...*ast.Class) *ast.Class {
	cls := &ast.Class{Name: name, Interface: true, Interfaces: ifaces}
	r.register(cls, name)
	return cls
}

func (r *Registry) register(cls *ast.Class, names ...string) {
	for _, name := range names {
		r.classes[name] = cls
	}
}

// DefineProgramClass registers a class declared by the program.
func (r *Registry) DefineProgramClass(cls *ast.Class) {
	if cls.Super == nil && !cls.Interface {
		cls.Super = r.Object
	}
	r.register(cls, cls.Name)
}

func (r *Registry) method(cls *ast.Class, name string, ret *ast.Class, params []*ast.Class, fn NativeFunc) *ast.Method {
	m := &ast.Method{Name: name, Owner: cls, Params: params, Return: ret}
	cls.Methods = append(cls.Methods, m)
	r.methods[m] = fn
	return m
}

func (r *Registry) staticMethod(cls *ast.Class, name string, ret *ast.Class, params []*ast.Class, fn NativeFunc) *ast.Method {
	m := r.method(cls, name, ret, params, fn)
	m.Static = true
	return m
}

func (r *Registry) abstractMethod(cls *ast.Class, name string, ret *ast.Class, params ...*ast.Class) *ast.Method {
	m := &ast.Method{Name: name, Owner: cls, Params: params, Return: ret, Abstract: true}
	cls.Methods = append(cls.Methods, m)
	return m
}

func (r *Registry) defaultMethod(cls *ast.Class, name string, ret *ast.Class, params []*ast.Class, fn NativeFunc) *ast.Method {
	m := r.method(cls, name, ret, params, fn)
	m.Default = true
	return m
}

func (r *Registry) constructor(cls *ast.Class, params []*ast.Class, fn NativeCtor) *ast.Constructor {
	c := &ast.Constructor{Owner: cls, Params: params}
	cls.Constructors = append(cls.Constructors, c)
	r.ctors[c] = fn
	return c
}

func (r *Registry) staticField(cls *ast.Class, name string, typ *ast.Class, value runtime.Value) *ast.Field {
	f := &ast.Field{Name: name, Owner: cls, Type: typ, Static: true}
	cls.Fields = append(cls.Fields, f)
	r.statics[f] = value
	return f
}

func params(classes ...*ast.Class) []*ast.Class { return classes }

//-----------------------------------------------------------------------------
// interpreter.Host
//-----------------------------------------------------------------------------

func (r *Registry) ResolveClass(name string) *ast.Class {
	if cls, ok := r.classes[name]; ok {
		return cls
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return r.classes[name[idx+1:]]
	}
	return nil
}

func (r *Registry) ClassOf(v runtime.Value) *ast.Class {
	switch val := v.(type) {
	case runtime.BoolValue:
		return r.Boolean
	case runtime.CharValue:
		return r.Character
	case runtime.ByteValue:
		return r.Byte
	case runtime.ShortValue:
		return r.Short
	case runtime.IntValue:
		return r.Integer
	case runtime.LongValue:
		return r.Long
	case runtime.FloatValue:
		return r.Float
	case runtime.DoubleValue:
		return r.Double
	case runtime.StringValue:
		return r.String
	case *runtime.ArrayValue:
		return val.Class()
	case *runtime.ObjectValue:
		return val.Class
	case runtime.ClassValue:
		return r.Class
	case runtime.Callable:
		return val.Interface()
	}
	return nil
}

func (r *Registry) GetField(field *ast.Field, target runtime.Value) (runtime.Value, error) {
	if field.Static {
		if v, ok := r.statics[field]; ok {
			return v, nil
		}
		return runtime.ZeroValue(field.Type), nil
	}
	obj, ok := target.(*runtime.ObjectValue)
	if !ok {
		return nil, fmt.Errorf("field %s: %s has no fields", field.Name, kindName(target))
	}
	if v, ok := obj.Fields[field.Name]; ok {
		return v, nil
	}
	return runtime.ZeroValue(field.Type), nil
}

func (r *Registry) SetField(field *ast.Field, target runtime.Value, value runtime.Value) error {
	if field.Static {
		if field.Owner != nil && field.Owner.Decl == nil {
			return fmt.Errorf("field %s.%s is read-only", field.Owner.Name, field.Name)
		}
		r.statics[field] = value
		return nil
	}
	obj, ok := target.(*runtime.ObjectValue)
	if !ok {
		return fmt.Errorf("field %s: %s has no fields", field.Name, kindName(target))
	}
	obj.Fields[field.Name] = value
	return nil
}

// Invoke dispatches on the receiver's runtime class, so overrides win over
// the statically resolved method.
func (r *Registry) Invoke(method *ast.Method, recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if !method.Static && !runtime.IsNull(recv) {
		if rc := r.ClassOf(recv); rc != nil && rc != method.Owner {
			if override := rc.FindMethod(method.Name, len(args)); override != nil && override != method {
				method = override
			}
		}
	}
	if fn, ok := r.methods[method]; ok {
		return fn(recv, args)
	}
	if method.Decl != nil && r.invoker != nil {
		return r.invoker.Invoke(method, recv, args)
	}
	if c, ok := recv.(runtime.Callable); ok && method.Abstract {
		return c.Call(method, args)
	}
	if !method.Static {
		if fn := r.objectMethod(method.Name, len(args)); fn != nil {
			return fn(recv, args)
		}
	}
	return nil, fmt.Errorf("no implementation of %s for %s", method, kindName(recv))
}

// objectMethod finds an Object method for receivers whose class does not
// extend Object, such as interfaces implemented by lambdas.
func (r *Registry) objectMethod(name string, argCount int) NativeFunc {
	if m := r.Object.FindMethod(name, argCount); m != nil {
		return r.methods[m]
	}
	return nil
}

func (r *Registry) Construct(ctor *ast.Constructor, args []runtime.Value) (runtime.Value, error) {
	fn, ok := r.ctors[ctor]
	if !ok {
		return nil, fmt.Errorf("no native constructor for %s", ctor.Owner.Name)
	}
	return fn(args)
}

func (r *Registry) NewInstance(cls *ast.Class) (runtime.Value, error) {
	if cls.Decl != nil || len(cls.Constructors) == 0 {
		return runtime.NewObject(cls, nil), nil
	}
	ctor := cls.FindConstructor(0)
	if ctor == nil {
		return nil, fmt.Errorf("%s has no no-arg constructor", cls.Name)
	}
	return r.Construct(ctor, nil)
}

//-----------------------------------------------------------------------------
// Helpers shared by the builtins
//-----------------------------------------------------------------------------

// stringify renders a value for printing, running interpreted toString
// methods through the invoker.
func (r *Registry) stringify(v runtime.Value) (string, error) {
	if obj, ok := v.(*runtime.ObjectValue); ok && obj.Class.Decl != nil && r.invoker != nil {
		return r.invoker.Stringify(v)
	}
	return runtime.String(v), nil
}

// call invokes a functional value's single abstract method.
func (r *Registry) call(fn runtime.Value, args ...runtime.Value) (runtime.Value, error) {
	c, ok := fn.(runtime.Callable)
	if !ok {
		if runtime.IsNull(fn) {
			return nil, fmt.Errorf("functional argument is null")
		}
		return nil, fmt.Errorf("%s is not a functional value", kindName(fn))
	}
	return c.Call(nil, args)
}

func (r *Registry) equals(a, b runtime.Value) (bool, error) {
	if runtime.IsNull(a) || runtime.IsNull(b) {
		return runtime.IsNull(a) && runtime.IsNull(b), nil
	}
	if obj, ok := a.(*runtime.ObjectValue); ok && obj.Class.Decl != nil && r.invoker != nil {
		if m := obj.Class.FindMethod("equals", 1); m != nil && m.Decl != nil {
			res, err := r.invoker.Invoke(m, a, []runtime.Value{b})
			if err != nil {
				return false, err
			}
			eq, _ := res.(runtime.BoolValue)
			return eq.Val, nil
		}
	}
	return a == b, nil
}

func kindName(v runtime.Value) string {
	if v == nil {
		return "null"
	}
	return v.Kind().String()
}

func argInt(args []runtime.Value, idx int) (int, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("missing argument %d", idx)
	}
	v, err := runtime.Coerce(args[idx], ast.IntClass)
	if err != nil {
		return 0, err
	}
	return int(v.(runtime.IntValue).Val), nil
}

func argString(args []runtime.Value, idx int) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("missing argument %d", idx)
	}
	s, ok := args[idx].(runtime.StringValue)
	if !ok {
		return "", fmt.Errorf("expected String argument, got %s", kindName(args[idx]))
	}
	return s.Val, nil
}

func argFloat(args []runtime.Value, idx int) (float64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("missing argument %d", idx)
	}
	f, ok := runtime.ToFloat64(args[idx])
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", kindName(args[idx]))
	}
	return f, nil
}
