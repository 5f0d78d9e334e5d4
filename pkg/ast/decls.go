package ast

import (
	"strings"
	"sync"
)

// Resolved declarations. The resolver attaches these to identifiers, calls and
// constructions; the interpreter only reads them.

type DeclKind int

const (
	DeclLocalVar DeclKind = iota
	DeclField
	DeclMethod
	DeclConstructor
	DeclClass
)

func (k DeclKind) String() string {
	switch k {
	case DeclLocalVar:
		return "local"
	case DeclField:
		return "field"
	case DeclMethod:
		return "method"
	case DeclConstructor:
		return "constructor"
	case DeclClass:
		return "class"
	default:
		return "unknown"
	}
}

type Decl interface {
	DeclKind() DeclKind
	DeclName() string
}

// LocalVar is a local variable or parameter. Slot is its index in the
// enclosing frame, -1 until slots are assigned.
type LocalVar struct {
	Name string
	Type *Class
	Slot int
}

func NewLocalVar(name string, typ *Class) *LocalVar {
	return &LocalVar{Name: name, Type: typ, Slot: -1}
}

func (*LocalVar) DeclKind() DeclKind  { return DeclLocalVar }
func (l *LocalVar) DeclName() string { return l.Name }

type Field struct {
	Name   string
	Owner  *Class
	Type   *Class
	Static bool
	Decl   *FieldDecl
}

func (*Field) DeclKind() DeclKind  { return DeclField }
func (f *Field) DeclName() string { return f.Name }

// Method is a resolved method. Interpreted methods carry their Decl; host
// methods are dispatched through the host by identity.
type Method struct {
	Name     string
	Owner    *Class
	Params   []*Class
	Return   *Class
	Static   bool
	VarArgs  bool
	Abstract bool
	Default  bool
	Decl     *MethodDecl
}

func (*Method) DeclKind() DeclKind  { return DeclMethod }
func (m *Method) DeclName() string { return m.Name }

func (m *Method) String() string {
	var b strings.Builder
	if m.Owner != nil {
		b.WriteString(m.Owner.Name)
		b.WriteByte('.')
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}

type Constructor struct {
	Owner   *Class
	Params  []*Class
	VarArgs bool
	Decl    *MethodDecl
}

func (*Constructor) DeclKind() DeclKind  { return DeclConstructor }
func (c *Constructor) DeclName() string { return c.Owner.Name }

// Classes

type Primitive int

const (
	NotPrimitive Primitive = iota
	PrimitiveBoolean
	PrimitiveByte
	PrimitiveShort
	PrimitiveChar
	PrimitiveInt
	PrimitiveLong
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveVoid
)

type Class struct {
	Name       string
	Super      *Class
	Interfaces []*Class
	Interface  bool
	Primitive  Primitive
	// Component is the element type of an array class.
	Component *Class

	Fields       []*Field
	Methods      []*Method
	Constructors []*Constructor
	Decl         *ClassDecl

	arrayMu sync.Mutex
	array   *Class
}

func (*Class) DeclKind() DeclKind  { return DeclClass }
func (c *Class) DeclName() string { return c.Name }
func (c *Class) String() string   { return c.Name }

var (
	BooleanClass = &Class{Name: "boolean", Primitive: PrimitiveBoolean}
	ByteClass    = &Class{Name: "byte", Primitive: PrimitiveByte}
	ShortClass   = &Class{Name: "short", Primitive: PrimitiveShort}
	CharClass    = &Class{Name: "char", Primitive: PrimitiveChar}
	IntClass     = &Class{Name: "int", Primitive: PrimitiveInt}
	LongClass    = &Class{Name: "long", Primitive: PrimitiveLong}
	FloatClass   = &Class{Name: "float", Primitive: PrimitiveFloat}
	DoubleClass  = &Class{Name: "double", Primitive: PrimitiveDouble}
	VoidClass    = &Class{Name: "void", Primitive: PrimitiveVoid}
)

var primitiveClasses = map[string]*Class{
	"boolean": BooleanClass,
	"byte":    ByteClass,
	"short":   ShortClass,
	"char":    CharClass,
	"int":     IntClass,
	"long":    LongClass,
	"float":   FloatClass,
	"double":  DoubleClass,
	"void":    VoidClass,
}

// PrimitiveClass returns the primitive class named name, or nil.
func PrimitiveClass(name string) *Class {
	return primitiveClasses[name]
}

func (c *Class) IsPrimitive() bool { return c != nil && c.Primitive != NotPrimitive }
func (c *Class) IsArray() bool     { return c != nil && c.Component != nil }

// IsNumeric reports whether c is a primitive numeric type (char included).
func (c *Class) IsNumeric() bool {
	return c != nil && c.Primitive >= PrimitiveByte && c.Primitive <= PrimitiveDouble
}

// ArrayOf returns the array class with component c, creating it once.
func ArrayOf(c *Class) *Class {
	c.arrayMu.Lock()
	defer c.arrayMu.Unlock()
	if c.array == nil {
		c.array = &Class{Name: c.Name + "[]", Component: c}
	}
	return c.array
}

// IsAssignableFrom reports whether a value of class other can be stored in c.
func (c *Class) IsAssignableFrom(other *Class) bool {
	if c == nil || other == nil {
		return false
	}
	if c == other {
		return true
	}
	if c.IsPrimitive() || other.IsPrimitive() {
		return false
	}
	if c.IsArray() || other.IsArray() {
		if c.IsArray() && other.IsArray() {
			if c.Component.IsPrimitive() || other.Component.IsPrimitive() {
				return c.Component == other.Component
			}
			return c.Component.IsAssignableFrom(other.Component)
		}
		return c.Super == nil && !c.Interface && other.IsArray()
	}
	if c.Super == nil && !c.Interface && c.Name == "Object" {
		return true
	}
	if other.Super != nil && c.IsAssignableFrom(other.Super) {
		return true
	}
	for _, iface := range other.Interfaces {
		if c.IsAssignableFrom(iface) {
			return true
		}
	}
	return false
}

// FindField looks up a field on c or its superclasses.
func (c *Class) FindField(name string) *Field {
	for cls := c; cls != nil; cls = cls.Super {
		for _, f := range cls.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// FindMethods returns the methods named name visible on c, nearest first.
func (c *Class) FindMethods(name string) []*Method {
	var found []*Method
	seen := map[*Class]bool{}
	var walk func(cls *Class)
	walk = func(cls *Class) {
		if cls == nil || seen[cls] {
			return
		}
		seen[cls] = true
		for _, m := range cls.Methods {
			if m.Name == name {
				found = append(found, m)
			}
		}
		walk(cls.Super)
		for _, iface := range cls.Interfaces {
			walk(iface)
		}
	}
	walk(c)
	return found
}

// FindMethod picks the method named name accepting argCount arguments.
func (c *Class) FindMethod(name string, argCount int) *Method {
	var varArgs *Method
	for _, m := range c.FindMethods(name) {
		if len(m.Params) == argCount {
			return m
		}
		if m.VarArgs && argCount >= len(m.Params)-1 && varArgs == nil {
			varArgs = m
		}
	}
	return varArgs
}

// FindConstructor picks the constructor accepting argCount arguments.
func (c *Class) FindConstructor(argCount int) *Constructor {
	for _, ctor := range c.Constructors {
		if len(ctor.Params) == argCount {
			return ctor
		}
	}
	for _, ctor := range c.Constructors {
		if ctor.VarArgs && argCount >= len(ctor.Params)-1 {
			return ctor
		}
	}
	return nil
}

// FunctionalMethod returns the single abstract method of a functional
// interface, or nil when c is not one.
func (c *Class) FunctionalMethod() *Method {
	if c == nil || !c.Interface {
		return nil
	}
	var sam *Method
	seen := map[*Class]bool{}
	var walk func(cls *Class) bool
	walk = func(cls *Class) bool {
		if seen[cls] {
			return true
		}
		seen[cls] = true
		for _, m := range cls.Methods {
			if !m.Abstract {
				continue
			}
			if sam != nil && sam.Name != m.Name {
				return false
			}
			if sam == nil {
				sam = m
			}
		}
		for _, iface := range cls.Interfaces {
			if !walk(iface) {
				return false
			}
		}
		return true
	}
	if !walk(c) {
		return nil
	}
	return sam
}
