// Package resolver binds the names of a decoded program to declarations:
// locals get LocalVars, member accesses and calls get fields, methods and
// constructors, and lambdas get their target interface.
package resolver

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"snapcode/interpreter-go/pkg/ast"
)

// ClassPath supplies the classes a program can name.
type ClassPath interface {
	ResolveClass(name string) *ast.Class
	DefineProgramClass(cls *ast.Class)
}

// Diagnostic is a name the resolver could not bind. Unbound names are left
// for the interpreter's lenient lookup, so diagnostics are warnings.
type Diagnostic struct {
	Message string
	Node    ast.Node
}

func (d Diagnostic) String() string {
	if d.Node == nil {
		return d.Message
	}
	return fmt.Sprintf("%s (in %s)", d.Message, d.Node.NodeType())
}

// staticType is what the resolver knows about an expression's value. A
// static type names a class itself, as in Math.max.
type staticType struct {
	class  *ast.Class
	static bool
}

// Resolver keeps the state of one Resolve call.
type Resolver struct {
	classes     ClassPath
	object      *ast.Class
	current     *ast.Class
	returnTypes []*ast.Class
	lateBound   map[string]*ast.Method
	diagnostics []Diagnostic
}

func New(classes ClassPath) *Resolver {
	return &Resolver{classes: classes}
}

// Resolve binds every name in prog. When the program has no body, the
// static main method's body becomes the top-level run.
func (r *Resolver) Resolve(prog *ast.Program) ([]Diagnostic, error) {
	if prog == nil {
		return nil, fmt.Errorf("resolver: program is nil")
	}
	r.object = r.classes.ResolveClass("Object")
	r.current = nil
	r.returnTypes = nil
	r.lateBound = make(map[string]*ast.Method)
	r.diagnostics = nil

	if prog.Class != nil {
		r.current = r.declareClass(prog.Class)
		r.resolveClass(prog.Class)
		if prog.Body == nil {
			for _, md := range prog.Class.Methods {
				if md.Name == "main" && md.Static && md.Body != nil {
					prog.Body = md.Body
					// A top-level run binds no arguments; reading them
					// reports a missing slot instead of aliasing a local.
					for _, p := range md.Parameters {
						p.Local = ast.NewLocalVar(p.Name, p.Local.Type)
					}
					break
				}
			}
		}
	}
	if prog.Body == nil {
		return r.diagnostics, fmt.Errorf("resolver: program has no body")
	}
	if prog.Class == nil || !isMainBody(prog) {
		r.returnTypes = append(r.returnTypes, nil)
		r.resolveBlock(NewEnvironment(nil), prog.Body)
		r.returnTypes = r.returnTypes[:0]
	}
	for _, d := range r.diagnostics {
		log.Debug("resolver", "diagnostic", d.String())
	}
	return r.diagnostics, nil
}

func isMainBody(prog *ast.Program) bool {
	for _, md := range prog.Class.Methods {
		if md.Body == prog.Body {
			return true
		}
	}
	return false
}

func (r *Resolver) warn(node ast.Node, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Message: fmt.Sprintf(format, args...), Node: node})
}

//-----------------------------------------------------------------------------
// Types
//-----------------------------------------------------------------------------

// resolveType binds a type reference. Generic arguments are erased and
// "var" yields nil so the caller can infer.
func (r *Resolver) resolveType(ref *ast.TypeRef) *ast.Class {
	if ref == nil {
		return nil
	}
	if ref.Class == nil {
		ref.Class = r.lookupType(ref.Name)
		if ref.Class == nil && ref.Name != "var" {
			r.warn(ref, "unknown type %s", ref.Name)
		}
	}
	return ref.Class
}

func (r *Resolver) lookupType(name string) *ast.Class {
	name = strings.TrimSpace(name)
	dims := 0
	for strings.HasSuffix(name, "[]") {
		dims++
		name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
	}
	if strings.HasSuffix(name, "...") {
		dims++
		name = strings.TrimSuffix(name, "...")
	}
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	if name == "var" {
		return nil
	}
	cls := ast.PrimitiveClass(name)
	if cls == nil {
		cls = r.classes.ResolveClass(name)
	}
	if cls == nil {
		return nil
	}
	for ; dims > 0; dims-- {
		cls = ast.ArrayOf(cls)
	}
	return cls
}

//-----------------------------------------------------------------------------
// Classes
//-----------------------------------------------------------------------------

// declareClass creates the class and its member declarations so bodies can
// refer to members declared later.
func (r *Resolver) declareClass(cd *ast.ClassDecl) *ast.Class {
	cls := &ast.Class{Name: cd.Name, Decl: cd}
	cd.Class = cls
	r.classes.DefineProgramClass(cls)
	for _, fd := range cd.Fields {
		fd.Field = &ast.Field{Name: fd.Name, Owner: cls, Type: r.resolveType(fd.Type), Static: fd.Static, Decl: fd}
		cls.Fields = append(cls.Fields, fd.Field)
	}
	for _, md := range cd.Methods {
		params := make([]*ast.Class, len(md.Parameters))
		for idx, p := range md.Parameters {
			params[idx] = r.resolveType(p.Type)
		}
		if md.Constructor {
			md.Ctor = &ast.Constructor{Owner: cls, Params: params, VarArgs: md.VarArgs, Decl: md}
			cls.Constructors = append(cls.Constructors, md.Ctor)
			continue
		}
		ret := ast.VoidClass
		if md.ReturnType != nil {
			ret = r.resolveType(md.ReturnType)
		}
		md.Method = &ast.Method{
			Name:    md.Name,
			Owner:   cls,
			Params:  params,
			Return:  ret,
			Static:  md.Static,
			VarArgs: md.VarArgs,
			Decl:    md,
		}
		cls.Methods = append(cls.Methods, md.Method)
	}
	return cls
}

func (r *Resolver) resolveClass(cd *ast.ClassDecl) {
	for _, fd := range cd.Fields {
		if fd.Initializer != nil {
			r.returnTypes = append(r.returnTypes, nil)
			r.resolveExpr(NewEnvironment(nil), fd.Initializer, fd.Field.Type)
			r.returnTypes = r.returnTypes[:len(r.returnTypes)-1]
		}
	}
	for _, md := range cd.Methods {
		env := NewEnvironment(nil)
		var params []*ast.Class
		if md.Constructor {
			params = md.Ctor.Params
			r.returnTypes = append(r.returnTypes, ast.VoidClass)
		} else {
			params = md.Method.Params
			r.returnTypes = append(r.returnTypes, md.Method.Return)
		}
		for idx, p := range md.Parameters {
			env.Declare(p, params[idx])
		}
		r.resolveBlock(env, md.Body)
		r.returnTypes = r.returnTypes[:len(r.returnTypes)-1]
	}
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (r *Resolver) resolveBlock(env *Environment, block *ast.Block) {
	if block == nil {
		return
	}
	scope := env.Extend()
	for _, stmt := range block.Statements {
		r.resolveStatement(scope, stmt)
	}
}

func (r *Resolver) resolveStatement(env *Environment, stmt ast.Statement) {
	switch s := stmt.(type) {
	case nil:
	case *ast.Block:
		r.resolveBlock(env, s)
	case *ast.ExpressionStatement:
		r.resolveExpr(env, s.Expression, nil)
	case *ast.VarDeclStatement:
		for _, v := range s.Vars {
			r.declareVar(env, v)
		}
	case *ast.IfStatement:
		r.resolveExpr(env, s.Condition, ast.BooleanClass)
		r.resolveStatement(env.Extend(), s.Then)
		r.resolveStatement(env.Extend(), s.Else)
	case *ast.ForStatement:
		scope := env.Extend()
		for _, init := range s.Init {
			r.resolveStatement(scope, init)
		}
		r.resolveExpr(scope, s.Condition, ast.BooleanClass)
		for _, update := range s.Update {
			r.resolveExpr(scope, update, nil)
		}
		r.resolveStatement(scope.Extend(), s.Body)
	case *ast.ForEachStatement:
		iter := r.resolveExpr(env, s.Iterable, nil)
		scope := env.Extend()
		typ := r.resolveType(s.Variable.Type)
		if typ == nil && iter.class.IsArray() {
			typ = iter.class.Component
		}
		scope.Declare(s.Variable, typ)
		r.resolveStatement(scope.Extend(), s.Body)
	case *ast.WhileStatement:
		r.resolveExpr(env, s.Condition, ast.BooleanClass)
		r.resolveStatement(env.Extend(), s.Body)
	case *ast.DoStatement:
		r.resolveStatement(env.Extend(), s.Body)
		r.resolveExpr(env, s.Condition, ast.BooleanClass)
	case *ast.ReturnStatement:
		var expected *ast.Class
		if n := len(r.returnTypes); n > 0 {
			expected = r.returnTypes[n-1]
		}
		r.resolveExpr(env, s.Argument, expected)
	case *ast.SynchronizedStatement:
		r.resolveExpr(env, s.Lock, nil)
		r.resolveBlock(env, s.Body)
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement:
	default:
		// Unsupported statements are reported by the interpreter when they
		// run; their children are still bound.
		for _, child := range ast.Children(stmt) {
			switch c := child.(type) {
			case ast.Statement:
				r.resolveStatement(env.Extend(), c)
			case ast.Expression:
				r.resolveExpr(env, c, nil)
			}
		}
	}
}

// declareVar resolves the initializer first, then declares the local, so a
// "var" local takes its initializer's type.
func (r *Resolver) declareVar(env *Environment, v *ast.VarDecl) {
	typ := r.resolveType(v.Type)
	if v.Initializer != nil {
		init := r.resolveExpr(env, v.Initializer, typ)
		if typ == nil && !init.static {
			typ = init.class
		}
	}
	env.Declare(v, typ)
}
