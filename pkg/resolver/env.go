package resolver

import "snapcode/interpreter-go/pkg/ast"

// Environment is one lexical scope of local variables.
type Environment struct {
	parent *Environment
	locals map[string]*ast.LocalVar
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, locals: make(map[string]*ast.LocalVar)}
}

// Declare creates the local for decl in this scope, replacing any binding
// decl already had.
func (e *Environment) Declare(decl *ast.VarDecl, typ *ast.Class) *ast.LocalVar {
	local := ast.NewLocalVar(decl.Name, typ)
	decl.Local = local
	e.locals[decl.Name] = local
	return local
}

// Lookup searches the scope chain.
func (e *Environment) Lookup(name string) (*ast.LocalVar, bool) {
	for env := e; env != nil; env = env.parent {
		if local, ok := env.locals[name]; ok {
			return local, true
		}
	}
	return nil, false
}

func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}
