package interpreter

import (
	"github.com/charmbracelet/log"

	"snapcode/interpreter-go/pkg/ast"
)

// AssignSlots annotates every local declared under node with its index in
// the enclosing frame, starting at base. Sibling blocks reuse the same
// indices since they are never live at the same time. Lambda parameters
// always start at 0: a lambda runs in its own frame.
func AssignSlots(node ast.Node, base int) {
	switch n := node.(type) {
	case nil:
		return
	case *ast.Block:
		if n == nil {
			return
		}
		next := base
		for _, stmt := range n.Statements {
			if decl, ok := stmt.(*ast.VarDeclStatement); ok {
				next = assignVarSlots(decl.Vars, next)
				continue
			}
			AssignSlots(stmt, next)
		}
	case *ast.VarDeclStatement:
		assignVarSlots(n.Vars, base)
	case *ast.MethodDecl:
		next := assignVarSlots(n.Parameters, base)
		if n.Body != nil {
			AssignSlots(n.Body, next)
		}
	case *ast.LambdaExpression:
		next := assignVarSlots(n.Parameters, 0)
		AssignSlots(n.Body, next)
	case *ast.ForStatement:
		for _, stmt := range n.Init {
			if _, ok := stmt.(*ast.VarDeclStatement); !ok {
				AssignSlots(stmt, base)
			}
		}
		next := assignVarSlots(n.InitVars(), base)
		if n.Condition != nil {
			AssignSlots(n.Condition, next)
		}
		for _, update := range n.Update {
			AssignSlots(update, next)
		}
		AssignSlots(n.Body, next)
	case *ast.ForEachStatement:
		AssignSlots(n.Iterable, base)
		next := assignVarSlots([]*ast.VarDecl{n.Variable}, base)
		AssignSlots(n.Body, next)
	case *ast.ClassDecl:
		for _, field := range n.Fields {
			AssignSlots(field, 0)
		}
		for _, method := range n.Methods {
			AssignSlots(method, 0)
		}
	case *ast.VarDecl:
		log.Warn("slots: variable declared outside a declaring construct", "name", n.Name)
	default:
		for _, child := range ast.Children(node) {
			AssignSlots(child, base)
		}
	}
}

func assignVarSlots(vars []*ast.VarDecl, base int) int {
	for idx, v := range vars {
		if v == nil {
			continue
		}
		if v.Initializer != nil {
			AssignSlots(v.Initializer, base)
		}
		if v.Local == nil {
			log.Warn("slots: variable has no resolved declaration", "name", v.Name)
			continue
		}
		v.Local.Slot = base + idx
	}
	return base + len(vars)
}

// ensureLayout assigns slots for a body the first time it is about to run.
func (i *Interpreter) ensureLayout(body ast.Node) {
	if body == nil || i.layouts[body] {
		return
	}
	AssignSlots(body, 0)
	i.layouts[body] = true
}
