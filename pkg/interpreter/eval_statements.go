package interpreter

import (
	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// execStatement runs one statement. The value is what an expression
// statement or declaration produced, for top-level events.
func (i *Interpreter) execStatement(this runtime.Value, stmt ast.Statement) (runtime.Value, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return i.execBlock(this, s)
	case *ast.ExpressionStatement:
		return i.evalExpr(this, s.Expression)
	case *ast.VarDeclStatement:
		return i.execVarDecl(this, s)
	case *ast.IfStatement:
		return nil, i.execIf(this, s)
	case *ast.ForStatement:
		return nil, i.execFor(this, s)
	case *ast.ForEachStatement:
		return nil, i.execForEach(this, s)
	case *ast.WhileStatement:
		return nil, i.execWhile(this, s)
	case *ast.DoStatement:
		return nil, i.execDo(this, s)
	case *ast.ReturnStatement:
		if s.Argument == nil {
			return nil, returnSignal{value: runtime.VoidValue{}}
		}
		val, err := i.evalExpr(this, s.Argument)
		if err != nil {
			return nil, err
		}
		return nil, returnSignal{value: val}
	case *ast.BreakStatement:
		if s.Label != "" {
			return nil, unsupported(s, "labeled break")
		}
		return nil, breakSignal{}
	case *ast.ContinueStatement:
		if s.Label != "" {
			return nil, unsupported(s, "labeled continue")
		}
		return nil, continueSignal{}
	case *ast.EmptyStatement:
		return nil, nil
	case *ast.SynchronizedStatement:
		lock, err := i.evalExpr(this, s.Lock)
		if err != nil {
			return nil, err
		}
		if runtime.IsNull(lock) {
			return nil, nullDereference(s, "cannot synchronize on null")
		}
		return i.execBlock(this, s.Body)
	case *ast.AssertStatement:
		return nil, unsupported(s, "assert statement")
	case *ast.ThrowStatement:
		return nil, unsupported(s, "throw statement")
	case *ast.TryStatement:
		return nil, unsupported(s, "try statement")
	case *ast.SwitchStatement:
		return nil, unsupported(s, "switch statement")
	case *ast.LabeledStatement:
		return nil, unsupported(s, "labeled statement")
	case *ast.ClassDeclStatement:
		return nil, unsupported(s, "class declaration statement")
	case nil:
		return nil, nil
	default:
		return nil, unsupported(stmt, "statement "+string(stmt.NodeType()))
	}
}

// execBlock runs statements in order and stops at the first signal.
func (i *Interpreter) execBlock(this runtime.Value, block *ast.Block) (runtime.Value, error) {
	if block == nil {
		return nil, nil
	}
	for _, stmt := range block.Statements {
		if _, err := i.execStatement(this, stmt); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// execVarDecl initializes each declared local. A local without initializer
// gets its type's zero value so it never observes a sibling block's slot.
func (i *Interpreter) execVarDecl(this runtime.Value, s *ast.VarDeclStatement) (runtime.Value, error) {
	var last runtime.Value
	for _, v := range s.Vars {
		if v.Local == nil {
			return nil, missingBinding(v, "variable %s was never resolved", v.Name)
		}
		val := runtime.ZeroValue(v.Local.Type)
		if v.Initializer != nil {
			var err error
			if val, err = i.evalExpr(this, v.Initializer); err != nil {
				return nil, err
			}
		}
		if err := i.bindLocal(v, v.Local, val); err != nil {
			return nil, err
		}
		last = i.stack.GetForDeclaration(v.Local)
	}
	return last, nil
}

func (i *Interpreter) execIf(this runtime.Value, s *ast.IfStatement) error {
	cond, err := i.evalCondition(this, s.Condition)
	if err != nil {
		return err
	}
	if cond {
		_, err = i.execStatement(this, s.Then)
	} else if s.Else != nil {
		_, err = i.execStatement(this, s.Else)
	}
	return err
}

// checkStop turns a pending stop request into the stop signal.
func (i *Interpreter) checkStop() error {
	if i.stop.Load() {
		return stopSignal{}
	}
	return nil
}

func (i *Interpreter) execFor(this runtime.Value, s *ast.ForStatement) error {
	if vars := s.InitVars(); len(vars) > 0 && vars[0].Local != nil && vars[0].Local.Slot < 0 {
		AssignSlots(s, i.stack.FrameLen())
	}
	for _, init := range s.Init {
		if _, err := i.execStatement(this, init); err != nil {
			return err
		}
	}
	for {
		if err := i.checkStop(); err != nil {
			return err
		}
		if s.Condition != nil {
			cond, err := i.evalCondition(this, s.Condition)
			if err != nil {
				return err
			}
			if !cond {
				return nil
			}
		}
		if _, err := i.execStatement(this, s.Body); err != nil {
			if exit, out := loopControl(err); exit {
				return out
			}
		}
		for _, update := range s.Update {
			if _, err := i.evalExpr(this, update); err != nil {
				return err
			}
			if err := i.checkStop(); err != nil {
				return err
			}
		}
	}
}

func (i *Interpreter) execForEach(this runtime.Value, s *ast.ForEachStatement) error {
	collection, err := i.evalExpr(this, s.Iterable)
	if err != nil {
		return err
	}
	var elems []runtime.Value
	switch c := collection.(type) {
	case *runtime.ArrayValue:
		elems = c.Elements
	case *runtime.ObjectValue:
		it, ok := c.Native.(runtime.Iterable)
		if !ok {
			return typeError(s.Iterable, "%s is not iterable", c.Class.Name)
		}
		elems = it.Values()
	case runtime.Iterable:
		elems = c.Values()
	default:
		if runtime.IsNull(collection) {
			return nullDereference(s.Iterable, "cannot iterate over null")
		}
		return typeError(s.Iterable, "cannot iterate over %s", kindOf(collection))
	}
	for idx := 0; idx < len(elems); idx++ {
		if err := i.checkStop(); err != nil {
			return err
		}
		if err := i.bindLocal(s.Variable, s.Variable.Local, elems[idx]); err != nil {
			return err
		}
		if _, err := i.execStatement(this, s.Body); err != nil {
			if exit, out := loopControl(err); exit {
				return out
			}
		}
	}
	return nil
}

func (i *Interpreter) execWhile(this runtime.Value, s *ast.WhileStatement) error {
	for {
		if err := i.checkStop(); err != nil {
			return err
		}
		cond, err := i.evalCondition(this, s.Condition)
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}
		if _, err := i.execStatement(this, s.Body); err != nil {
			if exit, out := loopControl(err); exit {
				return out
			}
		}
	}
}

func (i *Interpreter) execDo(this runtime.Value, s *ast.DoStatement) error {
	for {
		if err := i.checkStop(); err != nil {
			return err
		}
		if _, err := i.execStatement(this, s.Body); err != nil {
			if exit, out := loopControl(err); exit {
				return out
			}
		}
		cond, err := i.evalCondition(this, s.Condition)
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}
	}
}
