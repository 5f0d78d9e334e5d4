package ast

// Builders for resolved trees. Tests and the driver's fixtures use these to
// assemble programs without going through the resolver.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value, false)
}

func Long(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value, true)
}

func Dbl(value float64) *FloatLiteral {
	return NewFloatLiteral(value, false)
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value, true)
}

func Chr(value rune) *CharLiteral {
	return NewCharLiteral(uint16(value))
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Null() *NullLiteral {
	return NewNullLiteral()
}

// Typ returns a type reference already resolved to c.
func Typ(c *Class) *TypeRef {
	ref := NewTypeRef(c.Name)
	ref.Class = c
	return ref
}

// Var declares a local with a fresh, unassigned slot.
func Var(name string, typ *Class, init Expression) *VarDecl {
	decl := NewVarDecl(name, nil, init)
	if typ != nil {
		decl.Type = Typ(typ)
	}
	decl.Local = NewLocalVar(name, typ)
	return decl
}

// Ref returns an identifier bound to the declared local.
func Ref(v *VarDecl) *Identifier {
	id := NewIdentifier(v.Name)
	id.Decl = v.Local
	return id
}

// Bound returns an identifier bound to an arbitrary declaration.
func Bound(name string, decl Decl) *Identifier {
	id := NewIdentifier(name)
	id.Decl = decl
	return id
}

func Dot(target, member Expression) *DotExpression {
	return NewDotExpression(target, member)
}

func Un(op string, operand Expression) *UnaryExpression {
	return NewUnaryExpression(op, operand, false)
}

func Post(op string, operand Expression) *UnaryExpression {
	return NewUnaryExpression(op, operand, true)
}

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Tern(cond, then, els Expression) *TernaryExpression {
	return NewTernaryExpression(cond, then, els)
}

func Assign(target AssignmentTarget, value Expression) *AssignmentExpression {
	return NewAssignmentExpression(AssignmentAssign, target, value)
}

func AssignOp(op AssignmentOperator, target AssignmentTarget, value Expression) *AssignmentExpression {
	return NewAssignmentExpression(op, target, value)
}

func Index(array, index Expression) *IndexExpression {
	return NewIndexExpression(array, index)
}

func Cast(typ *Class, expr Expression) *CastExpression {
	return NewCastExpression(Typ(typ), expr)
}

func InstanceOf(expr Expression, typ *Class) *InstanceOfExpression {
	return NewInstanceOfExpression(expr, Typ(typ))
}

// Call builds a call bound to method.
func Call(method *Method, args ...Expression) *MethodCall {
	call := NewMethodCall(method.Name, args)
	call.Method = method
	return call
}

func New(class *Class, ctor *Constructor, args ...Expression) *NewExpression {
	expr := NewNewExpression(Typ(class), args)
	expr.Constructor = ctor
	return expr
}

func NewArray(component *Class, dims ...Expression) *NewArrayExpression {
	typ := component
	for range dims {
		typ = ArrayOf(typ)
	}
	return NewNewArrayExpression(Typ(typ), dims, nil)
}

func ArrayLit(component *Class, elements ...Expression) *NewArrayExpression {
	init := NewArrayInitializer(elements)
	init.ArrayType = ArrayOf(component)
	return NewNewArrayExpression(Typ(init.ArrayType), nil, init)
}

func Lambda(iface *Class, body Node, params ...*VarDecl) *LambdaExpression {
	lambda := NewLambdaExpression(params, body)
	lambda.Interface = iface
	return lambda
}

func Paren(expr Expression) *ParenExpression {
	return NewParenExpression(expr)
}

// Statements

func Blk(stmts ...Statement) *Block {
	return NewBlock(stmts)
}

func Expr(expr Expression) *ExpressionStatement {
	return NewExpressionStatement(expr)
}

func Let(vars ...*VarDecl) *VarDeclStatement {
	return NewVarDeclStatement(vars...)
}

func If(cond Expression, then, els Statement) *IfStatement {
	return NewIfStatement(cond, then, els)
}

func While(cond Expression, body Statement) *WhileStatement {
	return NewWhileStatement(cond, body)
}

func Do(body Statement, cond Expression) *DoStatement {
	return NewDoStatement(body, cond)
}

func For(init []Statement, cond Expression, update []Expression, body Statement) *ForStatement {
	return NewForStatement(init, cond, update, body)
}

func ForEach(variable *VarDecl, iterable Expression, body Statement) *ForEachStatement {
	return NewForEachStatement(variable, iterable, body)
}

func Ret(arg Expression) *ReturnStatement {
	return NewReturnStatement(arg)
}

func Brk() *BreakStatement {
	return NewBreakStatement("")
}

func Cont() *ContinueStatement {
	return NewContinueStatement("")
}
