package ast

type NodeType string

const (
	NodeIdentifier            NodeType = "Identifier"
	NodeBooleanLiteral        NodeType = "BooleanLiteral"
	NodeIntegerLiteral        NodeType = "IntegerLiteral"
	NodeFloatLiteral          NodeType = "FloatLiteral"
	NodeCharLiteral           NodeType = "CharLiteral"
	NodeStringLiteral         NodeType = "StringLiteral"
	NodeNullLiteral           NodeType = "NullLiteral"
	NodeTypeRef               NodeType = "TypeRef"
	NodeDotExpression         NodeType = "DotExpression"
	NodeUnaryExpression       NodeType = "UnaryExpression"
	NodeBinaryExpression      NodeType = "BinaryExpression"
	NodeTernaryExpression     NodeType = "TernaryExpression"
	NodeAssignmentExpression  NodeType = "AssignmentExpression"
	NodeIndexExpression       NodeType = "IndexExpression"
	NodeNewExpression         NodeType = "NewExpression"
	NodeNewArrayExpression    NodeType = "NewArrayExpression"
	NodeArrayInitializer      NodeType = "ArrayInitializer"
	NodeCastExpression        NodeType = "CastExpression"
	NodeInstanceOfExpression  NodeType = "InstanceOfExpression"
	NodeMethodCall            NodeType = "MethodCall"
	NodeLambdaExpression      NodeType = "LambdaExpression"
	NodeMethodRefExpression   NodeType = "MethodRefExpression"
	NodeParenExpression       NodeType = "ParenExpression"
	NodeSwitchExpression      NodeType = "SwitchExpression"
	NodeVarDecl               NodeType = "VarDecl"
	NodeBlock                 NodeType = "Block"
	NodeExpressionStatement   NodeType = "ExpressionStatement"
	NodeVarDeclStatement      NodeType = "VarDeclStatement"
	NodeIfStatement           NodeType = "IfStatement"
	NodeForStatement          NodeType = "ForStatement"
	NodeForEachStatement      NodeType = "ForEachStatement"
	NodeWhileStatement        NodeType = "WhileStatement"
	NodeDoStatement           NodeType = "DoStatement"
	NodeReturnStatement       NodeType = "ReturnStatement"
	NodeBreakStatement        NodeType = "BreakStatement"
	NodeContinueStatement     NodeType = "ContinueStatement"
	NodeEmptyStatement        NodeType = "EmptyStatement"
	NodeSynchronizedStatement NodeType = "SynchronizedStatement"
	NodeAssertStatement       NodeType = "AssertStatement"
	NodeThrowStatement        NodeType = "ThrowStatement"
	NodeTryStatement          NodeType = "TryStatement"
	NodeSwitchStatement       NodeType = "SwitchStatement"
	NodeLabeledStatement      NodeType = "LabeledStatement"
	NodeClassDeclStatement    NodeType = "ClassDeclStatement"
	NodeFieldDecl             NodeType = "FieldDecl"
	NodeMethodDecl            NodeType = "MethodDecl"
	NodeClassDecl             NodeType = "ClassDecl"
	NodeProgram               NodeType = "Program"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// AssignmentTarget is implemented by expressions that can appear on the
// left of an assignment or as the operand of ++/--.
type AssignmentTarget interface {
	Expression
	assignmentTargetNode()
}

type assignmentTargetMarker struct{}

func (assignmentTargetMarker) assignmentTargetNode() {}

// Identifier

type Identifier struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Name string `json:"name"`
	// Decl is filled in by the resolver: *LocalVar, *Field or *Class.
	Decl Decl `json:"-"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Local returns the identifier's local variable, if it resolved to one.
func (id *Identifier) Local() *LocalVar {
	if lv, ok := id.Decl.(*LocalVar); ok {
		return lv
	}
	return nil
}

// Literals

type BooleanLiteral struct {
	nodeImpl
	expressionMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type IntegerLiteral struct {
	nodeImpl
	expressionMarker

	Value int64 `json:"value"`
	Long  bool  `json:"long,omitempty"`
}

func NewIntegerLiteral(value int64, long bool) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value, Long: long}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
	// Single marks an `f`-suffixed float literal; otherwise the literal is a double.
	Single bool `json:"single,omitempty"`
}

func NewFloatLiteral(value float64, single bool) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value, Single: single}
}

type CharLiteral struct {
	nodeImpl
	expressionMarker

	Value uint16 `json:"value"`
}

func NewCharLiteral(value uint16) *CharLiteral {
	return &CharLiteral{nodeImpl: newNodeImpl(NodeCharLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type NullLiteral struct {
	nodeImpl
	expressionMarker
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral)}
}

// TypeRef names a type in source. Array types carry one "[]" per dimension.
type TypeRef struct {
	nodeImpl

	Name  string `json:"name"`
	Class *Class `json:"-"`
}

func NewTypeRef(name string) *TypeRef {
	return &TypeRef{nodeImpl: newNodeImpl(NodeTypeRef), Name: name}
}

// Expressions

// DotExpression is a member access chain step: Target.Member, where Member is
// an Identifier or a MethodCall evaluated against the target's value.
type DotExpression struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Target Expression `json:"target"`
	Member Expression `json:"member"`
}

func NewDotExpression(target, member Expression) *DotExpression {
	return &DotExpression{nodeImpl: newNodeImpl(NodeDotExpression), Target: target, Member: member}
}

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Operand  Expression `json:"operand"`
	// Postfix is set for x++ and x--.
	Postfix bool `json:"postfix,omitempty"`
}

func NewUnaryExpression(operator string, operand Expression, postfix bool) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand, Postfix: postfix}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type TernaryExpression struct {
	nodeImpl
	expressionMarker

	Condition Expression `json:"condition"`
	Then      Expression `json:"then"`
	Else      Expression `json:"else"`
}

func NewTernaryExpression(condition, then, els Expression) *TernaryExpression {
	return &TernaryExpression{nodeImpl: newNodeImpl(NodeTernaryExpression), Condition: condition, Then: then, Else: els}
}

type AssignmentOperator string

const (
	AssignmentAssign AssignmentOperator = "="
	AssignmentAdd    AssignmentOperator = "+="
	AssignmentSub    AssignmentOperator = "-="
	AssignmentMul    AssignmentOperator = "*="
	AssignmentDiv    AssignmentOperator = "/="
	AssignmentMod    AssignmentOperator = "%="
	AssignmentAnd    AssignmentOperator = "&="
	AssignmentOr     AssignmentOperator = "|="
	AssignmentXor    AssignmentOperator = "^="
	AssignmentShl    AssignmentOperator = "<<="
	AssignmentShr    AssignmentOperator = ">>="
	AssignmentUShr   AssignmentOperator = ">>>="
)

// BinaryOperator returns the arithmetic operator a compound assignment applies.
func (op AssignmentOperator) BinaryOperator() string {
	if op == AssignmentAssign {
		return ""
	}
	return string(op[:len(op)-1])
}

type AssignmentExpression struct {
	nodeImpl
	expressionMarker

	Operator AssignmentOperator `json:"operator"`
	Target   AssignmentTarget   `json:"target"`
	Value    Expression         `json:"value"`
}

func NewAssignmentExpression(operator AssignmentOperator, target AssignmentTarget, value Expression) *AssignmentExpression {
	return &AssignmentExpression{nodeImpl: newNodeImpl(NodeAssignmentExpression), Operator: operator, Target: target, Value: value}
}

type IndexExpression struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Array Expression `json:"array"`
	Index Expression `json:"index"`
}

func NewIndexExpression(array, index Expression) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Array: array, Index: index}
}

type NewExpression struct {
	nodeImpl
	expressionMarker

	Type      *TypeRef     `json:"classType"`
	Arguments []Expression `json:"arguments"`
	// Constructor is nil for the implicit no-arg constructor.
	Constructor *Constructor `json:"-"`
}

func NewNewExpression(typ *TypeRef, args []Expression) *NewExpression {
	return &NewExpression{nodeImpl: newNodeImpl(NodeNewExpression), Type: typ, Arguments: args}
}

// NewArrayExpression allocates an array. Type names the full array type
// (e.g. "int[][]"); Dimensions holds the explicit sizes, or Initializer the elements.
type NewArrayExpression struct {
	nodeImpl
	expressionMarker

	Type        *TypeRef          `json:"arrayType"`
	Dimensions  []Expression      `json:"dimensions,omitempty"`
	Initializer *ArrayInitializer `json:"initializer,omitempty"`
}

func NewNewArrayExpression(typ *TypeRef, dims []Expression, init *ArrayInitializer) *NewArrayExpression {
	return &NewArrayExpression{nodeImpl: newNodeImpl(NodeNewArrayExpression), Type: typ, Dimensions: dims, Initializer: init}
}

type ArrayInitializer struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
	// ArrayType is the array class the initializer builds, set by the resolver.
	ArrayType *Class `json:"-"`
}

func NewArrayInitializer(elements []Expression) *ArrayInitializer {
	return &ArrayInitializer{nodeImpl: newNodeImpl(NodeArrayInitializer), Elements: elements}
}

type CastExpression struct {
	nodeImpl
	expressionMarker

	Type       *TypeRef   `json:"castType"`
	Expression Expression `json:"expression"`
}

func NewCastExpression(typ *TypeRef, expr Expression) *CastExpression {
	return &CastExpression{nodeImpl: newNodeImpl(NodeCastExpression), Type: typ, Expression: expr}
}

type InstanceOfExpression struct {
	nodeImpl
	expressionMarker

	Expression Expression `json:"expression"`
	Type       *TypeRef   `json:"checkType"`
}

func NewInstanceOfExpression(expr Expression, typ *TypeRef) *InstanceOfExpression {
	return &InstanceOfExpression{nodeImpl: newNodeImpl(NodeInstanceOfExpression), Expression: expr, Type: typ}
}

// MethodCall invokes Name on the current receiver, or on the target when it is
// the member of a DotExpression.
type MethodCall struct {
	nodeImpl
	expressionMarker

	Name      string       `json:"name"`
	Arguments []Expression `json:"arguments"`
	Method    *Method      `json:"-"`
}

func NewMethodCall(name string, args []Expression) *MethodCall {
	return &MethodCall{nodeImpl: newNodeImpl(NodeMethodCall), Name: name, Arguments: args}
}

// LambdaExpression's Body is either an Expression or a *Block.
type LambdaExpression struct {
	nodeImpl
	expressionMarker

	Parameters []*VarDecl `json:"parameters"`
	Body       Node       `json:"body"`
	// Interface is the functional interface the lambda is converted to.
	Interface *Class `json:"-"`
}

func NewLambdaExpression(params []*VarDecl, body Node) *LambdaExpression {
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Parameters: params, Body: body}
}

// MethodRefExpression is Target::Name. Name "new" refers to a constructor.
type MethodRefExpression struct {
	nodeImpl
	expressionMarker

	Target      Expression   `json:"target"`
	Name        string       `json:"name"`
	Method      *Method      `json:"-"`
	Constructor *Constructor `json:"-"`
	Interface   *Class       `json:"-"`
}

func NewMethodRefExpression(target Expression, name string) *MethodRefExpression {
	return &MethodRefExpression{nodeImpl: newNodeImpl(NodeMethodRefExpression), Target: target, Name: name}
}

type ParenExpression struct {
	nodeImpl
	expressionMarker

	Expression Expression `json:"expression"`
}

func NewParenExpression(expr Expression) *ParenExpression {
	return &ParenExpression{nodeImpl: newNodeImpl(NodeParenExpression), Expression: expr}
}

type SwitchExpression struct {
	nodeImpl
	expressionMarker

	Selector Expression `json:"selector"`
}

func NewSwitchExpression(selector Expression) *SwitchExpression {
	return &SwitchExpression{nodeImpl: newNodeImpl(NodeSwitchExpression), Selector: selector}
}

// VarDecl declares one local variable (statement, for-init, for-each, lambda
// or method parameter).
type VarDecl struct {
	nodeImpl

	Name        string     `json:"name"`
	Type        *TypeRef   `json:"varType,omitempty"`
	Initializer Expression `json:"initializer,omitempty"`
	Local       *LocalVar  `json:"-"`
}

func NewVarDecl(name string, typ *TypeRef, init Expression) *VarDecl {
	return &VarDecl{nodeImpl: newNodeImpl(NodeVarDecl), Name: name, Type: typ, Initializer: init}
}

// Statements

type Block struct {
	nodeImpl
	statementMarker

	Statements []Statement `json:"statements"`
}

func NewBlock(stmts []Statement) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Statements: stmts}
}

type ExpressionStatement struct {
	nodeImpl
	statementMarker

	Expression Expression `json:"expression"`
}

func NewExpressionStatement(expr Expression) *ExpressionStatement {
	return &ExpressionStatement{nodeImpl: newNodeImpl(NodeExpressionStatement), Expression: expr}
}

type VarDeclStatement struct {
	nodeImpl
	statementMarker

	Vars []*VarDecl `json:"vars"`
}

func NewVarDeclStatement(vars ...*VarDecl) *VarDeclStatement {
	return &VarDeclStatement{nodeImpl: newNodeImpl(NodeVarDeclStatement), Vars: vars}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Then      Statement  `json:"then"`
	Else      Statement  `json:"else,omitempty"`
}

func NewIfStatement(cond Expression, then, els Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: cond, Then: then, Else: els}
}

// ForStatement is the classic three-part loop. Init holds VarDeclStatements
// or ExpressionStatements; a nil Condition loops until break.
type ForStatement struct {
	nodeImpl
	statementMarker

	Init      []Statement  `json:"init,omitempty"`
	Condition Expression   `json:"condition,omitempty"`
	Update    []Expression `json:"update,omitempty"`
	Body      Statement    `json:"body"`
}

func NewForStatement(init []Statement, cond Expression, update []Expression, body Statement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Init: init, Condition: cond, Update: update, Body: body}
}

// InitVars lists the variables declared by the loop's init clause.
func (f *ForStatement) InitVars() []*VarDecl {
	var vars []*VarDecl
	for _, stmt := range f.Init {
		if decl, ok := stmt.(*VarDeclStatement); ok {
			vars = append(vars, decl.Vars...)
		}
	}
	return vars
}

type ForEachStatement struct {
	nodeImpl
	statementMarker

	Variable *VarDecl   `json:"variable"`
	Iterable Expression `json:"iterable"`
	Body     Statement  `json:"body"`
}

func NewForEachStatement(variable *VarDecl, iterable Expression, body Statement) *ForEachStatement {
	return &ForEachStatement{nodeImpl: newNodeImpl(NodeForEachStatement), Variable: variable, Iterable: iterable, Body: body}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      Statement  `json:"body"`
}

func NewWhileStatement(cond Expression, body Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: cond, Body: body}
}

type DoStatement struct {
	nodeImpl
	statementMarker

	Body      Statement  `json:"body"`
	Condition Expression `json:"condition"`
}

func NewDoStatement(body Statement, cond Expression) *DoStatement {
	return &DoStatement{nodeImpl: newNodeImpl(NodeDoStatement), Body: body, Condition: cond}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(arg Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: arg}
}

type BreakStatement struct {
	nodeImpl
	statementMarker

	Label string `json:"label,omitempty"`
}

func NewBreakStatement(label string) *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement), Label: label}
}

type ContinueStatement struct {
	nodeImpl
	statementMarker

	Label string `json:"label,omitempty"`
}

func NewContinueStatement(label string) *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement), Label: label}
}

type EmptyStatement struct {
	nodeImpl
	statementMarker
}

func NewEmptyStatement() *EmptyStatement {
	return &EmptyStatement{nodeImpl: newNodeImpl(NodeEmptyStatement)}
}

type SynchronizedStatement struct {
	nodeImpl
	statementMarker

	Lock Expression `json:"lock"`
	Body *Block     `json:"body"`
}

func NewSynchronizedStatement(lock Expression, body *Block) *SynchronizedStatement {
	return &SynchronizedStatement{nodeImpl: newNodeImpl(NodeSynchronizedStatement), Lock: lock, Body: body}
}

// The statements below are parsed but never executed.

type AssertStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Message   Expression `json:"message,omitempty"`
}

func NewAssertStatement(cond, message Expression) *AssertStatement {
	return &AssertStatement{nodeImpl: newNodeImpl(NodeAssertStatement), Condition: cond, Message: message}
}

type ThrowStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument"`
}

func NewThrowStatement(arg Expression) *ThrowStatement {
	return &ThrowStatement{nodeImpl: newNodeImpl(NodeThrowStatement), Argument: arg}
}

type TryStatement struct {
	nodeImpl
	statementMarker

	Body    *Block `json:"body"`
	Finally *Block `json:"finally,omitempty"`
}

func NewTryStatement(body, finally *Block) *TryStatement {
	return &TryStatement{nodeImpl: newNodeImpl(NodeTryStatement), Body: body, Finally: finally}
}

type SwitchStatement struct {
	nodeImpl
	statementMarker

	Selector Expression `json:"selector"`
}

func NewSwitchStatement(selector Expression) *SwitchStatement {
	return &SwitchStatement{nodeImpl: newNodeImpl(NodeSwitchStatement), Selector: selector}
}

type LabeledStatement struct {
	nodeImpl
	statementMarker

	Label string    `json:"label"`
	Body  Statement `json:"body"`
}

func NewLabeledStatement(label string, body Statement) *LabeledStatement {
	return &LabeledStatement{nodeImpl: newNodeImpl(NodeLabeledStatement), Label: label, Body: body}
}

type ClassDeclStatement struct {
	nodeImpl
	statementMarker

	Decl *ClassDecl `json:"decl"`
}

func NewClassDeclStatement(decl *ClassDecl) *ClassDeclStatement {
	return &ClassDeclStatement{nodeImpl: newNodeImpl(NodeClassDeclStatement), Decl: decl}
}

// Declarations

type FieldDecl struct {
	nodeImpl

	Name        string     `json:"name"`
	Type        *TypeRef   `json:"fieldType"`
	Initializer Expression `json:"initializer,omitempty"`
	Static      bool       `json:"static,omitempty"`
	Field       *Field     `json:"-"`
}

func NewFieldDecl(name string, typ *TypeRef, init Expression, static bool) *FieldDecl {
	return &FieldDecl{nodeImpl: newNodeImpl(NodeFieldDecl), Name: name, Type: typ, Initializer: init, Static: static}
}

// MethodDecl declares a method, or a constructor when Constructor is set.
type MethodDecl struct {
	nodeImpl

	Name        string     `json:"name"`
	Parameters  []*VarDecl `json:"parameters"`
	ReturnType  *TypeRef   `json:"returnType,omitempty"`
	Body        *Block     `json:"body"`
	Static      bool       `json:"static,omitempty"`
	VarArgs     bool       `json:"varArgs,omitempty"`
	Constructor bool       `json:"constructor,omitempty"`

	Method *Method      `json:"-"`
	Ctor   *Constructor `json:"-"`
}

func NewMethodDecl(name string, params []*VarDecl, returnType *TypeRef, body *Block, static bool) *MethodDecl {
	return &MethodDecl{nodeImpl: newNodeImpl(NodeMethodDecl), Name: name, Parameters: params, ReturnType: returnType, Body: body, Static: static}
}

func NewConstructorDecl(params []*VarDecl, body *Block) *MethodDecl {
	return &MethodDecl{nodeImpl: newNodeImpl(NodeMethodDecl), Name: "<init>", Parameters: params, Body: body, Constructor: true}
}

type ClassDecl struct {
	nodeImpl

	Name    string        `json:"name"`
	Fields  []*FieldDecl  `json:"fields,omitempty"`
	Methods []*MethodDecl `json:"methods,omitempty"`
	Class   *Class        `json:"-"`
}

func NewClassDecl(name string, fields []*FieldDecl, methods []*MethodDecl) *ClassDecl {
	return &ClassDecl{nodeImpl: newNodeImpl(NodeClassDecl), Name: name, Fields: fields, Methods: methods}
}

// Program is one runnable unit: an optional class whose members the
// top-level statements may use, and the statements themselves.
type Program struct {
	nodeImpl

	Class *ClassDecl `json:"class,omitempty"`
	Body  *Block     `json:"body"`
}

func NewProgram(class *ClassDecl, body *Block) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Class: class, Body: body}
}
