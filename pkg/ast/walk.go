package ast

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, child := range nodes {
			if child == nil || isNilNode(child) {
				continue
			}
			out = append(out, child)
		}
	}
	addExprs := func(exprs []Expression) {
		for _, e := range exprs {
			add(e)
		}
	}
	switch node := n.(type) {
	case *DotExpression:
		add(node.Target, node.Member)
	case *UnaryExpression:
		add(node.Operand)
	case *BinaryExpression:
		add(node.Left, node.Right)
	case *TernaryExpression:
		add(node.Condition, node.Then, node.Else)
	case *AssignmentExpression:
		add(node.Target, node.Value)
	case *IndexExpression:
		add(node.Array, node.Index)
	case *NewExpression:
		add(node.Type)
		addExprs(node.Arguments)
	case *NewArrayExpression:
		add(node.Type)
		addExprs(node.Dimensions)
		if node.Initializer != nil {
			add(node.Initializer)
		}
	case *ArrayInitializer:
		addExprs(node.Elements)
	case *CastExpression:
		add(node.Type, node.Expression)
	case *InstanceOfExpression:
		add(node.Expression, node.Type)
	case *MethodCall:
		addExprs(node.Arguments)
	case *LambdaExpression:
		for _, p := range node.Parameters {
			add(p)
		}
		add(node.Body)
	case *MethodRefExpression:
		add(node.Target)
	case *ParenExpression:
		add(node.Expression)
	case *SwitchExpression:
		add(node.Selector)
	case *VarDecl:
		add(node.Type, node.Initializer)
	case *Block:
		for _, s := range node.Statements {
			add(s)
		}
	case *ExpressionStatement:
		add(node.Expression)
	case *VarDeclStatement:
		for _, v := range node.Vars {
			add(v)
		}
	case *IfStatement:
		add(node.Condition, node.Then, node.Else)
	case *ForStatement:
		for _, s := range node.Init {
			add(s)
		}
		add(node.Condition)
		addExprs(node.Update)
		add(node.Body)
	case *ForEachStatement:
		add(node.Variable, node.Iterable, node.Body)
	case *WhileStatement:
		add(node.Condition, node.Body)
	case *DoStatement:
		add(node.Body, node.Condition)
	case *ReturnStatement:
		add(node.Argument)
	case *SynchronizedStatement:
		add(node.Lock)
		if node.Body != nil {
			add(node.Body)
		}
	case *AssertStatement:
		add(node.Condition, node.Message)
	case *ThrowStatement:
		add(node.Argument)
	case *TryStatement:
		if node.Body != nil {
			add(node.Body)
		}
		if node.Finally != nil {
			add(node.Finally)
		}
	case *SwitchStatement:
		add(node.Selector)
	case *LabeledStatement:
		add(node.Body)
	case *ClassDeclStatement:
		if node.Decl != nil {
			add(node.Decl)
		}
	case *FieldDecl:
		add(node.Type, node.Initializer)
	case *MethodDecl:
		for _, p := range node.Parameters {
			add(p)
		}
		add(node.ReturnType)
		if node.Body != nil {
			add(node.Body)
		}
	case *ClassDecl:
		for _, f := range node.Fields {
			add(f)
		}
		for _, m := range node.Methods {
			add(m)
		}
	case *Program:
		if node.Class != nil {
			add(node.Class)
		}
		if node.Body != nil {
			add(node.Body)
		}
	}
	return out
}

// isNilNode catches typed nil pointers stored in interface fields.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *TypeRef:
		return v == nil
	case *Block:
		return v == nil
	case *VarDecl:
		return v == nil
	case *ArrayInitializer:
		return v == nil
	}
	return false
}

// Inspect walks the tree rooted at n depth-first, calling visit for each node.
// Returning false from visit skips the node's children.
func Inspect(n Node, visit func(Node) bool) {
	if n == nil || isNilNode(n) || !visit(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, visit)
	}
}
