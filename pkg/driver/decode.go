package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"snapcode/interpreter-go/pkg/ast"
)

// DecodeProgram parses a JSON-encoded Program node.
func DecodeProgram(data []byte) (*ast.Program, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	prog, ok := node.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("expected Program node, got %s", node.NodeType())
	}
	return prog, nil
}

func decodeNode(node map[string]any) (ast.Node, error) {
	typ, _ := node["type"].(string)
	switch ast.NodeType(typ) {
	case ast.NodeProgram:
		var class *ast.ClassDecl
		if raw, ok := node["class"].(map[string]any); ok {
			decoded, err := decodeNode(raw)
			if err != nil {
				return nil, err
			}
			class, ok = decoded.(*ast.ClassDecl)
			if !ok {
				return nil, fmt.Errorf("invalid program class %T", decoded)
			}
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewProgram(class, body), nil
	case ast.NodeClassDecl:
		name, _ := node["name"].(string)
		fieldsVal, _ := node["fields"].([]any)
		fields := make([]*ast.FieldDecl, 0, len(fieldsVal))
		for _, raw := range fieldsVal {
			child, err := decodeChild(raw)
			if err != nil {
				return nil, err
			}
			field, ok := child.(*ast.FieldDecl)
			if !ok {
				return nil, fmt.Errorf("invalid field entry %T", child)
			}
			fields = append(fields, field)
		}
		methodsVal, _ := node["methods"].([]any)
		methods := make([]*ast.MethodDecl, 0, len(methodsVal))
		for _, raw := range methodsVal {
			child, err := decodeChild(raw)
			if err != nil {
				return nil, err
			}
			method, ok := child.(*ast.MethodDecl)
			if !ok {
				return nil, fmt.Errorf("invalid method entry %T", child)
			}
			methods = append(methods, method)
		}
		return ast.NewClassDecl(name, fields, methods), nil
	case ast.NodeFieldDecl:
		name, _ := node["name"].(string)
		fieldType, err := decodeTypeRef(node["fieldType"])
		if err != nil {
			return nil, err
		}
		init, err := decodeExpression(node["initializer"])
		if err != nil {
			return nil, err
		}
		static, _ := node["static"].(bool)
		return ast.NewFieldDecl(name, fieldType, init, static), nil
	case ast.NodeMethodDecl:
		name, _ := node["name"].(string)
		params, err := decodeVarDecls(node["parameters"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		if ctor, _ := node["constructor"].(bool); ctor {
			decl := ast.NewConstructorDecl(params, body)
			decl.VarArgs, _ = node["varArgs"].(bool)
			return decl, nil
		}
		ret, err := decodeTypeRef(node["returnType"])
		if err != nil {
			return nil, err
		}
		static, _ := node["static"].(bool)
		decl := ast.NewMethodDecl(name, params, ret, body, static)
		decl.VarArgs, _ = node["varArgs"].(bool)
		return decl, nil
	case ast.NodeVarDecl:
		return decodeVarDecl(node)
	case ast.NodeTypeRef:
		name, _ := node["name"].(string)
		return ast.NewTypeRef(name), nil
	}
	if stmt, ok, err := decodeStatementNode(node); ok || err != nil {
		return stmt, err
	}
	return decodeExpressionNode(node)
}

func decodeStatementNode(node map[string]any) (ast.Statement, bool, error) {
	typ, _ := node["type"].(string)
	switch ast.NodeType(typ) {
	case ast.NodeBlock:
		stmts, err := decodeStatements(node["statements"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewBlock(stmts), true, nil
	case ast.NodeExpressionStatement:
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, true, err
		}
		if expr == nil {
			return nil, true, fmt.Errorf("expression statement missing expression")
		}
		return ast.NewExpressionStatement(expr), true, nil
	case ast.NodeVarDeclStatement:
		vars, err := decodeVarDecls(node["vars"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewVarDeclStatement(vars...), true, nil
	case ast.NodeIfStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, true, err
		}
		then, err := decodeStatement(node["then"])
		if err != nil {
			return nil, true, err
		}
		els, err := decodeStatement(node["else"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewIfStatement(cond, then, els), true, nil
	case ast.NodeForStatement:
		init, err := decodeStatements(node["init"])
		if err != nil {
			return nil, true, err
		}
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, true, err
		}
		update, err := decodeExpressions(node["update"])
		if err != nil {
			return nil, true, err
		}
		body, err := decodeStatement(node["body"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewForStatement(init, cond, update, body), true, nil
	case ast.NodeForEachStatement:
		raw, ok := node["variable"].(map[string]any)
		if !ok {
			return nil, true, fmt.Errorf("for-each missing variable")
		}
		variable, err := decodeVarDecl(raw)
		if err != nil {
			return nil, true, err
		}
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, true, err
		}
		body, err := decodeStatement(node["body"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewForEachStatement(variable, iterable, body), true, nil
	case ast.NodeWhileStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, true, err
		}
		body, err := decodeStatement(node["body"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewWhileStatement(cond, body), true, nil
	case ast.NodeDoStatement:
		body, err := decodeStatement(node["body"])
		if err != nil {
			return nil, true, err
		}
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewDoStatement(body, cond), true, nil
	case ast.NodeReturnStatement:
		arg, err := decodeExpression(node["argument"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewReturnStatement(arg), true, nil
	case ast.NodeBreakStatement:
		label, _ := node["label"].(string)
		return ast.NewBreakStatement(label), true, nil
	case ast.NodeContinueStatement:
		label, _ := node["label"].(string)
		return ast.NewContinueStatement(label), true, nil
	case ast.NodeEmptyStatement:
		return ast.NewEmptyStatement(), true, nil
	case ast.NodeSynchronizedStatement:
		lock, err := decodeExpression(node["lock"])
		if err != nil {
			return nil, true, err
		}
		body, err := requireBlock(node, "body")
		if err != nil {
			return nil, true, err
		}
		return ast.NewSynchronizedStatement(lock, body), true, nil
	case ast.NodeAssertStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, true, err
		}
		msg, err := decodeExpression(node["message"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewAssertStatement(cond, msg), true, nil
	case ast.NodeThrowStatement:
		arg, err := decodeExpression(node["argument"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewThrowStatement(arg), true, nil
	case ast.NodeTryStatement:
		body, err := requireBlock(node, "body")
		if err != nil {
			return nil, true, err
		}
		var finally *ast.Block
		if node["finally"] != nil {
			if finally, err = decodeBlock(node["finally"]); err != nil {
				return nil, true, err
			}
		}
		return ast.NewTryStatement(body, finally), true, nil
	case ast.NodeSwitchStatement:
		sel, err := decodeExpression(node["selector"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewSwitchStatement(sel), true, nil
	case ast.NodeLabeledStatement:
		label, _ := node["label"].(string)
		body, err := decodeStatement(node["body"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewLabeledStatement(label, body), true, nil
	case ast.NodeClassDeclStatement:
		raw, ok := node["decl"].(map[string]any)
		if !ok {
			return nil, true, fmt.Errorf("class declaration statement missing decl")
		}
		child, err := decodeNode(raw)
		if err != nil {
			return nil, true, err
		}
		decl, ok := child.(*ast.ClassDecl)
		if !ok {
			return nil, true, fmt.Errorf("invalid class declaration %T", child)
		}
		return ast.NewClassDeclStatement(decl), true, nil
	}
	return nil, false, nil
}

func decodeExpressionNode(node map[string]any) (ast.Expression, error) {
	typ, _ := node["type"].(string)
	switch ast.NodeType(typ) {
	case ast.NodeIdentifier:
		name, _ := node["name"].(string)
		return ast.NewIdentifier(name), nil
	case ast.NodeBooleanLiteral:
		val, _ := node["value"].(bool)
		return ast.NewBooleanLiteral(val), nil
	case ast.NodeIntegerLiteral:
		val, err := parseInteger(node["value"])
		if err != nil {
			return nil, err
		}
		long, _ := node["long"].(bool)
		return ast.NewIntegerLiteral(val, long), nil
	case ast.NodeFloatLiteral:
		val, err := parseFloat(node["value"])
		if err != nil {
			return nil, err
		}
		single, _ := node["single"].(bool)
		return ast.NewFloatLiteral(val, single), nil
	case ast.NodeCharLiteral:
		val, err := parseChar(node["value"])
		if err != nil {
			return nil, err
		}
		return ast.NewCharLiteral(val), nil
	case ast.NodeStringLiteral:
		val, _ := node["value"].(string)
		return ast.NewStringLiteral(val), nil
	case ast.NodeNullLiteral:
		return ast.NewNullLiteral(), nil
	case ast.NodeDotExpression:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		member, err := decodeExpression(node["member"])
		if err != nil {
			return nil, err
		}
		switch member.(type) {
		case *ast.Identifier, *ast.MethodCall:
		default:
			return nil, fmt.Errorf("invalid dot member %T", member)
		}
		return ast.NewDotExpression(target, member), nil
	case ast.NodeUnaryExpression:
		op, _ := node["operator"].(string)
		operand, err := decodeExpression(node["operand"])
		if err != nil {
			return nil, err
		}
		postfix, _ := node["postfix"].(bool)
		return ast.NewUnaryExpression(op, operand, postfix), nil
	case ast.NodeBinaryExpression:
		op, _ := node["operator"].(string)
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(op, left, right), nil
	case ast.NodeTernaryExpression:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		then, err := decodeExpression(node["then"])
		if err != nil {
			return nil, err
		}
		els, err := decodeExpression(node["else"])
		if err != nil {
			return nil, err
		}
		return ast.NewTernaryExpression(cond, then, els), nil
	case ast.NodeAssignmentExpression:
		op, _ := node["operator"].(string)
		if op == "" {
			op = string(ast.AssignmentAssign)
		}
		left, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		target, ok := left.(ast.AssignmentTarget)
		if !ok {
			return nil, fmt.Errorf("invalid assignment target %T", left)
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return ast.NewAssignmentExpression(ast.AssignmentOperator(op), target, value), nil
	case ast.NodeIndexExpression:
		array, err := decodeExpression(node["array"])
		if err != nil {
			return nil, err
		}
		index, err := decodeExpression(node["index"])
		if err != nil {
			return nil, err
		}
		return ast.NewIndexExpression(array, index), nil
	case ast.NodeNewExpression:
		classType, err := decodeTypeRef(node["classType"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewNewExpression(classType, args), nil
	case ast.NodeNewArrayExpression:
		arrayType, err := decodeTypeRef(node["arrayType"])
		if err != nil {
			return nil, err
		}
		dims, err := decodeExpressions(node["dimensions"])
		if err != nil {
			return nil, err
		}
		var init *ast.ArrayInitializer
		if raw, ok := node["initializer"].(map[string]any); ok {
			child, err := decodeExpressionNode(raw)
			if err != nil {
				return nil, err
			}
			if init, ok = child.(*ast.ArrayInitializer); !ok {
				return nil, fmt.Errorf("invalid array initializer %T", child)
			}
		}
		return ast.NewNewArrayExpression(arrayType, dims, init), nil
	case ast.NodeArrayInitializer:
		elems, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return ast.NewArrayInitializer(elems), nil
	case ast.NodeCastExpression:
		castType, err := decodeTypeRef(node["castType"])
		if err != nil {
			return nil, err
		}
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, err
		}
		return ast.NewCastExpression(castType, expr), nil
	case ast.NodeInstanceOfExpression:
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, err
		}
		checkType, err := decodeTypeRef(node["checkType"])
		if err != nil {
			return nil, err
		}
		return ast.NewInstanceOfExpression(expr, checkType), nil
	case ast.NodeMethodCall:
		name, _ := node["name"].(string)
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewMethodCall(name, args), nil
	case ast.NodeLambdaExpression:
		params, err := decodeVarDecls(node["parameters"])
		if err != nil {
			return nil, err
		}
		raw, ok := node["body"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("lambda missing body")
		}
		body, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		switch body.(type) {
		case *ast.Block, ast.Expression:
		default:
			return nil, fmt.Errorf("invalid lambda body %T", body)
		}
		return ast.NewLambdaExpression(params, body), nil
	case ast.NodeMethodRefExpression:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		name, _ := node["name"].(string)
		return ast.NewMethodRefExpression(target, name), nil
	case ast.NodeParenExpression:
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, err
		}
		return ast.NewParenExpression(expr), nil
	case ast.NodeSwitchExpression:
		sel, err := decodeExpression(node["selector"])
		if err != nil {
			return nil, err
		}
		return ast.NewSwitchExpression(sel), nil
	}
	return nil, fmt.Errorf("unsupported node type %q", typ)
}

func decodeChild(raw any) (ast.Node, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid node %T", raw)
	}
	return decodeNode(child)
}

// decodeExpression returns nil for an absent child.
func decodeExpression(raw any) (ast.Expression, error) {
	if raw == nil {
		return nil, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid expression %T", raw)
	}
	return decodeExpressionNode(child)
}

// decodeStatement returns nil for an absent child.
func decodeStatement(raw any) (ast.Statement, error) {
	if raw == nil {
		return nil, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid statement %T", raw)
	}
	stmt, matched, err := decodeStatementNode(child)
	if err != nil {
		return nil, err
	}
	if !matched {
		typ, _ := child["type"].(string)
		return nil, fmt.Errorf("expected statement, got %q", typ)
	}
	return stmt, nil
}

func decodeExpressions(raw any) ([]ast.Expression, error) {
	list, _ := raw.([]any)
	exprs := make([]ast.Expression, 0, len(list))
	for _, item := range list {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		if expr == nil {
			return nil, fmt.Errorf("null expression in list")
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func decodeStatements(raw any) ([]ast.Statement, error) {
	list, _ := raw.([]any)
	stmts := make([]ast.Statement, 0, len(list))
	for _, item := range list {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			return nil, fmt.Errorf("null statement in list")
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// decodeBlock returns nil for an absent block, as in a program run through
// its static main or a method without a body.
func decodeBlock(raw any) (*ast.Block, error) {
	stmt, err := decodeStatement(raw)
	if err != nil || stmt == nil {
		return nil, err
	}
	block, ok := stmt.(*ast.Block)
	if !ok {
		return nil, fmt.Errorf("expected block, got %T", stmt)
	}
	return block, nil
}

func requireBlock(node map[string]any, key string) (*ast.Block, error) {
	block, err := decodeBlock(node[key])
	if err == nil && block == nil {
		err = fmt.Errorf("%s missing %s", node["type"], key)
	}
	return block, err
}

func decodeVarDecls(raw any) ([]*ast.VarDecl, error) {
	list, _ := raw.([]any)
	vars := make([]*ast.VarDecl, 0, len(list))
	for _, item := range list {
		child, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid variable entry %T", item)
		}
		v, err := decodeVarDecl(child)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func decodeVarDecl(node map[string]any) (*ast.VarDecl, error) {
	name, _ := node["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("variable declaration missing name")
	}
	varType, err := decodeTypeRef(node["varType"])
	if err != nil {
		return nil, err
	}
	init, err := decodeExpression(node["initializer"])
	if err != nil {
		return nil, err
	}
	return ast.NewVarDecl(name, varType, init), nil
}

// decodeTypeRef accepts either a TypeRef node or a bare type name.
func decodeTypeRef(raw any) (*ast.TypeRef, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ast.NewTypeRef(v), nil
	case map[string]any:
		name, _ := v["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("type reference missing name")
		}
		return ast.NewTypeRef(name), nil
	default:
		return nil, fmt.Errorf("invalid type reference %T", raw)
	}
}

func parseInteger(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return strconv.ParseInt(v.String(), 10, 64)
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 0, 64)
	default:
		return 0, fmt.Errorf("invalid integer literal %T", raw)
	}
}

func parseFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("invalid float literal %T", raw)
	}
}

// parseChar accepts a UTF-16 code unit or a one-character string.
func parseChar(raw any) (uint16, error) {
	switch v := raw.(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 16)
		return uint16(n), err
	case float64:
		if v < 0 || v > 0xFFFF {
			return 0, fmt.Errorf("char literal %v out of range", v)
		}
		return uint16(v), nil
	case string:
		r, size := utf8.DecodeRuneInString(v)
		if size == 0 || size != len(v) || r > 0xFFFF {
			return 0, fmt.Errorf("invalid char literal %q", v)
		}
		return uint16(r), nil
	default:
		return 0, fmt.Errorf("invalid char literal %T", raw)
	}
}
