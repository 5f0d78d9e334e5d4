package interpreter

import (
	"math"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// Numeric results follow the promotion ladder double > float > long > int;
// byte, short and char operands count as int.
type numericRank int

const (
	rankInt numericRank = iota
	rankLong
	rankFloat
	rankDouble
)

func rankOf(v runtime.Value) numericRank {
	switch v.(type) {
	case runtime.LongValue:
		return rankLong
	case runtime.FloatValue:
		return rankFloat
	case runtime.DoubleValue:
		return rankDouble
	}
	return rankInt
}

func isBitwiseOperator(op string) bool {
	switch op {
	case "&", "|", "^", "~", "<<", ">>", ">>>":
		return true
	}
	return false
}

func (i *Interpreter) evalUnary(this runtime.Value, n *ast.UnaryExpression) (runtime.Value, error) {
	switch n.Operator {
	case "++", "--":
		return i.evalIncrement(this, n)
	case "~":
		return nil, unsupported(n, "bitwise operator ~")
	}
	operand, err := i.evalExpr(this, n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "!":
		b, ok := operand.(runtime.BoolValue)
		if !ok {
			return nil, typeError(n, "operator ! requires boolean, got %s", kindOf(operand))
		}
		return runtime.BoolValue{Val: !b.Val}, nil
	case "-", "+":
		if !runtime.IsNumeric(operand) {
			return nil, typeError(n, "operator %s requires a number, got %s", n.Operator, kindOf(operand))
		}
		if n.Operator == "+" {
			return promote(operand), nil
		}
		return negate(operand), nil
	}
	return nil, unsupported(n, "unary operator "+n.Operator)
}

// promote widens byte, short and char to int.
func promote(v runtime.Value) runtime.Value {
	switch rankOf(v) {
	case rankInt:
		l, _ := runtime.ToInt64(v)
		return runtime.IntValue{Val: int32(l)}
	}
	return v
}

func negate(v runtime.Value) runtime.Value {
	switch n := promote(v).(type) {
	case runtime.IntValue:
		return runtime.IntValue{Val: -n.Val}
	case runtime.LongValue:
		return runtime.LongValue{Val: -n.Val}
	case runtime.FloatValue:
		return runtime.FloatValue{Val: -n.Val}
	case runtime.DoubleValue:
		return runtime.DoubleValue{Val: -n.Val}
	}
	return v
}

func (i *Interpreter) evalTernary(this runtime.Value, n *ast.TernaryExpression) (runtime.Value, error) {
	cond, err := i.evalCondition(this, n.Condition)
	if err != nil {
		return nil, err
	}
	if cond {
		return i.evalExpr(this, n.Then)
	}
	return i.evalExpr(this, n.Else)
}

// evalCondition evaluates expr and requires a boolean result.
func (i *Interpreter) evalCondition(this runtime.Value, expr ast.Expression) (bool, error) {
	val, err := i.evalExpr(this, expr)
	if err != nil {
		return false, err
	}
	b, ok := val.(runtime.BoolValue)
	if !ok {
		return false, typeError(expr, "condition must be boolean, got %s", kindOf(val))
	}
	return b.Val, nil
}

func (i *Interpreter) evalBinary(this runtime.Value, n *ast.BinaryExpression) (runtime.Value, error) {
	if isBitwiseOperator(n.Operator) {
		return nil, unsupported(n, "bitwise operator "+n.Operator)
	}
	if n.Operator == "&&" || n.Operator == "||" {
		left, err := i.evalCondition(this, n.Left)
		if err != nil {
			return nil, err
		}
		if (n.Operator == "&&" && !left) || (n.Operator == "||" && left) {
			return runtime.BoolValue{Val: left}, nil
		}
		right, err := i.evalCondition(this, n.Right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: right}, nil
	}
	left, err := i.evalExpr(this, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(this, n.Right)
	if err != nil {
		return nil, err
	}
	return i.applyBinary(n, n.Operator, left, right)
}

// applyBinary combines two evaluated operands. Compound assignment reuses it.
func (i *Interpreter) applyBinary(node ast.Node, op string, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		_, ls := left.(runtime.StringValue)
		_, rs := right.(runtime.StringValue)
		if ls || rs {
			lstr, err := i.stringify(node, left)
			if err != nil {
				return nil, err
			}
			rstr, err := i.stringify(node, right)
			if err != nil {
				return nil, err
			}
			return runtime.StringValue{Val: lstr + rstr}, nil
		}
		fallthrough
	case "-", "*", "/", "%":
		if !runtime.IsNumeric(left) || !runtime.IsNumeric(right) {
			return nil, typeError(node, "operator %s requires numbers, got %s and %s", op, kindOf(left), kindOf(right))
		}
		return arithmetic(node, op, left, right)
	case "==", "!=":
		eq, err := valuesEqual(node, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: eq == (op == "==")}, nil
	case "<", ">", "<=", ">=":
		if !runtime.IsNumeric(left) || !runtime.IsNumeric(right) {
			return nil, typeError(node, "operator %s requires numbers, got %s and %s", op, kindOf(left), kindOf(right))
		}
		return runtime.BoolValue{Val: compareNumeric(op, left, right)}, nil
	case "&&", "||":
		lb, lok := left.(runtime.BoolValue)
		rb, rok := right.(runtime.BoolValue)
		if !lok || !rok {
			return nil, typeError(node, "operator %s requires booleans", op)
		}
		if op == "&&" {
			return runtime.BoolValue{Val: lb.Val && rb.Val}, nil
		}
		return runtime.BoolValue{Val: lb.Val || rb.Val}, nil
	}
	if isBitwiseOperator(op) {
		return nil, unsupported(node, "bitwise operator "+op)
	}
	return nil, unsupported(node, "binary operator "+op)
}

// arithmetic applies + - * / % to numeric operands. Integral results wrap
// like two's complement; % always works on truncated integral operands.
func arithmetic(node ast.Node, op string, left, right runtime.Value) (runtime.Value, error) {
	rank := max(rankOf(left), rankOf(right))
	if op == "%" {
		return remainder(node, rank, left, right)
	}
	switch rank {
	case rankInt, rankLong:
		a, _ := runtime.ToInt64(left)
		b, _ := runtime.ToInt64(right)
		var res int64
		switch op {
		case "+":
			res = a + b
		case "-":
			res = a - b
		case "*":
			res = a * b
		case "/":
			if b == 0 {
				return nil, newRuntimeError(ErrArithmetic, node, "/ by zero")
			}
			res = a / b
		}
		if rank == rankInt {
			return runtime.IntValue{Val: int32(res)}, nil
		}
		return runtime.LongValue{Val: res}, nil
	case rankFloat:
		a, _ := runtime.ToFloat64(left)
		b, _ := runtime.ToFloat64(right)
		return runtime.FloatValue{Val: float32Op(op, float32(a), float32(b))}, nil
	default:
		a, _ := runtime.ToFloat64(left)
		b, _ := runtime.ToFloat64(right)
		return runtime.DoubleValue{Val: float64Op(op, a, b)}, nil
	}
}

func float32Op(op string, a, b float32) float32 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	default:
		return a / b
	}
}

func float64Op(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	default:
		return a / b
	}
}

func remainder(node ast.Node, rank numericRank, left, right runtime.Value) (runtime.Value, error) {
	a, _ := runtime.ToInt64(left)
	b, _ := runtime.ToInt64(right)
	if b == 0 {
		switch rank {
		case rankFloat:
			return runtime.FloatValue{Val: float32(math.NaN())}, nil
		case rankDouble:
			return runtime.DoubleValue{Val: math.NaN()}, nil
		}
		return nil, newRuntimeError(ErrArithmetic, node, "/ by zero")
	}
	res := a % b
	switch rank {
	case rankInt:
		return runtime.IntValue{Val: int32(res)}, nil
	case rankLong:
		return runtime.LongValue{Val: res}, nil
	case rankFloat:
		return runtime.FloatValue{Val: float32(res)}, nil
	default:
		return runtime.DoubleValue{Val: float64(res)}, nil
	}
}

func compareNumeric(op string, left, right runtime.Value) bool {
	if rankOf(left) <= rankLong && rankOf(right) <= rankLong {
		a, _ := runtime.ToInt64(left)
		b, _ := runtime.ToInt64(right)
		switch op {
		case "<":
			return a < b
		case ">":
			return a > b
		case "<=":
			return a <= b
		default:
			return a >= b
		}
	}
	a, _ := runtime.ToFloat64(left)
	b, _ := runtime.ToFloat64(right)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	default:
		return a >= b
	}
}

// valuesEqual implements == : numbers and chars compare by value, booleans
// and strings by content, everything else by identity.
func valuesEqual(node ast.Node, left, right runtime.Value) (bool, error) {
	if runtime.IsNull(left) || runtime.IsNull(right) {
		return runtime.IsNull(left) && runtime.IsNull(right), nil
	}
	ln, rn := runtime.IsNumeric(left), runtime.IsNumeric(right)
	if ln && rn {
		if rankOf(left) <= rankLong && rankOf(right) <= rankLong {
			a, _ := runtime.ToInt64(left)
			b, _ := runtime.ToInt64(right)
			return a == b, nil
		}
		a, _ := runtime.ToFloat64(left)
		b, _ := runtime.ToFloat64(right)
		return a == b, nil
	}
	lb, lok := left.(runtime.BoolValue)
	rb, rok := right.(runtime.BoolValue)
	if lok && rok {
		return lb.Val == rb.Val, nil
	}
	if lok || rok || ln || rn {
		return false, typeError(node, "cannot compare %s with %s", kindOf(left), kindOf(right))
	}
	if ls, ok := left.(runtime.StringValue); ok {
		rs, ok := right.(runtime.StringValue)
		return ok && ls.Val == rs.Val, nil
	}
	return left == right, nil
}
