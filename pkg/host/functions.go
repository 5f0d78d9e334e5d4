package host

import (
	"fmt"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// nativeFunctional is a functional value built by host code, such as the
// result of Function.andThen.
type nativeFunctional struct {
	registry *Registry
	iface    *ast.Class
	fn       func(args []runtime.Value) (runtime.Value, error)
}

func (f *nativeFunctional) Kind() runtime.Kind { return runtime.KindFunctional }

func (f *nativeFunctional) Interface() *ast.Class { return f.iface }

func (f *nativeFunctional) Call(method *ast.Method, args []runtime.Value) (runtime.Value, error) {
	if method == nil || method.Abstract {
		return f.fn(args)
	}
	return f.registry.Invoke(method, f, args)
}

func (r *Registry) functional(iface *ast.Class, fn func(args []runtime.Value) (runtime.Value, error)) runtime.Value {
	return &nativeFunctional{registry: r, iface: iface, fn: fn}
}

func (r *Registry) initFunctionBuiltins() {
	obj := r.Object

	runnable := r.defineInterface("Runnable")
	r.abstractMethod(runnable, "run", ast.VoidClass)

	supplier := r.defineInterface("Supplier")
	r.abstractMethod(supplier, "get", obj)

	consumer := r.defineInterface("Consumer")
	r.abstractMethod(consumer, "accept", ast.VoidClass, obj)
	r.defaultMethod(consumer, "andThen", consumer, params(consumer), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		next := args[0]
		return r.functional(consumer, func(in []runtime.Value) (runtime.Value, error) {
			if _, err := r.call(recv, in...); err != nil {
				return nil, err
			}
			return r.call(next, in...)
		}), nil
	})

	biConsumer := r.defineInterface("BiConsumer")
	r.abstractMethod(biConsumer, "accept", ast.VoidClass, obj, obj)

	function := r.defineInterface("Function")
	r.abstractMethod(function, "apply", obj, obj)
	r.defaultMethod(function, "andThen", function, params(function), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.compose(function, recv, args[0]), nil
	})
	r.defaultMethod(function, "compose", function, params(function), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.compose(function, args[0], recv), nil
	})
	r.staticMethod(function, "identity", function, nil, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return r.functional(function, func(in []runtime.Value) (runtime.Value, error) {
			return in[0], nil
		}), nil
	})
	r.defineInterface("UnaryOperator", function)

	biFunction := r.defineInterface("BiFunction")
	r.abstractMethod(biFunction, "apply", obj, obj, obj)
	r.defaultMethod(biFunction, "andThen", biFunction, params(function), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.compose(biFunction, recv, args[0]), nil
	})
	r.defineInterface("BinaryOperator", biFunction)

	predicate := r.defineInterface("Predicate")
	r.abstractMethod(predicate, "test", ast.BooleanClass, obj)
	r.defaultMethod(predicate, "negate", predicate, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return r.functional(predicate, func(in []runtime.Value) (runtime.Value, error) {
			ok, err := r.test(recv, in...)
			return runtime.BoolValue{Val: !ok}, err
		}), nil
	})
	r.defaultMethod(predicate, "and", predicate, params(predicate), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		other := args[0]
		return r.functional(predicate, func(in []runtime.Value) (runtime.Value, error) {
			ok, err := r.test(recv, in...)
			if err != nil || !ok {
				return runtime.BoolValue{}, err
			}
			ok, err = r.test(other, in...)
			return runtime.BoolValue{Val: ok}, err
		}), nil
	})
	r.defaultMethod(predicate, "or", predicate, params(predicate), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		other := args[0]
		return r.functional(predicate, func(in []runtime.Value) (runtime.Value, error) {
			ok, err := r.test(recv, in...)
			if err != nil || ok {
				return runtime.BoolValue{Val: ok}, err
			}
			ok, err = r.test(other, in...)
			return runtime.BoolValue{Val: ok}, err
		}), nil
	})

	comparator := r.defineInterface("Comparator")
	r.abstractMethod(comparator, "compare", ast.IntClass, obj, obj)
	r.defaultMethod(comparator, "reversed", comparator, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return r.functional(comparator, func(in []runtime.Value) (runtime.Value, error) {
			if len(in) != 2 {
				return nil, fmt.Errorf("compare takes 2 arguments, got %d", len(in))
			}
			return r.call(recv, in[1], in[0])
		}), nil
	})
	r.staticMethod(comparator, "naturalOrder", comparator, nil, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return r.functional(comparator, func(in []runtime.Value) (runtime.Value, error) {
			c, err := naturalCompare(in[0], in[1])
			return runtime.IntValue{Val: int32(c)}, err
		}), nil
	})
	r.staticMethod(comparator, "comparing", comparator, params(function), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		key := args[0]
		return r.functional(comparator, func(in []runtime.Value) (runtime.Value, error) {
			a, err := r.call(key, in[0])
			if err != nil {
				return nil, err
			}
			b, err := r.call(key, in[1])
			if err != nil {
				return nil, err
			}
			c, err := naturalCompare(a, b)
			return runtime.IntValue{Val: int32(c)}, err
		}), nil
	})

	intBinary := r.defineInterface("IntBinaryOperator")
	r.abstractMethod(intBinary, "applyAsInt", ast.IntClass, ast.IntClass, ast.IntClass)
	intUnary := r.defineInterface("IntUnaryOperator")
	r.abstractMethod(intUnary, "applyAsInt", ast.IntClass, ast.IntClass)
	intPredicate := r.defineInterface("IntPredicate")
	r.abstractMethod(intPredicate, "test", ast.BooleanClass, ast.IntClass)
	intFunction := r.defineInterface("IntFunction")
	r.abstractMethod(intFunction, "apply", obj, ast.IntClass)
	toIntFunction := r.defineInterface("ToIntFunction")
	r.abstractMethod(toIntFunction, "applyAsInt", ast.IntClass, obj)
}

// compose returns iface's function running first then second on the result.
func (r *Registry) compose(iface *ast.Class, first, second runtime.Value) runtime.Value {
	return r.functional(iface, func(in []runtime.Value) (runtime.Value, error) {
		mid, err := r.call(first, in...)
		if err != nil {
			return nil, err
		}
		return r.call(second, mid)
	})
}

func (r *Registry) test(pred runtime.Value, args ...runtime.Value) (bool, error) {
	res, err := r.call(pred, args...)
	if err != nil {
		return false, err
	}
	b, ok := res.(runtime.BoolValue)
	if !ok {
		return false, fmt.Errorf("predicate returned %s, not boolean", kindName(res))
	}
	return b.Val, nil
}

// naturalCompare orders numbers, chars, booleans and strings.
func naturalCompare(a, b runtime.Value) (int, error) {
	if runtime.IsNumeric(a) && runtime.IsNumeric(b) {
		_, af := a.(runtime.DoubleValue)
		_, bf := b.(runtime.DoubleValue)
		_, as := a.(runtime.FloatValue)
		_, bs := b.(runtime.FloatValue)
		if af || bf || as || bs {
			x, _ := runtime.ToFloat64(a)
			y, _ := runtime.ToFloat64(b)
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
		x, _ := runtime.ToInt64(a)
		y, _ := runtime.ToInt64(b)
		return cmpInt64(x, y), nil
	}
	switch x := a.(type) {
	case runtime.StringValue:
		if y, ok := b.(runtime.StringValue); ok {
			return compareUnits(utf16Units(x.Val), utf16Units(y.Val)), nil
		}
	case runtime.BoolValue:
		if y, ok := b.(runtime.BoolValue); ok {
			switch {
			case x.Val == y.Val:
				return 0, nil
			case x.Val:
				return 1, nil
			}
			return -1, nil
		}
	}
	return 0, fmt.Errorf("cannot compare %s with %s", kindName(a), kindName(b))
}
