package host

import (
	"fmt"
	"slices"
	"strings"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// list is the native state behind List objects.
type list struct {
	registry *Registry
	elems    []runtime.Value
}

func (l *list) Values() []runtime.Value { return slices.Clone(l.elems) }

func (l *list) String() string { return l.registry.render(l.elems) }

// hashMap is the native state behind Map objects. Iteration follows
// insertion order.
type hashMap struct {
	registry *Registry
	keys     []runtime.Value
	values   []runtime.Value
}

func (m *hashMap) find(key runtime.Value) (int, error) {
	for idx, k := range m.keys {
		eq, err := m.registry.equals(k, key)
		if err != nil {
			return -1, err
		}
		if eq {
			return idx, nil
		}
	}
	return -1, nil
}

func (m *hashMap) Values() []runtime.Value { return slices.Clone(m.keys) }

func (m *hashMap) String() string {
	parts := make([]string, len(m.keys))
	for idx := range m.keys {
		k, _ := m.registry.stringify(m.keys[idx])
		v, _ := m.registry.stringify(m.values[idx])
		parts[idx] = k + "=" + v
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r *Registry) render(elems []runtime.Value) string {
	parts := make([]string, len(elems))
	for idx, el := range elems {
		parts[idx], _ = r.stringify(el)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r *Registry) newList(elems []runtime.Value) *runtime.ObjectValue {
	return runtime.NewObject(r.ArrayList, &list{registry: r, elems: elems})
}

func listOf(recv runtime.Value) (*list, error) {
	if obj, ok := recv.(*runtime.ObjectValue); ok {
		if l, ok := obj.Native.(*list); ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("expected a List, got %s", kindName(recv))
}

func mapOf(recv runtime.Value) (*hashMap, error) {
	if obj, ok := recv.(*runtime.ObjectValue); ok {
		if m, ok := obj.Native.(*hashMap); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("expected a Map, got %s", kindName(recv))
}

func checkIndex(idx, length int) error {
	if idx < 0 || idx >= length {
		return fmt.Errorf("index %d out of bounds for length %d", idx, length)
	}
	return nil
}

func (r *Registry) initCollectionBuiltins() {
	obj := r.Object
	consumer := r.ResolveClass("Consumer")
	biConsumer := r.ResolveClass("BiConsumer")
	function := r.ResolveClass("Function")
	biFunction := r.ResolveClass("BiFunction")
	predicate := r.ResolveClass("Predicate")
	comparator := r.ResolveClass("Comparator")

	r.Iterable = r.defineInterface("Iterable")
	r.defaultMethod(r.Iterable, "forEach", ast.VoidClass, params(consumer), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		it, ok := nativeOf(recv).(runtime.Iterable)
		if !ok {
			return nil, fmt.Errorf("forEach expects an Iterable, got %s", kindName(recv))
		}
		for _, v := range it.Values() {
			if _, err := r.call(args[0], v); err != nil {
				return nil, err
			}
		}
		return runtime.VoidValue{}, nil
	})

	r.List = r.defineInterface("List", r.Iterable)
	r.register(r.List, "Collection")
	r.initListBuiltins(obj, predicate, comparator)
	r.ArrayList = r.defineClass("ArrayList", obj, r.List)
	r.register(r.ArrayList, "LinkedList")
	r.constructor(r.ArrayList, nil, func(_ []runtime.Value) (runtime.Value, error) {
		return r.newList(nil), nil
	})
	r.constructor(r.ArrayList, params(obj), func(args []runtime.Value) (runtime.Value, error) {
		if runtime.IsNumeric(args[0]) {
			return r.newList(nil), nil
		}
		it, ok := nativeOf(args[0]).(runtime.Iterable)
		if !ok {
			return nil, fmt.Errorf("ArrayList expects a capacity or a collection, got %s", kindName(args[0]))
		}
		return r.newList(it.Values()), nil
	})

	r.Map = r.defineInterface("Map")
	r.initMapBuiltins(obj, biConsumer, function, biFunction)
	r.HashMap = r.defineClass("HashMap", obj, r.Map)
	r.register(r.HashMap, "LinkedHashMap", "TreeMap")
	r.constructor(r.HashMap, nil, func(_ []runtime.Value) (runtime.Value, error) {
		return runtime.NewObject(r.HashMap, &hashMap{registry: r}), nil
	})

	r.initArraysBuiltins(obj, comparator)
}

func nativeOf(v runtime.Value) any {
	if obj, ok := v.(*runtime.ObjectValue); ok {
		return obj.Native
	}
	return v
}

func (r *Registry) initListBuiltins(obj, predicate, comparator *ast.Class) {
	ls := r.List
	r.method(ls, "size", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.IntValue{Val: int32(len(l.elems))}, nil
	})
	r.method(ls, "isEmpty", ast.BooleanClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: len(l.elems) == 0}, nil
	})
	r.method(ls, "add", ast.BooleanClass, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		l.elems = append(l.elems, args[0])
		return runtime.BoolValue{Val: true}, nil
	})
	r.method(ls, "add", ast.VoidClass, params(ast.IntClass, obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx > len(l.elems) {
			return nil, fmt.Errorf("index %d out of bounds for length %d", idx, len(l.elems))
		}
		l.elems = slices.Insert(l.elems, idx, args[1])
		return runtime.VoidValue{}, nil
	})
	r.method(ls, "get", obj, params(ast.IntClass), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if err := checkIndex(idx, len(l.elems)); err != nil {
			return nil, err
		}
		return l.elems[idx], nil
	})
	r.method(ls, "set", obj, params(ast.IntClass, obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if err := checkIndex(idx, len(l.elems)); err != nil {
			return nil, err
		}
		old := l.elems[idx]
		l.elems[idx] = args[1]
		return old, nil
	})
	// remove takes an index when given an int, an element otherwise.
	r.method(ls, "remove", obj, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		if idx, ok := args[0].(runtime.IntValue); ok {
			if err := checkIndex(int(idx.Val), len(l.elems)); err != nil {
				return nil, err
			}
			old := l.elems[idx.Val]
			l.elems = slices.Delete(l.elems, int(idx.Val), int(idx.Val)+1)
			return old, nil
		}
		pos, err := r.indexOf(l.elems, args[0])
		if err != nil || pos < 0 {
			return runtime.BoolValue{}, err
		}
		l.elems = slices.Delete(l.elems, pos, pos+1)
		return runtime.BoolValue{Val: true}, nil
	})
	r.method(ls, "indexOf", ast.IntClass, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		pos, err := r.indexOf(l.elems, args[0])
		return runtime.IntValue{Val: int32(pos)}, err
	})
	r.method(ls, "contains", ast.BooleanClass, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		pos, err := r.indexOf(l.elems, args[0])
		return runtime.BoolValue{Val: pos >= 0}, err
	})
	r.method(ls, "clear", ast.VoidClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		l.elems = nil
		return runtime.VoidValue{}, nil
	})
	r.method(ls, "removeIf", ast.BooleanClass, params(predicate), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		kept := l.elems[:0:0]
		for _, el := range l.elems {
			drop, err := r.test(args[0], el)
			if err != nil {
				return nil, err
			}
			if !drop {
				kept = append(kept, el)
			}
		}
		removed := len(kept) != len(l.elems)
		l.elems = kept
		return runtime.BoolValue{Val: removed}, nil
	})
	r.method(ls, "sort", ast.VoidClass, params(comparator), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.VoidValue{}, r.sortValues(l.elems, args[0])
	})
	r.method(ls, "toString", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		l, err := listOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: l.String()}, nil
	})
	of := r.staticMethod(ls, "of", ls, params(ast.ArrayOf(obj)), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.listFromArray(args)
	})
	of.VarArgs = true
}

func (r *Registry) listFromArray(args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 || runtime.IsNull(args[0]) {
		return r.newList(nil), nil
	}
	arr, ok := args[0].(*runtime.ArrayValue)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %s", kindName(args[0]))
	}
	return r.newList(slices.Clone(arr.Elements)), nil
}

func (r *Registry) indexOf(elems []runtime.Value, target runtime.Value) (int, error) {
	for idx, el := range elems {
		eq, err := r.equals(el, target)
		if err != nil {
			return -1, err
		}
		if eq {
			return idx, nil
		}
	}
	return -1, nil
}

// sortValues sorts in place, by cmp or by natural order when cmp is null.
// The sort is stable.
func (r *Registry) sortValues(elems []runtime.Value, cmp runtime.Value) error {
	var sortErr error
	slices.SortStableFunc(elems, func(a, b runtime.Value) int {
		if sortErr != nil {
			return 0
		}
		if runtime.IsNull(cmp) {
			c, err := naturalCompare(a, b)
			sortErr = err
			return c
		}
		res, err := r.call(cmp, a, b)
		if err != nil {
			sortErr = err
			return 0
		}
		c, ok := runtime.ToInt64(res)
		if !ok {
			sortErr = fmt.Errorf("comparator returned %s", kindName(res))
		}
		return int(c)
	})
	return sortErr
}

func (r *Registry) initMapBuiltins(obj, biConsumer, function, biFunction *ast.Class) {
	mp := r.Map
	r.method(mp, "put", obj, params(obj, obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return m.put(args[0], args[1])
	})
	r.method(mp, "get", obj, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		if err != nil || idx < 0 {
			return runtime.NullValue{}, err
		}
		return m.values[idx], nil
	})
	r.method(mp, "getOrDefault", obj, params(obj, obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			return args[1], nil
		}
		return m.values[idx], nil
	})
	r.method(mp, "containsKey", ast.BooleanClass, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		return runtime.BoolValue{Val: idx >= 0}, err
	})
	r.method(mp, "remove", obj, params(obj), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		if err != nil || idx < 0 {
			return runtime.NullValue{}, err
		}
		old := m.values[idx]
		m.keys = slices.Delete(m.keys, idx, idx+1)
		m.values = slices.Delete(m.values, idx, idx+1)
		return old, nil
	})
	r.method(mp, "size", ast.IntClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.IntValue{Val: int32(len(m.keys))}, nil
	})
	r.method(mp, "isEmpty", ast.BooleanClass, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: len(m.keys) == 0}, nil
	})
	r.method(mp, "keySet", r.List, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return r.newList(slices.Clone(m.keys)), nil
	})
	r.method(mp, "values", r.List, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return r.newList(slices.Clone(m.values)), nil
	})
	r.method(mp, "forEach", ast.VoidClass, params(biConsumer), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		keys, values := slices.Clone(m.keys), slices.Clone(m.values)
		for idx := range keys {
			if _, err := r.call(args[0], keys[idx], values[idx]); err != nil {
				return nil, err
			}
		}
		return runtime.VoidValue{}, nil
	})
	r.method(mp, "merge", obj, params(obj, obj, biFunction), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		if err != nil {
			return nil, err
		}
		merged := args[1]
		if idx >= 0 && !runtime.IsNull(m.values[idx]) {
			if merged, err = r.call(args[2], m.values[idx], args[1]); err != nil {
				return nil, err
			}
		}
		if _, err := m.put(args[0], merged); err != nil {
			return nil, err
		}
		return merged, nil
	})
	r.method(mp, "computeIfAbsent", obj, params(obj, function), func(recv runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		idx, err := m.find(args[0])
		if err != nil {
			return nil, err
		}
		if idx >= 0 && !runtime.IsNull(m.values[idx]) {
			return m.values[idx], nil
		}
		v, err := r.call(args[1], args[0])
		if err != nil {
			return nil, err
		}
		if !runtime.IsNull(v) {
			if _, err := m.put(args[0], v); err != nil {
				return nil, err
			}
		}
		return v, nil
	})
	r.method(mp, "toString", r.String, nil, func(recv runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		m, err := mapOf(recv)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: m.String()}, nil
	})
}

func (m *hashMap) put(key, value runtime.Value) (runtime.Value, error) {
	idx, err := m.find(key)
	if err != nil {
		return nil, err
	}
	if idx >= 0 {
		old := m.values[idx]
		m.values[idx] = value
		return old, nil
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return runtime.NullValue{}, nil
}

func arrayArg(args []runtime.Value, idx int) (*runtime.ArrayValue, error) {
	if idx >= len(args) {
		return nil, fmt.Errorf("missing argument %d", idx)
	}
	arr, ok := args[idx].(*runtime.ArrayValue)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %s", kindName(args[idx]))
	}
	return arr, nil
}

func (r *Registry) initArraysBuiltins(obj, comparator *ast.Class) {
	arrays := r.defineClass("Arrays", obj)
	anyArray := ast.ArrayOf(obj)
	r.staticMethod(arrays, "toString", r.String, params(anyArray), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if runtime.IsNull(args[0]) {
			return runtime.StringValue{Val: "null"}, nil
		}
		arr, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: r.render(arr.Elements)}, nil
	})
	r.staticMethod(arrays, "sort", ast.VoidClass, params(anyArray), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.VoidValue{}, r.sortValues(arr.Elements, runtime.NullValue{})
	})
	r.staticMethod(arrays, "sort", ast.VoidClass, params(anyArray, comparator), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.VoidValue{}, r.sortValues(arr.Elements, args[1])
	})
	r.staticMethod(arrays, "fill", ast.VoidClass, params(anyArray, obj), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		v, err := runtime.Coerce(args[1], arr.Component)
		if err != nil {
			return nil, err
		}
		for idx := range arr.Elements {
			arr.Elements[idx] = v
		}
		return runtime.VoidValue{}, nil
	})
	r.staticMethod(arrays, "copyOf", anyArray, params(anyArray, ast.IntClass), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		n, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("copyOf: negative length %d", n)
		}
		out := runtime.NewArray(arr.Component, n)
		copy(out.Elements, arr.Elements)
		return out, nil
	})
	r.staticMethod(arrays, "equals", ast.BooleanClass, params(anyArray, anyArray), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if runtime.IsNull(args[0]) || runtime.IsNull(args[1]) {
			return runtime.BoolValue{Val: runtime.IsNull(args[0]) && runtime.IsNull(args[1])}, nil
		}
		a, err := arrayArg(args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arrayArg(args, 1)
		if err != nil {
			return nil, err
		}
		if len(a.Elements) != len(b.Elements) {
			return runtime.BoolValue{}, nil
		}
		for idx := range a.Elements {
			eq, err := r.equals(a.Elements[idx], b.Elements[idx])
			if err != nil || !eq {
				return runtime.BoolValue{}, err
			}
		}
		return runtime.BoolValue{Val: true}, nil
	})
	asList := r.staticMethod(arrays, "asList", r.List, params(anyArray), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.listFromArray(args)
	})
	asList.VarArgs = true
}
