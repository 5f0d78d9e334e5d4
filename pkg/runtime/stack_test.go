package runtime

import (
	"testing"

	"snapcode/interpreter-go/pkg/ast"
)

func TestStackFramesRestoreLength(t *testing.T) {
	s := NewStack()
	s.Set(0, IntValue{Val: 1})
	s.Set(1, IntValue{Val: 2})
	if s.Len() != 2 {
		t.Fatalf("expected length 2, got %d", s.Len())
	}
	s.PushFrame()
	s.Set(0, IntValue{Val: 10})
	s.Set(40, IntValue{Val: 11})
	if got := s.Get(0); got != (IntValue{Val: 10}) {
		t.Fatalf("expected frame-relative slot 0 to be 10, got %#v", got)
	}
	if s.Len() != 43 {
		t.Fatalf("expected length 43 after growth, got %d", s.Len())
	}
	s.PopFrame()
	if s.Len() != 2 {
		t.Fatalf("expected pop to restore length 2, got %d", s.Len())
	}
	if got := s.Get(1); got != (IntValue{Val: 2}) {
		t.Fatalf("expected caller slot 1 to survive, got %#v", got)
	}
	s.PushFrame()
	if got := s.Get(0); got != (NullValue{}) {
		t.Fatalf("expected released slot to read null, got %#v", got)
	}
	s.PopFrame()
}

func TestStackDeepRecursionDiscipline(t *testing.T) {
	s := NewStack()
	for depth := 0; depth < 500; depth++ {
		s.PushFrame()
		s.Set(0, IntValue{Val: int32(depth)})
		s.Set(1, IntValue{Val: int32(depth * 2)})
	}
	if s.Depth() != 500 || s.Len() != 1000 {
		t.Fatalf("expected depth 500 and length 1000, got %d and %d", s.Depth(), s.Len())
	}
	for depth := 499; depth >= 0; depth-- {
		if got := s.Get(1); got != (IntValue{Val: int32(depth * 2)}) {
			t.Fatalf("depth %d: expected %d, got %#v", depth, depth*2, got)
		}
		s.PopFrame()
	}
	if s.Len() != 0 || s.Depth() != 0 {
		t.Fatalf("expected empty stack, got length %d depth %d", s.Len(), s.Depth())
	}
}

func TestStackDeclarationAccess(t *testing.T) {
	s := NewStack()
	x := ast.NewLocalVar("x", ast.IntClass)
	x.Slot = 3
	if !s.SetForDeclaration(x, LongValue{Val: 9}) {
		t.Fatalf("expected set through declaration to succeed")
	}
	if got := s.GetForDeclaration(x); got != (LongValue{Val: 9}) {
		t.Fatalf("expected 9, got %#v", got)
	}

	unassigned := ast.NewLocalVar("y", ast.IntClass)
	if s.SetForDeclaration(unassigned, IntValue{Val: 1}) {
		t.Fatalf("expected set on unassigned slot to fail")
	}
	if got := s.GetForDeclaration(unassigned); got != (NullValue{}) {
		t.Fatalf("expected null for unassigned slot, got %#v", got)
	}
	if got := s.GetForDeclaration(nil); got != (NullValue{}) {
		t.Fatalf("expected null for missing declaration, got %#v", got)
	}
}

func TestStackCapturedFrame(t *testing.T) {
	s := NewStack()
	x := ast.NewLocalVar("x", ast.IntClass)
	x.Slot = 0
	s.Set(0, IntValue{Val: 1})
	s.PushCapturedFrame(map[*ast.LocalVar]Value{x: IntValue{Val: 42}})
	s.Set(0, StringValue{Val: "param"})
	if got := s.GetForDeclaration(x); got != (IntValue{Val: 42}) {
		t.Fatalf("expected captured value 42, got %#v", got)
	}
	s.PopFrame()
	if got := s.GetForDeclaration(x); got != (IntValue{Val: 1}) {
		t.Fatalf("expected slot value 1 after pop, got %#v", got)
	}
}

func TestStackReset(t *testing.T) {
	s := NewStack()
	s.PushFrame()
	s.Set(5, BoolValue{Val: true})
	s.Reset()
	if s.Len() != 0 || s.Depth() != 0 {
		t.Fatalf("expected reset stack, got length %d depth %d", s.Len(), s.Depth())
	}
	if got := s.Get(5); got != (NullValue{}) {
		t.Fatalf("expected null after reset, got %#v", got)
	}
}
