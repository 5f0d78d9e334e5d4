package runtime

import (
	"github.com/charmbracelet/log"

	"snapcode/interpreter-go/pkg/ast"
)

// Stack is the flat store for local variables. Each active call owns the
// window [base, Len()) of the backing array; slots are relative to the base
// of the innermost frame.
type Stack struct {
	values []Value
	length int
	frames []frame
}

type frame struct {
	base     int
	captures map[*ast.LocalVar]Value
}

func NewStack() *Stack {
	return &Stack{values: make([]Value, 16)}
}

// PushFrame opens a frame starting at the current length.
func (s *Stack) PushFrame() {
	s.frames = append(s.frames, frame{base: s.length})
}

// PushCapturedFrame opens a frame whose reads of the given locals are served
// from captures instead of slots.
func (s *Stack) PushCapturedFrame(captures map[*ast.LocalVar]Value) {
	s.frames = append(s.frames, frame{base: s.length, captures: captures})
}

// PopFrame truncates the stack back to the innermost frame's base.
func (s *Stack) PopFrame() {
	n := len(s.frames)
	if n == 0 {
		log.Error("stack: pop without a pushed frame")
		return
	}
	base := s.frames[n-1].base
	clear(s.values[base:s.length])
	s.length = base
	s.frames = s.frames[:n-1]
}

func (s *Stack) base() int {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].base
	}
	return 0
}

// Get reads a slot of the current frame. Slots never written read as null.
func (s *Stack) Get(slot int) Value {
	idx := s.base() + slot
	if slot < 0 || idx >= s.length || s.values[idx] == nil {
		return NullValue{}
	}
	return s.values[idx]
}

// Set writes a slot of the current frame, growing the store as needed.
func (s *Stack) Set(slot int, v Value) {
	if slot < 0 {
		log.Error("stack: negative slot", "slot", slot)
		return
	}
	idx := s.base() + slot
	if idx >= len(s.values) {
		size := len(s.values) * 2
		if size <= idx {
			size = idx + 1
		}
		grown := make([]Value, size)
		copy(grown, s.values[:s.length])
		s.values = grown
	}
	s.values[idx] = v
	if idx >= s.length {
		s.length = idx + 1
	}
}

// GetForDeclaration reads a local through its assigned slot. A local without
// a slot is an assignment defect: it is logged and read as null.
func (s *Stack) GetForDeclaration(local *ast.LocalVar) Value {
	if v, ok := s.captured(local); ok {
		return v
	}
	if local == nil || local.Slot < 0 {
		log.Error("stack: local has no slot", "local", localName(local))
		return NullValue{}
	}
	return s.Get(local.Slot)
}

// SetForDeclaration writes a local through its assigned slot, reporting
// false when the local has no slot.
func (s *Stack) SetForDeclaration(local *ast.LocalVar, v Value) bool {
	if n := len(s.frames); n > 0 && local != nil {
		if captures := s.frames[n-1].captures; captures != nil {
			if _, ok := captures[local]; ok {
				captures[local] = v
				return true
			}
		}
	}
	if local == nil || local.Slot < 0 {
		log.Error("stack: local has no slot", "local", localName(local))
		return false
	}
	s.Set(local.Slot, v)
	return true
}

func (s *Stack) captured(local *ast.LocalVar) (Value, bool) {
	n := len(s.frames)
	if n == 0 || local == nil {
		return nil, false
	}
	v, ok := s.frames[n-1].captures[local]
	return v, ok
}

// Len is the total number of slots in use across all frames.
func (s *Stack) Len() int { return s.length }

// FrameLen is the number of slots the innermost frame uses.
func (s *Stack) FrameLen() int { return s.length - s.base() }

// Depth is the number of pushed frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Reset drops every frame and value.
func (s *Stack) Reset() {
	clear(s.values[:s.length])
	s.length = 0
	s.frames = s.frames[:0]
}

func localName(local *ast.LocalVar) string {
	if local == nil {
		return "<nil>"
	}
	return local.Name
}
