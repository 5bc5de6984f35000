package lang

import "github.com/ardnew/datalit/lang/value"

// stack is the scratch area on which aggregates are assembled before they
// are committed as a single value.
type stack struct {
	data []value.Value
}

func newStack() *stack {
	return &stack{
		data: make([]value.Value, 0, 64),
	}
}

func (s *stack) push(v value.Value) { s.data = append(s.data, v) }

func (s *stack) len() int { return len(s.data) }

// top returns the last n values without removing them.
func (s *stack) top(n int) []value.Value { return s.data[len(s.data)-n:] }

// popN removes the last n values.
func (s *stack) popN(n int) {
	clear(s.data[len(s.data)-n:])
	s.data = s.data[:len(s.data)-n]
}

// pop removes and returns the last value.
func (s *stack) pop() value.Value {
	v := s.data[len(s.data)-1]
	s.popN(1)

	return v
}

// take removes the last n values and returns them in a new slice.
func (s *stack) take(n int) []value.Value {
	out := make([]value.Value, n)
	copy(out, s.top(n))
	s.popN(n)

	return out
}
