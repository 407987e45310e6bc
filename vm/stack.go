package vm

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

type Stack struct {
	data  [STACK_LIMIT]uint32
	depth int
}

func (s *Stack) Push(value uint32) {
	if s.Full() {
		return
	}
	s.data[s.depth] = value
	s.depth++
}

func (s *Stack) Pop() (value uint32, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.depth--
	}
	return
}

func (s *Stack) Peek() (value uint32, ok bool) {
	if s.Empty() {
		return
	}

	return s.data[s.depth-1], true
}

func (s *Stack) Empty() bool {
	return s.depth == 0
}

func (s *Stack) Full() bool {
	return s.depth == STACK_LIMIT
}

func (s *Stack) Depth() int {
	return s.depth
}

func (s *Stack) Reset() {
	s.depth = 0
}
