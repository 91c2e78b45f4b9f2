package bvh

import "errors"

const (
	// Max number of pending entries during a traversal. The scene compiler
	// rejects trees whose depth (including instance levels) does not fit.
	StackSize = 192

	// Marks the bottom of the stack and the boundary of an instance.
	EntrypointSentinel int32 = 0x76543210
)

var ErrStackOverflow = errors.New("bvh: traversal stack overflow")

type stackEntry struct {
	addr int32

	// Entry distance to the node bbox in the traversal space that was
	// active when the entry was pushed.
	dist float32
}

// A fixed capacity traversal stack. The zero value is not usable; call
// Reset before the first push.
type Stack struct {
	entries [StackSize]stackEntry
	ptr     int
}

// Clear the stack and place the entrypoint sentinel at its bottom.
func (s *Stack) Reset() {
	s.entries[0] = stackEntry{addr: EntrypointSentinel}
	s.ptr = 1
}

// Push a node address and its entry distance.
func (s *Stack) Push(addr int32, dist float32) error {
	if s.ptr == StackSize {
		return ErrStackOverflow
	}
	s.entries[s.ptr] = stackEntry{addr: addr, dist: dist}
	s.ptr++
	return nil
}

// Pop the top entry. Popping an empty stack yields the sentinel.
func (s *Stack) Pop() (addr int32, dist float32) {
	if s.ptr == 0 {
		return EntrypointSentinel, 0
	}
	s.ptr--
	e := s.entries[s.ptr]
	return e.addr, e.dist
}

// Get the number of entries including the bottom sentinel.
func (s *Stack) Len() int {
	return s.ptr
}
