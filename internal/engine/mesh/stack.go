package mesh

import "github.com/Faultbox/midgard-stage/pkg/math"

// MatrixStack is a push/pop stack of model-view matrices. The bottom entry
// is the base (usually the camera view) and is never popped.
type MatrixStack struct {
	stack []math.Mat4
}

// NewMatrixStack returns a stack whose base is base.
func NewMatrixStack(base math.Mat4) *MatrixStack {
	s := &MatrixStack{stack: make([]math.Mat4, 1, 8)}
	s.stack[0] = base
	return s
}

// Push duplicates the top entry.
func (s *MatrixStack) Push() {
	s.stack = append(s.stack, s.Top())
}

// Pop discards the top entry. Popping the base is a no-op.
func (s *MatrixStack) Pop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Top returns the current matrix.
func (s *MatrixStack) Top() math.Mat4 {
	return s.stack[len(s.stack)-1]
}

// Set replaces the current matrix.
func (s *MatrixStack) Set(m math.Mat4) {
	s.stack[len(s.stack)-1] = m
}

// Depth returns the number of pushes above the base.
func (s *MatrixStack) Depth() int {
	return len(s.stack) - 1
}
