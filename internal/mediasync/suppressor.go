package mediasync

import (
	"sync"
	"time"
)

// suppressor decides whether a native player callback was caused by the
// controller itself. It has its own lock so callbacks fired from inside a
// Player method never wait on the controller.
type suppressor struct {
	mu       sync.Mutex
	until    time.Time
	applying int
	window   time.Duration
	now      func() time.Time
}

func (s *suppressor) open() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.until = s.now().Add(s.window)
}

func (s *suppressor) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applying++
}

func (s *suppressor) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applying--
	s.until = s.now().Add(s.window)
}

func (s *suppressor) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applying > 0 || s.now().Before(s.until)
}
