package reactor

import "sync"

// Strand serialises the tasks posted to it on top of an Executor: tasks run one at a time, in the order they were
// posted, although not necessarily on the same worker. Different strands sharing an executor run concurrently.
type Strand struct {
	executor Executor

	mu      sync.Mutex
	queue   []func()
	running bool
}

func NewStrand(executor Executor) *Strand {
	return &Strand{executor: executor}
}

// Post appends task to the strand. It returns false if the underlying executor refused the work, in which case
// everything queued on the strand is dropped.
func (s *Strand) Post(task func()) bool {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	if s.running {
		s.mu.Unlock()
		return true
	}
	s.running = true
	s.mu.Unlock()
	return s.schedule()
}

// Each dispatch runs a single task and then goes back through the executor, so a busy strand can't starve others.
func (s *Strand) runNext() {
	s.mu.Lock()
	task := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.mu.Unlock()

	task()

	s.mu.Lock()
	if len(s.queue) == 0 {
		s.running = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.schedule()
}

func (s *Strand) schedule() bool {
	if s.executor.Post(s.runNext) {
		return true
	}
	s.mu.Lock()
	s.queue = nil
	s.running = false
	s.mu.Unlock()
	return false
}
