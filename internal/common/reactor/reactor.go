package reactor

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

// Executor runs posted tasks at some later point. Post reports whether the task was accepted.
type Executor interface {
	Post(task func()) bool
}

// Reactor is a fixed-size pool of workers draining one shared task queue. The queue is unbounded so that posting
// from inside a running task never blocks.
type Reactor struct {
	threads int

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	started bool
	stopped bool

	done chan struct{}
	wait func() error
}

func New(threads int) *Reactor {
	if threads < 1 {
		threads = 1
	}
	r := &Reactor{
		threads: threads,
		done:    make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Threads returns the number of workers in the pool.
func (r *Reactor) Threads() int {
	return r.threads
}

// Start spawns the workers. Cancelling ctx has the same effect as calling Stop, except that it doesn't wait for
// the workers to exit.
func (r *Reactor) Start(ctx *benchcontext.Context) error {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return errors.New("reactor has already been started")
	}
	r.started = true
	r.mu.Unlock()

	g, _ := benchcontext.ErrGroup(ctx)
	for i := 0; i < r.threads; i++ {
		g.Go(r.work)
	}
	r.mu.Lock()
	r.wait = g.Wait
	r.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
			r.halt()
		case <-r.done:
		}
	}()
	ctx.Log.Debugf("Started reactor with %d workers", r.threads)
	return nil
}

// Post queues task for execution on one of the workers. Tasks posted after the reactor has stopped are dropped and
// Post returns false.
func (r *Reactor) Post(task func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.tasks = append(r.tasks, task)
	r.cond.Signal()
	return true
}

// Pending returns the number of tasks queued but not yet picked up by a worker.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Stop abandons any queued tasks and waits for the workers to finish the tasks they are currently running.
func (r *Reactor) Stop() error {
	r.halt()
	r.mu.Lock()
	wait := r.wait
	r.mu.Unlock()
	if wait == nil {
		return nil
	}
	return wait()
}

// Check implements health.Checker.
func (r *Reactor) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return errors.New("reactor not started")
	}
	if r.stopped {
		return errors.New("reactor stopped")
	}
	return nil
}

func (r *Reactor) halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	r.tasks = nil
	close(r.done)
	r.cond.Broadcast()
}

func (r *Reactor) work() error {
	for {
		r.mu.Lock()
		for len(r.tasks) == 0 && !r.stopped {
			r.cond.Wait()
		}
		if r.stopped {
			r.mu.Unlock()
			return nil
		}
		task := r.tasks[0]
		r.tasks[0] = nil
		r.tasks = r.tasks[1:]
		r.mu.Unlock()

		task()
	}
}
