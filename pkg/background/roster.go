package background

import (
	"sync"
	"time"
)

type worker struct {
	name string
	done chan struct{}
}

func (w *worker) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Roster - keeps track of spawned workers to join them at shutdown with bounded timeout.
// Finished workers are pruned, so the roster only grows with live ones.
type Roster struct {
	mu      sync.Mutex
	workers []*worker
}

// Go - runs f in background under the given name and tracks it.
// Workers which have already finished are pruned on every call.
func (r *Roster) Go(name string, f func()) {
	w := &worker{name: name, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		f()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.prune(), w)
}

// Prune - releases finished workers and returns number of still running ones.
func (r *Roster) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = r.prune()
	return len(r.workers)
}

// prune - must be called under lock.
func (r *Roster) prune() []*worker {
	alive := r.workers[:0]
	for _, w := range r.workers {
		if !w.finished() {
			alive = append(alive, w)
		}
	}
	for i := len(alive); i < len(r.workers); i++ {
		r.workers[i] = nil
	}
	return alive
}

// Len - returns number of tracked workers, including finished but not pruned yet.
func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// Join - waits every tracked worker, each no longer than timeout.
// Returns names of workers still running after their wait expired.
func (r *Roster) Join(timeout time.Duration) (stragglers []string) {
	r.mu.Lock()
	workers := make([]*worker, len(r.workers))
	copy(workers, r.workers)
	r.mu.Unlock()

	for _, w := range workers {
		if !Join(w.done, timeout) {
			stragglers = append(stragglers, w.name)
		}
	}
	r.Prune()
	return stragglers
}

// Join - waits until done is closed but no longer than timeout.
// Returns false if timeout expired first.
func Join(done <-chan struct{}, timeout time.Duration) bool {
	if done == nil {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
