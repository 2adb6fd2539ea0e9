package session

import (
	"context"
	"sync"
)

// effect is a refresh routine keyed on the state it depends on
type effect struct {
	name string
	deps func() string
	run  func(ctx context.Context) error

	last string
	ran  bool
}

// scheduler re-runs effects whose dependency key changed since their last run.
type scheduler struct {
	mu      sync.Mutex
	effects []*effect
}

// register adds an effect; effects run in registration order
func (s *scheduler) register(name string, deps func() string, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, &effect{name: name, deps: deps, run: run})
}

// commit runs every due effect once, sequentially. It must be called after
// the state change is visible to deps. Keys are snapshotted under the lock
// but effects run outside it, so commits from different callers may overlap.
func (s *scheduler) commit(ctx context.Context) map[string]error {
	s.mu.Lock()
	var due []*effect
	for _, e := range s.effects {
		key := e.deps()
		if e.ran && key == e.last {
			continue
		}
		e.last = key
		e.ran = true
		due = append(due, e)
	}
	s.mu.Unlock()

	results := make(map[string]error, len(due))
	for _, e := range due {
		results[e.name] = e.run(ctx)
	}
	return results
}

// reset forgets every snapshot so the next commit runs all effects
func (s *scheduler) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.effects {
		e.ran = false
		e.last = ""
	}
}
