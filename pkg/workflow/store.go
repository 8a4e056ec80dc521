// Copyright 2026 The Baton Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/batonflow/baton/pkg/errors"
)

// Query defines query parameters for listing executions.
type Query struct {
	State *ExecutionState // Filter by state
	Limit int             // Maximum number of results (0 = no limit)
}

// Store tracks in-flight and completed executions in memory.
//
// The store exclusively owns all Execution objects: Get and List return
// deep copies, and every mutation happens under the store's lock through
// mutate. That keeps step transitions atomic and visible across the
// coordinating goroutines, which only ever hold execution ids.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*Execution
}

// NewStore creates an empty execution store.
func NewStore() *Store {
	return &Store{
		executions: make(map[string]*Execution),
	}
}

// Create adds a new execution record.
func (s *Store) Create(ctx context.Context, exec *Execution) error {
	if exec == nil || exec.ID == "" {
		return &errors.ValidationError{
			Field:   "execution",
			Message: "execution with a non-empty id is required",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[exec.ID]; exists {
		return &errors.ValidationError{
			Field:   "id",
			Message: "execution id already exists",
		}
	}
	s.executions[exec.ID] = copyExecution(exec)
	return nil
}

// Get retrieves an execution by id. Returns a deep copy; mutating the
// result has no effect on the stored record.
func (s *Store) Get(ctx context.Context, id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return copyExecution(exec), nil
}

// List returns executions matching the query, newest first.
func (s *Store) List(ctx context.Context, query *Query) []*Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Execution, 0, len(s.executions))
	for _, exec := range s.executions {
		if query != nil && query.State != nil && exec.State != *query.State {
			continue
		}
		out = append(out, copyExecution(exec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if query != nil && query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out
}

// Cancel sets the cooperative cancellation flag. The scheduler reads the
// flag before dispatching the next wave; steps already running finish.
// Cancelling an execution that is already terminal is a no-op.
func (s *Store) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if !exec.State.IsTerminal() {
		exec.CancelRequested = true
	}
	return nil
}

// Delete evicts an execution record. Returns NotFoundError for unknown ids.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[id]; !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	delete(s.executions, id)
	return nil
}

// mutate applies fn to the stored execution under the write lock.
// This is the only mutation path the engine uses after Create: holding
// the lock for the whole closure keeps each state transition atomic.
func (s *Store) mutate(id string, fn func(*Execution)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	fn(exec)
	return nil
}

// cancelRequested reads the cooperative cancellation flag.
func (s *Store) cancelRequested(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	return ok && exec.CancelRequested
}

// markStepRunning transitions a step to running and records it in the
// execution's current-step set.
func (s *Store) markStepRunning(execID, stepID string) error {
	now := time.Now()
	return s.mutate(execID, func(e *Execution) {
		se := e.Steps[stepID]
		se.State = StepRunning
		se.StartedAt = &now
		e.CurrentSteps = append(e.CurrentSteps, stepID)
	})
}

// recordStepAttempt writes the running attempt count so snapshots taken
// mid-retry report how many attempts have started.
func (s *Store) recordStepAttempt(execID, stepID string, attempt int) error {
	return s.mutate(execID, func(e *Execution) {
		e.Steps[stepID].Attempts = attempt
	})
}

// settleStep writes a step's terminal state and drops it from the
// current-step set.
func (s *Store) settleStep(execID string, res stepResult) error {
	now := time.Now()
	return s.mutate(execID, func(e *Execution) {
		se := e.Steps[res.stepID]
		se.State = res.state
		se.Attempts = res.attempts
		se.Result = res.result
		se.CompletedAt = &now
		if res.err != nil {
			se.Error = res.err.Error()
		}
		for i, id := range e.CurrentSteps {
			if id == res.stepID {
				e.CurrentSteps = append(e.CurrentSteps[:i], e.CurrentSteps[i+1:]...)
				break
			}
		}
	})
}
