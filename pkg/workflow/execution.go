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

import "time"

// ExecutionState represents the lifecycle state of a workflow execution.
// Transitions are monotonic: pending -> running -> completed/failed/cancelled.
type ExecutionState string

const (
	// ExecutionPending indicates the execution has been created but its
	// coordinating task has not begun scheduling.
	ExecutionPending ExecutionState = "pending"
	// ExecutionRunning indicates the scheduling loop is active.
	ExecutionRunning ExecutionState = "running"
	// ExecutionCompleted indicates every non-skipped step completed.
	ExecutionCompleted ExecutionState = "completed"
	// ExecutionFailed indicates a non-optional step failed or the
	// max-duration budget was exceeded.
	ExecutionFailed ExecutionState = "failed"
	// ExecutionCancelled indicates cooperative cancellation was observed
	// before the execution reached a terminal state on its own.
	ExecutionCancelled ExecutionState = "cancelled"
)

// IsTerminal returns true if no further state transition occurs.
func (s ExecutionState) IsTerminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed || s == ExecutionCancelled
}

// StepState represents the state of a single step within an execution.
type StepState string

const (
	// StepPending indicates the step has not been dispatched.
	StepPending StepState = "pending"
	// StepRunning indicates the step is executing via the operation executor.
	StepRunning StepState = "running"
	// StepCompleted indicates the step's operation succeeded.
	StepCompleted StepState = "completed"
	// StepFailed indicates the step exhausted its attempts and was not optional.
	StepFailed StepState = "failed"
	// StepSkipped indicates an optional step failed, its condition was
	// false, or a dependency failure made it unreachable. Dependents treat
	// skipped as satisfied.
	StepSkipped StepState = "skipped"
	// StepRolledBack indicates the step completed and was later
	// successfully compensated.
	StepRolledBack StepState = "rolled_back"
)

// IsTerminal returns true if the step will not transition again.
func (s StepState) IsTerminal() bool {
	switch s {
	case StepCompleted, StepFailed, StepSkipped, StepRolledBack:
		return true
	}
	return false
}

// Satisfies reports whether the state satisfies a dependency edge.
func (s StepState) Satisfies() bool {
	return s == StepCompleted || s == StepSkipped
}

// Execution is the mutable record of one workflow run.
//
// Executions are owned exclusively by the Store; the engine mutates them
// only through store operations, and callers always receive copies. Hold
// on to the id, not the object.
type Execution struct {
	// ID uniquely identifies this run
	ID string `json:"id"`

	// WorkflowID references the registered template
	WorkflowID string `json:"workflow_id"`

	// Inputs are the caller-supplied key/value context, after defaults
	Inputs map[string]interface{} `json:"inputs,omitempty"`

	// State is the execution lifecycle state
	State ExecutionState `json:"state"`

	// Steps maps step id to its execution record
	Steps map[string]*StepExecution `json:"steps"`

	// CurrentSteps lists the step ids actively running (several under
	// parallel dispatch)
	CurrentSteps []string `json:"current_steps,omitempty"`

	// Error holds the terminal failure description, if any
	Error string `json:"error,omitempty"`

	// CancelRequested is the cooperative cancellation flag. The scheduler
	// reads it before dispatching the next wave; running steps finish.
	CancelRequested bool `json:"cancel_requested,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StepExecution is the mutable record of one step within an execution.
// It is owned by its Execution and shares its locking discipline.
type StepExecution struct {
	// ID is the step id from the template
	ID string `json:"id"`

	// State is the step lifecycle state
	State StepState `json:"state"`

	// Attempts counts execution attempts so far
	Attempts int `json:"attempts"`

	// Result is the opaque success payload from the executor
	Result map[string]interface{} `json:"result,omitempty"`

	// Error holds the last execution failure, if any
	Error string `json:"error,omitempty"`

	// RollbackError records a failed compensation attempt. The step keeps
	// its completed state in that case; only successful compensation moves
	// it to rolled_back.
	RollbackError string `json:"rollback_error,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// newExecution creates a pending execution for the given template.
func newExecution(id string, tmpl *Template, inputs map[string]interface{}) *Execution {
	steps := make(map[string]*StepExecution, len(tmpl.Steps))
	for _, s := range tmpl.Steps {
		steps[s.ID] = &StepExecution{ID: s.ID, State: StepPending}
	}
	return &Execution{
		ID:         id,
		WorkflowID: tmpl.ID,
		Inputs:     inputs,
		State:      ExecutionPending,
		Steps:      steps,
		CreatedAt:  time.Now(),
	}
}

// copyExecution creates a deep copy of an execution record.
func copyExecution(e *Execution) *Execution {
	if e == nil {
		return nil
	}
	cp := &Execution{
		ID:              e.ID,
		WorkflowID:      e.WorkflowID,
		State:           e.State,
		Error:           e.Error,
		CancelRequested: e.CancelRequested,
		CreatedAt:       e.CreatedAt,
	}
	if e.StartedAt != nil {
		t := *e.StartedAt
		cp.StartedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		cp.CompletedAt = &t
	}
	if e.Inputs != nil {
		cp.Inputs = make(map[string]interface{}, len(e.Inputs))
		for k, v := range e.Inputs {
			cp.Inputs[k] = v
		}
	}
	if e.CurrentSteps != nil {
		cp.CurrentSteps = append([]string(nil), e.CurrentSteps...)
	}
	cp.Steps = make(map[string]*StepExecution, len(e.Steps))
	for id, se := range e.Steps {
		cp.Steps[id] = copyStepExecution(se)
	}
	return cp
}

// copyStepExecution creates a deep copy of a step execution record.
func copyStepExecution(se *StepExecution) *StepExecution {
	if se == nil {
		return nil
	}
	cp := &StepExecution{
		ID:            se.ID,
		State:         se.State,
		Attempts:      se.Attempts,
		Error:         se.Error,
		RollbackError: se.RollbackError,
	}
	if se.StartedAt != nil {
		t := *se.StartedAt
		cp.StartedAt = &t
	}
	if se.CompletedAt != nil {
		t := *se.CompletedAt
		cp.CompletedAt = &t
	}
	if se.Result != nil {
		cp.Result = make(map[string]interface{}, len(se.Result))
		for k, v := range se.Result {
			cp.Result[k] = v
		}
	}
	return cp
}
