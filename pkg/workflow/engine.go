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
	"log/slog"
	"sync"
	"time"

	"github.com/batonflow/baton/pkg/errors"
	"github.com/batonflow/baton/pkg/workflow/expression"
	"github.com/google/uuid"
)

// HistorySink archives executions that reach a terminal state.
// Archiving is advisory: a sink error is logged and never affects the
// execution's outcome.
type HistorySink interface {
	Record(ctx context.Context, exec *Execution) error
}

// Engine orchestrates workflow executions.
//
// An Engine is an explicit instance constructed with its dependencies
// injected; there is no process-wide engine. Construct with New, chain
// the With* options, and call Close on shutdown to drain in-flight
// coordinating tasks.
//
// ExecuteWorkflow is asynchronous: it returns as soon as the execution
// is created, with a snapshot in pending state. Poll GetExecution or use
// WaitForExecution / ExecuteWorkflowSync for blocking behavior.
type Engine struct {
	registry *Registry
	store    *Store
	executor OperationExecutor
	logger   *slog.Logger
	metrics  *Metrics
	notifier *notifier
	history  HistorySink
	exprEval *expression.Evaluator

	mu     sync.Mutex
	done   map[string]chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates an engine that delegates step effects to the given
// operation executor.
func New(executor OperationExecutor) *Engine {
	return &Engine{
		registry: NewRegistry(),
		store:    NewStore(),
		executor: executor,
		logger:   slog.Default(),
		notifier: &notifier{},
		exprEval: expression.New(),
		done:     make(map[string]chan struct{}),
	}
}

// WithLogger sets a custom logger for the engine.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// WithNotificationSink sets the sink for execution-lifecycle events.
func (e *Engine) WithNotificationSink(sink NotificationSink) *Engine {
	e.notifier = &notifier{sink: sink}
	return e
}

// WithMetrics sets the Prometheus instrumentation for the engine.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// WithHistory sets the archive for terminal executions.
func (e *Engine) WithHistory(h HistorySink) *Engine {
	e.history = h
	return e
}

// Store exposes the execution store for read-side integrations.
func (e *Engine) Store() *Store {
	return e.store
}

// RegisterWorkflow validates and registers a template.
// Returns ValidationError for cycles, unknown dependencies, duplicate
// step ids, or an already-registered workflow id. A rejected template is
// never partially registered.
func (e *Engine) RegisterWorkflow(tmpl *Template) error {
	if err := e.registry.Register(tmpl); err != nil {
		return err
	}
	e.logger.Info("workflow registered",
		"workflow", tmpl.ID,
		"steps", len(tmpl.Steps),
		"rollback", string(tmpl.Rollback),
	)
	return nil
}

// ReplaceWorkflow validates and registers a template, overwriting any
// template already registered under the same id. Used by hot-reload
// integrations; in-flight executions keep their resolved template.
func (e *Engine) ReplaceWorkflow(tmpl *Template) error {
	if err := e.registry.Replace(tmpl); err != nil {
		return err
	}
	e.logger.Info("workflow replaced", "workflow", tmpl.ID)
	return nil
}

// ListWorkflows returns registered templates, optionally filtered by
// category.
func (e *Engine) ListWorkflows(category string) []*Template {
	return e.registry.List(category)
}

// ExecuteWorkflow starts a new execution of the given workflow and
// returns immediately with a pollable snapshot.
//
// Inputs are validated against the template's requires declaration
// before the execution is created; defaults are merged in. The returned
// error is limited to NotFoundError (unknown workflow), ValidationError
// (bad inputs), and ConfigError (engine misconfigured); every later
// failure surfaces as state on the execution record.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string, inputs map[string]interface{}) (*Execution, error) {
	if e.executor == nil {
		return nil, &errors.ConfigError{
			Key:    "operation_executor",
			Reason: "engine constructed without an operation executor",
		}
	}

	tmpl, err := e.registry.Get(workflowID)
	if err != nil {
		return nil, err
	}
	merged := applyDefaults(tmpl, inputs)
	if err := ValidateInputs(tmpl, merged); err != nil {
		return nil, err
	}

	exec := newExecution("exec-"+uuid.NewString(), tmpl, merged)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, &errors.ConfigError{
			Key:    "engine",
			Reason: "engine is closed",
		}
	}
	settled := make(chan struct{})
	e.done[exec.ID] = settled
	e.wg.Add(1)
	e.mu.Unlock()

	if err := e.store.Create(ctx, exec); err != nil {
		e.mu.Lock()
		delete(e.done, exec.ID)
		e.mu.Unlock()
		e.wg.Done()
		return nil, err
	}

	e.metrics.incStarted(tmpl.ID)
	go e.coordinate(exec.ID, tmpl, NewExecutionContext(merged), settled)

	return e.store.Get(ctx, exec.ID)
}

// ExecuteWorkflowSync starts an execution and blocks until it reaches a
// terminal state or ctx is done.
func (e *Engine) ExecuteWorkflowSync(ctx context.Context, workflowID string, inputs map[string]interface{}) (*Execution, error) {
	exec, err := e.ExecuteWorkflow(ctx, workflowID, inputs)
	if err != nil {
		return nil, err
	}
	return e.WaitForExecution(ctx, exec.ID)
}

// WaitForExecution blocks until the execution settles, then returns its
// final snapshot. If ctx is done first, the current snapshot is returned
// together with ctx's error.
func (e *Engine) WaitForExecution(ctx context.Context, executionID string) (*Execution, error) {
	e.mu.Lock()
	settled, ok := e.done[executionID]
	e.mu.Unlock()
	if !ok {
		// Already settled, evicted, or never started; the store decides.
		return e.store.Get(ctx, executionID)
	}

	select {
	case <-settled:
		return e.store.Get(ctx, executionID)
	case <-ctx.Done():
		snapshot, err := e.store.Get(context.WithoutCancel(ctx), executionID)
		if err != nil {
			return nil, err
		}
		return snapshot, ctx.Err()
	}
}

// GetExecution returns a snapshot of the execution with the given id.
func (e *Engine) GetExecution(ctx context.Context, executionID string) (*Execution, error) {
	return e.store.Get(ctx, executionID)
}

// ListExecutions returns executions, optionally filtered by state,
// newest first, capped at limit when limit is positive.
func (e *Engine) ListExecutions(ctx context.Context, state *ExecutionState, limit int) []*Execution {
	return e.store.List(ctx, &Query{State: state, Limit: limit})
}

// CancelWorkflow requests cooperative cancellation of an execution.
// The flag is observed at the next scheduling-loop boundary; steps that
// are already running finish first. Returns NotFoundError for unknown
// ids; cancelling a terminal execution is a no-op.
func (e *Engine) CancelWorkflow(ctx context.Context, executionID string) error {
	if err := e.store.Cancel(ctx, executionID); err != nil {
		return err
	}
	e.logger.Info("cancellation requested", "execution_id", executionID)
	return nil
}

// Close stops accepting new executions and waits for in-flight
// coordinating tasks to settle, or for ctx to expire.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// coordinate is the per-execution scheduling loop. It computes ready
// steps, dispatches them (parallel-marked steps as one concurrent wave),
// joins the wave, and repeats until nothing is ready. Cancellation and
// the max-duration budget are checked only at loop boundaries; a running
// step is never interrupted.
func (e *Engine) coordinate(execID string, tmpl *Template, execCtx *ExecutionContext, settled chan struct{}) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.done, execID)
		e.mu.Unlock()
		close(settled)
	}()

	// Detached from the caller: the execution outlives ExecuteWorkflow.
	ctx := context.Background()
	logger := e.logger.With("execution_id", execID, "workflow", tmpl.ID)

	start := time.Now()
	_ = e.store.mutate(execID, func(ex *Execution) {
		ex.State = ExecutionRunning
		ex.StartedAt = &start
	})
	e.notifier.emit(ctx, Event{
		Type:        EventExecutionStarted,
		ExecutionID: execID,
		WorkflowID:  tmpl.ID,
	})
	logger.Info("execution started", "steps", len(tmpl.Steps))

	run := runner{
		executor: e.executor,
		logger:   logger,
		metrics:  e.metrics,
		onAttempt: func(stepID string, attempt int) {
			_ = e.store.recordStepAttempt(execID, stepID, attempt)
		},
	}

	var failure error
	var failureEligible map[string]bool
	cancelled := false

	for {
		if e.store.cancelRequested(execID) {
			cancelled = true
			logger.Info("cancellation observed, no further steps will start")
			break
		}
		if budget := tmpl.maxDuration(); budget > 0 && time.Since(start) > budget {
			failure = &errors.TimeoutError{
				Operation: "workflow execution",
				Duration:  budget,
			}
			failureEligible = e.completedSet(ctx, execID)
			logger.Warn("execution exceeded max duration", "max_duration", budget)
			break
		}

		snapshot, err := e.store.Get(ctx, execID)
		if err != nil {
			return
		}
		ready := readySteps(tmpl, snapshot.Steps)
		if len(ready) == 0 {
			break
		}

		wave := nextWave(tmpl, ready)
		dispatch := make([]*StepDefinition, 0, len(wave))
		for _, id := range wave {
			step := tmpl.Step(id)
			ok, condErr := e.conditionHolds(step, execCtx)
			if condErr != nil || !ok {
				res := stepResult{stepID: id, state: StepSkipped, err: condErr}
				_ = e.store.settleStep(execID, res)
				e.notifier.emit(ctx, Event{
					Type:        EventStepSkipped,
					ExecutionID: execID,
					WorkflowID:  tmpl.ID,
					StepID:      id,
				})
				logger.Debug("step skipped by condition", "step_id", id, "error", condErr)
				continue
			}
			dispatch = append(dispatch, step)
		}
		if len(dispatch) == 0 {
			continue
		}

		results := make(chan stepResult, len(dispatch))
		for _, step := range dispatch {
			_ = e.store.markStepRunning(execID, step.ID)
			e.notifier.emit(ctx, Event{
				Type:        EventStepStarted,
				ExecutionID: execID,
				WorkflowID:  tmpl.ID,
				StepID:      step.ID,
			})
			go func(s *StepDefinition) {
				results <- run.run(ctx, s, execCtx)
			}(step)
		}

		// Join the whole wave before the next scheduling pass on the
		// concurrency model: one coordinating task per execution, child
		// tasks per parallel step.
		for i := 0; i < len(dispatch); i++ {
			res := <-results
			_ = e.store.settleStep(execID, res)
			switch res.state {
			case StepCompleted:
				execCtx.SetResult(res.stepID, res.result)
				e.notifier.emit(ctx, Event{
					Type:        EventStepCompleted,
					ExecutionID: execID,
					WorkflowID:  tmpl.ID,
					StepID:      res.stepID,
					Data:        map[string]interface{}{"attempts": res.attempts},
				})
			case StepSkipped:
				e.notifier.emit(ctx, Event{
					Type:        EventStepSkipped,
					ExecutionID: execID,
					WorkflowID:  tmpl.ID,
					StepID:      res.stepID,
				})
			case StepFailed:
				e.notifier.emit(ctx, Event{
					Type:        EventStepFailed,
					ExecutionID: execID,
					WorkflowID:  tmpl.ID,
					StepID:      res.stepID,
					Data:        map[string]interface{}{"attempts": res.attempts, "error": res.err.Error()},
				})
				if failure == nil {
					failure = res.err
					// Completed-at-failure snapshot taken now; wave
					// members still draining settle after this point and
					// are only eligible under compensate_all.
					failureEligible = e.completedSet(ctx, execID)
				}
			}
		}
		if failure != nil {
			break
		}
	}

	e.finalize(ctx, logger, tmpl, execID, execCtx, failure, failureEligible, cancelled)
}

// conditionHolds evaluates the step's condition expression against the
// execution context. Steps without a condition always dispatch. An
// expression error counts as false: the step is skipped, never failed.
func (e *Engine) conditionHolds(step *StepDefinition, execCtx *ExecutionContext) (bool, error) {
	if step.Condition == "" {
		return true, nil
	}
	results := execCtx.Results()
	steps := make(map[string]interface{}, len(results))
	for id, result := range results {
		steps[id] = result
	}
	return e.exprEval.Evaluate(step.Condition, map[string]interface{}{
		"inputs": execCtx.Inputs(),
		"steps":  steps,
	})
}

// completedSet returns the ids of steps currently in completed state.
func (e *Engine) completedSet(ctx context.Context, execID string) map[string]bool {
	snapshot, err := e.store.Get(ctx, execID)
	if err != nil {
		return nil
	}
	set := make(map[string]bool)
	for id, se := range snapshot.Steps {
		if se.State == StepCompleted {
			set[id] = true
		}
	}
	return set
}

// finalize writes the terminal state, runs rollback coordination when
// the strategy calls for it, and archives the execution.
func (e *Engine) finalize(ctx context.Context, logger *slog.Logger, tmpl *Template, execID string, execCtx *ExecutionContext, failure error, failureEligible map[string]bool, cancelled bool) {
	var terminal ExecutionState
	switch {
	case failure != nil:
		terminal = ExecutionFailed
	case cancelled:
		terminal = ExecutionCancelled
	default:
		terminal = ExecutionCompleted
	}

	if terminal != ExecutionCompleted && tmpl.Rollback != RollbackNone {
		// compensate_completed is bounded by the completed set observed at
		// failure time; compensate_all takes everything that has completed
		// now that the wave has fully settled. Cancellation compensates
		// whatever completed before the flag was observed, which is the
		// full completed set at this point.
		eligible := failureEligible
		if tmpl.Rollback == RollbackCompensateAll || cancelled {
			eligible = nil
		}
		rc := rollbackCoordinator{executor: e.executor, logger: logger, metrics: e.metrics}
		rc.compensate(ctx, tmpl, e.store, execID, execCtx, eligible)

		if snapshot, err := e.store.Get(ctx, execID); err == nil {
			for id, se := range snapshot.Steps {
				if se.State == StepRolledBack {
					e.notifier.emit(ctx, Event{
						Type:        EventStepRolledBack,
						ExecutionID: execID,
						WorkflowID:  tmpl.ID,
						StepID:      id,
					})
				}
			}
		}
	}

	now := time.Now()
	_ = e.store.mutate(execID, func(ex *Execution) {
		ex.State = terminal
		ex.CompletedAt = &now
		if failure != nil {
			ex.Error = failure.Error()
		}
	})
	e.metrics.incFinished(tmpl.ID, terminal)

	eventType := EventExecutionCompleted
	switch terminal {
	case ExecutionFailed:
		eventType = EventExecutionFailed
	case ExecutionCancelled:
		eventType = EventExecutionCancelled
	}
	event := Event{Type: eventType, ExecutionID: execID, WorkflowID: tmpl.ID}
	if failure != nil {
		event.Data = map[string]interface{}{"error": failure.Error()}
	}
	e.notifier.emit(ctx, event)
	logger.Info("execution settled", "state", string(terminal), "error", failure)

	if e.history != nil {
		if snapshot, err := e.store.Get(ctx, execID); err == nil {
			if err := e.history.Record(ctx, snapshot); err != nil {
				logger.Warn("failed to archive execution", "error", err)
			}
		}
	}
}
