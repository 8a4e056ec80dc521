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
	"time"

	"github.com/batonflow/baton/pkg/errors"
)

// stepResult is the settled outcome of one step dispatch.
type stepResult struct {
	stepID   string
	state    StepState
	attempts int
	result   map[string]interface{}
	err      error
	duration time.Duration
}

// runner executes a single step via the injected operation executor,
// applying the step's retry policy.
type runner struct {
	executor OperationExecutor
	logger   *slog.Logger
	metrics  *Metrics

	// onAttempt, when set, is invoked at the start of every attempt so
	// mid-retry snapshots report the running attempt count.
	onAttempt func(stepID string, attempt int)
}

// run executes the step and returns its settled result. Failures are
// returned in the result, never panicked or propagated: the coordinating
// task decides what a failure means for the execution.
//
// Retryable steps get bounded retry with exponential backoff; every
// attempt, including the first, counts toward attempts. Optional steps
// that exhaust their attempts settle as skipped so dependents proceed as
// if satisfied.
func (r *runner) run(ctx context.Context, step *StepDefinition, execCtx *ExecutionContext) stepResult {
	policy := step.retryPolicy()
	start := time.Now()

	var lastErr error
	backoff := policy.BackoffBase
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if r.onAttempt != nil {
			r.onAttempt(step.ID, attempt)
		}
		r.logger.Debug("executing step operation",
			"step_id", step.ID,
			"operation", step.Operation,
			"attempt", attempt,
		)

		result, err := r.executor.Execute(ctx, step.Operation, step.Params, execCtx)
		if err == nil {
			r.metrics.observeStep(step.Operation, StepCompleted, time.Since(start))
			return stepResult{
				stepID:   step.ID,
				state:    StepCompleted,
				attempts: attempt,
				result:   result,
				duration: time.Since(start),
			}
		}

		lastErr = err
		r.logger.Warn("step operation failed",
			"step_id", step.ID,
			"operation", step.Operation,
			"attempt", attempt,
			"error", err,
		)
		r.metrics.incRetry(step.Operation)

		if attempt == policy.MaxAttempts {
			break
		}

		// Wait before retrying; a cancelled context ends the budget early.
		select {
		case <-ctx.Done():
			return r.exhausted(step, attempt, ctx.Err(), time.Since(start))
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * policy.BackoffMultiplier)
		}
	}

	return r.exhausted(step, policy.MaxAttempts, lastErr, time.Since(start))
}

// exhausted settles a step whose attempts ran out: skipped when the step
// is optional, failed otherwise.
func (r *runner) exhausted(step *StepDefinition, attempts int, cause error, elapsed time.Duration) stepResult {
	err := &errors.StepExecutionError{
		StepID:    step.ID,
		Operation: step.Operation,
		Attempts:  attempts,
		Cause:     cause,
	}
	state := StepFailed
	if step.Optional {
		state = StepSkipped
		r.logger.Info("optional step skipped after exhausted retries",
			"step_id", step.ID,
			"attempts", attempts,
		)
	}
	r.metrics.observeStep(step.Operation, state, elapsed)
	return stepResult{
		stepID:   step.ID,
		state:    state,
		attempts: attempts,
		err:      err,
		duration: elapsed,
	}
}
