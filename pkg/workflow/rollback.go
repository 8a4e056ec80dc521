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

// rollbackCoordinator invokes compensation handlers for completed steps
// in reverse dependency order after an execution fails or is cancelled.
type rollbackCoordinator struct {
	executor OperationExecutor
	logger   *slog.Logger
	metrics  *Metrics
}

// compensate walks the completed steps in reverse topological order and
// invokes each step's rollback handler through the operation executor.
//
// Rollback is best-effort: a handler failure is recorded on the step and
// coordination continues; every compensable step gets exactly one
// attempt. eligible restricts which completed steps are considered:
//   - compensate_completed passes the set of steps that had completed
//     when the failure was observed
//   - compensate_all passes nil, meaning every step that is completed now
//
// Successfully compensated steps move to rolled_back. The execution's
// terminal state is untouched; rollback never resurrects completed.
func (rc *rollbackCoordinator) compensate(ctx context.Context, tmpl *Template, store *Store, execID string, execCtx *ExecutionContext, eligible map[string]bool) {
	order := topologicalOrder(tmpl)

	for i := len(order) - 1; i >= 0; i-- {
		stepID := order[i]
		step := tmpl.Step(stepID)
		if step.RollbackHandler == nil {
			continue
		}
		if eligible != nil && !eligible[stepID] {
			continue
		}

		snapshot, err := store.Get(ctx, execID)
		if err != nil {
			return
		}
		if snapshot.Steps[stepID].State != StepCompleted {
			continue
		}

		rc.logger.Info("compensating step",
			"execution_id", execID,
			"step_id", stepID,
			"operation", step.RollbackHandler.Operation,
		)

		start := time.Now()
		_, execErr := rc.executor.Execute(ctx, step.RollbackHandler.Operation, step.RollbackHandler.Params, execCtx)
		if execErr != nil {
			rbErr := &errors.RollbackError{
				StepID:    stepID,
				Operation: step.RollbackHandler.Operation,
				Cause:     execErr,
			}
			rc.logger.Warn("compensation failed",
				"execution_id", execID,
				"step_id", stepID,
				"error", rbErr,
			)
			_ = store.mutate(execID, func(e *Execution) {
				e.Steps[stepID].RollbackError = rbErr.Error()
			})
			rc.metrics.observeStep(step.RollbackHandler.Operation, StepFailed, time.Since(start))
			continue
		}

		_ = store.mutate(execID, func(e *Execution) {
			e.Steps[stepID].State = StepRolledBack
		})
		rc.metrics.observeStep(step.RollbackHandler.Operation, StepRolledBack, time.Since(start))
	}
}
