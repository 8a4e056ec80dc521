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
	"time"
)

// EventType identifies an execution-lifecycle event.
type EventType string

const (
	// EventExecutionStarted is emitted when the coordinating task begins.
	EventExecutionStarted EventType = "execution_started"
	// EventExecutionCompleted is emitted when every step settled cleanly.
	EventExecutionCompleted EventType = "execution_completed"
	// EventExecutionFailed is emitted when the execution fails, after
	// rollback coordination finishes.
	EventExecutionFailed EventType = "execution_failed"
	// EventExecutionCancelled is emitted when cooperative cancellation
	// completes.
	EventExecutionCancelled EventType = "execution_cancelled"
	// EventStepStarted is emitted when a step is dispatched to the
	// operation executor.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted is emitted when a step settles successfully.
	EventStepCompleted EventType = "step_completed"
	// EventStepFailed is emitted when a step exhausts its attempts.
	EventStepFailed EventType = "step_failed"
	// EventStepSkipped is emitted for optional failures and false conditions.
	EventStepSkipped EventType = "step_skipped"
	// EventStepRolledBack is emitted when a compensation handler succeeds.
	EventStepRolledBack EventType = "step_rolled_back"
)

// Event is an execution-lifecycle notification.
type Event struct {
	Type        EventType              `json:"type"`
	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	StepID      string                 `json:"step_id,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// NotificationSink receives execution-lifecycle events.
// Delivery is non-blocking from the engine's point of view and sink
// errors are ignored; a sink must never be able to stall scheduling.
type NotificationSink interface {
	Notify(ctx context.Context, event Event)
}

// SinkFunc adapts a plain function to the NotificationSink interface.
type SinkFunc func(ctx context.Context, event Event)

// Notify implements NotificationSink.
func (f SinkFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

// notifier fans events out to the configured sink on a dedicated
// goroutine per event. A nil sink makes every emit a no-op.
type notifier struct {
	sink NotificationSink
}

// emit dispatches the event without blocking the caller. Panicking sinks
// are contained; lifecycle notification is advisory only.
func (n *notifier) emit(ctx context.Context, event Event) {
	if n == nil || n.sink == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	go func() {
		defer func() { _ = recover() }()
		n.sink.Notify(ctx, event)
	}()
}
