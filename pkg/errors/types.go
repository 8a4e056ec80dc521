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

package errors

import (
	"fmt"
	"time"
)

// ValidationError represents template or input validation failures.
// Use this for malformed templates (unknown dependencies, cycles,
// duplicate step ids) and for execution inputs that fail the template's
// declared requirements.
type ValidationError struct {
	// Field identifies which field or step failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested workflow template or execution does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "workflow", "execution")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StepExecutionError wraps an operation executor failure for a single step.
// It carries the attempt count so callers can distinguish a first-try
// failure from an exhausted retry budget.
type StepExecutionError struct {
	// StepID identifies the step that failed
	StepID string

	// Operation is the operation the step attempted to execute
	Operation string

	// Attempts is the number of execution attempts made, including the
	// failing one
	Attempts int

	// Cause is the underlying executor error
	Cause error
}

// Error implements the error interface.
func (e *StepExecutionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("step %s failed after %d attempts: %v", e.StepID, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StepExecutionError) Unwrap() error {
	return e.Cause
}

// RollbackError represents a compensation handler failure.
// It is recorded on the step execution and never aborts the rollback
// coordinator; remaining compensable steps still get their attempt.
type RollbackError struct {
	// StepID identifies the step whose compensation failed
	StepID string

	// Operation is the rollback operation that was invoked
	Operation string

	// Cause is the underlying executor error
	Cause error
}

// Error implements the error interface.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of step %s failed: %v", e.StepID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *RollbackError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
// Use this for missing engine dependencies or invalid option values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "operation_executor")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents an execution exceeding its wall-clock budget.
// A workflow that runs past its template's max duration fails with this
// error and triggers rollback like any other failure.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "workflow execution")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
