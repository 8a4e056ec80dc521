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

// ErrorClassifier defines methods for programmatic error handling.
// Errors that implement this interface can be classified by category
// for retry decisions, reporting, or specific handling paths.
type ErrorClassifier interface {
	error

	// ErrorType returns a string identifying the error category.
	// Examples: "validation", "not_found", "step_execution", "timeout"
	ErrorType() string

	// IsRetryable returns true if the failed operation may be retried.
	IsRetryable() bool
}

// ErrorType implements ErrorClassifier.
func (e *ValidationError) ErrorType() string { return "validation" }

// IsRetryable implements ErrorClassifier. Validation failures are
// deterministic; retrying the same template never helps.
func (e *ValidationError) IsRetryable() bool { return false }

// ErrorType implements ErrorClassifier.
func (e *NotFoundError) ErrorType() string { return "not_found" }

// IsRetryable implements ErrorClassifier.
func (e *NotFoundError) IsRetryable() bool { return false }

// ErrorType implements ErrorClassifier.
func (e *StepExecutionError) ErrorType() string { return "step_execution" }

// IsRetryable implements ErrorClassifier. Executor failures are retryable
// at the step runner's discretion; the runner consults the step's own
// retry policy before acting on this.
func (e *StepExecutionError) IsRetryable() bool { return true }

// ErrorType implements ErrorClassifier.
func (e *RollbackError) ErrorType() string { return "rollback" }

// IsRetryable implements ErrorClassifier. Compensation gets exactly one
// attempt per step.
func (e *RollbackError) IsRetryable() bool { return false }

// ErrorType implements ErrorClassifier.
func (e *ConfigError) ErrorType() string { return "config" }

// IsRetryable implements ErrorClassifier.
func (e *ConfigError) IsRetryable() bool { return false }

// ErrorType implements ErrorClassifier.
func (e *TimeoutError) ErrorType() string { return "timeout" }

// IsRetryable implements ErrorClassifier.
func (e *TimeoutError) IsRetryable() bool { return false }
