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

// Package workflow provides DAG-based workflow orchestration primitives.
//
// A Template describes a multi-step operation as a directed acyclic graph
// of steps with dependency ordering, optional parallel execution, bounded
// retries, and best-effort compensation on failure. Templates are
// registered with an Engine, validated at registration time, and executed
// against caller-supplied inputs. Execution state is tracked per run in a
// Store and queried by execution id.
package workflow

import (
	"fmt"
	"time"

	"github.com/batonflow/baton/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RollbackStrategy controls which completed steps are compensated when an
// execution fails.
type RollbackStrategy string

const (
	// RollbackNone disables compensation entirely.
	RollbackNone RollbackStrategy = "none"

	// RollbackCompensateCompleted compensates steps that had reached
	// completed state when the failure was observed.
	RollbackCompensateCompleted RollbackStrategy = "compensate_completed"

	// RollbackCompensateAll additionally compensates steps that were still
	// running when the failure was observed, once they settle successfully.
	RollbackCompensateAll RollbackStrategy = "compensate_all"
)

// ValidRollbackStrategies for validation.
var ValidRollbackStrategies = map[RollbackStrategy]bool{
	RollbackNone:                true,
	RollbackCompensateCompleted: true,
	RollbackCompensateAll:       true,
}

// Template is an immutable workflow definition.
// It is created at registration and never mutated afterwards; executions
// reference it by id.
type Template struct {
	// ID is the unique workflow identifier
	ID string `yaml:"id" json:"id"`

	// Name is a human-readable workflow name
	Name string `yaml:"name" json:"name"`

	// Description provides human-readable context about the workflow
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Category groups related workflows for listing (e.g., "migration")
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// Version tracks the template revision (optional, defaults to "1.0")
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Steps are the executable units of the workflow, in declaration order.
	// Declaration order is the tie-break for non-parallel scheduling.
	Steps []StepDefinition `yaml:"steps" json:"steps"`

	// Rollback selects the compensation strategy on failure
	// (defaults to compensate_completed)
	Rollback RollbackStrategy `yaml:"rollback,omitempty" json:"rollback,omitempty"`

	// MaxDurationSeconds is an optional wall-clock budget for the whole
	// execution, in seconds. Zero means no budget. Checked at
	// scheduling-loop boundaries; a running step is never interrupted.
	MaxDurationSeconds int `yaml:"max_duration,omitempty" json:"max_duration,omitempty"`

	// Requires declares the inputs this workflow expects. Inputs without a
	// default are required and validated when an execution starts.
	Requires []InputRequirement `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// InputRequirement describes one expected execution input.
type InputRequirement struct {
	// Name is the input parameter identifier
	Name string `yaml:"name" json:"name"`

	// Type specifies the data type (string, number, boolean, object, array, any)
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Default provides a fallback value if the input is not supplied.
	// Inputs without a default are required.
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`

	// Description explains what this input is for
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// StepDefinition represents a single step in a workflow template.
//
// Steps name an operation to invoke through the engine's operation
// executor. DependsOn orders steps: a step never starts before all of its
// dependencies reach a satisfying terminal state (completed, or skipped
// for optional and conditional steps).
type StepDefinition struct {
	// ID is the unique step identifier within this workflow
	ID string `yaml:"id" json:"id"`

	// Name is a human-readable step name (optional)
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description explains what this step does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Operation is the operation reference passed to the executor
	Operation string `yaml:"operation" json:"operation"`

	// Params are the operation parameters, passed to the executor
	// verbatim along with the execution context.
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`

	// DependsOn lists step ids that must settle before this step starts
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`

	// Parallel hints the scheduler that this step may run concurrently
	// with other ready parallel steps in the same wave
	Parallel bool `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Optional steps do not fail the workflow; on exhausted retries they
	// are skipped and dependents proceed as if satisfied
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`

	// Retryable enables bounded retry with exponential backoff.
	// The operation must be safe to re-invoke; mark steps whose remote
	// call is not idempotent as non-retryable.
	Retryable bool `yaml:"retryable,omitempty" json:"retryable,omitempty"`

	// Retry overrides the default retry policy (only read when Retryable)
	Retry *RetryPolicy `yaml:"retry,omitempty" json:"retry,omitempty"`

	// Condition is an optional boolean expression evaluated against the
	// execution context before dispatch. False skips the step.
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`

	// RollbackHandler is the optional compensation operation, invoked only
	// if this step completed and the execution is later rolled back
	RollbackHandler *RollbackHandler `yaml:"rollback,omitempty" json:"rollback,omitempty"`
}

// RollbackHandler describes a compensation operation for a completed step.
type RollbackHandler struct {
	// Operation is the operation reference passed to the executor
	Operation string `yaml:"operation" json:"operation"`

	// Params are the compensation operation parameters
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// RetryPolicy configures bounded retry for a retryable step.
type RetryPolicy struct {
	// MaxAttempts is the total number of execution attempts
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// BackoffBase is the initial backoff delay
	BackoffBase time.Duration `yaml:"-" json:"backoff_base"`

	// BackoffMultiplier scales the delay after each failed attempt
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// UnmarshalYAML decodes the YAML retry block, where backoff_base is
// expressed in whole seconds.
func (p *RetryPolicy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxAttempts       int     `yaml:"max_attempts"`
		BackoffBase       int     `yaml:"backoff_base"`
		BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.MaxAttempts = raw.MaxAttempts
	p.BackoffBase = time.Duration(raw.BackoffBase) * time.Second
	p.BackoffMultiplier = raw.BackoffMultiplier
	return nil
}

// Default retry configuration values, applied when a retryable step does
// not carry an explicit policy.
const (
	// DefaultRetryMaxAttempts is the default number of execution attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultRetryBackoffBase is the initial backoff delay.
	DefaultRetryBackoffBase = time.Second

	// DefaultRetryBackoffMultiplier is the exponential backoff multiplier.
	DefaultRetryBackoffMultiplier = 2.0
)

// DefaultTemplateVersion is assumed when a template omits its version.
const DefaultTemplateVersion = "1.0"

// retryPolicy returns the effective retry policy for the step.
// Non-retryable steps get a single attempt.
func (s *StepDefinition) retryPolicy() RetryPolicy {
	if !s.Retryable {
		return RetryPolicy{MaxAttempts: 1}
	}
	policy := RetryPolicy{
		MaxAttempts:       DefaultRetryMaxAttempts,
		BackoffBase:       DefaultRetryBackoffBase,
		BackoffMultiplier: DefaultRetryBackoffMultiplier,
	}
	if s.Retry != nil {
		if s.Retry.MaxAttempts > 0 {
			policy.MaxAttempts = s.Retry.MaxAttempts
		}
		if s.Retry.BackoffBase > 0 {
			policy.BackoffBase = s.Retry.BackoffBase
		}
		if s.Retry.BackoffMultiplier > 0 {
			policy.BackoffMultiplier = s.Retry.BackoffMultiplier
		}
	}
	return policy
}

// maxDuration returns the execution budget, zero when unbounded.
func (t *Template) maxDuration() time.Duration {
	return time.Duration(t.MaxDurationSeconds) * time.Second
}

// Step returns the step definition with the given id, or nil.
func (t *Template) Step(id string) *StepDefinition {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i]
		}
	}
	return nil
}

// normalize fills in defaulted template fields. Called once at registration.
func (t *Template) normalize() {
	if t.Version == "" {
		t.Version = DefaultTemplateVersion
	}
	if t.Rollback == "" {
		t.Rollback = RollbackCompensateCompleted
	}
}

// ParseTemplate parses a YAML template definition and applies defaults.
// The result still needs ValidateTemplate before registration; parsing
// only checks syntax and basic shape.
func ParseTemplate(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, &errors.ValidationError{
			Field:      "template",
			Message:    fmt.Sprintf("invalid YAML: %v", err),
			Suggestion: "check YAML syntax and indentation",
		}
	}
	tmpl.normalize()
	return &tmpl, nil
}
