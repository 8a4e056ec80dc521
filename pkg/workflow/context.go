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
	"fmt"
	"sync"

	"github.com/batonflow/baton/pkg/errors"
)

// ErrKeyNotFound represents an error when a requested key does not exist
// in the execution context.
type ErrKeyNotFound struct {
	Key string
}

// Error implements the error interface.
// Security: does not include the actual value to prevent credential leakage.
func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %q not found", e.Key)
}

// ErrTypeAssertion represents an error when a context value cannot be
// asserted to the expected type.
type ErrTypeAssertion struct {
	Key  string // The key that was accessed
	Got  string // The actual type received (as string representation)
	Want string // The expected type
}

// Error implements the error interface.
// Security: does not include the actual value to prevent credential leakage.
func (e ErrTypeAssertion) Error() string {
	return fmt.Sprintf("key %q is %s, not %s", e.Key, e.Got, e.Want)
}

// ExecutionContext provides type-safe access to execution inputs and
// settled step results. Inputs are immutable after construction. The
// results map is guarded: the coordinating task records settlements
// while sibling steps of the same wave may still be reading.
type ExecutionContext struct {
	inputs map[string]interface{}

	mu      sync.RWMutex
	results map[string]map[string]interface{}
}

// NewExecutionContext creates an ExecutionContext with the provided inputs.
func NewExecutionContext(inputs map[string]interface{}) *ExecutionContext {
	if inputs == nil {
		inputs = make(map[string]interface{})
	}
	return &ExecutionContext{
		inputs:  inputs,
		results: make(map[string]map[string]interface{}),
	}
}

// GetString retrieves a string value from the execution inputs.
// Returns ErrKeyNotFound if key doesn't exist, ErrTypeAssertion if wrong type.
func (c *ExecutionContext) GetString(key string) (string, error) {
	val, ok := c.inputs[key]
	if !ok {
		return "", ErrKeyNotFound{Key: key}
	}
	str, ok := val.(string)
	if !ok {
		return "", ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "string"}
	}
	return str, nil
}

// GetStringOr returns a string value or the default if key is missing or
// wrong type. Never panics.
func (c *ExecutionContext) GetStringOr(key string, defaultVal string) string {
	str, err := c.GetString(key)
	if err != nil {
		return defaultVal
	}
	return str
}

// GetInt64 retrieves an int64 value from the execution inputs.
// Returns ErrKeyNotFound if key doesn't exist, ErrTypeAssertion if wrong type.
func (c *ExecutionContext) GetInt64(key string) (int64, error) {
	val, ok := c.inputs[key]
	if !ok {
		return 0, ErrKeyNotFound{Key: key}
	}

	// Handle the integer shapes JSON/YAML unmarshaling produces
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		// JSON numbers unmarshal as float64
		return int64(v), nil
	default:
		return 0, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "int64"}
	}
}

// GetInt64Or returns an int64 value or the default if key is missing or
// wrong type. Never panics.
func (c *ExecutionContext) GetInt64Or(key string, defaultVal int64) int64 {
	i, err := c.GetInt64(key)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool retrieves a bool value from the execution inputs.
// Returns ErrKeyNotFound if key doesn't exist, ErrTypeAssertion if wrong type.
func (c *ExecutionContext) GetBool(key string) (bool, error) {
	val, ok := c.inputs[key]
	if !ok {
		return false, ErrKeyNotFound{Key: key}
	}
	b, ok := val.(bool)
	if !ok {
		return false, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "bool"}
	}
	return b, nil
}

// GetBoolOr returns a bool value or the default if key is missing or
// wrong type. Never panics.
func (c *ExecutionContext) GetBoolOr(key string, defaultVal bool) bool {
	b, err := c.GetBool(key)
	if err != nil {
		return defaultVal
	}
	return b
}

// GetFloat64 retrieves a float64 value from the execution inputs.
func (c *ExecutionContext) GetFloat64(key string) (float64, error) {
	val, ok := c.inputs[key]
	if !ok {
		return 0, ErrKeyNotFound{Key: key}
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "float64"}
	}
}

// GetMap retrieves a map value from the execution inputs.
func (c *ExecutionContext) GetMap(key string) (map[string]interface{}, error) {
	val, ok := c.inputs[key]
	if !ok {
		return nil, ErrKeyNotFound{Key: key}
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "map[string]interface{}"}
	}
	return m, nil
}

// GetSlice retrieves a slice value from the execution inputs.
func (c *ExecutionContext) GetSlice(key string) ([]interface{}, error) {
	val, ok := c.inputs[key]
	if !ok {
		return nil, ErrKeyNotFound{Key: key}
	}
	s, ok := val.([]interface{})
	if !ok {
		return nil, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "[]interface{}"}
	}
	return s, nil
}

// Inputs returns the underlying inputs map for expression evaluation.
// Safe for concurrent reads.
func (c *ExecutionContext) Inputs() map[string]interface{} {
	return c.inputs
}

// Results returns a snapshot of settled step results keyed by step id.
// Safe to call concurrently with SetResult.
func (c *ExecutionContext) Results() map[string]map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[string]interface{}, len(c.results))
	for id, result := range c.results {
		out[id] = result
	}
	return out
}

// SetResult records a settled step's result payload.
func (c *ExecutionContext) SetResult(stepID string, result map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[stepID] = result
}

// applyDefaults merges template-declared defaults into a copy of the
// caller's inputs. The caller's map is never mutated.
func applyDefaults(tmpl *Template, inputs map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(inputs)+len(tmpl.Requires))
	for k, v := range inputs {
		merged[k] = v
	}
	for _, req := range tmpl.Requires {
		if _, ok := merged[req.Name]; !ok && req.Default != nil {
			merged[req.Name] = req.Default
		}
	}
	return merged
}

// ValidateInputs checks caller-supplied inputs against the template's
// declared requirements. Missing required inputs and type mismatches are
// rejected before an execution is created.
func ValidateInputs(tmpl *Template, inputs map[string]interface{}) error {
	for _, req := range tmpl.Requires {
		val, present := inputs[req.Name]
		if !present {
			if req.Default != nil {
				continue
			}
			return &errors.ValidationError{
				Field:      "inputs." + req.Name,
				Message:    "required input missing",
				Suggestion: "supply the input or declare a default in the template",
			}
		}
		if err := checkInputType(req, val); err != nil {
			return err
		}
	}
	return nil
}

// checkInputType verifies a single input value against its declared type.
func checkInputType(req InputRequirement, val interface{}) error {
	mismatch := func(want string) error {
		return &errors.ValidationError{
			Field:      "inputs." + req.Name,
			Message:    fmt.Sprintf("expected %s, got %T", want, val),
			Suggestion: "check the template's requires section for the expected type",
		}
	}
	switch req.Type {
	case "", "any":
		return nil
	case "string":
		if _, ok := val.(string); !ok {
			return mismatch("string")
		}
	case "number":
		switch val.(type) {
		case int, int32, int64, float32, float64:
		default:
			return mismatch("number")
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return mismatch("boolean")
		}
	case "object":
		if _, ok := val.(map[string]interface{}); !ok {
			return mismatch("object")
		}
	case "array":
		if _, ok := val.([]interface{}); !ok {
			return mismatch("array")
		}
	default:
		return &errors.ValidationError{
			Field:      "requires." + req.Name,
			Message:    fmt.Sprintf("unknown input type %q", req.Type),
			Suggestion: "use one of: string, number, boolean, object, array, any",
		}
	}
	return nil
}
