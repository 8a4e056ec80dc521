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

// Package expression evaluates step condition expressions against an
// execution's inputs and settled step results.
//
// Expressions use expr-lang syntax and must return a boolean. Two names
// are available in every evaluation context:
//   - inputs: map of execution input values
//   - steps: map of settled step result payloads keyed by step id
//
// An empty expression evaluates to true, so steps without conditions
// always dispatch.
package expression

import (
	"fmt"
	"sync"

	"github.com/batonflow/baton/pkg/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates condition expressions.
// Compiled programs are cached, so repeated evaluation of the same
// condition across executions pays compilation once.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new expression evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate evaluates an expression against the given context and returns
// the boolean result.
//
// Example:
//
//	ctx := map[string]interface{}{
//	    "inputs": map[string]interface{}{"dry_run": false},
//	    "steps":  map[string]interface{}{"probe": map[string]interface{}{"healthy": true}},
//	}
//	ok, err := eval.Evaluate(`!inputs.dry_run && steps.probe.healthy`, ctx)
func (e *Evaluator) Evaluate(expression string, ctx map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil
	}

	program, err := e.compile(expression)
	if err != nil {
		return false, &errors.ValidationError{
			Field:      "condition",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax and ensure all referenced variables exist",
		}
	}

	evalCtx := make(map[string]interface{}, len(ctx)+2)
	for k, v := range ctx {
		evalCtx[k] = v
	}
	// "contains" is reserved in expr for string operations
	evalCtx["has"] = containsFunc
	evalCtx["length"] = lenFunc

	result, err := expr.Run(program, evalCtx)
	if err != nil {
		return false, &errors.ValidationError{
			Field:      "condition",
			Message:    fmt.Sprintf("expression evaluation failed: %s", err.Error()),
			Suggestion: "verify that all referenced variables exist in the execution context",
		}
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, &errors.ValidationError{
			Field:      "condition",
			Message:    fmt.Sprintf("expression must return boolean, got %T", result),
			Suggestion: "use comparison operators or boolean functions",
		}
	}
	return boolResult, nil
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	env := map[string]interface{}{
		"has":    containsFunc,
		"length": lenFunc,
	}

	prog, err := expr.Compile(expression,
		expr.Env(env),
		// The real context arrives at run time
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()
	return prog, nil
}
