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
	"strings"

	"github.com/batonflow/baton/pkg/errors"
)

// ValidateTemplate verifies DAG well-formedness at registration time.
// It rejects, in order: empty or duplicate step ids, unknown dependency
// ids, dependency cycles, and malformed ancillary fields. Validation is
// deterministic: the same template always produces the same rejection.
func ValidateTemplate(tmpl *Template) error {
	if tmpl.ID == "" {
		return &errors.ValidationError{
			Field:      "id",
			Message:    "workflow id is required",
			Suggestion: "set a unique id for the template",
		}
	}
	if len(tmpl.Steps) == 0 {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "workflow has no steps",
			Suggestion: "declare at least one step",
		}
	}
	if tmpl.Rollback != "" && !ValidRollbackStrategies[tmpl.Rollback] {
		return &errors.ValidationError{
			Field:      "rollback",
			Message:    fmt.Sprintf("unknown rollback strategy %q", tmpl.Rollback),
			Suggestion: "use one of: none, compensate_completed, compensate_all",
		}
	}

	seen := make(map[string]bool, len(tmpl.Steps))
	for i := range tmpl.Steps {
		step := &tmpl.Steps[i]
		if step.ID == "" {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("steps[%d].id", i),
				Message:    "step id is required",
				Suggestion: "give every step a unique id",
			}
		}
		if seen[step.ID] {
			return &errors.ValidationError{
				Field:      "steps." + step.ID,
				Message:    fmt.Sprintf("duplicate step id %q", step.ID),
				Suggestion: "step ids must be unique within a template",
			}
		}
		seen[step.ID] = true
		if step.Operation == "" {
			return &errors.ValidationError{
				Field:      "steps." + step.ID,
				Message:    "step operation is required",
				Suggestion: "name the operation this step invokes",
			}
		}
		if step.RollbackHandler != nil && step.RollbackHandler.Operation == "" {
			return &errors.ValidationError{
				Field:      "steps." + step.ID + ".rollback",
				Message:    "rollback handler operation is required",
				Suggestion: "name the compensation operation or drop the rollback block",
			}
		}
	}

	for i := range tmpl.Steps {
		step := &tmpl.Steps[i]
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return &errors.ValidationError{
					Field:      "steps." + step.ID + ".depends_on",
					Message:    fmt.Sprintf("unknown dependency %q", dep),
					Suggestion: "dependencies must reference step ids in the same template",
				}
			}
			if dep == step.ID {
				return &errors.ValidationError{
					Field:      "steps." + step.ID + ".depends_on",
					Message:    fmt.Sprintf("dependency cycle: %s -> %s", step.ID, step.ID),
					Suggestion: "a step cannot depend on itself",
				}
			}
		}
	}

	if cycle := findCycle(tmpl); cycle != nil {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "dependency cycle: " + strings.Join(cycle, " -> "),
			Suggestion: "break the cycle so the dependency graph is acyclic",
		}
	}

	return nil
}

// findCycle runs depth-first search with an explicit recursion stack and
// returns the offending cycle's step ids (closed, e.g. [x y x]), or nil
// if the graph is acyclic. Steps are visited in declaration order so the
// reported cycle is stable.
func findCycle(tmpl *Template) []string {
	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // fully explored
	)
	color := make(map[string]int, len(tmpl.Steps))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		step := tmpl.Step(id)
		for _, dep := range step.DependsOn {
			switch color[dep] {
			case gray:
				// Found a back edge; slice the stack from the first
				// occurrence of dep and close the loop.
				for i, sid := range stack {
					if sid == dep {
						cycle := append([]string(nil), stack[i:]...)
						return append(cycle, dep)
					}
				}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for i := range tmpl.Steps {
		id := tmpl.Steps[i].ID
		if color[id] == white {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topologicalOrder returns the template's step ids in a dependency-respecting
// order, preferring declaration order among unordered siblings. The
// template must already have passed ValidateTemplate.
func topologicalOrder(tmpl *Template) []string {
	indegree := make(map[string]int, len(tmpl.Steps))
	dependents := make(map[string][]string, len(tmpl.Steps))
	for i := range tmpl.Steps {
		step := &tmpl.Steps[i]
		indegree[step.ID] += 0
		for _, dep := range step.DependsOn {
			indegree[step.ID]++
			dependents[dep] = append(dependents[dep], step.ID)
		}
	}

	order := make([]string, 0, len(tmpl.Steps))
	// Repeatedly take the first declared step with indegree zero. This is
	// Kahn's algorithm with declaration order as the queue discipline.
	taken := make(map[string]bool, len(tmpl.Steps))
	for len(order) < len(tmpl.Steps) {
		for i := range tmpl.Steps {
			id := tmpl.Steps[i].ID
			if taken[id] || indegree[id] != 0 {
				continue
			}
			taken[id] = true
			order = append(order, id)
			for _, dependent := range dependents[id] {
				indegree[dependent]--
			}
			break
		}
	}
	return order
}
