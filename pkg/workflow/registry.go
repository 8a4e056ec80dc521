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
	"sort"
	"sync"

	"github.com/batonflow/baton/pkg/errors"
)

// Registry stores immutable workflow templates.
// Registration validates the dependency graph; a template that registers
// successfully is guaranteed acyclic with resolvable dependencies.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
	}
}

// Register validates and stores a template. Registration is
// idempotent-reject: a duplicate id fails with ValidationError rather
// than overwriting. A failed registration never partially registers.
func (r *Registry) Register(tmpl *Template) error {
	if tmpl == nil {
		return &errors.ValidationError{
			Field:   "template",
			Message: "template cannot be nil",
		}
	}
	tmpl.normalize()
	if err := ValidateTemplate(tmpl); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[tmpl.ID]; exists {
		return &errors.ValidationError{
			Field:      "id",
			Message:    fmt.Sprintf("workflow %q is already registered", tmpl.ID),
			Suggestion: "unregister the existing template first or pick a different id",
		}
	}
	r.templates[tmpl.ID] = tmpl
	return nil
}

// Replace validates and stores a template, overwriting any template
// already registered under the same id. In-flight executions keep their
// already-resolved template.
func (r *Registry) Replace(tmpl *Template) error {
	if tmpl == nil {
		return &errors.ValidationError{
			Field:   "template",
			Message: "template cannot be nil",
		}
	}
	tmpl.normalize()
	if err := ValidateTemplate(tmpl); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.ID] = tmpl
	return nil
}

// Get returns the template with the given id.
// Read-only and side-effect-free.
func (r *Registry) Get(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "workflow", ID: id}
	}
	return tmpl, nil
}

// List returns registered templates, optionally filtered by category.
// An empty category matches everything. Results are sorted by id for
// stable output.
func (r *Registry) List(category string) []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.templates))
	for _, tmpl := range r.templates {
		if category != "" && tmpl.Category != category {
			continue
		}
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Unregister removes a template. Returns NotFoundError for unknown ids.
// In-flight executions keep their already-resolved template.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return &errors.NotFoundError{Resource: "workflow", ID: id}
	}
	delete(r.templates, id)
	return nil
}
