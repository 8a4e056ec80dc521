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
	"testing"

	"github.com/batonflow/baton/pkg/errors"
)

func registryTemplate(id, category string) *Template {
	return &Template{
		ID:       id,
		Name:     id,
		Category: category,
		Steps:    []StepDefinition{step("a")},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(registryTemplate("deploy", "ops")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpl, err := reg.Get("deploy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.ID != "deploy" {
		t.Errorf("expected deploy, got %q", tmpl.ID)
	}
	// Register ran normalize
	if tmpl.Version != DefaultTemplateVersion || tmpl.Rollback != RollbackCompensateCompleted {
		t.Errorf("expected normalized defaults, got %+v", tmpl)
	}
}

func TestRegistryRegisterRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(registryTemplate("deploy", "ops")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := reg.Register(registryTemplate("deploy", "ops"))
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "id" {
		t.Errorf("unexpected field: %q", verr.Field)
	}
}

func TestRegistryRegisterRejectsInvalidTemplate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected error for nil template")
	}
	err := reg.Register(&Template{ID: "bad", Steps: []StepDefinition{step("a", "ghost")}})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
	// A failed registration must not partially register.
	if _, err := reg.Get("bad"); err == nil {
		t.Error("invalid template must not be registered")
	}
}

func TestRegistryGetUnknownID(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("ghost")
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Resource != "workflow" {
		t.Errorf("unexpected resource: %q", nf.Resource)
	}
}

func TestRegistryListSortedAndFiltered(t *testing.T) {
	reg := NewRegistry()
	for _, tmpl := range []*Template{
		registryTemplate("zeta", "ops"),
		registryTemplate("alpha", "ops"),
		registryTemplate("mid", "data"),
	} {
		if err := reg.Register(tmpl); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all := reg.List("")
	if len(all) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(all))
	}
	if all[0].ID != "alpha" || all[1].ID != "mid" || all[2].ID != "zeta" {
		t.Errorf("expected sorted ids, got %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	ops := reg.List("ops")
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops templates, got %d", len(ops))
	}
	for _, tmpl := range ops {
		if tmpl.Category != "ops" {
			t.Errorf("filter leaked category %q", tmpl.Category)
		}
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(registryTemplate("deploy", "ops")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.Unregister("deploy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Get("deploy"); err == nil {
		t.Error("expected unregistered template to be gone")
	}
	var nf *errors.NotFoundError
	if err := reg.Unregister("deploy"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()

	// Replace works with or without an existing registration.
	if err := reg.Replace(registryTemplate("deploy", "ops")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := registryTemplate("deploy", "ops")
	updated.Name = "Deploy v2"
	if err := reg.Replace(updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpl, err := reg.Get("deploy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Name != "Deploy v2" {
		t.Errorf("expected replacement to win, got %q", tmpl.Name)
	}

	// Replace still validates.
	bad := &Template{ID: "deploy", Steps: []StepDefinition{step("a", "a")}}
	if err := reg.Replace(bad); err == nil {
		t.Fatal("expected error for self dependency")
	}
	tmpl, _ = reg.Get("deploy")
	if tmpl.Name != "Deploy v2" {
		t.Error("failed replace must keep the previous template")
	}
}
