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
	"sync"
	"testing"

	"github.com/batonflow/baton/pkg/errors"
)

func TestExecutionContextTypedGetters(t *testing.T) {
	execCtx := NewExecutionContext(map[string]interface{}{
		"env":      "staging",
		"replicas": 3,
		"ratio":    0.5,
		"dry_run":  true,
		"labels":   map[string]interface{}{"team": "infra"},
		"targets":  []interface{}{"db", "cache"},
	})

	if got, err := execCtx.GetString("env"); err != nil || got != "staging" {
		t.Errorf("GetString = %q, %v", got, err)
	}
	if got, err := execCtx.GetInt64("replicas"); err != nil || got != 3 {
		t.Errorf("GetInt64 = %d, %v", got, err)
	}
	if got, err := execCtx.GetFloat64("ratio"); err != nil || got != 0.5 {
		t.Errorf("GetFloat64 = %v, %v", got, err)
	}
	if got, err := execCtx.GetBool("dry_run"); err != nil || !got {
		t.Errorf("GetBool = %v, %v", got, err)
	}
	if got, err := execCtx.GetMap("labels"); err != nil || got["team"] != "infra" {
		t.Errorf("GetMap = %v, %v", got, err)
	}
	if got, err := execCtx.GetSlice("targets"); err != nil || len(got) != 2 {
		t.Errorf("GetSlice = %v, %v", got, err)
	}
}

func TestExecutionContextNumericShapes(t *testing.T) {
	// JSON unmarshals numbers as float64; YAML produces int.
	execCtx := NewExecutionContext(map[string]interface{}{
		"from_json": float64(7),
		"from_yaml": int(7),
		"wide":      int64(7),
	})
	for _, key := range []string{"from_json", "from_yaml", "wide"} {
		if got, err := execCtx.GetInt64(key); err != nil || got != 7 {
			t.Errorf("GetInt64(%q) = %d, %v", key, got, err)
		}
	}
}

func TestExecutionContextKeyNotFound(t *testing.T) {
	execCtx := NewExecutionContext(nil)
	_, err := execCtx.GetString("missing")
	var knf ErrKeyNotFound
	if !errors.As(err, &knf) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if knf.Key != "missing" {
		t.Errorf("unexpected key: %q", knf.Key)
	}
}

func TestExecutionContextTypeAssertion(t *testing.T) {
	execCtx := NewExecutionContext(map[string]interface{}{"env": 42})
	_, err := execCtx.GetString("env")
	var ta ErrTypeAssertion
	if !errors.As(err, &ta) {
		t.Fatalf("expected ErrTypeAssertion, got %v", err)
	}
	if ta.Key != "env" || ta.Want != "string" {
		t.Errorf("unexpected detail: %+v", ta)
	}
	// Values never leak into error text.
	if strings.Contains(err.Error(), "42") {
		t.Errorf("error text must not include the value: %q", err.Error())
	}
}

func TestExecutionContextDefaults(t *testing.T) {
	execCtx := NewExecutionContext(map[string]interface{}{"env": 42})

	if got := execCtx.GetStringOr("env", "fallback"); got != "fallback" {
		t.Errorf("GetStringOr = %q", got)
	}
	if got := execCtx.GetStringOr("missing", "fallback"); got != "fallback" {
		t.Errorf("GetStringOr = %q", got)
	}
	if got := execCtx.GetInt64Or("missing", 9); got != 9 {
		t.Errorf("GetInt64Or = %d", got)
	}
	if got := execCtx.GetBoolOr("missing", true); !got {
		t.Error("GetBoolOr must return the default")
	}
}

func TestExecutionContextResults(t *testing.T) {
	execCtx := NewExecutionContext(nil)
	execCtx.SetResult("build", map[string]interface{}{"artifact": "img-1"})

	results := execCtx.Results()
	if results["build"]["artifact"] != "img-1" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestApplyDefaults(t *testing.T) {
	tmpl := &Template{
		Requires: []InputRequirement{
			{Name: "env", Type: "string"},
			{Name: "replicas", Type: "number", Default: 2},
		},
	}
	inputs := map[string]interface{}{"env": "prod"}

	merged := applyDefaults(tmpl, inputs)
	if merged["env"] != "prod" || merged["replicas"] != 2 {
		t.Errorf("unexpected merge: %v", merged)
	}
	if _, ok := inputs["replicas"]; ok {
		t.Error("caller's map must not be mutated")
	}

	// Explicit values win over defaults.
	merged = applyDefaults(tmpl, map[string]interface{}{"env": "prod", "replicas": 5})
	if merged["replicas"] != 5 {
		t.Errorf("expected caller value to win, got %v", merged["replicas"])
	}
}

func TestValidateInputs(t *testing.T) {
	tmpl := &Template{
		Requires: []InputRequirement{
			{Name: "env", Type: "string"},
			{Name: "replicas", Type: "number", Default: 2},
			{Name: "flags", Type: "object"},
			{Name: "targets", Type: "array"},
			{Name: "force", Type: "boolean"},
			{Name: "blob", Type: "any"},
		},
	}
	valid := map[string]interface{}{
		"env":     "prod",
		"flags":   map[string]interface{}{},
		"targets": []interface{}{"a"},
		"force":   false,
		"blob":    struct{}{},
	}
	if err := ValidateInputs(tmpl, valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"missing required", func(m map[string]interface{}) { delete(m, "env") }, "inputs.env"},
		{"wrong string", func(m map[string]interface{}) { m["env"] = 1 }, "inputs.env"},
		{"wrong object", func(m map[string]interface{}) { m["flags"] = "x" }, "inputs.flags"},
		{"wrong array", func(m map[string]interface{}) { m["targets"] = "x" }, "inputs.targets"},
		{"wrong boolean", func(m map[string]interface{}) { m["force"] = "yes" }, "inputs.force"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := make(map[string]interface{}, len(valid))
			for k, v := range valid {
				inputs[k] = v
			}
			tt.mutate(inputs)

			err := ValidateInputs(tmpl, inputs)
			var verr *errors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestValidateInputsUnknownDeclaredType(t *testing.T) {
	tmpl := &Template{
		Requires: []InputRequirement{{Name: "env", Type: "uuid"}},
	}
	err := ValidateInputs(tmpl, map[string]interface{}{"env": "x"})
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "requires.env" {
		t.Errorf("unexpected field: %q", verr.Field)
	}
}

func TestExecutionContextConcurrentResultAccess(t *testing.T) {
	execCtx := NewExecutionContext(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		stepID := fmt.Sprintf("step-%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				execCtx.SetResult(stepID, map[string]interface{}{"n": j})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for range execCtx.Results() {
				}
			}
		}()
	}
	wg.Wait()

	if got := len(execCtx.Results()); got != 4 {
		t.Errorf("expected 4 recorded results, got %d", got)
	}
}
