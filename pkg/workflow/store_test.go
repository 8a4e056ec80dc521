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
	"fmt"
	"testing"
	"time"

	"github.com/batonflow/baton/pkg/errors"
)

func storedExecution(id string) *Execution {
	return newExecution(id, &Template{
		ID:    "wf",
		Steps: []StepDefinition{step("a"), step("b")},
	}, map[string]interface{}{"env": "staging"})
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "exec-1" || got.WorkflowID != "wf" {
		t.Errorf("unexpected execution: %+v", got)
	}
	if got.State != ExecutionPending {
		t.Errorf("expected pending, got %s", got.State)
	}
	if len(got.Steps) != 2 || got.Steps["a"].State != StepPending {
		t.Errorf("unexpected steps: %+v", got.Steps)
	}
}

func TestStoreCreateRejectsDuplicateID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := store.Create(ctx, storedExecution("exec-1"))
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestStoreCreateRejectsEmptyID(t *testing.T) {
	store := NewStore()
	if err := store.Create(context.Background(), &Execution{}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := store.Create(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil execution")
	}
}

func TestStoreGetUnknownID(t *testing.T) {
	store := NewStore()
	_, err := store.Get(context.Background(), "exec-ghost")
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Resource != "execution" || nf.ID != "exec-ghost" {
		t.Errorf("unexpected error detail: %+v", nf)
	}
}

func TestStoreGetReturnsDeepCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := store.Get(ctx, "exec-1")
	first.State = ExecutionFailed
	first.Steps["a"].State = StepCompleted
	first.Inputs["env"] = "production"

	second, _ := store.Get(ctx, "exec-1")
	if second.State != ExecutionPending {
		t.Errorf("stored state mutated through copy: %s", second.State)
	}
	if second.Steps["a"].State != StepPending {
		t.Errorf("stored step mutated through copy: %s", second.Steps["a"].State)
	}
	if second.Inputs["env"] != "staging" {
		t.Errorf("stored inputs mutated through copy: %v", second.Inputs["env"])
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exec := storedExecution(fmt.Sprintf("exec-%d", i))
		exec.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if err := store.Create(ctx, exec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	out := store.List(ctx, nil)
	if len(out) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(out))
	}
	if out[0].ID != "exec-2" || out[2].ID != "exec-0" {
		t.Errorf("expected newest first, got %s, %s, %s", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestStoreListFiltersAndLimits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		exec := storedExecution(fmt.Sprintf("exec-%d", i))
		exec.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if i%2 == 0 {
			exec.State = ExecutionCompleted
		}
		if err := store.Create(ctx, exec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	completed := ExecutionCompleted
	out := store.List(ctx, &Query{State: &completed})
	if len(out) != 2 {
		t.Fatalf("expected 2 completed executions, got %d", len(out))
	}
	for _, exec := range out {
		if exec.State != ExecutionCompleted {
			t.Errorf("filter leaked state %s", exec.State)
		}
	}

	out = store.List(ctx, &Query{Limit: 3})
	if len(out) != 3 {
		t.Errorf("expected limit of 3, got %d", len(out))
	}
	if out[0].ID != "exec-3" {
		t.Errorf("limit must keep newest, got %s", out[0].ID)
	}
}

func TestStoreCancelSetsFlag(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	exec := storedExecution("exec-1")
	exec.State = ExecutionRunning
	if err := store.Create(ctx, exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Cancel(ctx, "exec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.cancelRequested("exec-1") {
		t.Error("expected cancel flag set")
	}

	var nf *errors.NotFoundError
	if err := store.Cancel(ctx, "exec-ghost"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestStoreCancelTerminalIsNoop(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	exec := storedExecution("exec-1")
	exec.State = ExecutionCompleted
	if err := store.Create(ctx, exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Cancel(ctx, "exec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.cancelRequested("exec-1") {
		t.Error("terminal execution must not get the cancel flag")
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Delete(ctx, "exec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "exec-1"); err == nil {
		t.Error("expected deleted execution to be gone")
	}
	var nf *errors.NotFoundError
	if err := store.Delete(ctx, "exec-1"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError on double delete, got %v", err)
	}
}

func TestStoreStepTransitions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.markStepRunning("exec-1", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := store.Get(ctx, "exec-1")
	if got.Steps["a"].State != StepRunning || got.Steps["a"].StartedAt == nil {
		t.Errorf("unexpected step record: %+v", got.Steps["a"])
	}
	if len(got.CurrentSteps) != 1 || got.CurrentSteps[0] != "a" {
		t.Errorf("unexpected current steps: %v", got.CurrentSteps)
	}

	err := store.settleStep("exec-1", stepResult{
		stepID:   "a",
		state:    StepCompleted,
		attempts: 2,
		result:   map[string]interface{}{"ok": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = store.Get(ctx, "exec-1")
	se := got.Steps["a"]
	if se.State != StepCompleted || se.Attempts != 2 || se.CompletedAt == nil {
		t.Errorf("unexpected settled step: %+v", se)
	}
	if se.Result["ok"] != true {
		t.Errorf("unexpected result: %v", se.Result)
	}
	if len(got.CurrentSteps) != 0 {
		t.Errorf("settled step must leave current set, got %v", got.CurrentSteps)
	}
}

func TestStoreRecordStepAttempt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Create(ctx, storedExecution("exec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.markStepRunning("exec-1", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		if err := store.recordStepAttempt("exec-1", "a", attempt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := store.Get(ctx, "exec-1")
		if got.Steps["a"].Attempts != attempt {
			t.Errorf("expected %d attempts mid-retry, got %d", attempt, got.Steps["a"].Attempts)
		}
		if got.Steps["a"].State != StepRunning {
			t.Errorf("recording an attempt must not settle the step, got %s", got.Steps["a"].State)
		}
	}

	var nf *errors.NotFoundError
	if err := store.recordStepAttempt("exec-missing", "a", 1); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
