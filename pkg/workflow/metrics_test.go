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
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.incStarted("wf")
	m.incFinished("wf", ExecutionCompleted)
	m.observeStep("op.a", StepCompleted, 0)
	m.incRetry("op.a")
}

func TestMetricsCountExecutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	mock := newMockExecutor()
	mock.failures["op.b"] = errors.New("boom")
	engine := New(mock).WithMetrics(metrics)

	tmpl := &Template{
		ID:       "wf",
		Rollback: RollbackNone,
		Steps: []StepDefinition{
			step("a"),
			step("b", "a"),
		},
	}
	if err := engine.RegisterWorkflow(tmpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exec := runToCompletion(t, engine, "wf", nil)
	if exec.State != ExecutionFailed {
		t.Fatalf("expected failed, got %s", exec.State)
	}

	started := testutil.ToFloat64(metrics.executionsStarted.WithLabelValues("wf"))
	if started != 1 {
		t.Errorf("expected 1 started, got %v", started)
	}
	finished := testutil.ToFloat64(metrics.executionsFinished.WithLabelValues("wf", string(ExecutionFailed)))
	if finished != 1 {
		t.Errorf("expected 1 failed finish, got %v", finished)
	}
	retries := testutil.ToFloat64(metrics.stepRetries.WithLabelValues("op.b"))
	if retries < 1 {
		t.Errorf("expected failed attempts counted, got %v", retries)
	}
}
