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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instrumentation.
// A nil *Metrics is valid and records nothing, so the engine can run
// without a registry in tests and embedded use.
type Metrics struct {
	executionsStarted  *prometheus.CounterVec
	executionsFinished *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec
	stepRetries        *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baton",
			Name:      "executions_started_total",
			Help:      "Workflow executions started, by workflow id.",
		}, []string{"workflow"}),
		executionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baton",
			Name:      "executions_finished_total",
			Help:      "Workflow executions reaching a terminal state, by workflow id and state.",
		}, []string{"workflow", "state"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "baton",
			Name:      "step_duration_seconds",
			Help:      "Step operation duration, by operation and settled state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "state"}),
		stepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baton",
			Name:      "step_attempt_failures_total",
			Help:      "Failed step attempts, by operation.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.executionsStarted, m.executionsFinished, m.stepDuration, m.stepRetries)
	return m
}

func (m *Metrics) incStarted(workflowID string) {
	if m == nil {
		return
	}
	m.executionsStarted.WithLabelValues(workflowID).Inc()
}

func (m *Metrics) incFinished(workflowID string, state ExecutionState) {
	if m == nil {
		return
	}
	m.executionsFinished.WithLabelValues(workflowID, string(state)).Inc()
}

func (m *Metrics) observeStep(operation string, state StepState, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(operation, string(state)).Observe(d.Seconds())
}

func (m *Metrics) incRetry(operation string) {
	if m == nil {
		return
	}
	m.stepRetries.WithLabelValues(operation).Inc()
}
