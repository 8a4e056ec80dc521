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

// readySteps returns the ids of steps whose every dependency has reached
// a satisfying terminal state (completed, or skipped) and whose own state
// is pending. Ids come back in template declaration order, which is the
// stable tie-break for non-parallel dispatch.
func readySteps(tmpl *Template, steps map[string]*StepExecution) []string {
	var ready []string
	for i := range tmpl.Steps {
		def := &tmpl.Steps[i]
		se := steps[def.ID]
		if se == nil || se.State != StepPending {
			continue
		}
		satisfied := true
		for _, dep := range def.DependsOn {
			if !steps[dep].State.Satisfies() {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, def.ID)
		}
	}
	return ready
}

// nextWave selects the steps to dispatch from the ready set.
//
// Every ready step marked parallel goes out in one concurrent wave; the
// ready set can contain no dependency edges by construction, so parallel
// ready steps never need ordering between them. When no parallel step is
// ready, the first ready step in declaration order is dispatched alone.
func nextWave(tmpl *Template, ready []string) []string {
	var wave []string
	for _, id := range ready {
		if tmpl.Step(id).Parallel {
			wave = append(wave, id)
		}
	}
	if len(wave) > 0 {
		return wave
	}
	if len(ready) > 0 {
		return ready[:1]
	}
	return nil
}
