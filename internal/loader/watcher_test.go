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

package loader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/batonflow/baton/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncRegistrar is a fakeRegistrar safe for the watcher goroutine.
type syncRegistrar struct {
	mu         sync.Mutex
	registered []string
	replaced   []string
}

func (s *syncRegistrar) RegisterWorkflow(tmpl *workflow.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = append(s.registered, tmpl.ID)
	return nil
}

func (s *syncRegistrar) ReplaceWorkflow(tmpl *workflow.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, tmpl.ID)
	return nil
}

func (s *syncRegistrar) replacedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replaced)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(deployTemplate), 0o644))

	target := &syncRegistrar{}
	w, err := New(target, nil).Watch(dir)
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, []string{"deploy"}, target.registered)

	require.NoError(t, os.WriteFile(path, []byte(deployTemplate), 0o644))

	deadline := time.After(5 * time.Second)
	for target.replacedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for template reload")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatchIgnoresBrokenEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(deployTemplate), 0o644))

	target := &syncRegistrar{}
	w, err := New(target, nil).Watch(dir)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("steps: [broken"), 0o644))

	// Never replaced: the broken edit is logged and dropped.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, target.replacedCount())
}

func TestWatchMissingDir(t *testing.T) {
	target := &syncRegistrar{}
	_, err := New(target, nil).Watch(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
