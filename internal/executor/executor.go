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

// Package executor provides the built-in local operation executor used
// by the CLI. Operations are namespaced as "<group>.<name>", e.g.
// "shell.run" or "http.get". Library embedders typically supply their
// own workflow.OperationExecutor instead.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/batonflow/baton/pkg/workflow"
)

// Config holds configuration for the local executor.
type Config struct {
	// WorkingDir is the working directory for shell commands.
	WorkingDir string

	// ShellTimeout is the per-command timeout (default: 30s).
	ShellTimeout time.Duration

	// HTTPTimeout is the per-request timeout (default: 30s).
	HTTPTimeout time.Duration

	// Logger receives log.* operation output. Default: slog.Default().
	Logger *slog.Logger
}

// LocalExecutor dispatches built-in operations on the local host.
// It implements workflow.OperationExecutor.
type LocalExecutor struct {
	config Config
	shell  *shellGroup
	http   *httpGroup
	util   *utilityGroup
}

// New creates a local executor.
func New(config Config) *LocalExecutor {
	if config.ShellTimeout == 0 {
		config.ShellTimeout = 30 * time.Second
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &LocalExecutor{
		config: config,
		shell:  &shellGroup{workingDir: config.WorkingDir, timeout: config.ShellTimeout},
		http:   newHTTPGroup(config.HTTPTimeout),
		util:   &utilityGroup{logger: config.Logger},
	}
}

// Execute dispatches an operation by its namespaced name.
func (e *LocalExecutor) Execute(ctx context.Context, operation string, params map[string]interface{}, execCtx *workflow.ExecutionContext) (map[string]interface{}, error) {
	group, name, ok := strings.Cut(operation, ".")
	if !ok {
		return nil, fmt.Errorf("operation %q is not namespaced (want <group>.<name>)", operation)
	}

	switch group {
	case "shell":
		return e.shell.execute(ctx, name, params)
	case "http":
		return e.http.execute(ctx, name, params)
	case "util", "log", "time":
		return e.util.execute(ctx, group+"."+name, params)
	default:
		return nil, fmt.Errorf("unknown operation group: %s", group)
	}
}
