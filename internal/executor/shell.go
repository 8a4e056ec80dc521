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

package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// shellGroup runs local shell commands.
type shellGroup struct {
	workingDir string
	timeout    time.Duration
}

func (g *shellGroup) execute(ctx context.Context, name string, params map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "run":
		return g.run(ctx, params)
	default:
		return nil, fmt.Errorf("unknown shell operation: %s", name)
	}
}

// run executes a shell command. "command" is either a string run via
// `sh -c` or an array executed directly.
func (g *shellGroup) run(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var cmd *exec.Cmd
	command, ok := params["command"]
	if !ok {
		return nil, fmt.Errorf("command is required")
	}
	switch v := command.(type) {
	case string:
		cmd = exec.CommandContext(ctx, "sh", "-c", v)
	case []interface{}:
		args := make([]string, len(v))
		for i, arg := range v {
			args[i] = fmt.Sprintf("%v", arg)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("command array is empty")
		}
		cmd = exec.CommandContext(ctx, args[0], args[1:]...)
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("command array is empty")
		}
		cmd = exec.CommandContext(ctx, v[0], v[1:]...)
	default:
		return nil, fmt.Errorf("command must be string or array, got %T", command)
	}

	if g.workingDir != "" {
		cmd.Dir = g.workingDir
	}
	if dir, ok := params["dir"].(string); ok && dir != "" {
		cmd.Dir = dir
	}

	// Preserve system environment and add custom variables
	if env, ok := params["env"].(map[string]interface{}); ok {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%v", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return nil, fmt.Errorf("command failed (exit %d): %s", exitCode, errMsg)
	}

	return map[string]interface{}{
		"stdout":      strings.TrimSpace(stdout.String()),
		"stderr":      strings.TrimSpace(stderr.String()),
		"exit_code":   0,
		"duration_ms": duration.Milliseconds(),
	}, nil
}
