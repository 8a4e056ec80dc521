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

package run

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/batonflow/baton/internal/executor"
	"github.com/batonflow/baton/internal/history"
	"github.com/batonflow/baton/internal/loader"
	"github.com/batonflow/baton/internal/log"
	pkgerrors "github.com/batonflow/baton/pkg/errors"
	"github.com/batonflow/baton/pkg/workflow"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var (
		inputs      []string
		historyPath string
		rps         float64
		burst       int
	)

	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Execute a workflow",
		Long: `Run executes a workflow file and blocks until it settles. Steps run in
dependency order; steps marked parallel run concurrently once their
dependencies are satisfied. A first interrupt (Ctrl-C) requests
cooperative cancellation: running steps finish, no new steps start, and
the configured rollback strategy is applied.

Exit codes:
  0  workflow completed
  1  workflow failed or was cancelled
  2  workflow file is invalid
  3  required input missing or mistyped`,
		Example: `  # Run a workflow
  baton run deploy.yaml

  # Pass inputs
  baton run deploy.yaml --input env=staging --input replicas=3

  # Keep an archive of settled executions
  baton run deploy.yaml --history ~/.baton/history.db

  # Throttle operations to 2 per second
  baton run deploy.yaml --rps 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], inputs, historyPath, rps, burst)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Workflow input as key=value (repeatable)")
	cmd.Flags().StringVar(&historyPath, "history", "", "Path to a SQLite archive for settled executions")
	cmd.Flags().Float64Var(&rps, "rps", 0, "Rate-limit operations to this many per second (0 = unlimited)")
	cmd.Flags().IntVar(&burst, "burst", 1, "Burst size for --rps")

	return cmd
}

func runWorkflow(cmd *cobra.Command, path string, inputFlags []string, historyPath string, rps float64, burst int) error {
	tmpl, err := loader.LoadFile(path)
	if err != nil {
		return shared.NewInvalidWorkflowError(fmt.Sprintf("workflow %s is invalid", path), err)
	}

	inputs, err := parseInputs(inputFlags)
	if err != nil {
		return shared.NewMissingInputError("invalid --input", err)
	}

	logger := log.New(log.FromEnv())
	if shared.GetQuiet() && !shared.GetVerbose() {
		logger = log.New(&log.Config{Level: "error", Output: cmd.ErrOrStderr()})
	}

	var opExecutor workflow.OperationExecutor = executor.New(executor.Config{Logger: logger})
	if rps > 0 {
		opExecutor = workflow.NewRateLimitedExecutor(opExecutor, rps, burst)
	}

	engine := workflow.New(opExecutor).WithLogger(logger)
	defer engine.Close(context.Background())

	if historyPath != "" {
		archive, err := history.Open(history.Config{Path: historyPath})
		if err != nil {
			return shared.NewExecutionError("failed to open history archive", err)
		}
		defer archive.Close()
		engine = engine.WithHistory(archive)
	}

	if err := engine.RegisterWorkflow(tmpl); err != nil {
		return shared.NewInvalidWorkflowError(fmt.Sprintf("workflow %s is invalid", path), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exec, err := engine.ExecuteWorkflow(ctx, tmpl.ID, inputs)
	if err != nil {
		var validationErr *pkgerrors.ValidationError
		if pkgerrors.As(err, &validationErr) {
			return shared.NewMissingInputError("input validation failed", err)
		}
		return shared.NewExecutionError("failed to start workflow", err)
	}

	// On interrupt, request cancellation and keep waiting: running steps
	// finish and rollback runs before the process exits.
	go func() {
		<-ctx.Done()
		engine.CancelWorkflow(context.Background(), exec.ID)
	}()

	final, err := engine.WaitForExecution(context.Background(), exec.ID)
	if err != nil {
		return shared.NewExecutionError("failed to wait for execution", err)
	}

	if shared.GetJSON() {
		if err := emitResult(final); err != nil {
			return err
		}
	} else {
		printResult(cmd, final)
	}

	switch final.State {
	case workflow.ExecutionCompleted:
		return nil
	case workflow.ExecutionCancelled:
		return shared.NewExecutionError(fmt.Sprintf("execution %s was cancelled", final.ID), nil)
	default:
		return shared.NewExecutionError(fmt.Sprintf("execution %s failed: %s", final.ID, final.Error), nil)
	}
}

// parseInputs converts repeated key=value flags into an input map.
// Values decode as YAML scalars so `replicas=3` arrives as a number and
// `notify=true` as a boolean; quote the value to force a string.
func parseInputs(flags []string) (map[string]interface{}, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	inputs := make(map[string]interface{}, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("input %q is not key=value", f)
		}
		if value == "" {
			inputs[key] = ""
			continue
		}
		var typed interface{}
		if err := yaml.Unmarshal([]byte(value), &typed); err != nil {
			typed = value
		}
		inputs[key] = typed
	}
	return inputs, nil
}

type runResponse struct {
	shared.JSONResponse
	Execution *workflow.Execution `json:"execution"`
}

func emitResult(exec *workflow.Execution) error {
	return shared.EmitJSON(runResponse{
		JSONResponse: shared.JSONResponse{
			Version: "1.0",
			Command: "run",
			Success: exec.State == workflow.ExecutionCompleted,
		},
		Execution: exec,
	})
}

func printResult(cmd *cobra.Command, exec *workflow.Execution) {
	if shared.GetQuiet() {
		return
	}

	cmd.Printf("execution %s: %s\n", exec.ID, exec.State)
	if exec.Error != "" {
		cmd.Printf("  error: %s\n", exec.Error)
	}

	ids := make([]string, 0, len(exec.Steps))
	for id := range exec.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		se := exec.Steps[id]
		line := fmt.Sprintf("  %-20s %s", id, se.State)
		if se.Attempts > 1 {
			line += fmt.Sprintf(" (%d attempts)", se.Attempts)
		}
		if se.Error != "" {
			line += " - " + se.Error
		}
		cmd.Println(line)
	}
}
