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

package cli

import (
	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/spf13/cobra"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for Baton
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baton",
		Short: "Baton - declarative workflow orchestration",
		Long: `Baton executes declarative multi-step workflows defined in YAML.
Steps form a dependency graph; Baton schedules them in order, runs
independent steps in parallel, retries transient failures, and rolls
back completed work when a workflow fails.

Run 'baton run workflow.yaml' to execute a workflow.
Run 'baton validate workflow.yaml' to check one without executing it.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")

	return cmd
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
