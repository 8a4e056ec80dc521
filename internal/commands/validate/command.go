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

package validate

import (
	"fmt"

	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/batonflow/baton/internal/loader"
	pkgerrors "github.com/batonflow/baton/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workflow>",
		Short: "Validate a workflow template file",
		Long: `Validate checks that a workflow file has valid YAML syntax and a
well-formed dependency graph: unique step ids, resolvable depends_on
references, no cycles, and a known rollback strategy. Validation never
executes any step.`,
		Example: `  # Basic validation
  baton validate deploy.yaml

  # Validation with JSON output for parsing
  baton validate deploy.yaml --json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runValidate,
	}
	return cmd
}

type validateResponse struct {
	shared.JSONResponse
	Workflow *workflowSummary `json:"workflow,omitempty"`
}

type workflowSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Steps    int    `json:"steps"`
	Rollback string `json:"rollback"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	useJSON := shared.GetJSON()

	tmpl, err := loader.LoadFile(path)
	if err != nil {
		if useJSON {
			jsonErr := shared.JSONError{
				Code:    shared.ErrorCodeInvalidWorkflow,
				Message: err.Error(),
			}
			var validationErr *pkgerrors.ValidationError
			if pkgerrors.As(err, &validationErr) {
				jsonErr.Suggestion = validationErr.Suggestion
			}
			shared.EmitJSONError("validate", []shared.JSONError{jsonErr})
		}
		return shared.NewInvalidWorkflowError(fmt.Sprintf("workflow %s is invalid", path), err)
	}

	if useJSON {
		return shared.EmitJSON(validateResponse{
			JSONResponse: shared.JSONResponse{
				Version: "1.0",
				Command: "validate",
				Success: true,
			},
			Workflow: &workflowSummary{
				ID:       tmpl.ID,
				Name:     tmpl.Name,
				Steps:    len(tmpl.Steps),
				Rollback: string(tmpl.Rollback),
			},
		})
	}

	if !shared.GetQuiet() {
		cmd.Printf("%s is valid\n", path)
		cmd.Printf("  workflow: %s (%d steps, rollback: %s)\n", tmpl.ID, len(tmpl.Steps), tmpl.Rollback)
	}
	return nil
}
