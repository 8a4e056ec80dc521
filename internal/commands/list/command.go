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

package list

import (
	"fmt"
	"text/tabwriter"

	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/batonflow/baton/internal/loader"
	"github.com/batonflow/baton/pkg/workflow"
	"github.com/spf13/cobra"
)

// NewCommand creates the list command
func NewCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List workflow templates in a directory",
		Long: `List loads every workflow template in a directory and prints a summary.
Templates that fail validation abort the listing with the offending file.`,
		Example: `  # List templates
  baton list ./workflows

  # Only one category
  baton list ./workflows --category deploy`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0], category)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by template category")
	return cmd
}

// collector gathers templates without an engine behind it.
type collector struct {
	registry *workflow.Registry
}

func (c *collector) RegisterWorkflow(tmpl *workflow.Template) error {
	return c.registry.Register(tmpl)
}

func (c *collector) ReplaceWorkflow(tmpl *workflow.Template) error {
	return c.registry.Replace(tmpl)
}

type listResponse struct {
	shared.JSONResponse
	Workflows []templateSummary `json:"workflows"`
}

type templateSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Steps    int    `json:"steps"`
	Rollback string `json:"rollback"`
}

func runList(cmd *cobra.Command, dir, category string) error {
	target := &collector{registry: workflow.NewRegistry()}
	if _, err := loader.New(target, nil).LoadDir(dir); err != nil {
		return shared.NewInvalidWorkflowError(fmt.Sprintf("failed to load templates from %s", dir), err)
	}

	templates := target.registry.List(category)

	if shared.GetJSON() {
		summaries := make([]templateSummary, 0, len(templates))
		for _, tmpl := range templates {
			summaries = append(summaries, templateSummary{
				ID:       tmpl.ID,
				Name:     tmpl.Name,
				Category: tmpl.Category,
				Steps:    len(tmpl.Steps),
				Rollback: string(tmpl.Rollback),
			})
		}
		return shared.EmitJSON(listResponse{
			JSONResponse: shared.JSONResponse{
				Version: "1.0",
				Command: "list",
				Success: true,
			},
			Workflows: summaries,
		})
	}

	if len(templates) == 0 {
		cmd.Println("no workflows found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTEPS\tROLLBACK")
	for _, tmpl := range templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			tmpl.ID, tmpl.Name, tmpl.Category, len(tmpl.Steps), tmpl.Rollback)
	}
	return w.Flush()
}
