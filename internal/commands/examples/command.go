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

// Package examples implements the examples command group: browse, view,
// and copy the workflow templates embedded in the binary.
package examples

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/batonflow/baton/internal/examples"
)

// NewCommand creates the examples command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Manage example workflows",
		Long: `Browse, view, and copy example workflows.

Examples are embedded in the Baton binary and work offline. They
demonstrate dependency ordering, parallel steps, retry policies,
conditions, and rollback handlers.`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newCopyCmd())

	// Default to list when no subcommand is given
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return newListCmd().RunE(cmd, args)
	}

	return cmd
}

type listResponse struct {
	shared.JSONResponse
	Examples []examples.Example `json:"examples"`
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available example workflows",
		Example: `  # List all examples
  baton examples list

  # Machine-readable listing
  baton examples list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := examples.List()
			if err != nil {
				return fmt.Errorf("failed to list examples: %w", err)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(listResponse{
					JSONResponse: shared.JSONResponse{
						Version: "1.0",
						Command: "examples list",
						Success: true,
					},
					Examples: list,
				})
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, ex := range list {
				fmt.Fprintf(w, "%s\t%s\n", ex.Name, ex.Description)
			}
			w.Flush()

			fmt.Println()
			fmt.Println("Use 'baton examples show <name>' to view an example")
			fmt.Println("Use 'baton examples copy <name> <dest>' to copy one into place")
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Display an example workflow",
		Example: `  # View an example workflow
  baton examples show hello-world

  # Save it as a starting point
  baton examples show deploy > my-deploy.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := examples.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Print(string(content))
			return nil
		},
	}
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <name> <dest>",
		Short: "Copy an example workflow to a file",
		Example: `  # Copy an example into the current directory
  baton examples copy deploy ./deploy.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, dest := args[0], args[1]
			if err := examples.CopyTo(name, dest); err != nil {
				return err
			}
			if !shared.GetQuiet() {
				fmt.Printf("Copied example %q to %s\n", name, dest)
			}
			return nil
		},
	}
}
