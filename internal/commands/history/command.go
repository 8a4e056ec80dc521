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

package history

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/batonflow/baton/internal/commands/shared"
	"github.com/batonflow/baton/internal/history"
	"github.com/batonflow/baton/pkg/workflow"
	"github.com/spf13/cobra"
)

// NewCommand creates the history command group
func NewCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived executions",
		Long: `History reads the SQLite archive written by 'baton run --history' and
lists, shows, or prunes settled executions.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the history database (required)")
	cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newListCommand(&dbPath))
	cmd.AddCommand(newShowCommand(&dbPath))
	cmd.AddCommand(newPruneCommand(&dbPath))
	return cmd
}

func newListCommand(dbPath *string) *cobra.Command {
	var (
		workflowID string
		state      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived executions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := history.Open(history.Config{Path: *dbPath})
			if err != nil {
				return shared.NewExecutionError("failed to open history archive", err)
			}
			defer archive.Close()

			filter := history.Filter{WorkflowID: workflowID, Limit: limit}
			if state != "" {
				s := workflow.ExecutionState(state)
				filter.State = &s
			}

			execs, err := archive.List(cmd.Context(), filter)
			if err != nil {
				return shared.NewExecutionError("failed to list executions", err)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(struct {
					shared.JSONResponse
					Executions []*workflow.Execution `json:"executions"`
				}{
					JSONResponse: shared.JSONResponse{Version: "1.0", Command: "history list", Success: true},
					Executions:   execs,
				})
			}

			if len(execs) == 0 {
				cmd.Println("no executions found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWORKFLOW\tSTATE\tCREATED\tERROR")
			for _, exec := range execs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					exec.ID, exec.WorkflowID, exec.State,
					exec.CreatedAt.Format(time.RFC3339), exec.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "Filter by workflow id")
	cmd.Flags().StringVarP(&state, "state", "s", "", "Filter by terminal state (completed, failed, cancelled)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of executions to list")
	return cmd
}

func newShowCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <execution-id>",
		Short: "Show one archived execution in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := history.Open(history.Config{Path: *dbPath})
			if err != nil {
				return shared.NewExecutionError("failed to open history archive", err)
			}
			defer archive.Close()

			exec, err := archive.Get(cmd.Context(), args[0])
			if err != nil {
				return shared.NewExecutionError("failed to load execution", err)
			}
			return shared.EmitJSON(exec)
		},
	}
}

func newPruneCommand(dbPath *string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archived executions older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := history.Open(history.Config{Path: *dbPath})
			if err != nil {
				return shared.NewExecutionError("failed to open history archive", err)
			}
			defer archive.Close()

			n, err := archive.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return shared.NewExecutionError("failed to prune executions", err)
			}
			if !shared.GetQuiet() {
				cmd.Printf("pruned %d executions\n", n)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete executions created earlier than now minus this duration")
	return cmd
}
