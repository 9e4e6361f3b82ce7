package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/taskwing/internal/persist"
	"github.com/user/taskwing/internal/store"
	"github.com/user/taskwing/internal/types"
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskDeleteCmd)

	taskAddCmd.Flags().String("title", "", "task title (required)")
	taskAddCmd.Flags().String("desc", "", "task description")
	taskAddCmd.Flags().String("priority", "medium", "priority: low, medium, or high")
	_ = taskAddCmd.MarkFlagRequired("title")

	taskListCmd.Flags().String("status", "", "filter by status: open or done")
}

// openStore loads the persisted snapshot into a fresh store. Management
// subcommands operate on the snapshot directly, offline.
func openStore() (*store.Store, *persist.Gateway, error) {
	cfg := loadConfig()
	pg := persist.New(cfg.SnapshotPath())
	snap, err := pg.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	st := store.New()
	st.Restore(snap)
	return st, pg, nil
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("desc")
		priority, _ := cmd.Flags().GetString("priority")

		st, pg, err := openStore()
		if err != nil {
			return err
		}
		task, err := st.AddTask(title, desc, types.ParsePriority(priority))
		if err != nil {
			return fmt.Errorf("add task: %w", err)
		}
		if err := pg.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Task #%d added: %s\n", task.ID, task.Title)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFlag, _ := cmd.Flags().GetString("status")
		var status types.TaskStatus
		if statusFlag != "" {
			parsed, ok := types.ParseTaskStatus(statusFlag)
			if !ok {
				return fmt.Errorf("unknown status %q (use open or done)", statusFlag)
			}
			status = parsed
		}

		st, _, err := openStore()
		if err != nil {
			return err
		}
		tasks := st.ListTasks(status)
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tTITLE\tCREATED")
		for _, t := range tasks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				t.ID,
				t.Status,
				t.Priority,
				t.Title,
				t.CreatedAt.Format(time.DateOnly),
			)
		}
		return w.Flush()
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id: %s", args[0])
		}
		st, pg, err := openStore()
		if err != nil {
			return err
		}
		if _, err := st.SetTaskStatus(id, types.TaskDone); err != nil {
			return fmt.Errorf("mark done: %w", err)
		}
		if err := pg.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Task #%d marked as done.\n", id)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id: %s", args[0])
		}
		st, pg, err := openStore()
		if err != nil {
			return err
		}
		if err := st.DeleteTask(id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if err := pg.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Task #%d deleted.\n", id)
		return nil
	},
}
