package cli

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/nextup/pkg/reconcile"
	"github.com/spf13/cobra"
)

func newNextCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the task to do now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(cmd, flags)
		},
	}
}

func runNext(cmd *cobra.Command, flags *globalFlags) error {
	e, err := openEnv(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	cur := e.app.Current()
	if cur == nil {
		fmt.Fprintln(out, "Nothing due.")
		return nil
	}
	e.app.Selector.Wait()
	snap := e.app.Store.Snapshot()
	printTask(out, e.app.Engine, cur, snap.Contexts, snap.Location)
	if cur.Description != "" {
		fmt.Fprintf(out, "\n  %s\n", strings.ReplaceAll(cur.Description, "\n", "\n  "))
	}
	for _, c := range snap.Comments[cur.ID] {
		fmt.Fprintf(out, "  > %s\n", c.Content)
	}
	if n := len(snap.Due) - 1; n > 0 {
		fmt.Fprintf(out, "\n%d more due.\n", n)
	}
	return nil
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the due tasks in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			tasks := e.app.Due()
			if upcoming {
				tasks = e.app.Upcoming()
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
				return nil
			}
			snap := e.app.Store.Snapshot()
			for _, t := range tasks {
				printTask(cmd.OutOrStdout(), e.app.Engine, t, snap.Contexts, snap.Location)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "List everything due before the end of tomorrow, latest first")
	return cmd
}

func newDoneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Complete a task (the current one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := taskArg(e, args)
			if err != nil {
				return err
			}
			if res := e.app.Done(cmd.Context(), id); res.Status == reconcile.StatusError {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s.\n", id)
			if next := e.app.Current(); next != nil {
				snap := e.app.Store.Snapshot()
				fmt.Fprint(cmd.OutOrStdout(), "Next: ")
				printTask(cmd.OutOrStdout(), e.app.Engine, next, snap.Contexts, snap.Location)
			}
			return nil
		},
	}
}

// taskArg returns the task named on the command line, or the current task.
func taskArg(e *env, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cur := e.app.Current()
	if cur == nil {
		return "", fmt.Errorf("nothing is due; name a task id")
	}
	return cur.ID, nil
}

func newContextCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "context [project-id]",
		Short: "Only show tasks from one project; no argument clears the filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			d, err := e.app.SelectContext(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case id == "":
				fmt.Fprintln(out, "Showing all projects.")
			case d.FilterCleared:
				fmt.Fprintln(out, "No more tasks in context; showing all projects.")
			default:
				fmt.Fprintf(out, "Showing %s.\n", id)
			}
			return nil
		},
	}
}
