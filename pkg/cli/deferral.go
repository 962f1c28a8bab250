package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harrisonrobin/nextup/pkg/app"
	"github.com/harrisonrobin/nextup/pkg/reconcile"
	"github.com/spf13/cobra"
)

func newButtonsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "buttons [task-id]",
		Short: "Show the defer ladder for a task",
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
			buttons, err := e.app.Buttons(id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BUTTON\tAT\tCOMING DUE")
			for _, b := range buttons {
				if b.Disabled {
					continue
				}
				due := ""
				if b.Count > 0 {
					due = fmt.Sprintf("%d (max p%d)", b.Count, 5-b.Priority)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Text, b.Value, due)
			}
			return w.Flush()
		},
	}
}

func newDeferCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "defer <task-id> <button|time>",
		Short: "Defer a task to a ladder button (\"15 min\", \"tomorrow\") or a time (\"at 5pm\")",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			id, target := args[0], strings.Join(args[1:], " ")
			res := e.app.DeferButton(cmd.Context(), id, target)
			if errors.Is(res.Err, app.ErrUnknownButton) {
				res = deferToText(cmd, e, id, target)
			}
			if res.Status == reconcile.StatusError {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deferred %s to %s.\n", id, target)
			return nil
		},
	}
}

// deferToText places the time of day in text on today, or tomorrow once it has passed.
func deferToText(cmd *cobra.Command, e *env, id, text string) reconcile.Result {
	now := e.app.Engine.Now().In(e.app.Store.Location())
	_, at, ok := e.app.Engine.Extractor().Project(text, now)
	if !ok {
		return reconcile.Result{Status: reconcile.StatusError, Err: fmt.Errorf("could not read a time from %q", text)}
	}
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return e.app.Defer(cmd.Context(), id, at, false)
}
