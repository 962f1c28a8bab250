package cli

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/spf13/cobra"
)

func newActivityCmd(flags *globalFlags) *cobra.Command {
	var (
		days   int
		taskID string
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if days <= 0 {
				days = e.cfg.ActivityDays
			}
			loc := e.app.Store.Location()
			now := e.app.Engine.Now().In(loc)
			tf := activity.Timeframe{
				Start: ordering.StartOfDay(now.AddDate(0, 0, -(days - 1))),
				End:   ordering.EndOfDay(now),
			}

			entries, err := e.app.ActivityLog(cmd.Context(), tf, taskID)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: showing local activity only: %v\n", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks.")
				return nil
			}
			for i := len(entries) - 1; i >= 0; i-- {
				a := entries[i]
				mark := ""
				if a.IsTemporary() {
					mark = " (pending)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s%s\n", a.Date.In(loc).Format(time.DateTime), a.Title, mark)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Number of days to show (default from config)")
	cmd.Flags().StringVar(&taskID, "task", "", "Only show completions of one task")
	return cmd
}
