package cli

import (
	"fmt"

	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/spf13/cobra"
)

func newAgendaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "agenda [today|tomorrow]",
		Short:     "Show the timed tasks of a day; * marks items close to the one before",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"today", "tomorrow"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			hash := ordering.TodayHash
			if len(args) > 0 && args[0] == "tomorrow" {
				hash = ordering.TomorrowHash
			}
			tasks := e.app.Agenda(hash)
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing scheduled.")
				return nil
			}
			snap := e.app.Store.Snapshot()
			for _, t := range tasks {
				printTask(cmd.OutOrStdout(), e.app.Engine, t, snap.Contexts, snap.Location)
			}
			return nil
		},
	}
}
