// Package cli is the command-line front end.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	calendar string
	timezone string
	dataDir  string
	offline  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "nextup",
		Short: "nextup - the one task to do now",
		Long: `nextup shows the single most important task that is due right now,
and lets you complete it or defer it to a later time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runNext(cmd, flags)
	}

	rootCmd.PersistentFlags().StringVar(&flags.calendar, "calendar", "", "Google Calendar to mirror to (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.timezone, "timezone", "", "Timezone override, e.g. Europe/Berlin (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Directory of the local database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.offline, "offline", false, "Use the local cache without refreshing")

	rootCmd.AddCommand(
		newNextCmd(flags),
		newListCmd(flags),
		newDoneCmd(flags),
		newDeferCmd(flags),
		newButtonsCmd(flags),
		newActivityCmd(flags),
		newAgendaCmd(flags),
		newContextCmd(flags),
		newMirrorCmd(flags),
		newTokenCmd(flags),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd := newRootCmd()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
