package cli

import (
	"fmt"
	"path/filepath"

	"github.com/harrisonrobin/nextup/pkg/auth"
	"github.com/harrisonrobin/nextup/pkg/colors"
	"github.com/harrisonrobin/nextup/pkg/config"
	"github.com/harrisonrobin/nextup/pkg/google"
	"github.com/harrisonrobin/nextup/pkg/index"
	"github.com/spf13/cobra"
)

func newMirrorCmd(flags *globalFlags) *cobra.Command {
	var login bool
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror today's agenda and completions to a Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			dir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			srv, err := auth.GetCalendarService(ctx, dir, login)
			if err != nil {
				return fmt.Errorf("%w (credentials are read from %s; run with --login to authorize)", err, filepath.Join(dir, auth.ClientSecretsFile))
			}
			calendarID, err := google.FindCalendar(ctx, srv, e.cfg.Calendar)
			if err != nil {
				return err
			}

			idx, err := index.NewEventIndex(e.kv)
			if err != nil {
				return err
			}
			cc, err := colors.NewColorCache(e.kv)
			if err != nil {
				return err
			}

			snap := e.app.Store.Snapshot()
			client := google.NewCalendarClient(srv, calendarID, idx, cc)
			stats, err := client.Mirror(ctx, e.app.Engine, google.MirrorInput{
				Tasks:    snap.Tasks,
				Contexts: snap.Contexts,
				Activity: snap.Activity,
				Location: snap.Location,
				Now:      e.app.Engine.Now(),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d events to %q, removed %d.\n", stats.Synced, e.cfg.Calendar, stats.Removed)
			return err
		},
	}
	cmd.Flags().BoolVar(&login, "login", false, "Run the browser authorization flow if no Google token is cached")
	return cmd
}
