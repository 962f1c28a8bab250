package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var logout bool
	cmd := &cobra.Command{
		Use:   "token [api-token]",
		Short: "Store the task API token, or --logout to forget it and the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if logout {
				offline := *flags
				offline.offline = true
				e, err := openEnv(cmd.Context(), &offline)
				if err != nil {
					return err
				}
				defer e.Close()
				if err := e.app.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Logged out.")
				return nil
			}

			_, kv, err := openStore(flags)
			if err != nil {
				return err
			}
			defer kv.Close()

			switch {
			case len(args) == 1:
				if err := kv.SetToken(args[0]); err != nil {
					return fmt.Errorf("failed to store token: %w", err)
				}
				fmt.Fprintln(out, "Token stored.")
			default:
				tok, err := kv.Token()
				if err != nil {
					return err
				}
				if tok == "" {
					fmt.Fprintln(out, "No token stored.")
				} else {
					fmt.Fprintln(out, "A token is stored.")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&logout, "logout", false, "Forget the token and all cached data")
	return cmd
}
