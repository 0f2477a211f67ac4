package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"safetalk/internal/app"
)

// status: print the relay's room as reported by its admin endpoint.
func statusCmd() *cobra.Command {
	var admin string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the relay's room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if admin == "" {
				admin = "http://" + cfg.Relay.Admin
			}
			w, err := app.NewWire(cfg, logger())
			if err != nil {
				return err
			}
			st, err := w.StatusClient(admin).FetchStatus(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLOT\tSTATE\tNICKNAME\tFINGERPRINT")
			for _, s := range st.Slots {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Index, s.State, dash(s.Nickname), dash(string(s.Fingerprint)))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exchanged=%t pairings=%d free=%d\n", st.Exchanged, st.Pairings, st.Free())
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "relay admin base URL (default from relay.admin)")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
