package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"safetalk/internal/app"
)

// config: print the effective configuration, defaults included, or save it
// as a starting file for --config.
func configCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return cfg.WriteYAML(cmd.OutOrStdout())
			}
			if err := app.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "write", "", "write the configuration to this file instead of stdout")
	return cmd
}
