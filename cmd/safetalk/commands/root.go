package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"safetalk/internal/app"
)

var (
	configPath string
	logLevel   string
	cfg        *app.Config
)

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return newRoot().ExecuteContext(ctx)
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "safetalk",
		Short:         "Encrypted one-to-one chat through a relay",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c := app.DefaultConfig()
			if configPath != "" {
				var err error
				if c, err = app.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if logLevel != "" {
				c.Log.Level = logLevel
			}
			if err := app.ConfigureLogging(logrus.StandardLogger(), c.Log); err != nil {
				return err
			}
			logrus.SetOutput(cmd.ErrOrStderr())
			cfg = c
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(chatCmd(), statusCmd(), configCmd())
	return root
}

func logger() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}
