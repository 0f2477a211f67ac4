package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"safetalk/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var (
		configPath       string
		logLevel         string
		listen           string
		admin            string
		queueDepth       int
		handshakeTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Pair two chat clients and forward their encrypted frames",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = app.LoadConfig(configPath); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Relay.Listen = listen
			}
			if flags.Changed("admin") {
				cfg.Relay.Admin = admin
			}
			if flags.Changed("queue-depth") {
				cfg.Relay.QueueDepth = queueDepth
			}
			if flags.Changed("handshake-timeout") {
				cfg.Relay.HandshakeTimeout = handshakeTimeout
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := app.ConfigureLogging(logrus.StandardLogger(), cfg.Log); err != nil {
				return err
			}

			r, err := app.NewRelay(cfg, logrus.NewEntry(logrus.StandardLogger()))
			if err != nil {
				return err
			}
			return r.Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML configuration file")
	f.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&listen, "listen", ":5555", "TCP address for chat clients")
	f.StringVar(&admin, "admin", "127.0.0.1:8081", "admin HTTP address, empty to disable")
	f.IntVar(&queueDepth, "queue-depth", 128, "pending writes buffered per peer")
	f.DurationVar(&handshakeTimeout, "handshake-timeout", 0, "limit for nickname and key from a new connection (0 = none)")
	return cmd
}
