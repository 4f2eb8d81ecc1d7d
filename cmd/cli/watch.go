package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the local snapshot current, following connectivity and the proxy",
	Long: `Watch stays running as a page: it probes the endpoint for connectivity
changes, asks the proxy to resynchronize when the connection comes back and
reloads after the proxy's background sync succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			log := logger.With("watch")
			unsubscribe := a.sync.Subscribe(func(st domain.State) {
				ev := log.Info()
				if st.Error != "" {
					ev = log.Warn().Str("error", st.Error)
				}
				ev.Int("links", len(st.Links)).
					Int("folders", len(st.Folders)).
					Int("tags", len(st.Tags)).
					Bool("loading", st.IsLoading).
					Bool("online", a.monitor.IsOnline()).
					Msg("state")
			})
			defer unsubscribe()

			a.monitor.SetReloadHook(func() {
				if err := a.sync.Load(ctx); err != nil {
					log.Warn().Err(err).Msg("reload failed")
				}
			})

			if err := a.sync.Load(ctx); err != nil {
				log.Warn().Err(err).Msg("initial load")
			}

			events := make(chan domain.ConnectivityEvent)
			go a.prober.Run(ctx, a.monitor.IsOnline(), events)

			err := a.monitor.Run(ctx, events)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Tell the proxy to switch to its waiting version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if a.channel == nil {
				return errors.New("no proxy connected; set --proxy-url")
			}
			return a.monitor.InstallUpdate(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd, updateCmd)
}
