package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wadjakorntonsri/linkvault/pkg/config"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

var (
	v   = viper.New()
	cfg *config.Config

	verbose      bool
	forceOffline bool
)

var rootCmd = &cobra.Command{
	Use:   "linkvault",
	Short: "Offline-first bookmark manager",
	Long: `linkvault keeps a local snapshot of your links, so listing works without a
network and the last known list is shown instantly.

Point --api-url at the CRUD endpoint, or at a linkvault-proxy to get cached
reads and background resynchronization.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadWith(v)
		logger.Init(cfg.AppEnv)
		if !verbose {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("api-url", "", "CRUD endpoint URL (API_URL)")
	f.String("proxy-url", "", "proxy control URL (PROXY_URL)")
	f.String("local-store", "", "local store database URL, or 'memory' (LOCAL_STORE_URL)")
	f.String("database-url", "", "backend database URL for db commands (DATABASE_URL)")
	f.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	f.BoolVar(&forceOffline, "offline", false, "start offline without probing the network")

	for key, flag := range map[string]string{
		"API_URL":         "api-url",
		"PROXY_URL":       "proxy-url",
		"LOCAL_STORE_URL": "local-store",
		"DATABASE_URL":    "database-url",
	} {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
