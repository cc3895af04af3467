package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rootVerbose bool

	rootCmd = &cobra.Command{
		Use:   "roiflow",
		Short: "Compute per-user marketing ROI from app and attribution feeds",
		Long: `roiflow joins registration, transaction and marketing-attribution feeds
into one ROI row per registered user: acquisition cost, lifetime revenue
and return on investment, with organic users carried at zero cost.

Feeds are read from local CSV files or Snowflake tables and the result is
materialized all-or-nothing to the destination of the chosen environment.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if rootVerbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home + "/.roiflow")
	}

	viper.SetEnvPrefix("roiflow")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is okay for now
	}
}
