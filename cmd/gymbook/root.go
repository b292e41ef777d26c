package main

import (
	"fmt"

	"github.com/2beens/gymbook/internal/config"
	"github.com/2beens/gymbook/internal/logging"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envFlag    string
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gymbook",
	Short: "Workout tracker REST API",
	Long: `Gymbook keeps users, their muscle groups and exercises (weight, sets,
reps and an optional photo) in a single SQLite file, and serves them over a
JSON REST API.

  $ gymbook initdb --config ./config.toml   # create the schema and uploads dir
  $ gymbook serve --env prod                # run the API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(envFlag, configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logging.Setup(logging.LoggerSetupParams{
			LogFileName:      cfg.LogsPath,
			LogToStdout:      cfg.LogToStdout,
			LogLevel:         cfg.LogLevel,
			LogFormatJSON:    cfg.LogFormatJSON,
			Environment:      cfg.Environment,
			SentryEnabled:    cfg.SentryEnabled,
			SentryDSN:        cfg.SentryDSN,
			SentryServerName: "gymbook",
		})
		log.Warnf("---->> running in [%s] environment", cfg.Environment)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
}
