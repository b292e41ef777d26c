package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/gymbook/internal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		log.Debugf("using port: %d", cfg.Port)
		log.Debugf("using server logs path: [%s]", cfg.LogsPath)

		server, err := internal.NewServer(ctx, internal.NewServerParams{
			Config: cfg,
		})
		if err != nil {
			return fmt.Errorf("new server: %w", err)
		}

		chOsInterrupt := make(chan os.Signal, 1)
		signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(chOsInterrupt)

		server.Serve(cfg.Host, cfg.Port)

		receivedSig := <-chOsInterrupt
		log.Warnf("signal [%s] received ...", receivedSig)
		cancel()

		server.GracefulShutdown()
		log.Infoln("service shut down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
