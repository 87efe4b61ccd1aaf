package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"election-backend/api"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the election API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}

		server := api.NewServer(api.Config{Addr: addr}, app.ballots, app.auth, app.results, app.store, app.votes)

		// Expired tokens are already invisible to lookups; this keeps the
		// tokens file from accumulating dead entries.
		purgeDone := make(chan struct{})
		defer close(purgeDone)
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n, err := app.store.PurgeExpiredTokens(); err != nil {
						log.Errorf("failed to purge expired ballot tokens: %v", err)
					} else if n > 0 {
						log.WithField("count", n).Debug("purged expired ballot tokens")
					}
				case <-purgeDone:
					return
				}
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		serverChan := make(chan error, 1)
		go func() {
			serverChan <- server.Start()
		}()

		select {
		case err := <-serverChan:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case sig := <-sigChan:
			log.WithField("signal", sig).Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
		}

		return nil
	},
}
