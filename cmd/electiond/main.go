package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"election-backend/ledger"
	"election-backend/service"
	"election-backend/storage"
)

var (
	dataDir    string
	addr       string
	logLevel   string
	sessionTTL time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "electiond",
	Short: "Anonymous ballot-token election backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory for election state")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", ":8080", "listen address for the API")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().DurationVar(&sessionTTL, "session-ttl", 5*time.Hour, "voter session lifetime")
}

// app bundles the opened store, ledger and services for the subcommands.
type app struct {
	store   *storage.Store
	votes   *ledger.Ledger
	eclock  *service.ElectionClock
	ballots *service.BallotService
	auth    *service.AuthService
	results *service.ResultsService
}

func openApp() (*app, error) {
	clk := clock.New()

	store, err := storage.Open(dataDir, clk)
	if err != nil {
		return nil, err
	}

	votes, err := ledger.Open(filepath.Join(dataDir, "vote_ledger.json"), clk)
	if err != nil {
		return nil, err
	}

	eclock := service.NewElectionClock(store, clk)

	return &app{
		store:   store,
		votes:   votes,
		eclock:  eclock,
		ballots: service.NewBallotService(store, votes, eclock, clk, service.LogNotifier{}),
		auth:    service.NewAuthService(store, eclock, clk, sessionTTL),
		results: service.NewResultsService(store, votes),
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
