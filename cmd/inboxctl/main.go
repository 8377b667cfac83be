// Command inboxctl is the operator CLI for the contact inbox: list, stats,
// CSV export, live watch and admin account creation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/augmentum/backend/internal/config"
	"github.com/augmentum/backend/internal/dashboard"
	"github.com/augmentum/backend/internal/logging"
	"github.com/augmentum/backend/internal/repository"
	"github.com/augmentum/backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	databaseURL string
	logLevel    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "inboxctl",
	Short: "Operate the Augmentum contact inbox",
	Long: `inboxctl reads and manages the contact_messages inbox directly
against PostgreSQL, using the same controller as the admin API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		// stdout は表やCSVに使うので、ログは stderr に出す
		slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (default $LOG_LEVEL)")
}

// openStore connects to the database and builds the contact service.
// Callers close the returned pool.
func openStore(ctx context.Context) (service.ContactService, *pgxpool.Pool, error) {
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	feed := repository.NewChangeFeed(pool, repository.ContactChangeChannel, cfg.ChangeFeedRetry)
	return service.NewContactService(repository.NewPgContactRepository(pool, feed)), pool, nil
}

// openInbox returns an initialised controller over src.
func openInbox(ctx context.Context, src dashboard.Source) (*dashboard.Controller, error) {
	c := dashboard.New(src, slog.Default(), time.Now, dashboard.Options{
		StrictTransitions: cfg.StrictStatusTransitions,
	})
	if err := c.Init(ctx); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
