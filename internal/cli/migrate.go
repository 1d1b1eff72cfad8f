package cli

import (
	"fmt"

	"interviewcoach/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Run feedback store database migrations",
	Long:      `Apply, roll back or list the embedded PostgreSQL migrations against storage.dsn.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	command := "up"
	if len(args) == 1 {
		command = args[0]
	}
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrations require storage.driver=postgres, got %q", cfg.Storage.Driver)
	}

	db, err := storage.OpenDB(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err.Error())
		}
	}()

	logger.Info("Running migrations", "command", command)
	if err := storage.Migrate(ctx, db, command); err != nil {
		return err
	}
	logger.Info("Migrations completed", "command", command)
	return nil
}
