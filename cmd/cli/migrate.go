package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/config"
	"github.com/primecut/pricing-service/internal/database"
)

// migrateCmd runs the embedded schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status|version|redo|reset|up-to VERSION|down-to VERSION]",
	Short: "Run database schema migrations",
	Example: `  pricing migrate up
  pricing migrate status
  pricing migrate down-to 0`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) > 0 {
			command = args[0]
		}

		dbURL := config.GetDatabaseURL()
		if dbURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
		if err := database.Migrate(cmd.Context(), dbURL, command, args[min(1, len(args)):]...); err != nil {
			return err
		}
		logger.Info().Str("command", command).Msg("Migrations finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
