package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/config"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
)

// needsDB marks commands that connect to Postgres before running.
const needsDB = "needs-db"

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Pricing CLI - rule-based sell prices for meat distribution",
	Long: `A CLI for the rule-based pricing engine. Prices line items against the
configured rule chain, previews draft rules against the product catalog,
applies rules to whole pricing sessions and checks the rule configuration.

Rules, sessions and the catalog live in Postgres; catalogs and line items
can also be read from xlsx workbooks for offline runs.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun loads config and logging, and connects to the database
// for commands annotated with needsDB.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Logging.Format == "" || cfg.Logging.Format == "json" {
		cfg.Logging.Format = "console"
	}
	logger = cfg.SetupLogger("pricing-cli")

	if _, ok := cmd.Annotations[needsDB]; ok {
		if err := initDatabase(cmd.Context()); err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		logger.Debug().Msg("Database connected")
	}
	return nil
}

func initDatabase(ctx context.Context) error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	return database.Connect(ctx, dbURL, cfg.Database.PoolConfig("pricing-cli"))
}

// engineConfig returns the validated pricing configuration.
func engineConfig() (*pricing.Config, error) {
	return cfg.PricingEngine()
}

func dbAnnotation() map[string]string {
	return map[string]string{needsDB: "true"}
}

func main() {
	err := Execute()
	database.Close()
	if err != nil {
		os.Exit(1)
	}
}
