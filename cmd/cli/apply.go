package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/sessions"
)

var (
	applyAsOf   string
	applyOutput string
)

// applyCmd applies the rules to a pricing session
var applyCmd = &cobra.Command{
	Use:   "apply <session-id>",
	Short: "Apply the pricing rules to every line item of a session",
	Long: `Price every line item of a pricing session against one snapshot of the
stored rules and save the new sell prices with their calculation chains.
Items that fail keep their previous price and are marked failed.`,
	Example: `  pricing apply 12
  pricing apply 12 --as-of 2024-03-31 --output json`,
	Args:        cobra.ExactArgs(1),
	Annotations: dbAnnotation(),
	RunE:        runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyAsOf, "as-of", "", "Pricing date (format: YYYY-MM-DD, default today)")
	applyCmd.Flags().StringVar(&applyOutput, "output", outputTable, "Output format: table or json")
}

func runApply(cmd *cobra.Command, args []string) error {
	if err := checkOutput(applyOutput); err != nil {
		return err
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}
	asOf, err := parseDay("as-of", applyAsOf, time.Now())
	if err != nil {
		return err
	}

	engineCfg, err := engineConfig()
	if err != nil {
		return err
	}
	pool := database.Pool()
	ruleRepo := database.NewRuleRepository(pool)
	svc := sessions.NewService(
		database.NewLineItemRepository(pool),
		database.NewSnapshotRepository(pool),
		ruleRepo,
		pricing.NewBatchPricer(pricing.NewCalculator(ruleRepo, engineCfg), engineCfg),
	)

	summary, err := svc.ApplyRules(cmd.Context(), sessionID, asOf)
	if err != nil {
		return err
	}

	if strings.ToLower(applyOutput) == outputJSON {
		return writeJSON(summary)
	}
	fmt.Printf("Session %d (run %s): %d items, %d priced, %d failed, %d cancelled\n",
		summary.SessionID, summary.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.Cancelled)
	if summary.PersistErrors > 0 {
		return fmt.Errorf("%d line item results could not be saved", summary.PersistErrors)
	}
	return nil
}
