package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/preview"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
	"github.com/primecut/pricing-service/internal/sheets"
)

var (
	previewName      string
	previewCondition string
	previewValue     string
	previewMethod    string
	previewAmount    string
	previewCatalog   string
	previewSheet     string
	previewMaxRows   int
	previewOutput    string
)

// previewCmd previews a draft rule against the catalog
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview what a draft rule would price across the catalog",
	Long: `Apply a draft rule on its own to every catalog product its condition matches
and print the resulting prices. The rule is not saved. ALL_PRODUCTS rules only
report how many products they would touch.

The catalog is read from Postgres, or from an xlsx workbook with --catalog.`,
	Example: `  pricing preview --name "Beef uplift" --condition CATEGORY --value Beef --method COST_PLUS_PERCENT --pricing-value 1.25
  pricing preview --condition PRODUCT_CODE --value BF-RUMP --method FIXED_PRICE --pricing-value 28.50 --catalog products.xlsx`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewName, "name", "Draft rule", "Rule name")
	previewCmd.Flags().StringVar(&previewCondition, "condition", string(rules.ConditionAllProducts), "Condition type: ALL_PRODUCTS, CATEGORY or PRODUCT_CODE")
	previewCmd.Flags().StringVar(&previewValue, "value", "", "Condition value (category or product code)")
	previewCmd.Flags().StringVar(&previewMethod, "method", "", "Pricing method (required)")
	previewCmd.Flags().StringVar(&previewAmount, "pricing-value", "", "Pricing value (required)")
	previewCmd.Flags().StringVar(&previewCatalog, "catalog", "", "Catalog workbook (default: database catalog)")
	previewCmd.Flags().StringVar(&previewSheet, "sheet", "", "Catalog worksheet name (default first sheet)")
	previewCmd.Flags().IntVar(&previewMaxRows, "max-rows", 0, "Maximum preview rows (default from config)")
	previewCmd.Flags().StringVar(&previewOutput, "output", outputTable, "Output format: table or json")
	previewCmd.MarkFlagRequired("method")
	previewCmd.MarkFlagRequired("pricing-value")
}

func runPreview(cmd *cobra.Command, args []string) error {
	if err := checkOutput(previewOutput); err != nil {
		return err
	}

	value, err := decimal.NewFromString(previewAmount)
	if err != nil {
		return fmt.Errorf("invalid --pricing-value %q: %w", previewAmount, err)
	}
	method, err := rules.NewMethod(rules.MethodKind(strings.ToUpper(previewMethod)), value)
	if err != nil {
		return fmt.Errorf("%w (valid: %s)", err, methodNames())
	}
	candidate := rules.PricingRule{
		Name:      previewName,
		Condition: rules.ConditionType(strings.ToUpper(previewCondition)),
		Method:    method,
		Active:    true,
	}
	if previewValue != "" {
		candidate.ConditionValue = &previewValue
	}

	catalog, err := openCatalog(cmd)
	if err != nil {
		return err
	}

	engineCfg, err := engineConfig()
	if err != nil {
		return err
	}
	maxRows := previewMaxRows
	if maxRows == 0 {
		maxRows = cfg.Preview.MaxRows
	}
	engine := preview.NewEngine(catalog, pricing.NewCalculator(nil, engineCfg), maxRows)

	res, err := engine.Preview(cmd.Context(), candidate)
	if err != nil {
		return err
	}

	if strings.ToLower(previewOutput) == outputJSON {
		return writeJSON(res)
	}

	if res.IsAllProducts {
		fmt.Printf("%s applies to all %d catalog products\n", candidate.Name, res.TotalMatchCount)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tCOST\tPRICE\tERROR")
	fmt.Fprintln(w, "-------\t----\t----\t-----\t-----")
	for _, row := range res.Previews {
		price := "-"
		if row.CalculatedPrice != nil {
			price = row.CalculatedPrice.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.ProductCode, row.ProductName, row.Cost.StringFixed(2), price, row.Error)
	}
	w.Flush()

	fmt.Printf("\n%d matching products", res.TotalMatchCount)
	if res.Truncated {
		fmt.Printf(" (showing first %d)", len(res.Previews))
	}
	fmt.Println()
	return nil
}

// openCatalog loads the catalog workbook, or connects to the database when
// none is given.
func openCatalog(cmd *cobra.Command) (preview.ProductCatalog, error) {
	if previewCatalog == "" {
		if err := initDatabase(cmd.Context()); err != nil {
			return nil, fmt.Errorf("database initialization failed: %w", err)
		}
		return database.NewCatalogRepository(database.Pool()), nil
	}

	f, err := os.Open(previewCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	catalog, rowErrs, err := sheets.LoadCatalog(f, previewSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, re := range rowErrs {
		logger.Warn().Str("workbook", previewCatalog).Msg(re.Error())
	}
	return catalog, nil
}

func methodNames() string {
	kinds := rules.MethodKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
