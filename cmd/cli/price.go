package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
	"github.com/primecut/pricing-service/internal/sheets"
)

var (
	priceCustomer string
	priceProduct  string
	priceCategory string
	priceCost     string
	priceQuantity string
	priceLastSell string
	priceLastCost string
	priceAsOf     string
	priceOutput   string

	sheetName   string
	sheetFrom   string
	sheetTo     string
	sheetAsOf   string
	sheetOutput string

	rangeFrom   string
	rangeTo     string
	rangeAsOf   string
	rangeOutput string
)

// priceCmd prices a single line item
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price one line item against the stored rules",
	Long: `Price one line item through the rule chain that applies to its customer
on the given date and print every step of the calculation.`,
	Example: `  pricing price --customer C100 --product BF-RUMP --category Beef --cost 11.00
  pricing price --customer C100 --product BF-RUMP --cost 11.00 --last-sell 13.20 --last-cost 11.00 --output json`,
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE:        runPrice,
}

// priceSheetCmd prices every line item in a workbook
var priceSheetCmd = &cobra.Command{
	Use:   "price-sheet <workbook.xlsx>",
	Short: "Price the line items of a workbook against the stored rules",
	Long: `Load line items from an xlsx workbook and price them concurrently with one
snapshot of the stored rules. With --from/--to only rows dated in that range
(and undated rows) are priced. Nothing is written back.`,
	Example: `  pricing price-sheet march.xlsx
  pricing price-sheet sales.xlsx --sheet Lines --from 2024-03-01 --to 2024-03-31 --output json`,
	Args:        cobra.ExactArgs(1),
	Annotations: dbAnnotation(),
	RunE:        runPriceSheet,
}

// priceRangeCmd re-prices stored session line items without saving
var priceRangeCmd = &cobra.Command{
	Use:   "price-range",
	Short: "Dry-run the stored rules over session line items in a date range",
	Long: `Price the line items of every pricing session whose period overlaps
--from..--to with one snapshot of the stored rules. Results are printed only;
use "apply" to save prices.`,
	Example: `  pricing price-range --from 2024-03-01 --to 2024-03-31
  pricing price-range --from 2024-03-01 --to 2024-03-31 --as-of 2024-04-01 --output json`,
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE:        runPriceRange,
}

func init() {
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(priceSheetCmd)
	rootCmd.AddCommand(priceRangeCmd)

	priceCmd.Flags().StringVar(&priceCustomer, "customer", "", "Customer code (required)")
	priceCmd.Flags().StringVar(&priceProduct, "product", "", "Product code (required)")
	priceCmd.Flags().StringVar(&priceCategory, "category", "", "Product category")
	priceCmd.Flags().StringVar(&priceCost, "cost", "", "Incoming unit cost (required)")
	priceCmd.Flags().StringVar(&priceQuantity, "quantity", "1", "Quantity")
	priceCmd.Flags().StringVar(&priceLastSell, "last-sell", "", "Last unit sell price, for GP methods")
	priceCmd.Flags().StringVar(&priceLastCost, "last-cost", "", "Last unit cost, for GP methods")
	priceCmd.Flags().StringVar(&priceAsOf, "as-of", "", "Pricing date (format: YYYY-MM-DD, default today)")
	priceCmd.Flags().StringVar(&priceOutput, "output", outputTable, "Output format: table or json")
	priceCmd.MarkFlagRequired("customer")
	priceCmd.MarkFlagRequired("product")
	priceCmd.MarkFlagRequired("cost")

	priceSheetCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default first sheet)")
	priceSheetCmd.Flags().StringVar(&sheetFrom, "from", "", "First day of the range (format: YYYY-MM-DD)")
	priceSheetCmd.Flags().StringVar(&sheetTo, "to", "", "Last day of the range (format: YYYY-MM-DD)")
	priceSheetCmd.Flags().StringVar(&sheetAsOf, "as-of", "", "Pricing date (format: YYYY-MM-DD, default today)")
	priceSheetCmd.Flags().StringVar(&sheetOutput, "output", outputTable, "Output format: table or json")

	priceRangeCmd.Flags().StringVar(&rangeFrom, "from", "", "First day of the range (format: YYYY-MM-DD)")
	priceRangeCmd.Flags().StringVar(&rangeTo, "to", "", "Last day of the range (format: YYYY-MM-DD)")
	priceRangeCmd.Flags().StringVar(&rangeAsOf, "as-of", "", "Pricing date (format: YYYY-MM-DD, default --to)")
	priceRangeCmd.Flags().StringVar(&rangeOutput, "output", outputTable, "Output format: table or json")
	priceRangeCmd.MarkFlagRequired("from")
	priceRangeCmd.MarkFlagRequired("to")
}

func runPrice(cmd *cobra.Command, args []string) error {
	if err := checkOutput(priceOutput); err != nil {
		return err
	}
	asOf, err := parseDay("as-of", priceAsOf, time.Now())
	if err != nil {
		return err
	}

	item := rules.LineItem{
		CustomerCode: priceCustomer,
		ProductCode:  priceProduct,
		Category:     priceCategory,
	}
	cost, err := optionalMoney("cost", priceCost)
	if err != nil {
		return err
	}
	if cost == nil {
		return fmt.Errorf("--cost must not be empty")
	}
	item.IncomingCost = *cost
	qty, err := optionalMoney("quantity", priceQuantity)
	if err != nil {
		return err
	}
	if qty != nil {
		item.Quantity = *qty
	}
	if item.LastUnitSellPrice, err = optionalMoney("last-sell", priceLastSell); err != nil {
		return err
	}
	if item.LastCost, err = optionalMoney("last-cost", priceLastCost); err != nil {
		return err
	}

	engineCfg, err := engineConfig()
	if err != nil {
		return err
	}
	calc := pricing.NewCalculator(database.NewRuleRepository(database.Pool()), engineCfg)

	res, err := calc.Calculate(cmd.Context(), item, rules.Customer{Code: priceCustomer}, asOf)
	if err != nil {
		return err
	}

	out := newPricedItem(res)
	out.CustomerCode, out.ProductCode = item.CustomerCode, item.ProductCode
	if strings.ToLower(priceOutput) == outputJSON {
		return writeJSON(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STEP\tRULE\tMETHOD\tINPUT\tOUTPUT")
	fmt.Fprintln(w, "----\t----\t------\t-----\t------")
	for _, s := range res.Steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.Order, s.Rule.Name, s.Detail, s.Input, s.Output)
	}
	w.Flush()

	fmt.Printf("\n%s\n\nFinal price: $%s\n", res.Description, res.FinalPrice.StringFixed(2))
	for _, sk := range out.Skipped {
		fmt.Printf("Skipped: %s\n", sk)
	}
	return nil
}

func runPriceSheet(cmd *cobra.Command, args []string) error {
	if err := checkOutput(sheetOutput); err != nil {
		return err
	}
	asOf, err := parseDay("as-of", sheetAsOf, time.Now())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	source, rowErrs, err := sheets.LoadLineItems(f, sheetName)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}
	for _, re := range rowErrs {
		logger.Warn().Str("workbook", args[0]).Msg(re.Error())
	}
	logger.Info().Int("items", source.Len()).Int("rejected_rows", len(rowErrs)).Msg("Line items loaded")

	engineCfg, err := engineConfig()
	if err != nil {
		return err
	}
	provider := database.NewRuleRepository(database.Pool())
	pricer := pricing.NewBatchPricer(pricing.NewCalculator(provider, engineCfg), engineCfg)

	var batch *pricing.BatchResult
	if sheetFrom == "" && sheetTo == "" {
		all, err := provider.FindAll(cmd.Context())
		if err != nil {
			return err
		}
		batch = pricer.PriceAll(cmd.Context(), rules.NewSet(all), source.All(), asOf)
	} else {
		from, err := parseDay("from", sheetFrom, time.Time{})
		if err != nil {
			return err
		}
		to, err := parseDay("to", sheetTo, asOf)
		if err != nil {
			return err
		}
		batch, err = pricer.PriceRange(cmd.Context(), provider, source, from, to, asOf)
		if err != nil {
			return err
		}
	}

	return renderBatch(batch, sheetOutput)
}

func runPriceRange(cmd *cobra.Command, args []string) error {
	if err := checkOutput(rangeOutput); err != nil {
		return err
	}
	from, err := parseDay("from", rangeFrom, time.Time{})
	if err != nil {
		return err
	}
	to, err := parseDay("to", rangeTo, time.Time{})
	if err != nil {
		return err
	}
	asOf, err := parseDay("as-of", rangeAsOf, to)
	if err != nil {
		return err
	}

	engineCfg, err := engineConfig()
	if err != nil {
		return err
	}
	pool := database.Pool()
	provider := database.NewRuleRepository(pool)
	pricer := pricing.NewBatchPricer(pricing.NewCalculator(provider, engineCfg), engineCfg)

	batch, err := pricer.PriceRange(cmd.Context(), provider, database.NewLineItemRepository(pool), from, to, asOf)
	if err != nil {
		return err
	}
	return renderBatch(batch, rangeOutput)
}

// renderBatch prints batch outcomes in input order.
func renderBatch(batch *pricing.BatchResult, format string) error {
	items := make([]pricedItem, len(batch.Outcomes))
	for i, o := range batch.Outcomes {
		p := pricedItem{Status: string(o.Status), IncomingCost: o.Item.IncomingCost.StringFixed(2)}
		if o.Result != nil {
			p = newPricedItem(o.Result)
		}
		p.CustomerCode, p.ProductCode = o.Item.CustomerCode, o.Item.ProductCode
		if o.Err != nil {
			p.Error = o.Err.Error()
		}
		items[i] = p
	}

	if strings.ToLower(format) == outputJSON {
		return writeJSON(map[string]any{
			"runId":     batch.RunID,
			"succeeded": batch.Succeeded,
			"failed":    batch.Failed,
			"cancelled": batch.Cancelled,
			"items":     items,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CUSTOMER\tPRODUCT\tCOST\tPRICE\tSTATUS\tERROR")
	fmt.Fprintln(w, "--------\t-------\t----\t-----\t------\t-----")
	for _, p := range items {
		price := p.FinalPrice
		if price == "" {
			price = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.CustomerCode, p.ProductCode, p.IncomingCost, price, p.Status, p.Error)
	}
	w.Flush()

	fmt.Printf("\nRun %s: %d priced, %d failed, %d cancelled\n", batch.RunID, batch.Succeeded, batch.Failed, batch.Cancelled)
	return nil
}
