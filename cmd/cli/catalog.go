package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/sheets"
)

var catalogSheet string

// catalogCmd groups product catalog commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog used by rule previews",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Import products from a workbook, updating existing codes",
	Example: `  pricing catalog import products.xlsx
  pricing catalog import costs.xlsx --sheet "March costs"`,
	Args:        cobra.ExactArgs(1),
	Annotations: dbAnnotation(),
	RunE:        runCatalogImport,
}

var catalogCategoriesCmd = &cobra.Command{
	Use:         "categories",
	Short:       "List the distinct product categories",
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := database.NewCatalogRepository(database.Pool()).DistinctCategories(cmd.Context())
		return printValues(values, err)
	},
}

var catalogCodesCmd = &cobra.Command{
	Use:         "product-codes",
	Short:       "List the distinct product codes",
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := database.NewCatalogRepository(database.Pool()).DistinctProductCodes(cmd.Context())
		return printValues(values, err)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogCategoriesCmd)
	catalogCmd.AddCommand(catalogCodesCmd)

	catalogImportCmd.Flags().StringVar(&catalogSheet, "sheet", "", "Worksheet name (default first sheet)")
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	catalog, rowErrs, err := sheets.LoadCatalog(f, catalogSheet)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, re := range rowErrs {
		logger.Warn().Str("workbook", args[0]).Msg(re.Error())
	}

	products, err := catalog.Products(cmd.Context())
	if err != nil {
		return err
	}
	if err := database.NewCatalogRepository(database.Pool()).UpsertProducts(cmd.Context(), products); err != nil {
		return err
	}

	logger.Info().Int("products", len(products)).Int("rejected_rows", len(rowErrs)).Msg("Catalog imported")
	return nil
}

func printValues(values []string, err error) error {
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}
