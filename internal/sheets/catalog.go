package sheets

import (
	"context"
	"io"
	"sort"

	"github.com/primecut/pricing-service/internal/preview"
)

// CatalogSheet is a product catalog loaded from a workbook. It implements
// preview.ProductCatalog and is read-only after loading.
type CatalogSheet struct {
	products []preview.Product
}

var _ preview.ProductCatalog = (*CatalogSheet)(nil)

// LoadCatalog reads products from sheet. Required columns are product_code
// and cost; product_name and category are optional. Rows that fail to parse
// are returned as RowErrors and skipped.
func LoadCatalog(r io.Reader, sheet string) (*CatalogSheet, []RowError, error) {
	t, err := readTable(r, sheet)
	if err != nil {
		return nil, nil, err
	}

	codeCol, err := t.require("product_code", "code", "sku")
	if err != nil {
		return nil, nil, err
	}
	costCol, err := t.require("cost", "unit_cost", "incoming_cost")
	if err != nil {
		return nil, nil, err
	}
	nameCol, _ := t.column("product_name", "name", "description")
	catCol, _ := t.column("category", "product_category")

	c := &CatalogSheet{}
	var rowErrs []RowError
	seen := make(map[string]int)

	for i, row := range t.rows {
		rowNum := i + 2
		if isEmptyRow(row) {
			continue
		}

		code := cell(row, codeCol)
		if code == "" {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "product_code", Message: "required"})
			continue
		}
		cost, err := parseMoney(cell(row, costCol))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "cost", Message: err.Error()})
			continue
		}

		p := preview.Product{
			ProductCode: code,
			ProductName: cell(row, nameCol),
			Category:    cell(row, catCol),
			Cost:        cost,
		}
		// Later rows win for repeated product codes.
		if idx, dup := seen[code]; dup {
			c.products[idx] = p
			continue
		}
		seen[code] = len(c.products)
		c.products = append(c.products, p)
	}

	return c, rowErrs, nil
}

// Products returns a copy of the loaded products.
func (c *CatalogSheet) Products(ctx context.Context) ([]preview.Product, error) {
	out := make([]preview.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// DistinctCategories returns the sorted non-empty categories.
func (c *CatalogSheet) DistinctCategories(ctx context.Context) ([]string, error) {
	set := make(map[string]struct{})
	for _, p := range c.products {
		if p.Category != "" {
			set[p.Category] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// DistinctProductCodes returns the sorted product codes.
func (c *CatalogSheet) DistinctProductCodes(ctx context.Context) ([]string, error) {
	set := make(map[string]struct{}, len(c.products))
	for _, p := range c.products {
		set[p.ProductCode] = struct{}{}
	}
	return sortedKeys(set), nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
