// Package preview shows what a draft pricing rule would do to the product
// catalog without saving anything.
package preview

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

// DefaultMaxRows caps the preview rows when no limit is configured.
const DefaultMaxRows = 500

// Product is one catalog entry.
type Product struct {
	ProductCode string
	ProductName string
	Category    string
	Cost        decimal.Decimal
}

// ProductCatalog supplies the products a rule can be previewed against.
type ProductCatalog interface {
	Products(ctx context.Context) ([]Product, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctProductCodes(ctx context.Context) ([]string, error)
}

// Row is the preview for one matching product.
type Row struct {
	ProductCode     string           `json:"productCode"`
	ProductName     string           `json:"productName"`
	Cost            decimal.Decimal  `json:"cost"`
	CalculatedPrice *decimal.Decimal `json:"calculatedPrice"` // nil when the method could not be applied
	Error           string           `json:"error,omitempty"`
}

// Result is the outcome of previewing one rule.
type Result struct {
	TotalMatchCount int   `json:"totalMatchCount"`
	IsAllProducts   bool  `json:"isAllProducts"`
	Previews        []Row `json:"previews"`
	Truncated       bool  `json:"truncated"`
}

// Engine previews candidate rules against a catalog.
type Engine struct {
	catalog ProductCatalog
	calc    *pricing.Calculator
	maxRows int
	logger  zerolog.Logger
}

// NewEngine creates a preview engine. maxRows <= 0 uses DefaultMaxRows.
func NewEngine(catalog ProductCatalog, calc *pricing.Calculator, maxRows int) *Engine {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Engine{
		catalog: catalog,
		calc:    calc,
		maxRows: maxRows,
		logger:  log.With().Str("component", "rule_preview").Logger(),
	}
}

// Preview applies candidate on its own to every catalog product its
// condition matches. Activity, validity dates and customer scope are ignored
// so that drafts can be previewed. ALL_PRODUCTS rules only report a count.
func (e *Engine) Preview(ctx context.Context, candidate rules.PricingRule) (*Result, error) {
	if err := rules.Validate(candidate); err != nil {
		return nil, err
	}

	products, err := e.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if candidate.Condition == rules.ConditionAllProducts {
		return &Result{TotalMatchCount: len(products), IsAllProducts: true}, nil
	}

	var rows []Row
	for _, p := range products {
		if !rules.MatchesCondition(candidate, p.ProductCode, p.Category) {
			continue
		}
		rows = append(rows, e.row(candidate, p))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ProductCode < rows[j].ProductCode
	})

	result := &Result{TotalMatchCount: len(rows), Previews: rows}
	if len(rows) > e.maxRows {
		result.Previews = rows[:e.maxRows]
		result.Truncated = true
	}

	e.logger.Debug().
		Str("rule", candidate.Name).
		Int("matches", result.TotalMatchCount).
		Bool("truncated", result.Truncated).
		Msg("Rule preview computed")

	return result, nil
}

// row prices p with the candidate alone. The catalog carries no sales
// history, so GP methods resolve through their default.
func (e *Engine) row(candidate rules.PricingRule, p Product) Row {
	row := Row{ProductCode: p.ProductCode, ProductName: p.ProductName, Cost: p.Cost}

	item := rules.LineItem{
		ProductCode:  p.ProductCode,
		Category:     p.Category,
		IncomingCost: p.Cost,
	}
	price, _, err := e.calc.ApplyRule(candidate, p.Cost, item)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	price = e.calc.RoundFinal(price)
	row.CalculatedPrice = &price
	return row
}
