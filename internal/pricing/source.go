package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/primecut/pricing-service/internal/rules"
)

// LineItemSource supplies line items for a date range. Implementations hold
// no state between calls.
type LineItemSource interface {
	LineItems(ctx context.Context, from, to time.Time) ([]rules.LineItem, error)
}

// LineItemSourceFunc adapts a function to LineItemSource.
type LineItemSourceFunc func(ctx context.Context, from, to time.Time) ([]rules.LineItem, error)

// LineItems implements LineItemSource.
func (f LineItemSourceFunc) LineItems(ctx context.Context, from, to time.Time) ([]rules.LineItem, error) {
	return f(ctx, from, to)
}

// PriceRange loads the line items for [from, to] and prices them against the
// full rule set, fetched once before any item is priced.
func (b *BatchPricer) PriceRange(ctx context.Context, provider rules.Provider, source LineItemSource, from, to, asOf time.Time) (*BatchResult, error) {
	items, err := source.LineItems(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	all, err := provider.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	return b.PriceAll(ctx, rules.NewSet(all), items, asOf), nil
}
