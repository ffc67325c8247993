package preview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

// mockCatalog is a mock implementation of ProductCatalog for testing.
type mockCatalog struct {
	products []Product
	err      error
}

func (m *mockCatalog) Products(ctx context.Context) ([]Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) DistinctCategories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, m.err
}

func (m *mockCatalog) DistinctProductCodes(ctx context.Context) ([]string, error) {
	out := make([]string, len(m.products))
	for i, p := range m.products {
		out[i] = p.ProductCode
	}
	return out, m.err
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func catalog() *mockCatalog {
	return &mockCatalog{products: []Product{
		{ProductCode: "PK-LOIN", ProductName: "Pork loin", Category: "Pork", Cost: d("6.40")},
		{ProductCode: "BF-RUMP", ProductName: "Beef rump", Category: "Beef", Cost: d("11.00")},
		{ProductCode: "BF-MINCE", ProductName: "Beef mince", Category: "beef", Cost: d("5.55")},
		{ProductCode: "LB-RACK", ProductName: "Lamb rack", Category: "Lamb", Cost: d("21.90")},
	}}
}

func newEngine(c ProductCatalog, maxRows int) *Engine {
	return NewEngine(c, pricing.NewCalculator(nil, pricing.DefaultConfig()), maxRows)
}

func categoryRule(value string, m rules.Method) rules.PricingRule {
	return rules.PricingRule{
		Name:           "Draft",
		Condition:      rules.ConditionCategory,
		ConditionValue: strPtr(value),
		Method:         m,
	}
}

func TestPreviewCategory(t *testing.T) {
	e := newEngine(catalog(), 0)

	res, err := e.Preview(context.Background(), categoryRule("BEEF", rules.CostPlusPercent{Multiplier: d("1.15")}))
	require.NoError(t, err)

	assert.False(t, res.IsAllProducts)
	assert.Equal(t, 2, res.TotalMatchCount)
	require.Len(t, res.Previews, 2)

	assert.Equal(t, "BF-MINCE", res.Previews[0].ProductCode, "rows are sorted by product code")
	require.NotNil(t, res.Previews[0].CalculatedPrice)
	assert.Equal(t, "6.38", res.Previews[0].CalculatedPrice.StringFixed(2))
	assert.Equal(t, "12.65", res.Previews[1].CalculatedPrice.StringFixed(2))
}

func TestPreviewAllProductsCountsOnly(t *testing.T) {
	e := newEngine(catalog(), 0)

	res, err := e.Preview(context.Background(), rules.PricingRule{
		Name:      "Draft default",
		Condition: rules.ConditionAllProducts,
		Method:    rules.CostPlusPercent{Multiplier: d("1.3")},
	})
	require.NoError(t, err)
	assert.True(t, res.IsAllProducts)
	assert.Equal(t, 4, res.TotalMatchCount)
	assert.Empty(t, res.Previews)
}

func TestPreviewIgnoresActivityAndScope(t *testing.T) {
	e := newEngine(catalog(), 0)

	r := rules.PricingRule{
		Name:           "Inactive lamb deal",
		CustomerCode:   strPtr("C777"),
		Condition:      rules.ConditionProductCode,
		ConditionValue: strPtr("lb-rack"),
		Method:         rules.FixedPrice{Price: d("29.5")},
		Active:         false,
	}
	res, err := e.Preview(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, res.Previews, 1)
	assert.True(t, d("29.50").Equal(*res.Previews[0].CalculatedPrice))
}

func TestPreviewGPUsesDefault(t *testing.T) {
	e := newEngine(catalog(), 0)

	res, err := e.Preview(context.Background(), categoryRule("pork", rules.MaintainGPPercent{Adjustment: d("0.20")}))
	require.NoError(t, err)
	require.Len(t, res.Previews, 1)
	assert.Equal(t, "8.00", res.Previews[0].CalculatedPrice.StringFixed(2))
}

func TestPreviewTruncates(t *testing.T) {
	c := &mockCatalog{}
	for i := 0; i < 30; i++ {
		c.products = append(c.products, Product{
			ProductCode: fmt.Sprintf("CH-%03d", 30-i),
			Category:    "Chicken",
			Cost:        d("3"),
		})
	}
	e := newEngine(c, 10)

	res, err := e.Preview(context.Background(), categoryRule("chicken", rules.CostPlusFixed{Amount: d("1")}))
	require.NoError(t, err)
	assert.Equal(t, 30, res.TotalMatchCount)
	assert.Len(t, res.Previews, 10)
	assert.True(t, res.Truncated)
	assert.Equal(t, "CH-001", res.Previews[0].ProductCode)
}

func TestPreviewErrors(t *testing.T) {
	e := newEngine(catalog(), 0)

	_, err := e.Preview(context.Background(), rules.PricingRule{Name: "No value", Condition: rules.ConditionCategory, Method: rules.FixedPrice{Price: d("1")}})
	var ve *rules.ValidationError
	assert.ErrorAs(t, err, &ve)

	broken := newEngine(&mockCatalog{err: errors.New("catalog offline")}, 0)
	_, err = broken.Preview(context.Background(), categoryRule("beef", rules.FixedPrice{Price: d("1")}))
	assert.ErrorContains(t, err, "catalog offline")
}
