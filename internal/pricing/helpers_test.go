package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

var asOf = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

// mockRuleProvider is a mock implementation of rules.Provider for testing.
type mockRuleProvider struct {
	rules []rules.PricingRule
	calls int
	err   error
}

func (m *mockRuleProvider) FindApplicableRules(ctx context.Context, customerCode string, asOf time.Time) ([]rules.PricingRule, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return rules.NewSet(m.rules).Candidates(customerCode), nil
}

func (m *mockRuleProvider) FindAll(ctx context.Context) ([]rules.PricingRule, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rules, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func strPtr(s string) *string { return &s }

func rule(id int64, name string, order int, m rules.Method) rules.PricingRule {
	return rules.PricingRule{
		ID:             id,
		Name:           name,
		Condition:      rules.ConditionAllProducts,
		Method:         m,
		Active:         true,
		ExecutionOrder: order,
	}
}

func item(cost string) rules.LineItem {
	return rules.LineItem{
		CustomerCode: "C100",
		ProductCode:  "BF-RIBEYE",
		Category:     "Beef",
		IncomingCost: d(cost),
		Quantity:     d("12"),
	}
}

func newTestCalculator(rs ...rules.PricingRule) (*Calculator, *mockRuleProvider) {
	provider := &mockRuleProvider{rules: rs}
	return NewCalculator(provider, DefaultConfig()), provider
}
