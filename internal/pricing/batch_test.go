package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primecut/pricing-service/internal/rules"
)

func beefOnly() rules.Set {
	r := rule(1, "Beef markup", 1, rules.CostPlusPercent{Multiplier: d("1.25")})
	r.Condition = rules.ConditionCategory
	r.ConditionValue = strPtr("beef")
	return rules.NewSet([]rules.PricingRule{r})
}

func TestPriceAllPartialFailure(t *testing.T) {
	calc, _ := newTestCalculator()
	pricer := NewBatchPricer(calc, DefaultConfig())

	items := make([]rules.LineItem, 50)
	for i := range items {
		items[i] = item(fmt.Sprintf("%d.00", i+1))
	}
	items[17].Category = "Lamb"

	res := pricer.PriceAll(context.Background(), beefOnly(), items, asOf)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 49, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Cancelled)
	require.Len(t, res.Outcomes, 50)

	for i, o := range res.Outcomes {
		assert.Equal(t, i, o.Index, "outcomes keep input order")
		if i == 17 {
			assert.Equal(t, StatusFailed, o.Status)
			assert.Nil(t, o.Result)
			assert.True(t, IsConfigurationError(o.Err))
			continue
		}
		require.Equal(t, StatusPriced, o.Status)
		assertPrice(t, items[i].IncomingCost.Mul(d("1.25")).Round(2).String(), o.Result.FinalPrice)
	}
}

func TestPriceAllMatchesSequential(t *testing.T) {
	calc, _ := newTestCalculator()
	cfg := DefaultConfig()
	cfg.BatchWorkers = 3
	pricer := NewBatchPricer(calc, cfg)

	set := rules.NewSet([]rules.PricingRule{
		rule(1, "Markup", 1, rules.CostPlusPercent{Multiplier: d("1.1875")}),
		rule(2, "Freight", 2, rules.CostPlusFixed{Amount: d("0.35")}),
	})
	items := []rules.LineItem{item("3.33"), item("17.05"), item("0.99"), item("120.40")}

	res := pricer.PriceAll(context.Background(), set, items, asOf)
	require.Equal(t, len(items), res.Succeeded)

	for i, li := range items {
		want, err := calc.Apply(set, li, asOf)
		require.NoError(t, err)
		assert.Equal(t, want.Description, res.Outcomes[i].Result.Description)
		assert.True(t, want.FinalPrice.Equal(res.Outcomes[i].Result.FinalPrice))
	}
}

func TestPriceAllCancelled(t *testing.T) {
	calc, _ := newTestCalculator()
	pricer := NewBatchPricer(calc, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []rules.LineItem{item("1.00"), item("2.00"), item("3.00")}
	res := pricer.PriceAll(ctx, beefOnly(), items, asOf)

	assert.Zero(t, res.Succeeded)
	assert.Equal(t, 3, res.Cancelled)
	for _, o := range res.Outcomes {
		assert.Equal(t, StatusCancelled, o.Status)
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
}

func TestPriceRange(t *testing.T) {
	calc, provider := newTestCalculator(rule(1, "Markup", 1, rules.CostPlusPercent{Multiplier: d("2")}))
	pricer := NewBatchPricer(calc, DefaultConfig())

	source := LineItemSourceFunc(func(ctx context.Context, from, to time.Time) ([]rules.LineItem, error) {
		return []rules.LineItem{item("1.50"), item("2.25")}, nil
	})

	res, err := pricer.PriceRange(context.Background(), provider, source, asOf.AddDate(0, -1, 0), asOf, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, provider.calls, "rules are fetched once per batch")
	assertPrice(t, "4.50", res.Outcomes[1].Result.FinalPrice)

	failing := LineItemSourceFunc(func(ctx context.Context, from, to time.Time) ([]rules.LineItem, error) {
		return nil, errors.New("warehouse offline")
	})
	_, err = pricer.PriceRange(context.Background(), provider, failing, asOf, asOf, asOf)
	assert.ErrorContains(t, err, "warehouse offline")
}
