package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func baseRule() PricingRule {
	return PricingRule{
		ID:             1,
		Name:           "Standard markup",
		Condition:      ConditionAllProducts,
		Method:         CostPlusPercent{Multiplier: decimal.RequireFromString("1.20")},
		Active:         true,
		ExecutionOrder: 10,
	}
}

func beefItem() LineItem {
	return LineItem{
		CustomerCode: "C100",
		ProductCode:  "BF-RIBEYE",
		Category:     "Beef",
		IncomingCost: decimal.RequireFromString("10.00"),
	}
}

func TestMatchesActiveAndDates(t *testing.T) {
	item := beefItem()

	r := baseRule()
	assert.True(t, Matches(r, item, asOf))

	r.Active = false
	assert.False(t, Matches(r, item, asOf), "inactive rules never match")

	r = baseRule()
	r.ValidFrom = datePtr(2024, time.March, 15)
	r.ValidTo = datePtr(2024, time.March, 15)
	assert.True(t, Matches(r, item, asOf), "bounds are inclusive on the calendar day")

	r.ValidFrom = datePtr(2024, time.March, 16)
	r.ValidTo = nil
	assert.False(t, Matches(r, item, asOf))

	r.ValidFrom = nil
	r.ValidTo = datePtr(2024, time.March, 14)
	assert.False(t, Matches(r, item, asOf))
}

func TestMatchesCustomerScope(t *testing.T) {
	item := beefItem()

	r := baseRule()
	r.CustomerCode = strPtr("C100")
	assert.True(t, Matches(r, item, asOf))

	r.CustomerCode = strPtr("C200")
	assert.False(t, Matches(r, item, asOf))

	r.CustomerCode = strPtr("")
	assert.True(t, Matches(r, item, asOf), "empty customer code is a standard rule")
}

func TestEligibleIgnoresCondition(t *testing.T) {
	r := baseRule()
	r.Condition = ConditionCategory
	r.ConditionValue = nil
	assert.True(t, Eligible(r, "C100", asOf))
	assert.False(t, Matches(r, beefItem(), asOf))

	r.CustomerCode = strPtr("C200")
	assert.False(t, Eligible(r, "C100", asOf))

	r.CustomerCode = nil
	r.Active = false
	assert.False(t, Eligible(r, "C100", asOf))
}

func TestMatchesCondition(t *testing.T) {
	tests := []struct {
		name      string
		condition ConditionType
		value     *string
		item      LineItem
		want      bool
	}{
		{"all products", ConditionAllProducts, nil, beefItem(), true},
		{"category case-insensitive", ConditionCategory, strPtr("BEEF"), beefItem(), true},
		{"category trims spaces", ConditionCategory, strPtr(" beef "), beefItem(), true},
		{"category mismatch", ConditionCategory, strPtr("Pork"), beefItem(), false},
		{"product code case-insensitive", ConditionProductCode, strPtr("bf-ribeye"), beefItem(), true},
		{"product code mismatch", ConditionProductCode, strPtr("BF-BRISKET"), beefItem(), false},
		{"empty category on item", ConditionCategory, strPtr("Beef"), LineItem{ProductCode: "X"}, false},
		{"empty product on item", ConditionProductCode, strPtr("X"), LineItem{Category: "Beef"}, false},
		{"missing condition value", ConditionCategory, nil, beefItem(), false},
		{"unknown condition fails closed", ConditionType("SUPPLIER"), strPtr("Beef"), beefItem(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRule()
			r.Condition = tt.condition
			r.ConditionValue = tt.value
			assert.Equal(t, tt.want, Matches(r, tt.item, asOf))
		})
	}
}

func TestMatchesUnicodeFolding(t *testing.T) {
	r := baseRule()
	r.Condition = ConditionCategory
	r.ConditionValue = strPtr("WURST")

	assert.True(t, Matches(r, LineItem{Category: "wurst"}, asOf))
	assert.True(t, MatchesCondition(r, "", "Wurst"))
}
