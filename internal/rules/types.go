// Package rules holds the pricing rule model and the matching logic that
// decides whether a rule applies to a sales line item.
package rules

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ConditionType selects which products a rule targets.
type ConditionType string

const (
	ConditionAllProducts ConditionType = "ALL_PRODUCTS"
	ConditionCategory    ConditionType = "CATEGORY"
	ConditionProductCode ConditionType = "PRODUCT_CODE"
)

// IsKnown reports whether c is one of the supported condition types.
func (c ConditionType) IsKnown() bool {
	switch c {
	case ConditionAllProducts, ConditionCategory, ConditionProductCode:
		return true
	}
	return false
}

// PricingRule is a single configured pricing rule.
type PricingRule struct {
	ID             int64
	Name           string         // globally unique
	CustomerCode   *string        // nil for standard (global) rules
	Condition      ConditionType
	ConditionValue *string        // required unless Condition is ALL_PRODUCTS
	Method         Method
	Active         bool
	ExecutionOrder int
	ValidFrom      *time.Time // inclusive, date granularity
	ValidTo        *time.Time // inclusive, date granularity
}

// IsStandard reports whether the rule applies to every customer.
func (r PricingRule) IsStandard() bool {
	return r.CustomerCode == nil || *r.CustomerCode == ""
}

// ValidOn reports whether asOf falls within the rule's validity window.
func (r PricingRule) ValidOn(asOf time.Time) bool {
	day := civilDay(asOf)
	if r.ValidFrom != nil && day < civilDay(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && day > civilDay(*r.ValidTo) {
		return false
	}
	return true
}

// LineItem is the pricing input for one customer/product pair.
// The Last* fields come from prior transaction history and are only
// needed by the gross-profit methods.
type LineItem struct {
	CustomerCode string
	ProductCode  string
	Category     string
	IncomingCost decimal.Decimal
	Quantity     decimal.Decimal

	LastUnitSellPrice *decimal.Decimal
	LastCost          *decimal.Decimal
	LastAmount        *decimal.Decimal
	LastGrossProfit   *decimal.Decimal
}

// Customer identifies the buyer a line item is priced for.
type Customer struct {
	Code string
	Name string
}

// Provider supplies rule definitions to the pricing engine.
type Provider interface {
	// FindApplicableRules returns standard rules plus the rules scoped to
	// customerCode, sorted by execution order then id.
	FindApplicableRules(ctx context.Context, customerCode string, asOf time.Time) ([]PricingRule, error)

	// FindAll returns every rule regardless of scope or state.
	FindAll(ctx context.Context) ([]PricingRule, error)
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
