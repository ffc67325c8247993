package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MethodKind is the persisted name of a pricing method.
type MethodKind string

const (
	KindCostPlusPercent   MethodKind = "COST_PLUS_PERCENT"
	KindCostPlusFixed     MethodKind = "COST_PLUS_FIXED"
	KindFixedPrice        MethodKind = "FIXED_PRICE"
	KindMaintainGPPercent MethodKind = "MAINTAIN_GP_PERCENT"
	KindTargetGPPercent   MethodKind = "TARGET_GP_PERCENT"
)

// Method is the closed set of pricing methods. Only the variants declared in
// this package implement it.
type Method interface {
	Kind() MethodKind
	// Value is the configured pricing value as stored on the rule.
	Value() decimal.Decimal
	isMethod()
}

// CostPlusPercent multiplies the running price. 1.20 is +20%, 0.80 is a 20% rebate.
type CostPlusPercent struct{ Multiplier decimal.Decimal }

// CostPlusFixed adds a fixed amount to the running price. Negative amounts are credits.
type CostPlusFixed struct{ Amount decimal.Decimal }

// FixedPrice replaces the running price with an absolute value.
type FixedPrice struct{ Price decimal.Decimal }

// MaintainGPPercent keeps the customer's historical GP% shifted by Adjustment.
// Without history, Adjustment doubles as the default GP fraction.
type MaintainGPPercent struct{ Adjustment decimal.Decimal }

// TargetGPPercent prices to an absolute GP fraction.
type TargetGPPercent struct{ Target decimal.Decimal }

func (CostPlusPercent) Kind() MethodKind   { return KindCostPlusPercent }
func (CostPlusFixed) Kind() MethodKind     { return KindCostPlusFixed }
func (FixedPrice) Kind() MethodKind        { return KindFixedPrice }
func (MaintainGPPercent) Kind() MethodKind { return KindMaintainGPPercent }
func (TargetGPPercent) Kind() MethodKind   { return KindTargetGPPercent }

func (m CostPlusPercent) Value() decimal.Decimal   { return m.Multiplier }
func (m CostPlusFixed) Value() decimal.Decimal     { return m.Amount }
func (m FixedPrice) Value() decimal.Decimal        { return m.Price }
func (m MaintainGPPercent) Value() decimal.Decimal { return m.Adjustment }
func (m TargetGPPercent) Value() decimal.Decimal   { return m.Target }

func (CostPlusPercent) isMethod()   {}
func (CostPlusFixed) isMethod()     {}
func (FixedPrice) isMethod()        {}
func (MaintainGPPercent) isMethod() {}
func (TargetGPPercent) isMethod()   {}

// IsGrossProfit reports whether the method prices from a GP fraction.
func IsGrossProfit(m Method) bool {
	switch m.(type) {
	case MaintainGPPercent, TargetGPPercent:
		return true
	}
	return false
}

// SetsPrice reports whether the method ignores the running price entirely.
func SetsPrice(m Method) bool {
	switch m.(type) {
	case FixedPrice, MaintainGPPercent, TargetGPPercent:
		return true
	}
	return false
}

// NewMethod builds the method variant for a persisted kind/value pair.
func NewMethod(kind MethodKind, value decimal.Decimal) (Method, error) {
	switch kind {
	case KindCostPlusPercent:
		return CostPlusPercent{Multiplier: value}, nil
	case KindCostPlusFixed:
		return CostPlusFixed{Amount: value}, nil
	case KindFixedPrice:
		return FixedPrice{Price: value}, nil
	case KindMaintainGPPercent:
		return MaintainGPPercent{Adjustment: value}, nil
	case KindTargetGPPercent:
		return TargetGPPercent{Target: value}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(kind))
}

// MethodKinds lists every supported method in display order.
func MethodKinds() []MethodKind {
	return []MethodKind{
		KindCostPlusPercent,
		KindCostPlusFixed,
		KindFixedPrice,
		KindMaintainGPPercent,
		KindTargetGPPercent,
	}
}
