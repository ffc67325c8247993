package rules

import (
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Validate checks rule for the structural errors the authoring side is
// expected to reject. The engine also calls it and skips rules that
// fail.
func Validate(rule PricingRule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return &ValidationError{Field: "ruleName", Reason: "cannot be empty"}
	}
	if !rule.Condition.IsKnown() {
		return &ValidationError{Rule: rule.Name, Field: "conditionType", Reason: "unsupported value " + string(rule.Condition)}
	}
	if rule.Condition != ConditionAllProducts && strings.TrimSpace(conditionValue(rule)) == "" {
		return &ValidationError{Rule: rule.Name, Field: "conditionValue", Reason: "required for " + string(rule.Condition)}
	}
	if rule.ValidFrom != nil && rule.ValidTo != nil && civilDay(*rule.ValidFrom) > civilDay(*rule.ValidTo) {
		return &ValidationError{Rule: rule.Name, Field: "validTo", Reason: "must not be before validFrom"}
	}
	return validateMethod(rule)
}

func validateMethod(rule PricingRule) error {
	switch m := rule.Method.(type) {
	case nil:
		return &ValidationError{Rule: rule.Name, Field: "pricingMethod", Reason: "required"}
	case CostPlusPercent:
		if !m.Multiplier.IsPositive() {
			return &ValidationError{Rule: rule.Name, Field: "pricingValue", Reason: "multiplier must be positive"}
		}
	case CostPlusFixed:
		// any amount, negative is a credit
	case FixedPrice:
		if m.Price.IsNegative() {
			return &ValidationError{Rule: rule.Name, Field: "pricingValue", Reason: "fixed price must not be negative"}
		}
	case MaintainGPPercent:
		if m.Adjustment.Abs().GreaterThanOrEqual(one) {
			return &ValidationError{Rule: rule.Name, Field: "pricingValue", Reason: "GP adjustment must be between -1 and 1"}
		}
	case TargetGPPercent:
		if m.Target.IsNegative() || m.Target.GreaterThanOrEqual(one) {
			return &ValidationError{Rule: rule.Name, Field: "pricingValue", Reason: "target GP must be in [0, 1)"}
		}
	default:
		return &ValidationError{Rule: rule.Name, Field: "pricingMethod", Reason: "unsupported method"}
	}
	return nil
}
