package rules

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Matches reports whether rule applies to item on asOf: the rule is
// Eligible for the item's customer and its product condition holds.
func Matches(rule PricingRule, item LineItem, asOf time.Time) bool {
	return Eligible(rule, item.CustomerCode, asOf) && MatchesCondition(rule, item.ProductCode, item.Category)
}

// Eligible reports whether rule is active on asOf and scoped to
// customerCode (or to every customer). The product condition is not checked.
func Eligible(rule PricingRule, customerCode string, asOf time.Time) bool {
	if !rule.Active || !rule.ValidOn(asOf) {
		return false
	}
	return rule.IsStandard() || *rule.CustomerCode == customerCode
}

// MatchesCondition checks only the product condition of rule. Unknown
// condition types never match.
func MatchesCondition(rule PricingRule, productCode, category string) bool {
	switch rule.Condition {
	case ConditionAllProducts:
		return true
	case ConditionCategory:
		return equalFold(conditionValue(rule), category)
	case ConditionProductCode:
		return equalFold(conditionValue(rule), productCode)
	default:
		return false
	}
}

func conditionValue(rule PricingRule) string {
	if rule.ConditionValue == nil {
		return ""
	}
	return *rule.ConditionValue
}

// equalFold compares with Unicode case folding. Empty values never match.
func equalFold(want, got string) bool {
	want, got = strings.TrimSpace(want), strings.TrimSpace(got)
	if want == "" || got == "" {
		return false
	}
	// Casers carry state and must not be shared between goroutines.
	fold := cases.Fold()
	return fold.String(want) == fold.String(got)
}
