package rules

import (
	"fmt"
	"sort"
	"time"
)

// Set is an immutable snapshot of rule definitions. A batch holds one Set for
// its whole duration so every item sees the same rules.
type Set struct {
	rules []PricingRule
}

// NewSet copies rs into a sorted, read-only set.
func NewSet(rs []PricingRule) Set {
	cp := make([]PricingRule, len(rs))
	copy(cp, rs)
	Sort(cp)
	return Set{rules: cp}
}

// Len returns the number of rules in the set.
func (s Set) Len() int { return len(s.rules) }

// All returns a copy of every rule in execution order.
func (s Set) All() []PricingRule {
	cp := make([]PricingRule, len(s.rules))
	copy(cp, s.rules)
	return cp
}

// Candidates returns the standard rules plus the rules scoped to customerCode.
func (s Set) Candidates(customerCode string) []PricingRule {
	out := make([]PricingRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsStandard() || *r.CustomerCode == customerCode {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders rules by execution order, then by id.
func Sort(rs []PricingRule) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].ExecutionOrder != rs[j].ExecutionOrder {
			return rs[i].ExecutionOrder < rs[j].ExecutionOrder
		}
		return rs[i].ID < rs[j].ID
	})
}

// IsDefault reports whether rule can serve as the mandatory fallback on asOf:
// active, valid, standard, ALL_PRODUCTS and well formed.
func IsDefault(rule PricingRule, asOf time.Time) bool {
	return rule.Active &&
		rule.ValidOn(asOf) &&
		rule.IsStandard() &&
		rule.Condition == ConditionAllProducts &&
		Validate(rule) == nil
}

// CheckDefaultRule returns ErrNoDefaultRule unless at least one rule in rs
// can price every product on asOf.
func CheckDefaultRule(rs []PricingRule, asOf time.Time) error {
	for _, r := range rs {
		if IsDefault(r, asOf) {
			return nil
		}
	}
	return fmt.Errorf("%w on %s", ErrNoDefaultRule, asOf.Format(time.DateOnly))
}

// BaseRuleConflicts returns the default rules whose method replaces the
// running price outright when there is more than one of them. Only the last
// such rule in execution order has any effect, which usually means two base
// prices were configured for the same scope.
func BaseRuleConflicts(rs []PricingRule, asOf time.Time) []PricingRule {
	var base []PricingRule
	for _, r := range rs {
		if IsDefault(r, asOf) && SetsPrice(r.Method) {
			base = append(base, r)
		}
	}
	if len(base) < 2 {
		return nil
	}
	Sort(base)
	return base
}
