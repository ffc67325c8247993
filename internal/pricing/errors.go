package pricing

import (
	"errors"
	"fmt"

	"github.com/primecut/pricing-service/internal/rules"
)

// ErrCustomerMismatch is returned when the customer passed to Calculate and
// the line item name different customers.
var ErrCustomerMismatch = errors.New("customer does not match line item")

// NoApplicableRuleError means the rule configuration could not price an item.
// With a valid standard ALL_PRODUCTS rule in place this cannot happen, so it
// is always surfaced and never replaced by a cost or zero price.
type NoApplicableRuleError struct {
	CustomerCode string
	ProductCode  string
	Category     string
	Skipped      int // matching rules that were skipped
}

func (e *NoApplicableRuleError) Error() string {
	msg := fmt.Sprintf("no pricing rule applies to customer %q product %q (category %q)",
		e.CustomerCode, e.ProductCode, e.Category)
	if e.Skipped > 0 {
		msg += fmt.Sprintf("; %d matching rule(s) skipped", e.Skipped)
	}
	return msg
}

// MethodApplicationError is a failure to apply one rule's method. The
// calculator recovers from it by skipping the rule.
type MethodApplicationError struct {
	Rule   string
	Method rules.MethodKind
	Reason string
}

func (e *MethodApplicationError) Error() string {
	return fmt.Sprintf("rule %q (%s): %s", e.Rule, e.Method, e.Reason)
}

// IsConfigurationError reports whether err means the rule set cannot price an item.
func IsConfigurationError(err error) bool {
	var nr *NoApplicableRuleError
	return errors.As(err, &nr)
}
