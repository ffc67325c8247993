package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned for a pricing method name outside the supported set.
	ErrUnknownMethod = errors.New("unknown pricing method")

	// ErrNoDefaultRule means no active, currently valid, global ALL_PRODUCTS rule exists.
	ErrNoDefaultRule = errors.New("no active standard ALL_PRODUCTS rule")
)

// ValidationError describes a malformed rule.
type ValidationError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Reason)
	}
	return e.Field + ": " + e.Reason
}
