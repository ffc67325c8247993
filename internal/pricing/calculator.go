// Package pricing applies ordered pricing rules to line items and records the
// calculation chain.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

// Step is one rule application in a calculation chain.
type Step struct {
	Rule   rules.PricingRule
	Order  int // 1-based application order
	Input  decimal.Decimal
	Output decimal.Decimal
	GP     *GPResolution // set for the GP methods
	Detail string        // method part of the step description
}

// SkippedRule is a matching rule that was not applied.
type SkippedRule struct {
	Rule   rules.PricingRule
	Reason string
}

// Result is the outcome of pricing one line item.
type Result struct {
	IncomingCost       decimal.Decimal
	FinalPrice         decimal.Decimal
	Steps              []Step
	IntermediatePrices []decimal.Decimal // len(Steps)+1, starts at IncomingCost, ends at FinalPrice
	Skipped            []SkippedRule
	Description        string
}

// AppliedRules returns the applied rules in application order.
func (r *Result) AppliedRules() []rules.PricingRule {
	out := make([]rules.PricingRule, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Rule
	}
	return out
}

// Calculator prices line items from a rule provider.
type Calculator struct {
	provider rules.Provider
	config   *Config
	gp       *GPResolver
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewCalculator creates a calculator. provider may be nil when only Apply and
// ApplyRule are used.
func NewCalculator(provider rules.Provider, config *Config) *Calculator {
	return &Calculator{
		provider: provider,
		config:   config,
		gp:       NewGPResolver(config),
		metrics:  NewMetricsRecorder(),
		logger:   log.With().Str("component", "price_calculator").Logger(),
	}
}

// GPResolver returns the resolver used for the GP methods.
func (c *Calculator) GPResolver() *GPResolver {
	return c.gp
}

// RoundFinal rounds p to the final price precision.
func (c *Calculator) RoundFinal(p decimal.Decimal) decimal.Decimal {
	return p.Round(c.config.FinalScale)
}

// Calculate prices item for customer using the rules that apply on asOf.
func (c *Calculator) Calculate(ctx context.Context, item rules.LineItem, customer rules.Customer, asOf time.Time) (*Result, error) {
	if customer.Code != "" {
		switch item.CustomerCode {
		case "":
			item.CustomerCode = customer.Code
		case customer.Code:
		default:
			return nil, fmt.Errorf("%w: %q vs %q", ErrCustomerMismatch, customer.Code, item.CustomerCode)
		}
	}
	if c.provider == nil {
		return nil, errors.New("calculator has no rule provider")
	}

	rs, err := c.provider.FindApplicableRules(ctx, item.CustomerCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for customer %s: %w", item.CustomerCode, err)
	}
	return c.Apply(rules.NewSet(rs), item, asOf)
}

// Apply prices item against a fixed rule set. It performs no I/O and returns
// the same result for the same inputs.
func (c *Calculator) Apply(set rules.Set, item rules.LineItem, asOf time.Time) (*Result, error) {
	start := time.Now()

	result, err := c.apply(set, item, asOf)
	switch {
	case err == nil:
		c.metrics.RecordCalculation("priced", time.Since(start))
	case IsConfigurationError(err):
		c.metrics.RecordCalculation("no_rule", time.Since(start))
	default:
		c.metrics.RecordCalculation("error", time.Since(start))
	}
	return result, err
}

func (c *Calculator) apply(set rules.Set, item rules.LineItem, asOf time.Time) (*Result, error) {
	result := &Result{
		IncomingCost:       item.IncomingCost,
		IntermediatePrices: []decimal.Decimal{item.IncomingCost},
	}

	// Candidates come back sorted by execution order, then id.
	current := item.IncomingCost
	for _, rule := range set.Candidates(item.CustomerCode) {
		if !rules.Eligible(rule, item.CustomerCode, asOf) {
			continue
		}
		// Invalid rules are recorded as skipped before their condition is checked.
		if err := rules.Validate(rule); err != nil {
			c.skip(result, rule, "invalid", err)
			continue
		}
		if !rules.MatchesCondition(rule, item.ProductCode, item.Category) {
			continue
		}

		next, gp, err := c.ApplyRule(rule, current, item)
		if err != nil {
			c.skip(result, rule, "method_error", err)
			continue
		}

		result.Steps = append(result.Steps, Step{
			Rule:   rule,
			Order:  len(result.Steps) + 1,
			Input:  current,
			Output: next,
			GP:     gp,
			Detail: MethodDetail(rule.Method, gp),
		})
		result.IntermediatePrices = append(result.IntermediatePrices, next)
		c.metrics.RecordRuleApplication(string(rule.Method.Kind()))
		current = next
	}

	if len(result.Steps) == 0 {
		return nil, &NoApplicableRuleError{
			CustomerCode: item.CustomerCode,
			ProductCode:  item.ProductCode,
			Category:     item.Category,
			Skipped:      len(result.Skipped),
		}
	}

	// Only the final price is rounded to currency precision.
	final := current.Round(c.config.FinalScale)
	last := len(result.Steps) - 1
	result.Steps[last].Output = final
	result.IntermediatePrices[len(result.IntermediatePrices)-1] = final
	result.FinalPrice = final
	result.Description = describe(result.Steps)

	return result, nil
}

// ApplyRule applies a single rule's method to the running price current.
// The returned price keeps the intermediate scale.
func (c *Calculator) ApplyRule(rule rules.PricingRule, current decimal.Decimal, item rules.LineItem) (decimal.Decimal, *GPResolution, error) {
	scale := c.config.IntermediateScale

	switch m := rule.Method.(type) {
	case rules.CostPlusPercent:
		return current.Mul(m.Multiplier).Round(scale), nil, nil
	case rules.CostPlusFixed:
		return current.Add(m.Amount).Round(scale), nil, nil
	case rules.FixedPrice:
		return m.Price.Round(scale), nil, nil
	case rules.MaintainGPPercent, rules.TargetGPPercent:
		return c.applyGP(rule, item)
	case nil:
		return current, nil, &MethodApplicationError{Rule: rule.Name, Reason: "no pricing method"}
	default:
		return current, nil, &MethodApplicationError{Rule: rule.Name, Method: m.Kind(), Reason: "unsupported pricing method"}
	}
}

// applyGP prices from incoming cost: cost / (1 - targetGP).
func (c *Calculator) applyGP(rule rules.PricingRule, item rules.LineItem) (decimal.Decimal, *GPResolution, error) {
	one := decimal.NewFromInt(1)

	gp, err := c.gp.Resolve(rule.Method, item.LastUnitSellPrice, item.LastCost)
	if err != nil {
		return item.IncomingCost, nil, err
	}

	divisor := one.Sub(gp.Target)
	if !divisor.IsPositive() {
		def, _ := c.gp.Clamp(rule.Method.Value())
		c.logger.Warn().
			Str("rule", rule.Name).
			Str("target_gp", gp.Target.String()).
			Str("default_gp", def.String()).
			Msg("GP target leaves no positive divisor, falling back to rule default")

		divisor = one.Sub(def)
		if !divisor.IsPositive() {
			return item.IncomingCost, nil, &MethodApplicationError{
				Rule:   rule.Name,
				Method: rule.Method.Kind(),
				Reason: fmt.Sprintf("default GP %s leaves no positive divisor", def),
			}
		}
		gp.Target = def
		gp.Source = GPSourceDefault
		gp.DivisorFallback = true
	}

	c.metrics.RecordGPResolution(gp.Source, gp.Capped)
	return item.IncomingCost.DivRound(divisor, c.config.IntermediateScale), &gp, nil
}

func (c *Calculator) skip(result *Result, rule rules.PricingRule, reason string, err error) {
	c.logger.Warn().
		Err(err).
		Int64("rule_id", rule.ID).
		Str("rule", rule.Name).
		Str("reason", reason).
		Msg("Skipping pricing rule")
	c.metrics.RecordRuleSkip(reason)
	result.Skipped = append(result.Skipped, SkippedRule{Rule: rule, Reason: err.Error()})
}

func describe(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = FormatStep(s.Rule.Name, s.Detail, s.Output)
	}
	return JoinSteps(parts)
}
