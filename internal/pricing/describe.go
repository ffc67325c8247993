package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

// StepSeparator joins step descriptions into a chain description.
const StepSeparator = "\n→ "

var hundred = decimal.NewFromInt(100)

// FormatStep renders one chain step as "<name>: <detail> → $<running>".
func FormatStep(name, detail string, running decimal.Decimal) string {
	return fmt.Sprintf("%s: %s → $%s", name, detail, running.StringFixed(2))
}

// JoinSteps joins formatted steps into the chain description.
func JoinSteps(steps []string) string {
	return strings.Join(steps, StepSeparator)
}

// MethodDetail renders the method part of a step description. For the GP
// methods gp must be the resolution used for the step.
func MethodDetail(m rules.Method, gp *GPResolution) string {
	switch m := m.(type) {
	case rules.CostPlusPercent:
		return signedPercent(m.Multiplier.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(4))
	case rules.CostPlusFixed:
		if m.Amount.IsNegative() {
			return "Cost-$" + m.Amount.Abs().StringFixed(2)
		}
		return "Cost+$" + m.Amount.StringFixed(2)
	case rules.FixedPrice:
		return "Fixed $" + m.Price.StringFixed(2)
	case rules.MaintainGPPercent, rules.TargetGPPercent:
		if gp == nil {
			return fmt.Sprintf("Maintained %s%% GP", percent1(m.Value()))
		}
		return gpDetail(gp)
	}
	return "unknown method"
}

func gpDetail(gp *GPResolution) string {
	var notes []string
	switch gp.Source {
	case GPSourceHistorical:
		notes = append(notes, "historical "+percent1(*gp.Historical)+"%")
		if !gp.Adjustment.IsZero() {
			notes = append(notes, "adj "+signedPercent(gp.Adjustment.Mul(hundred).Round(1)))
		}
	case GPSourceTarget:
		notes = append(notes, "target")
		if gp.Historical != nil {
			notes = append(notes, "historical "+percent1(*gp.Historical)+"%")
		}
	case GPSourceDefault:
		if gp.NegativeFallback {
			notes = append(notes, "negative GP, used default")
		} else {
			notes = append(notes, "default")
		}
	}
	if gp.Capped {
		notes = append(notes, "capped from "+percent1(gp.Unclamped)+"%")
	}
	if gp.DivisorFallback {
		notes = append(notes, "divisor fallback to default")
	}

	s := fmt.Sprintf("Maintained %s%% GP (%s)", percent1(gp.Target), strings.Join(notes, ", "))
	switch gp.Warning {
	case GPWarningLow:
		s += " [low GP warning]"
	case GPWarningHigh:
		s += " [high GP warning]"
	}
	return s
}

// percent1 renders a fraction as a percentage with one decimal place.
func percent1(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(1)
}

func signedPercent(p decimal.Decimal) string {
	if p.IsNegative() {
		return p.String() + "%"
	}
	return "+" + p.String() + "%"
}
