package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

// GPSource records where a resolved GP fraction came from.
type GPSource string

const (
	GPSourceHistorical GPSource = "historical" // historical GP plus adjustment
	GPSourceTarget     GPSource = "target"     // absolute target from the rule
	GPSourceDefault    GPSource = "default"    // rule value, no usable history
)

// GPWarning flags a historical GP outside the display sanity band.
type GPWarning string

const (
	GPWarningNone GPWarning = ""
	GPWarningLow  GPWarning = "low"
	GPWarningHigh GPWarning = "high"
)

// GPResolution is the outcome of resolving a GP method, with every branch
// taken kept for the step description.
type GPResolution struct {
	Source     GPSource
	Historical *decimal.Decimal // nil when history was missing or unusable
	Adjustment decimal.Decimal  // MAINTAIN_GP_PERCENT only
	Unclamped  decimal.Decimal  // value before capping
	Target     decimal.Decimal  // final GP fraction used for pricing

	// NegativeFallback is set when the adjusted GP went negative and the
	// rule's default was used instead.
	NegativeFallback bool
	// Capped is set when Unclamped fell outside [MinGP, MaxGP].
	Capped bool
	// DivisorFallback is set when the target left no positive divisor and
	// the rule's default GP was used.
	DivisorFallback bool

	Warning GPWarning
}

// GPResolver computes the target GP fraction for the GP-maintaining methods.
type GPResolver struct {
	minGP, maxGP      decimal.Decimal
	warnLow, warnHigh decimal.Decimal
	scale             int32
}

// NewGPResolver creates a resolver using the capping and warning bands from cfg.
func NewGPResolver(cfg *Config) *GPResolver {
	return &GPResolver{
		minGP:    cfg.MinGP,
		maxGP:    cfg.MaxGP,
		warnLow:  cfg.WarnLowGP,
		warnHigh: cfg.WarnHighGP,
		scale:    cfg.IntermediateScale,
	}
}

// Historical returns (lastSell - lastCost) / lastSell, or nil when either
// value is missing or the sell price is zero.
func (r *GPResolver) Historical(lastSell, lastCost *decimal.Decimal) *decimal.Decimal {
	if lastSell == nil || lastCost == nil || lastSell.IsZero() {
		return nil
	}
	gp := lastSell.Sub(*lastCost).DivRound(*lastSell, r.scale)
	return &gp
}

// Resolve returns the GP fraction to price with for method m. m must be one
// of the GP methods.
func (r *GPResolver) Resolve(m rules.Method, lastSell, lastCost *decimal.Decimal) (GPResolution, error) {
	res := GPResolution{Historical: r.Historical(lastSell, lastCost)}
	def := m.Value()

	switch m := m.(type) {
	case rules.MaintainGPPercent:
		res.Adjustment = m.Adjustment
		if res.Historical != nil {
			res.Source = GPSourceHistorical
			res.Unclamped = res.Historical.Add(m.Adjustment)
		} else {
			res.Source = GPSourceDefault
			res.Unclamped = def
		}
	case rules.TargetGPPercent:
		res.Source = GPSourceTarget
		res.Unclamped = m.Target
	default:
		return res, &MethodApplicationError{Method: m.Kind(), Reason: "not a gross profit method"}
	}

	if res.Unclamped.IsNegative() {
		res.NegativeFallback = true
		res.Source = GPSourceDefault
		res.Unclamped = def
	}

	res.Target, res.Capped = r.Clamp(res.Unclamped)
	res.Warning = r.warning(res.Historical)
	return res, nil
}

// Clamp limits gp to the configured [MinGP, MaxGP] band.
func (r *GPResolver) Clamp(gp decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case gp.LessThan(r.minGP):
		return r.minGP, true
	case gp.GreaterThan(r.maxGP):
		return r.maxGP, true
	}
	return gp, false
}

func (r *GPResolver) warning(historical *decimal.Decimal) GPWarning {
	if historical == nil {
		return GPWarningNone
	}
	switch {
	case historical.LessThan(r.warnLow):
		return GPWarningLow
	case historical.GreaterThan(r.warnHigh):
		return GPWarningHigh
	}
	return GPWarningNone
}
