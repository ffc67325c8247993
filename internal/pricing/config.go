package pricing

import "github.com/shopspring/decimal"

// Config holds the pricing engine settings.
// It is loaded from the "pricing" and "batch" sections of the service config.
type Config struct {
	// Hard capping band applied to every resolved GP fraction
	MinGP decimal.Decimal
	MaxGP decimal.Decimal

	// Display-only sanity band; historical GP outside it is flagged in the description
	WarnLowGP  decimal.Decimal
	WarnHighGP decimal.Decimal

	// Decimal places kept for chain values and for the final price
	IntermediateScale int32
	FinalScale        int32

	// Maximum concurrent line items in a batch
	BatchWorkers int
}

// DefaultConfig returns the default pricing configuration.
func DefaultConfig() *Config {
	return &Config{
		MinGP:             decimal.RequireFromString("0.10"),
		MaxGP:             decimal.RequireFromString("0.60"),
		WarnLowGP:         decimal.RequireFromString("0.12"),
		WarnHighGP:        decimal.RequireFromString("0.45"),
		IntermediateScale: 6,
		FinalScale:        2,
		BatchWorkers:      8,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	one := decimal.NewFromInt(1)
	if c.MinGP.IsNegative() {
		return ErrInvalidConfig{Field: "min_gp", Reason: "must not be negative"}
	}
	if c.MaxGP.GreaterThanOrEqual(one) {
		return ErrInvalidConfig{Field: "max_gp", Reason: "must be below 1"}
	}
	if c.MinGP.GreaterThan(c.MaxGP) {
		return ErrInvalidConfig{Field: "min_gp", Reason: "must be <= max_gp"}
	}
	if c.WarnLowGP.GreaterThan(c.WarnHighGP) {
		return ErrInvalidConfig{Field: "warn_low_gp", Reason: "must be <= warn_high_gp"}
	}
	if c.IntermediateScale < 6 {
		return ErrInvalidConfig{Field: "intermediate_scale", Reason: "must be at least 6"}
	}
	if c.FinalScale < 0 || c.FinalScale > c.IntermediateScale {
		return ErrInvalidConfig{Field: "final_scale", Reason: "must be between 0 and intermediate_scale"}
	}
	if c.BatchWorkers < 1 {
		return ErrInvalidConfig{Field: "batch_workers", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
