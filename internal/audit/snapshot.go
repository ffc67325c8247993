// Package audit turns calculation chains into immutable snapshot rows and
// rebuilds chains from them without recomputing any price.
package audit

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

var (
	// ErrEmptyChain is returned when replaying zero snapshots.
	ErrEmptyChain = errors.New("snapshot chain is empty")
	// ErrBrokenChain is returned when snapshot orders or prices do not link up.
	ErrBrokenChain = errors.New("snapshot chain is broken")
)

// Snapshot is one applied rule as it was at calculation time. Name, method
// and value are copied so the row stays meaningful after the rule changes or
// is deleted.
type Snapshot struct {
	RuleID           *int64 // nil once the source rule is deleted
	RuleName         string
	Method           rules.MethodKind
	Value            decimal.Decimal
	ApplicationOrder int
	InputPrice       decimal.Decimal
	OutputPrice      decimal.Decimal
	Detail           string // rendered method detail, including GP branch notes
	AppliedAt        time.Time
}

// Build converts a calculation result into snapshot rows, one per step.
func Build(result *pricing.Result, appliedAt time.Time) []Snapshot {
	snaps := make([]Snapshot, len(result.Steps))
	for i, s := range result.Steps {
		id := s.Rule.ID
		snaps[i] = Snapshot{
			RuleID:           &id,
			RuleName:         s.Rule.Name,
			Method:           s.Rule.Method.Kind(),
			Value:            s.Rule.Method.Value(),
			ApplicationOrder: s.Order,
			InputPrice:       s.Input,
			OutputPrice:      s.Output,
			Detail:           s.Detail,
			AppliedAt:        appliedAt,
		}
	}
	return snaps
}

// Replayed is a calculation chain rebuilt from snapshots.
type Replayed struct {
	IncomingCost       decimal.Decimal
	FinalPrice         decimal.Decimal
	Snapshots          []Snapshot // sorted by application order
	IntermediatePrices []decimal.Decimal
	Description        string
}

// Replay rebuilds the chain from stored snapshots. Prices are taken from the
// rows as stored; a gap in the application order or a step whose input does
// not equal the previous output is reported as ErrBrokenChain.
func Replay(snaps []Snapshot) (*Replayed, error) {
	if len(snaps) == 0 {
		return nil, ErrEmptyChain
	}

	sorted := make([]Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ApplicationOrder < sorted[j].ApplicationOrder
	})

	out := &Replayed{
		IncomingCost:       sorted[0].InputPrice,
		Snapshots:          sorted,
		IntermediatePrices: make([]decimal.Decimal, 0, len(sorted)+1),
	}
	out.IntermediatePrices = append(out.IntermediatePrices, sorted[0].InputPrice)

	steps := make([]string, len(sorted))
	for i, s := range sorted {
		if s.ApplicationOrder != i+1 {
			return nil, fmt.Errorf("%w: expected application order %d, got %d", ErrBrokenChain, i+1, s.ApplicationOrder)
		}
		if i > 0 && !s.InputPrice.Equal(sorted[i-1].OutputPrice) {
			return nil, fmt.Errorf("%w: step %d input %s does not match previous output %s",
				ErrBrokenChain, s.ApplicationOrder, s.InputPrice, sorted[i-1].OutputPrice)
		}
		out.IntermediatePrices = append(out.IntermediatePrices, s.OutputPrice)
		steps[i] = pricing.FormatStep(s.RuleName, detail(s), s.OutputPrice)
	}

	out.FinalPrice = sorted[len(sorted)-1].OutputPrice
	out.Description = pricing.JoinSteps(steps)
	return out, nil
}

// detail falls back to rendering from the stored method and value for rows
// saved without a detail.
func detail(s Snapshot) string {
	if s.Detail != "" {
		return s.Detail
	}
	m, err := rules.NewMethod(s.Method, s.Value)
	if err != nil {
		return string(s.Method)
	}
	return pricing.MethodDetail(m, nil)
}
