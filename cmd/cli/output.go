package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/pricing"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// pricedItem is the JSON shape of one priced line item.
type pricedItem struct {
	CustomerCode       string   `json:"customerCode"`
	ProductCode        string   `json:"productCode"`
	Status             string   `json:"status"`
	IncomingCost       string   `json:"incomingCost"`
	FinalPrice         string   `json:"finalPrice,omitempty"`
	IntermediatePrices []string `json:"intermediatePrices,omitempty"`
	Description        string   `json:"description,omitempty"`
	Skipped            []string `json:"skipped,omitempty"`
	Error              string   `json:"error,omitempty"`
}

func newPricedItem(res *pricing.Result) pricedItem {
	out := pricedItem{
		Status:       string(pricing.StatusPriced),
		IncomingCost: res.IncomingCost.StringFixed(2),
		FinalPrice:   res.FinalPrice.StringFixed(2),
		Description:  res.Description,
	}
	for _, p := range res.IntermediatePrices {
		out.IntermediatePrices = append(out.IntermediatePrices, p.String())
	}
	for _, sk := range res.Skipped {
		out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %s", sk.Rule.Name, sk.Reason))
	}
	return out
}

func checkOutput(format string) error {
	switch strings.ToLower(format) {
	case outputTable, outputJSON:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", format)
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseDay parses a YYYY-MM-DD flag, returning fallback when empty.
func parseDay(flag, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (format: YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

// optionalMoney parses a decimal flag; empty means unset.
func optionalMoney(flag, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return &d, nil
}
