package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

// ============================================================================
// Request / response types
// ============================================================================

// LineItemInput is a line item to price.
type LineItemInput struct {
	CustomerCode      string           `json:"customerCode"`
	ProductCode       string           `json:"productCode" binding:"required"`
	Category          string           `json:"category"`
	IncomingCost      decimal.Decimal  `json:"incomingCost" swaggertype:"string"`
	Quantity          decimal.Decimal  `json:"quantity" swaggertype:"string"`
	LastUnitSellPrice *decimal.Decimal `json:"lastUnitSellPrice,omitempty" swaggertype:"string"`
	LastCost          *decimal.Decimal `json:"lastCost,omitempty" swaggertype:"string"`
	LastAmount        *decimal.Decimal `json:"lastAmount,omitempty" swaggertype:"string"`
	LastGrossProfit   *decimal.Decimal `json:"lastGrossProfit,omitempty" swaggertype:"string"`
}

// CustomerInput identifies the customer a line item is priced for.
type CustomerInput struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CalculateRequest represents a single line item pricing request
type CalculateRequest struct {
	LineItem LineItemInput `json:"lineItem"`
	Customer CustomerInput `json:"customer"`
	AsOf     string        `json:"asOf,omitempty"` // YYYY-MM-DD, defaults to today
}

// AppliedRule is one step of a calculation chain.
type AppliedRule struct {
	RuleID           *int64 `json:"ruleId"`
	RuleName         string `json:"ruleName"`
	PricingMethod    string `json:"pricingMethod"`
	PricingValue     string `json:"pricingValue"`
	ApplicationOrder int    `json:"applicationOrder"`
	InputPrice       string `json:"inputPrice"`
	OutputPrice      string `json:"outputPrice"`
	Detail           string `json:"detail"`
}

// SkippedRule is a matching rule that was not applied.
type SkippedRule struct {
	RuleID   int64  `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Reason   string `json:"reason"`
}

// PricingResult is the outcome of pricing one line item.
type PricingResult struct {
	IncomingCost       string        `json:"incomingCost" swaggertype:"string"`
	FinalPrice         string        `json:"finalPrice"`
	AppliedRules       []AppliedRule `json:"appliedRules"`
	IntermediatePrices []string      `json:"intermediatePrices"`
	SkippedRules       []SkippedRule `json:"skippedRules,omitempty"`
	Description        string        `json:"description"`
}

// Rule is the API representation of a pricing rule.
type Rule struct {
	ID             int64   `json:"id"`
	RuleName       string  `json:"ruleName" binding:"required"`
	CustomerCode   *string `json:"customerCode,omitempty"`
	ConditionType  string  `json:"conditionType" binding:"required"`
	ConditionValue *string `json:"conditionValue,omitempty"`
	PricingMethod  string  `json:"pricingMethod" binding:"required"`
	PricingValue   string  `json:"pricingValue" binding:"required"`
	IsActive       bool    `json:"isActive"`
	ExecutionOrder int     `json:"executionOrder"`
	ValidFrom      *string `json:"validFrom,omitempty"` // YYYY-MM-DD
	ValidTo        *string `json:"validTo,omitempty"`   // YYYY-MM-DD
}

// ListRulesResponse is returned by GET /api/v1/rules.
type ListRulesResponse struct {
	Rules []Rule `json:"rules"`
	Total int    `json:"total"`
}

// RuleCheckResponse reports the health of the rule configuration.
type RuleCheckResponse struct {
	AsOf              string `json:"asOf"`
	HasDefaultRule    bool   `json:"hasDefaultRule"`
	Error             string `json:"error,omitempty"`
	BaseRuleConflicts []Rule `json:"baseRuleConflicts"`
}

// PreviewRow is the preview for one product.
type PreviewRow struct {
	ProductCode     string  `json:"productCode"`
	ProductName     string  `json:"productName"`
	Cost            string  `json:"cost"`
	CalculatedPrice *string `json:"calculatedPrice"`
	Error           string  `json:"error,omitempty"`
}

// PreviewResponse is returned by POST /api/v1/rules/preview.
type PreviewResponse struct {
	TotalMatchCount int          `json:"totalMatchCount"`
	IsAllProducts   bool         `json:"isAllProducts"`
	Previews        []PreviewRow `json:"previews"`
	Truncated       bool         `json:"truncated"`
}

// LineItemPricingResponse is the saved pricing of a session line item.
type LineItemPricingResponse struct {
	LineItemID         int64              `json:"lineItemId"`
	PricingStatus      string             `json:"pricingStatus"`
	PricingError       *string            `json:"pricingError,omitempty"`
	SellPrice          *string            `json:"sellPrice"`
	PricedAt           *time.Time         `json:"pricedAt,omitempty"`
	IncomingCost       *string            `json:"incomingCost,omitempty"`
	AppliedRules       []AppliedRuleState `json:"appliedRules"`
	IntermediatePrices []string           `json:"intermediatePrices"`
	Description        string             `json:"description"`
}

// AppliedRuleState is a saved step with the current state of its rule.
type AppliedRuleState struct {
	AppliedRule
	AppliedAt   time.Time `json:"appliedAt"`
	RuleDeleted bool      `json:"ruleDeleted"`
	RuleRenamed bool      `json:"ruleRenamed"`
	LiveName    string    `json:"liveName,omitempty"`
	LiveActive  bool      `json:"liveActive"`
}

// ============================================================================
// Conversions
// ============================================================================

func (in LineItemInput) toLineItem() rules.LineItem {
	return rules.LineItem{
		CustomerCode:      in.CustomerCode,
		ProductCode:       in.ProductCode,
		Category:          in.Category,
		IncomingCost:      in.IncomingCost,
		Quantity:          in.Quantity,
		LastUnitSellPrice: in.LastUnitSellPrice,
		LastCost:          in.LastCost,
		LastAmount:        in.LastAmount,
		LastGrossProfit:   in.LastGrossProfit,
	}
}

func newPricingResult(res *pricing.Result) PricingResult {
	out := PricingResult{
		IncomingCost:       money(res.IncomingCost),
		FinalPrice:         money(res.FinalPrice),
		AppliedRules:       make([]AppliedRule, len(res.Steps)),
		IntermediatePrices: prices(res.IntermediatePrices),
		Description:        res.Description,
	}
	for i, s := range res.Steps {
		id := s.Rule.ID
		out.AppliedRules[i] = AppliedRule{
			RuleID:           &id,
			RuleName:         s.Rule.Name,
			PricingMethod:    string(s.Rule.Method.Kind()),
			PricingValue:     s.Rule.Method.Value().String(),
			ApplicationOrder: s.Order,
			InputPrice:       s.Input.String(),
			OutputPrice:      s.Output.String(),
			Detail:           s.Detail,
		}
	}
	for _, sk := range res.Skipped {
		out.SkippedRules = append(out.SkippedRules, SkippedRule{RuleID: sk.Rule.ID, RuleName: sk.Rule.Name, Reason: sk.Reason})
	}
	return out
}

func appliedRuleFromSnapshot(s audit.Snapshot) AppliedRule {
	return AppliedRule{
		RuleID:           s.RuleID,
		RuleName:         s.RuleName,
		PricingMethod:    string(s.Method),
		PricingValue:     s.Value.String(),
		ApplicationOrder: s.ApplicationOrder,
		InputPrice:       s.InputPrice.String(),
		OutputPrice:      s.OutputPrice.String(),
		Detail:           s.Detail,
	}
}

func newRule(r rules.PricingRule) Rule {
	out := Rule{
		ID:             r.ID,
		RuleName:       r.Name,
		CustomerCode:   r.CustomerCode,
		ConditionType:  string(r.Condition),
		ConditionValue: r.ConditionValue,
		IsActive:       r.Active,
		ExecutionOrder: r.ExecutionOrder,
		ValidFrom:      formatDate(r.ValidFrom),
		ValidTo:        formatDate(r.ValidTo),
	}
	if r.Method != nil {
		out.PricingMethod = string(r.Method.Kind())
		out.PricingValue = r.Method.Value().String()
	}
	return out
}

func (r Rule) toPricingRule() (rules.PricingRule, error) {
	value, err := decimal.NewFromString(r.PricingValue)
	if err != nil {
		return rules.PricingRule{}, &rules.ValidationError{Rule: r.RuleName, Field: "pricingValue", Reason: "not a decimal number"}
	}
	method, err := rules.NewMethod(rules.MethodKind(r.PricingMethod), value)
	if err != nil {
		return rules.PricingRule{}, &rules.ValidationError{Rule: r.RuleName, Field: "pricingMethod", Reason: err.Error()}
	}
	from, err := parseDate("validFrom", r.ValidFrom)
	if err != nil {
		return rules.PricingRule{}, err
	}
	to, err := parseDate("validTo", r.ValidTo)
	if err != nil {
		return rules.PricingRule{}, err
	}

	customer := r.CustomerCode
	if customer != nil && *customer == "" {
		customer = nil
	}
	return rules.PricingRule{
		ID:             r.ID,
		Name:           r.RuleName,
		CustomerCode:   customer,
		Condition:      rules.ConditionType(r.ConditionType),
		ConditionValue: r.ConditionValue,
		Method:         method,
		Active:         r.IsActive,
		ExecutionOrder: r.ExecutionOrder,
		ValidFrom:      from,
		ValidTo:        to,
	}, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func prices(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, &rules.ValidationError{Field: field, Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *s)}
	}
	return &t, nil
}

// RuleStore is the rule persistence used by the rule endpoints.
type RuleStore interface {
	rules.Provider
	Get(ctx context.Context, id int64) (rules.PricingRule, error)
	Create(ctx context.Context, rule rules.PricingRule) (int64, error)
	Update(ctx context.Context, rule rules.PricingRule) error
	Delete(ctx context.Context, id int64) error
}
