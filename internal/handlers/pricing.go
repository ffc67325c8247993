package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/primecut/pricing-service/internal/preview"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
	"github.com/primecut/pricing-service/internal/sessions"
)

// ============================================================================
// Pricing Endpoints
// ============================================================================

// SessionService applies rules to pricing sessions.
type SessionService interface {
	ApplyRules(ctx context.Context, sessionID int64, asOf time.Time) (*sessions.ApplySummary, error)
	LineItemPricing(ctx context.Context, itemID int64) (*sessions.ItemPricing, error)
}

const tracerName = "github.com/primecut/pricing-service/internal/handlers"

// Global pricing instances (initialized by the application)
var (
	ruleStore      RuleStore
	calculator     *pricing.Calculator
	previewEngine  *preview.Engine
	productCatalog preview.ProductCatalog
	sessionService SessionService

	now = time.Now
)

// InitPricing wires the pricing handlers.
// This should be called during application startup
func InitPricing(store RuleStore, calc *pricing.Calculator, catalog preview.ProductCatalog, engine *preview.Engine, svc SessionService) {
	ruleStore = store
	calculator = calc
	productCatalog = catalog
	previewEngine = engine
	sessionService = svc
}

// Calculate prices a single line item
// @Summary Calculate a sell price
// @Description Applies the matching pricing rules in execution order and returns the final price with its calculation chain
// @Tags pricing
// @Accept json
// @Produce json
// @Param request body CalculateRequest true "Line item and customer"
// @Success 200 {object} PricingResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]string "No applicable rule"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /pricing/calculate [post]
func Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if calculator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pricing engine not initialized"})
		return
	}

	asOf, err := asOfDate(req.AsOf)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "pricing.calculate")
	defer span.End()
	span.SetAttributes(
		attribute.String("product_code", req.LineItem.ProductCode),
		attribute.String("as_of", asOf.Format(time.DateOnly)),
	)

	customer := rules.Customer{Code: req.Customer.Code, Name: req.Customer.Name}
	result, err := calculator.Calculate(ctx, req.LineItem.toLineItem(), customer, asOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("applied_rules", len(result.Steps)))

	c.JSON(http.StatusOK, newPricingResult(result))
}

// asOfDate parses an optional YYYY-MM-DD date, defaulting to today.
func asOfDate(s string) (time.Time, error) {
	if s == "" {
		return now(), nil
	}
	t, err := parseDate("asOf", &s)
	if err != nil {
		return time.Time{}, err
	}
	return *t, nil
}
