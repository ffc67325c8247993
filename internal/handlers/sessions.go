package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// Session Endpoints
// ============================================================================

// ApplyRulesRequest optionally fixes the pricing date of a session run.
type ApplyRulesRequest struct {
	AsOf string `json:"asOf,omitempty"` // YYYY-MM-DD, defaults to today
}

// ApplySessionRules prices every line item of a session and saves the results
// @Summary Apply rules to a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param request body ApplyRulesRequest false "Pricing date"
// @Success 200 {object} sessions.ApplySummary
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/apply-rules [post]
func ApplySessionRules(c *gin.Context) {
	if sessionService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session pricing not initialized"})
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ApplyRulesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	asOf, err := asOfDate(req.AsOf)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := sessionService.ApplyRules(c.Request.Context(), sessionID, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetLineItemPricing returns the saved calculation chain of a line item
// @Summary Get the saved pricing of a line item
// @Tags sessions
// @Produce json
// @Param id path int true "Line item ID"
// @Success 200 {object} LineItemPricingResponse
// @Failure 404 {object} map[string]string "Line item not found"
// @Failure 422 {object} map[string]string "Broken snapshot chain"
// @Router /line-items/{id}/pricing [get]
func GetLineItemPricing(c *gin.Context) {
	if sessionService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session pricing not initialized"})
		return
	}

	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ip, err := sessionService.LineItemPricing(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	response := LineItemPricingResponse{
		LineItemID:         ip.Item.ID,
		PricingStatus:      ip.Item.PricingStatus,
		PricingError:       ip.Item.PricingError,
		PricedAt:           ip.Item.PricedAt,
		AppliedRules:       []AppliedRuleState{},
		IntermediatePrices: []string{},
	}
	if ip.Item.SellPrice != nil {
		p := money(*ip.Item.SellPrice)
		response.SellPrice = &p
	}
	if ip.Chain != nil {
		cost := money(ip.Chain.IncomingCost)
		response.IncomingCost = &cost
		response.IntermediatePrices = prices(ip.Chain.IntermediatePrices)
		response.Description = ip.Chain.Description
	}
	for _, s := range ip.Steps {
		response.AppliedRules = append(response.AppliedRules, AppliedRuleState{
			AppliedRule: appliedRuleFromSnapshot(s.Snapshot),
			AppliedAt:   s.AppliedAt,
			RuleDeleted: s.Deleted,
			RuleRenamed: s.Renamed,
			LiveName:    s.LiveName,
			LiveActive:  s.LiveActive,
		})
	}
	c.JSON(http.StatusOK, response)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
