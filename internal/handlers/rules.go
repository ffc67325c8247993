package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/primecut/pricing-service/internal/rules"
)

// ============================================================================
// Rule Endpoints
// ============================================================================

// ListRules returns every pricing rule, inactive and expired ones included
// @Summary List pricing rules
// @Tags rules
// @Produce json
// @Success 200 {object} ListRulesResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /rules [get]
func ListRules(c *gin.Context) {
	if !rulesReady(c) {
		return
	}

	all, err := ruleStore.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response := ListRulesResponse{Rules: make([]Rule, len(all)), Total: len(all)}
	for i, r := range all {
		response.Rules[i] = newRule(r)
	}
	c.JSON(http.StatusOK, response)
}

// GetRule returns a single rule
// @Summary Get a pricing rule
// @Tags rules
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} Rule
// @Failure 404 {object} map[string]string "Rule not found"
// @Router /rules/{id} [get]
func GetRule(c *gin.Context) {
	if !rulesReady(c) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rule, err := ruleStore.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRule(rule))
}

// CreateRule validates and stores a new rule
// @Summary Create a pricing rule
// @Tags rules
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param rule body Rule true "Rule definition"
// @Success 201 {object} Rule
// @Failure 400 {object} map[string]string "Invalid rule"
// @Failure 409 {object} map[string]string "Duplicate rule name"
// @Router /rules [post]
func CreateRule(c *gin.Context) {
	if !rulesReady(c) {
		return
	}

	rule, ok := bindRule(c)
	if !ok {
		return
	}
	rule.ID = 0

	id, err := ruleStore.Create(c.Request.Context(), rule)
	if err != nil {
		writeError(c, err)
		return
	}
	rule.ID = id
	c.JSON(http.StatusCreated, newRule(rule))
}

// UpdateRule replaces a stored rule
// @Summary Update a pricing rule
// @Tags rules
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Rule ID"
// @Param rule body Rule true "Rule definition"
// @Success 200 {object} Rule
// @Failure 400 {object} map[string]string "Invalid rule"
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 409 {object} map[string]string "Duplicate name or last default rule"
// @Router /rules/{id} [put]
func UpdateRule(c *gin.Context) {
	if !rulesReady(c) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rule, ok := bindRule(c)
	if !ok {
		return
	}
	rule.ID = id

	if err := ruleStore.Update(c.Request.Context(), rule); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRule(rule))
}

// DeleteRule removes a rule. Saved snapshots keep their copied values
// @Summary Delete a pricing rule
// @Tags rules
// @Security ApiKeyAuth
// @Param id path int true "Rule ID"
// @Success 204
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 409 {object} map[string]string "Last default rule"
// @Router /rules/{id} [delete]
func DeleteRule(c *gin.Context) {
	if !rulesReady(c) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := ruleStore.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckRules reports whether a default rule exists and which default rules
// overwrite each other's base price
// @Summary Check the rule configuration
// @Tags rules
// @Produce json
// @Param asOf query string false "Check date (YYYY-MM-DD)"
// @Success 200 {object} RuleCheckResponse
// @Router /rules/check [get]
func CheckRules(c *gin.Context) {
	if !rulesReady(c) {
		return
	}

	asOf, err := asOfDate(c.Query("asOf"))
	if err != nil {
		writeError(c, err)
		return
	}

	all, err := ruleStore.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response := RuleCheckResponse{
		AsOf:              asOf.Format(time.DateOnly),
		HasDefaultRule:    true,
		BaseRuleConflicts: []Rule{},
	}
	if err := rules.CheckDefaultRule(all, asOf); err != nil {
		response.HasDefaultRule = false
		response.Error = err.Error()
	}
	for _, r := range rules.BaseRuleConflicts(all, asOf) {
		response.BaseRuleConflicts = append(response.BaseRuleConflicts, newRule(r))
	}
	c.JSON(http.StatusOK, response)
}

// PreviewRule shows what a draft rule would price across the catalog
// @Summary Preview a draft rule
// @Description Prices the catalog products a draft rule would match. Nothing is saved
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body Rule true "Draft rule"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} map[string]string "Invalid rule"
// @Router /rules/preview [post]
func PreviewRule(c *gin.Context) {
	if previewEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preview engine not initialized"})
		return
	}

	rule, ok := bindRule(c)
	if !ok {
		return
	}

	result, err := previewEngine.Preview(c.Request.Context(), rule)
	if err != nil {
		writeError(c, err)
		return
	}

	response := PreviewResponse{
		TotalMatchCount: result.TotalMatchCount,
		IsAllProducts:   result.IsAllProducts,
		Previews:        make([]PreviewRow, len(result.Previews)),
		Truncated:       result.Truncated,
	}
	for i, row := range result.Previews {
		response.Previews[i] = PreviewRow{
			ProductCode: row.ProductCode,
			ProductName: row.ProductName,
			Cost:        money(row.Cost),
			Error:       row.Error,
		}
		if row.CalculatedPrice != nil {
			p := money(*row.CalculatedPrice)
			response.Previews[i].CalculatedPrice = &p
		}
	}
	c.JSON(http.StatusOK, response)
}

func rulesReady(c *gin.Context) bool {
	if ruleStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rule store not initialized"})
		return false
	}
	return true
}

func bindRule(c *gin.Context) (rules.PricingRule, bool) {
	var req Rule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return rules.PricingRule{}, false
	}

	rule, err := req.toPricingRule()
	if err != nil {
		writeError(c, err)
		return rules.PricingRule{}, false
	}
	return rule, true
}
