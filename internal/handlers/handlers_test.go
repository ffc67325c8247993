package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/preview"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
	"github.com/primecut/pricing-service/internal/sessions"
)

var testDay = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// memRuleStore is an in-memory RuleStore for testing.
type memRuleStore struct {
	rules  map[int64]rules.PricingRule
	nextID int64
}

func newMemRuleStore(rs ...rules.PricingRule) *memRuleStore {
	m := &memRuleStore{rules: map[int64]rules.PricingRule{}}
	for _, r := range rs {
		_, err := m.Create(context.Background(), r)
		if err != nil {
			panic(err)
		}
	}
	return m
}

func (m *memRuleStore) FindApplicableRules(ctx context.Context, customerCode string, asOf time.Time) ([]rules.PricingRule, error) {
	var out []rules.PricingRule
	for _, r := range m.rules {
		if !r.Active || !r.ValidOn(asOf) {
			continue
		}
		if r.IsStandard() || *r.CustomerCode == customerCode {
			out = append(out, r)
		}
	}
	rules.Sort(out)
	return out, nil
}

func (m *memRuleStore) FindAll(ctx context.Context) ([]rules.PricingRule, error) {
	out := make([]rules.PricingRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	rules.Sort(out)
	return out, nil
}

func (m *memRuleStore) Get(ctx context.Context, id int64) (rules.PricingRule, error) {
	r, ok := m.rules[id]
	if !ok {
		return rules.PricingRule{}, database.ErrNotFound
	}
	return r, nil
}

func (m *memRuleStore) Create(ctx context.Context, rule rules.PricingRule) (int64, error) {
	if err := rules.Validate(rule); err != nil {
		return 0, err
	}
	for _, r := range m.rules {
		if r.Name == rule.Name {
			return 0, fmt.Errorf("%w: %q", database.ErrDuplicateRuleName, rule.Name)
		}
	}
	m.nextID++
	rule.ID = m.nextID
	m.rules[rule.ID] = rule
	return rule.ID, nil
}

func (m *memRuleStore) Update(ctx context.Context, rule rules.PricingRule) error {
	if err := rules.Validate(rule); err != nil {
		return err
	}
	if _, ok := m.rules[rule.ID]; !ok {
		return database.ErrNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *memRuleStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rules[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// mockCatalog is a fixed product catalog.
type mockCatalog struct {
	products []preview.Product
}

func (m *mockCatalog) Products(ctx context.Context) ([]preview.Product, error) {
	return m.products, nil
}

func (m *mockCatalog) DistinctCategories(ctx context.Context) ([]string, error) {
	return []string{"Beef", "Pork"}, nil
}

func (m *mockCatalog) DistinctProductCodes(ctx context.Context) ([]string, error) {
	codes := make([]string, len(m.products))
	for i, p := range m.products {
		codes[i] = p.ProductCode
	}
	return codes, nil
}

// mockSessions is a canned SessionService.
type mockSessions struct {
	summary  *sessions.ApplySummary
	pricing  *sessions.ItemPricing
	err      error
	lastAsOf time.Time
}

func (m *mockSessions) ApplyRules(ctx context.Context, sessionID int64, asOf time.Time) (*sessions.ApplySummary, error) {
	m.lastAsOf = asOf
	if m.err != nil {
		return nil, m.err
	}
	s := *m.summary
	s.SessionID = sessionID
	return &s, nil
}

func (m *mockSessions) LineItemPricing(ctx context.Context, itemID int64) (*sessions.ItemPricing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pricing, nil
}

func standardRule() rules.PricingRule {
	return rules.PricingRule{
		Name:           "Standard markup",
		Condition:      rules.ConditionAllProducts,
		Method:         rules.CostPlusPercent{Multiplier: d("1.20")},
		Active:         true,
		ExecutionOrder: 10,
	}
}

// setupRouter wires the handlers against in-memory dependencies.
func setupRouter(t *testing.T, store *memRuleStore, svc SessionService) *gin.Engine {
	t.Helper()

	calc := pricing.NewCalculator(store, pricing.DefaultConfig())
	catalog := &mockCatalog{products: []preview.Product{
		{ProductCode: "PK-LOIN", ProductName: "Pork loin", Category: "Pork", Cost: d("6.40")},
		{ProductCode: "BF-RUMP", ProductName: "Beef rump", Category: "Beef", Cost: d("11.00")},
		{ProductCode: "BF-MINCE", ProductName: "Beef mince", Category: "beef", Cost: d("5.55")},
	}}
	InitPricing(store, calc, catalog, preview.NewEngine(catalog, calc, 0), svc)

	prev := now
	now = func() time.Time { return testDay }
	t.Cleanup(func() { now = prev })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/pricing/calculate", Calculate)
	api.GET("/rules", ListRules)
	api.GET("/rules/check", CheckRules)
	api.POST("/rules/preview", PreviewRule)
	api.GET("/rules/:id", GetRule)
	api.POST("/rules", CreateRule)
	api.PUT("/rules/:id", UpdateRule)
	api.DELETE("/rules/:id", DeleteRule)
	api.GET("/catalog/categories", ListCategories)
	api.GET("/catalog/product-codes", ListProductCodes)
	api.POST("/sessions/:id/apply-rules", ApplySessionRules)
	api.GET("/line-items/:id/pricing", GetLineItemPricing)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCalculate(t *testing.T) {
	customer := "C100"
	store := newMemRuleStore(standardRule(), rules.PricingRule{
		Name:           "Harbour freight",
		CustomerCode:   &customer,
		Condition:      rules.ConditionAllProducts,
		Method:         rules.CostPlusFixed{Amount: d("0.50")},
		Active:         true,
		ExecutionOrder: 20,
	})
	router := setupRouter(t, store, nil)

	t.Run("prices through the chain", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
			LineItem: LineItemInput{ProductCode: "BF-RUMP", Category: "Beef", IncomingCost: d("10.00"), Quantity: d("4")},
			Customer: CustomerInput{Code: "C100"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		res := decode[PricingResult](t, w)
		assert.Equal(t, "10.00", res.IncomingCost)
		assert.Equal(t, "12.50", res.FinalPrice)
		require.Len(t, res.AppliedRules, 2)
		assert.Equal(t, "Standard markup", res.AppliedRules[0].RuleName)
		assert.Equal(t, string(rules.KindCostPlusFixed), res.AppliedRules[1].PricingMethod)
		assert.Equal(t, 2, res.AppliedRules[1].ApplicationOrder)
		assert.Len(t, res.IntermediatePrices, 3)
		assert.Contains(t, res.Description, "Harbour freight")
	})

	t.Run("other customers get standard rules only", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
			LineItem: LineItemInput{CustomerCode: "C200", ProductCode: "BF-RUMP", IncomingCost: d("10.00")},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "12.00", decode[PricingResult](t, w).FinalPrice)
	})

	t.Run("customer mismatch", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
			LineItem: LineItemInput{CustomerCode: "C200", ProductCode: "BF-RUMP", IncomingCost: d("10.00")},
			Customer: CustomerInput{Code: "C100"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing product code", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
			LineItem: LineItemInput{IncomingCost: d("10.00")},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid as-of date", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
			LineItem: LineItemInput{ProductCode: "BF-RUMP", IncomingCost: d("10.00")},
			AsOf:     "15/03/2024",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCalculateWithoutDefaultRule(t *testing.T) {
	router := setupRouter(t, newMemRuleStore(), nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/pricing/calculate", CalculateRequest{
		LineItem: LineItemInput{CustomerCode: "C100", ProductCode: "BF-RUMP", IncomingCost: d("10.00")},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no pricing rule applies")
}

func TestRuleCRUD(t *testing.T) {
	store := newMemRuleStore(standardRule())
	router := setupRouter(t, store, nil)

	beef := "Beef"
	created := doJSON(t, router, http.MethodPost, "/api/v1/rules", Rule{
		RuleName:       "Beef margin",
		ConditionType:  string(rules.ConditionCategory),
		ConditionValue: &beef,
		PricingMethod:  string(rules.KindTargetGPPercent),
		PricingValue:   "0.30",
		IsActive:       true,
		ExecutionOrder: 20,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	rule := decode[Rule](t, created)
	assert.NotZero(t, rule.ID)
	assert.Equal(t, "0.3", rule.PricingValue)

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/rules/%d", rule.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Beef margin", decode[Rule](t, w).RuleName)

		w = doJSON(t, router, http.MethodGet, "/api/v1/rules/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/rules/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/rules", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[ListRulesResponse](t, w)
		assert.Equal(t, 2, list.Total)
		assert.Equal(t, "Standard markup", list.Rules[0].RuleName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/rules", Rule{
			RuleName:      "Standard markup",
			ConditionType: string(rules.ConditionAllProducts),
			PricingMethod: string(rules.KindCostPlusPercent),
			PricingValue:  "1.1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid rules", func(t *testing.T) {
		cases := []Rule{
			{RuleName: "No value", ConditionType: "CATEGORY", PricingMethod: "COST_PLUS_PERCENT", PricingValue: "1.1"},
			{RuleName: "Bad method", ConditionType: "ALL_PRODUCTS", PricingMethod: "MARKDOWN", PricingValue: "1.1"},
			{RuleName: "Bad value", ConditionType: "ALL_PRODUCTS", PricingMethod: "FIXED_PRICE", PricingValue: "ten"},
			{RuleName: "Bad GP", ConditionType: "ALL_PRODUCTS", PricingMethod: "TARGET_GP_PERCENT", PricingValue: "1.5"},
		}
		for _, tc := range cases {
			w := doJSON(t, router, http.MethodPost, "/api/v1/rules", tc)
			assert.Equal(t, http.StatusBadRequest, w.Code, tc.RuleName)
		}
	})

	t.Run("update", func(t *testing.T) {
		rule.ExecutionOrder = 5
		w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/rules/%d", rule.ID), rule)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 5, store.rules[rule.ID].ExecutionOrder)

		w = doJSON(t, router, http.MethodPut, "/api/v1/rules/999", rule)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/rules/%d", rule.ID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/rules/%d", rule.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCheckRules(t *testing.T) {
	second := standardRule()
	second.Name = "Flat list price"
	second.Method = rules.FixedPrice{Price: d("9.99")}
	second.ExecutionOrder = 20
	third := standardRule()
	third.Name = "Target margin"
	third.Method = rules.TargetGPPercent{Target: d("0.25")}
	third.ExecutionOrder = 30

	router := setupRouter(t, newMemRuleStore(standardRule(), second, third), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/rules/check", nil)
	require.Equal(t, http.StatusOK, w.Code)
	check := decode[RuleCheckResponse](t, w)
	assert.Equal(t, "2024-03-15", check.AsOf)
	assert.True(t, check.HasDefaultRule)
	require.Len(t, check.BaseRuleConflicts, 2)
	assert.Equal(t, "Flat list price", check.BaseRuleConflicts[0].RuleName)
	assert.Equal(t, "Target margin", check.BaseRuleConflicts[1].RuleName)

	empty := setupRouter(t, newMemRuleStore(), nil)
	w = doJSON(t, empty, http.MethodGet, "/api/v1/rules/check?asOf=2024-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	check = decode[RuleCheckResponse](t, w)
	assert.False(t, check.HasDefaultRule)
	assert.Contains(t, check.Error, "2024-01-01")
	assert.Empty(t, check.BaseRuleConflicts)
}

func TestPreviewRule(t *testing.T) {
	router := setupRouter(t, newMemRuleStore(standardRule()), nil)

	beef := "BEEF"
	w := doJSON(t, router, http.MethodPost, "/api/v1/rules/preview", Rule{
		RuleName:       "Draft beef markup",
		ConditionType:  string(rules.ConditionCategory),
		ConditionValue: &beef,
		PricingMethod:  string(rules.KindCostPlusPercent),
		PricingValue:   "1.25",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[PreviewResponse](t, w)
	assert.Equal(t, 2, res.TotalMatchCount)
	assert.False(t, res.IsAllProducts)
	require.Len(t, res.Previews, 2)
	assert.Equal(t, "BF-MINCE", res.Previews[0].ProductCode)
	require.NotNil(t, res.Previews[0].CalculatedPrice)
	assert.Equal(t, "6.94", *res.Previews[0].CalculatedPrice)
	assert.Equal(t, "13.75", *res.Previews[1].CalculatedPrice)

	w = doJSON(t, router, http.MethodPost, "/api/v1/rules/preview", Rule{
		RuleName:      "Draft global",
		ConditionType: string(rules.ConditionAllProducts),
		PricingMethod: string(rules.KindCostPlusFixed),
		PricingValue:  "1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[PreviewResponse](t, w)
	assert.True(t, res.IsAllProducts)
	assert.Equal(t, 3, res.TotalMatchCount)
	assert.Empty(t, res.Previews)
}

func TestCatalogEndpoints(t *testing.T) {
	router := setupRouter(t, newMemRuleStore(standardRule()), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/catalog/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Beef", "Pork"}, decode[CatalogValuesResponse](t, w).Values)

	w = doJSON(t, router, http.MethodGet, "/api/v1/catalog/product-codes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[CatalogValuesResponse](t, w).Total)
}

func TestApplySessionRules(t *testing.T) {
	svc := &mockSessions{summary: &sessions.ApplySummary{RunID: "run-1", Total: 3, Succeeded: 2, Failed: 1}}
	router := setupRouter(t, newMemRuleStore(standardRule()), svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions/7/apply-rules", ApplyRulesRequest{AsOf: "2024-02-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	summary := decode[sessions.ApplySummary](t, w)
	assert.Equal(t, int64(7), summary.SessionID)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "2024-02-01", svc.lastAsOf.Format(time.DateOnly))

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/7/apply-rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testDay, svc.lastAsOf)

	svc.err = fmt.Errorf("failed to load session 8: %w", database.ErrNotFound)
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/8/apply-rules", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLineItemPricing(t *testing.T) {
	store := newMemRuleStore(standardRule(), rules.PricingRule{
		Name:           "Freight",
		Condition:      rules.ConditionAllProducts,
		Method:         rules.CostPlusFixed{Amount: d("0.75")},
		Active:         true,
		ExecutionOrder: 20,
	})
	calc := pricing.NewCalculator(store, pricing.DefaultConfig())
	all, err := store.FindAll(context.Background())
	require.NoError(t, err)

	item := rules.LineItem{CustomerCode: "C100", ProductCode: "BF-RUMP", IncomingCost: d("10.00")}
	res, err := calc.Apply(rules.NewSet(all), item, testDay)
	require.NoError(t, err)

	chain, err := audit.Replay(audit.Build(res, testDay))
	require.NoError(t, err)
	steps := audit.Enrich(chain.Snapshots, func(id int64) (rules.PricingRule, bool) {
		if id == 1 {
			r := store.rules[1]
			r.Name = "Base markup"
			return r, true
		}
		return rules.PricingRule{}, false
	})

	price := res.FinalPrice
	pricedAt := testDay
	svc := &mockSessions{pricing: &sessions.ItemPricing{
		Item: database.SessionLineItem{
			ID:            42,
			Item:          item,
			SellPrice:     &price,
			PricingStatus: database.PricingStatusPriced,
			PricedAt:      &pricedAt,
		},
		Chain: chain,
		Steps: steps,
	}}
	router := setupRouter(t, store, svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/line-items/42/pricing", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode[LineItemPricingResponse](t, w)
	assert.Equal(t, int64(42), out.LineItemID)
	require.NotNil(t, out.SellPrice)
	assert.Equal(t, "12.75", *out.SellPrice)
	require.Len(t, out.AppliedRules, 2)
	assert.True(t, out.AppliedRules[0].RuleRenamed)
	assert.Equal(t, "Base markup", out.AppliedRules[0].LiveName)
	assert.Equal(t, "Standard markup", out.AppliedRules[0].RuleName)
	assert.True(t, out.AppliedRules[1].RuleDeleted)
	assert.Equal(t, res.Description, out.Description)
	assert.True(t, strings.HasSuffix(out.Description, "$12.75"))

	svc.err = database.ErrNotFound
	w = doJSON(t, router, http.MethodGet, "/api/v1/line-items/43/pricing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlersNotInitialized(t *testing.T) {
	InitPricing(nil, nil, nil, nil, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/calculate", Calculate)
	router.GET("/rules", ListRules)
	router.GET("/categories", ListCategories)
	router.GET("/line-items/:id/pricing", GetLineItemPricing)

	for _, path := range []string{"/rules", "/categories", "/line-items/1/pricing"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
	w := doJSON(t, router, http.MethodPost, "/calculate", CalculateRequest{LineItem: LineItemInput{ProductCode: "X"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
