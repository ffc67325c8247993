package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

var asOf = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

// mockStore is an in-memory LineItemStore and PricingStore for testing.
type mockStore struct {
	sessions  map[int64]database.Session
	items     []database.SessionLineItem
	snapshots map[int64][]audit.Snapshot
	saveErr   error
}

func newMockStore(items ...rules.LineItem) *mockStore {
	m := &mockStore{
		sessions:  map[int64]database.Session{1: {ID: 1, Name: "March"}},
		snapshots: map[int64][]audit.Snapshot{},
	}
	for i, it := range items {
		m.items = append(m.items, database.SessionLineItem{
			ID:            int64(100 + i),
			SessionID:     1,
			Item:          it,
			PricingStatus: database.PricingStatusPending,
		})
	}
	return m
}

func (m *mockStore) GetSession(ctx context.Context, id int64) (*database.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

func (m *mockStore) SessionLineItems(ctx context.Context, sessionID int64) ([]database.SessionLineItem, error) {
	var out []database.SessionLineItem
	for _, it := range m.items {
		if it.SessionID == sessionID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockStore) GetLineItem(ctx context.Context, itemID int64) (*database.SessionLineItem, error) {
	for i := range m.items {
		if m.items[i].ID == itemID {
			it := m.items[i]
			return &it, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) item(id int64) *database.SessionLineItem {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i]
		}
	}
	return nil
}

func (m *mockStore) SavePricing(ctx context.Context, itemID int64, price decimal.Decimal, snaps []audit.Snapshot, pricedAt time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	it := m.item(itemID)
	it.SellPrice = &price
	it.PricingStatus = database.PricingStatusPriced
	it.PricingError = nil
	it.PricedAt = &pricedAt
	m.snapshots[itemID] = snaps
	return nil
}

func (m *mockStore) MarkPricingFailed(ctx context.Context, itemID int64, reason string) error {
	it := m.item(itemID)
	it.PricingStatus = database.PricingStatusFailed
	it.PricingError = &reason
	return nil
}

func (m *mockStore) Snapshots(ctx context.Context, itemID int64) ([]audit.Snapshot, error) {
	return m.snapshots[itemID], nil
}

// mockRuleProvider is a mock implementation of rules.Provider for testing.
type mockRuleProvider struct {
	rules []rules.PricingRule
	calls int
}

func (p *mockRuleProvider) FindApplicableRules(ctx context.Context, customerCode string, asOf time.Time) ([]rules.PricingRule, error) {
	p.calls++
	return rules.NewSet(p.rules).Candidates(customerCode), nil
}

func (p *mockRuleProvider) FindAll(ctx context.Context) ([]rules.PricingRule, error) {
	p.calls++
	return p.rules, nil
}

func beefRules() []rules.PricingRule {
	return []rules.PricingRule{
		{ID: 1, Name: "Beef markup", Condition: rules.ConditionCategory, ConditionValue: strPtr("Beef"),
			Method: rules.CostPlusPercent{Multiplier: d("1.20")}, Active: true, ExecutionOrder: 10},
		{ID: 2, Name: "Freight", Condition: rules.ConditionCategory, ConditionValue: strPtr("Beef"),
			Method: rules.CostPlusFixed{Amount: d("0.50")}, Active: true, ExecutionOrder: 20},
	}
}

func newService(store *mockStore, provider *mockRuleProvider) *Service {
	calc := pricing.NewCalculator(provider, pricing.DefaultConfig())
	svc := NewService(store, store, provider, pricing.NewBatchPricer(calc, pricing.DefaultConfig()))
	svc.now = func() time.Time { return asOf }
	return svc
}

func TestApplyRules(t *testing.T) {
	previous := d("9.99")
	store := newMockStore(
		rules.LineItem{CustomerCode: "C100", ProductCode: "BF-RUMP", Category: "Beef", IncomingCost: d("10.00")},
		rules.LineItem{CustomerCode: "C100", ProductCode: "PK-LOIN", Category: "Pork", IncomingCost: d("6.40")},
		rules.LineItem{CustomerCode: "C200", ProductCode: "BF-MINCE", Category: "beef", IncomingCost: d("5.00")},
	)
	store.items[1].SellPrice = &previous
	provider := &mockRuleProvider{rules: beefRules()}

	summary, err := newService(store, provider).ApplyRules(context.Background(), 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.PersistErrors)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, provider.calls, "rules are loaded once per session run")

	rump := store.item(100)
	assert.Equal(t, database.PricingStatusPriced, rump.PricingStatus)
	assert.Equal(t, "12.50", rump.SellPrice.StringFixed(2))
	require.Len(t, store.snapshots[100], 2)
	assert.Equal(t, asOf, store.snapshots[100][0].AppliedAt)

	pork := store.item(101)
	assert.Equal(t, database.PricingStatusFailed, pork.PricingStatus)
	require.NotNil(t, pork.PricingError)
	assert.Contains(t, *pork.PricingError, "no pricing rule applies")
	assert.True(t, previous.Equal(*pork.SellPrice), "failed item keeps its previous price")

	assert.Equal(t, "6.50", store.item(102).SellPrice.StringFixed(2))
}

func TestApplyRulesPersistErrors(t *testing.T) {
	store := newMockStore(rules.LineItem{CustomerCode: "C100", ProductCode: "BF-RUMP", Category: "Beef", IncomingCost: d("10.00")})
	store.saveErr = errors.New("disk full")

	summary, err := newService(store, &mockRuleProvider{rules: beefRules()}).ApplyRules(context.Background(), 1, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.PersistErrors)
}

func TestApplyRulesUnknownSession(t *testing.T) {
	_, err := newService(newMockStore(), &mockRuleProvider{}).ApplyRules(context.Background(), 42, asOf)
	assert.True(t, IsNotFound(err))
}

func TestLineItemPricing(t *testing.T) {
	store := newMockStore(rules.LineItem{CustomerCode: "C100", ProductCode: "BF-RUMP", Category: "Beef", IncomingCost: d("10.00")})
	provider := &mockRuleProvider{rules: beefRules()}
	svc := newService(store, provider)

	unpriced, err := svc.LineItemPricing(context.Background(), 100)
	require.NoError(t, err)
	assert.Nil(t, unpriced.Chain)

	_, err = svc.ApplyRules(context.Background(), 1, asOf)
	require.NoError(t, err)

	// Rule 2 is deleted and rule 1 renamed after pricing.
	provider.rules = []rules.PricingRule{beefRules()[0]}
	provider.rules[0].Name = "Beef markup v2"

	got, err := svc.LineItemPricing(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, got.Chain)
	assert.Equal(t, "12.50", got.Chain.FinalPrice.StringFixed(2))
	assert.Equal(t, "Beef markup: +20% → $12.00\n→ Freight: Cost+$0.50 → $12.50", got.Chain.Description)

	require.Len(t, got.Steps, 2)
	assert.True(t, got.Steps[0].Renamed)
	assert.True(t, got.Steps[1].Deleted)

	_, err = svc.LineItemPricing(context.Background(), 999)
	assert.True(t, IsNotFound(err))
}
