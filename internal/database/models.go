package database

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

// Pricing status values stored on session line items.
const (
	PricingStatusPending = "pending"
	PricingStatusPriced  = "priced"
	PricingStatusFailed  = "failed"
)

// Session is a pricing session covering one sales period.
type Session struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PeriodStart time.Time `json:"period_start"` // inclusive
	PeriodEnd   time.Time `json:"period_end"`   // inclusive
	CreatedAt   time.Time `json:"created_at"`
}

// SessionLineItem is a persisted line item with its current pricing state.
type SessionLineItem struct {
	ID        int64          `json:"id"`
	SessionID int64          `json:"session_id"`
	Item      rules.LineItem `json:"item"`

	SellPrice     *decimal.Decimal `json:"sell_price"`     // last successful price, kept on failure
	PricingStatus string           `json:"pricing_status"` // 'pending' | 'priced' | 'failed'
	PricingError  *string          `json:"pricing_error"`
	PricedAt      *time.Time       `json:"priced_at"`
}
