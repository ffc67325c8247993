package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

const lineItemColumns = `
	id, session_id, customer_code, product_code, category, incoming_cost, quantity,
	last_unit_sell_price, last_cost, last_amount, last_gross_profit,
	sell_price, pricing_status, pricing_error, priced_at
`

// LineItemRepository stores pricing sessions and their line items. It
// implements pricing.LineItemSource.
type LineItemRepository struct {
	pool *pgxpool.Pool
}

// NewLineItemRepository creates a line item repository on pool.
func NewLineItemRepository(pool *pgxpool.Pool) *LineItemRepository {
	return &LineItemRepository{pool: pool}
}

var _ pricing.LineItemSource = (*LineItemRepository)(nil)

// CreateSession inserts a session for the period [start, end].
func (l *LineItemRepository) CreateSession(ctx context.Context, name string, start, end time.Time) (*Session, error) {
	s := &Session{Name: name}
	err := l.pool.QueryRow(ctx, `
		INSERT INTO pricing_sessions (session_name, period_start, period_end)
		VALUES ($1, $2::date, $3::date)
		RETURNING id, period_start, period_end, created_at
	`, name, start.Format(time.DateOnly), end.Format(time.DateOnly)).Scan(&s.ID, &s.PeriodStart, &s.PeriodEnd, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// GetSession returns the session with id, or ErrNotFound.
func (l *LineItemRepository) GetSession(ctx context.Context, id int64) (*Session, error) {
	s := &Session{}
	err := l.pool.QueryRow(ctx, `
		SELECT id, session_name, period_start, period_end, created_at
		FROM pricing_sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.PeriodStart, &s.PeriodEnd, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// AddLineItems inserts items into a session and returns their ids in order.
func (l *LineItemRepository) AddLineItems(ctx context.Context, sessionID int64, items []rules.LineItem) ([]int64, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, len(items))
	for i, it := range items {
		err := tx.QueryRow(ctx, `
			INSERT INTO session_line_items (
				session_id, customer_code, product_code, category, incoming_cost, quantity,
				last_unit_sell_price, last_cost, last_amount, last_gross_profit
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, sessionID, it.CustomerCode, it.ProductCode, it.Category, it.IncomingCost, it.Quantity,
			nullDecimal(it.LastUnitSellPrice), nullDecimal(it.LastCost),
			nullDecimal(it.LastAmount), nullDecimal(it.LastGrossProfit),
		).Scan(&ids[i])
		if err != nil {
			return nil, fmt.Errorf("failed to insert line item %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// SessionLineItems returns every line item of a session ordered by id.
func (l *LineItemRepository) SessionLineItems(ctx context.Context, sessionID int64) ([]SessionLineItem, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+lineItemColumns+`
		FROM session_line_items
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	return collectLineItems(rows)
}

// GetLineItem returns one line item, or ErrNotFound.
func (l *LineItemRepository) GetLineItem(ctx context.Context, itemID int64) (*SessionLineItem, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+lineItemColumns+` FROM session_line_items WHERE id = $1`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line item: %w", err)
	}
	items, err := collectLineItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// LineItems returns the line items of every session whose period overlaps
// [from, to].
func (l *LineItemRepository) LineItems(ctx context.Context, from, to time.Time) ([]rules.LineItem, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+lineItemColumns+`
		FROM session_line_items
		WHERE session_id IN (
			SELECT id FROM pricing_sessions
			WHERE period_start <= $2::date AND period_end >= $1::date
		)
		ORDER BY id
	`, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}

	stored, err := collectLineItems(rows)
	if err != nil {
		return nil, err
	}
	items := make([]rules.LineItem, len(stored))
	for i, s := range stored {
		items[i] = s.Item
	}
	return items, nil
}

func collectLineItems(rows pgx.Rows) ([]SessionLineItem, error) {
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SessionLineItem, error) {
		var (
			s                                   SessionLineItem
			lastSell, lastCost, lastAmt, lastGP decimal.NullDecimal
			sellPrice                           decimal.NullDecimal
		)
		err := row.Scan(
			&s.ID, &s.SessionID, &s.Item.CustomerCode, &s.Item.ProductCode, &s.Item.Category,
			&s.Item.IncomingCost, &s.Item.Quantity,
			&lastSell, &lastCost, &lastAmt, &lastGP,
			&sellPrice, &s.PricingStatus, &s.PricingError, &s.PricedAt,
		)
		s.Item.LastUnitSellPrice = decimalPtr(lastSell)
		s.Item.LastCost = decimalPtr(lastCost)
		s.Item.LastAmount = decimalPtr(lastAmt)
		s.Item.LastGrossProfit = decimalPtr(lastGP)
		s.SellPrice = decimalPtr(sellPrice)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read line items: %w", err)
	}
	return items, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
