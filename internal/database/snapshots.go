package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/rules"
)

// SnapshotRepository persists line item prices together with their applied
// rule snapshots.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a snapshot repository on pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// SavePricing stores the new sell price of a line item and replaces its
// snapshot chain in one transaction.
func (s *SnapshotRepository) SavePricing(ctx context.Context, itemID int64, price decimal.Decimal, snaps []audit.Snapshot, pricedAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE session_line_items SET
			sell_price = $2, pricing_status = $3, pricing_error = NULL, priced_at = $4
		WHERE id = $1
	`, itemID, price, PricingStatusPriced, pricedAt)
	if err != nil {
		return fmt.Errorf("failed to update line item price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM applied_rule_snapshots WHERE session_line_item_id = $1`, itemID)
	for _, snap := range snaps {
		batch.Queue(`
			INSERT INTO applied_rule_snapshots (
				session_line_item_id, application_order, rule_id, rule_name,
				pricing_method, pricing_value, input_price, output_price, step_detail, applied_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, itemID, snap.ApplicationOrder, snap.RuleID, snap.RuleName,
			string(snap.Method), snap.Value, snap.InputPrice, snap.OutputPrice, snap.Detail, snap.AppliedAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write rule snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkPricingFailed flags a line item as failed. Its previous sell price and
// snapshots are left untouched.
func (s *SnapshotRepository) MarkPricingFailed(ctx context.Context, itemID int64, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE session_line_items SET pricing_status = $2, pricing_error = $3
		WHERE id = $1
	`, itemID, PricingStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark line item failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Snapshots returns the stored chain of a line item in application order.
func (s *SnapshotRepository) Snapshots(ctx context.Context, itemID int64) ([]audit.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rule_id, rule_name, pricing_method, pricing_value, application_order,
		       input_price, output_price, step_detail, applied_at
		FROM applied_rule_snapshots
		WHERE session_line_item_id = $1
		ORDER BY application_order
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule snapshots: %w", err)
	}

	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Snapshot, error) {
		var (
			snap   audit.Snapshot
			method string
		)
		err := row.Scan(
			&snap.RuleID, &snap.RuleName, &method, &snap.Value, &snap.ApplicationOrder,
			&snap.InputPrice, &snap.OutputPrice, &snap.Detail, &snap.AppliedAt,
		)
		snap.Method = rules.MethodKind(method)
		return snap, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rule snapshots: %w", err)
	}
	return snaps, nil
}
