// Package sessions applies the pricing rules to every line item of a pricing
// session and serves the saved calculation chains back.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

// LineItemStore reads sessions and their line items.
type LineItemStore interface {
	GetSession(ctx context.Context, id int64) (*database.Session, error)
	SessionLineItems(ctx context.Context, sessionID int64) ([]database.SessionLineItem, error)
	GetLineItem(ctx context.Context, itemID int64) (*database.SessionLineItem, error)
}

// PricingStore persists prices and snapshot chains.
type PricingStore interface {
	SavePricing(ctx context.Context, itemID int64, price decimal.Decimal, snaps []audit.Snapshot, pricedAt time.Time) error
	MarkPricingFailed(ctx context.Context, itemID int64, reason string) error
	Snapshots(ctx context.Context, itemID int64) ([]audit.Snapshot, error)
}

// ApplySummary reports the outcome of applying rules to a session.
type ApplySummary struct {
	SessionID     int64  `json:"sessionId"`
	RunID         string `json:"runId"`
	Total         int    `json:"total"`
	Succeeded     int    `json:"succeeded"`
	Failed        int    `json:"failed"`
	Cancelled     int    `json:"cancelled"`
	PersistErrors int    `json:"persistErrors"`
}

// ItemPricing is a line item with its saved calculation chain.
type ItemPricing struct {
	Item  database.SessionLineItem
	Chain *audit.Replayed   // nil when the item has never been priced
	Steps []audit.Annotated // snapshots with live rule metadata
}

// Service runs session-wide pricing.
type Service struct {
	items    LineItemStore
	store    PricingStore
	provider rules.Provider
	pricer   *pricing.BatchPricer
	now      func() time.Time
	logger   zerolog.Logger

	itemsPriced metric.Int64Counter
}

// NewService creates a session pricing service.
func NewService(items LineItemStore, store PricingStore, provider rules.Provider, pricer *pricing.BatchPricer) *Service {
	s := &Service{
		items:    items,
		store:    store,
		provider: provider,
		pricer:   pricer,
		now:      time.Now,
		logger:   log.With().Str("component", "session_pricing").Logger(),
	}

	counter, err := otel.Meter("github.com/primecut/pricing-service/internal/sessions").Int64Counter(
		"pricing.session.line_items",
		metric.WithDescription("Session line items processed by apply-rules, by outcome"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to create session line item counter")
	}
	s.itemsPriced = counter
	return s
}

// ApplyRules prices every line item of the session against one snapshot of
// the rule set. Priced items get their new price and snapshot chain; failed
// items keep their previous price and are marked failed. Items not reached
// before ctx was cancelled are left unchanged.
func (s *Service) ApplyRules(ctx context.Context, sessionID int64, asOf time.Time) (*ApplySummary, error) {
	if _, err := s.items.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}

	stored, err := s.items.SessionLineItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	all, err := s.provider.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	lineItems := make([]rules.LineItem, len(stored))
	for i, it := range stored {
		lineItems[i] = it.Item
	}

	batch := s.pricer.PriceAll(ctx, rules.NewSet(all), lineItems, asOf)

	summary := &ApplySummary{
		SessionID: sessionID,
		RunID:     batch.RunID,
		Total:     len(stored),
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		Cancelled: batch.Cancelled,
	}

	// Finished results are saved even if the request was cancelled meanwhile.
	persistCtx := context.WithoutCancel(ctx)
	pricedAt := s.now()

	for _, o := range batch.Outcomes {
		itemID := stored[o.Index].ID

		var err error
		switch o.Status {
		case pricing.StatusPriced:
			err = s.store.SavePricing(persistCtx, itemID, o.Result.FinalPrice, audit.Build(o.Result, pricedAt), pricedAt)
		case pricing.StatusFailed:
			err = s.store.MarkPricingFailed(persistCtx, itemID, o.Err.Error())
		default:
			continue
		}
		if err != nil {
			summary.PersistErrors++
			s.logger.Error().
				Err(err).
				Int64("session_id", sessionID).
				Int64("line_item_id", itemID).
				Str("run_id", batch.RunID).
				Msg("Failed to persist line item pricing")
		}
	}

	s.recordOutcomes(ctx, summary)

	s.logger.Info().
		Int64("session_id", sessionID).
		Str("run_id", batch.RunID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Int("persist_errors", summary.PersistErrors).
		Msg("Session rules applied")

	return summary, nil
}

func (s *Service) recordOutcomes(ctx context.Context, summary *ApplySummary) {
	if s.itemsPriced == nil {
		return
	}
	for status, n := range map[string]int{
		string(pricing.StatusPriced):    summary.Succeeded,
		string(pricing.StatusFailed):    summary.Failed,
		string(pricing.StatusCancelled): summary.Cancelled,
	} {
		if n > 0 {
			s.itemsPriced.Add(ctx, int64(n), metric.WithAttributes(attribute.String("status", status)))
		}
	}
}

// LineItemPricing returns the stored calculation chain of a line item,
// rebuilt from its snapshots.
func (s *Service) LineItemPricing(ctx context.Context, itemID int64) (*ItemPricing, error) {
	item, err := s.items.GetLineItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	snaps, err := s.store.Snapshots(ctx, itemID)
	if err != nil {
		return nil, err
	}

	out := &ItemPricing{Item: *item}
	if len(snaps) == 0 {
		return out, nil
	}

	out.Chain, err = audit.Replay(snaps)
	if err != nil {
		return nil, fmt.Errorf("line item %d: %w", itemID, err)
	}

	live, err := s.provider.FindAll(ctx)
	if err != nil {
		// Display metadata only; the chain stands on its own.
		s.logger.Warn().Err(err).Int64("line_item_id", itemID).Msg("Failed to load live rules for snapshot display")
		live = nil
	}
	byID := make(map[int64]rules.PricingRule, len(live))
	for _, r := range live {
		byID[r.ID] = r
	}
	out.Steps = audit.Enrich(out.Chain.Snapshots, func(id int64) (rules.PricingRule, bool) {
		r, ok := byID[id]
		return r, ok
	})
	return out, nil
}

// IsNotFound reports whether err means the session or line item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
