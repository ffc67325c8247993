package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/primecut/pricing-service/internal/rules"
)

const tracerName = "github.com/primecut/pricing-service/internal/pricing"

// ItemStatus is the outcome of one item in a batch.
type ItemStatus string

const (
	StatusPriced    ItemStatus = "priced"
	StatusFailed    ItemStatus = "failed"
	StatusCancelled ItemStatus = "cancelled"
)

// Outcome is the per-item result of a batch. Outcomes keep input order.
type Outcome struct {
	Index  int
	Item   rules.LineItem
	Status ItemStatus
	Result *Result // nil unless Status is StatusPriced
	Err    error   // set when Status is StatusFailed or StatusCancelled
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	RunID     string
	Succeeded int
	Failed    int
	Cancelled int
	Outcomes  []Outcome
}

// BatchPricer prices many line items concurrently against one rule set.
type BatchPricer struct {
	calc    *Calculator
	workers int
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewBatchPricer creates a batch pricer using calc and the worker count from config.
func NewBatchPricer(calc *Calculator, config *Config) *BatchPricer {
	workers := config.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	return &BatchPricer{
		calc:    calc,
		workers: workers,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "batch_pricer").Logger(),
	}
}

// PriceAll prices every item against set. The set is shared read-only by all
// workers for the whole batch. A failing item never stops the others;
// cancelling ctx stops scheduling and the unscheduled items are reported as
// cancelled.
func (b *BatchPricer) PriceAll(ctx context.Context, set rules.Set, items []rules.LineItem, asOf time.Time) *BatchResult {
	start := time.Now()
	runID := uuid.New().String()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pricing.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("pricing.run_id", runID),
		attribute.Int("pricing.items", len(items)),
		attribute.Int("pricing.rules", set.Len()),
	)

	b.logger.Info().
		Str("run_id", runID).
		Int("items", len(items)).
		Int("rules", set.Len()).
		Int("workers", b.workers).
		Msg("Starting batch pricing")

	outcomes := make([]Outcome, len(items))
	for i, item := range items {
		outcomes[i] = Outcome{Index: i, Item: item, Status: StatusCancelled}
	}

	var g errgroup.Group
	g.SetLimit(b.workers)

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			res, err := b.calc.Apply(set, items[i], asOf)
			if err != nil {
				outcomes[i].Status = StatusFailed
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Status = StatusPriced
			outcomes[i].Result = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	result := &BatchResult{RunID: runID, Outcomes: outcomes}
	for i := range outcomes {
		switch outcomes[i].Status {
		case StatusPriced:
			result.Succeeded++
		case StatusFailed:
			result.Failed++
			b.logger.Warn().
				Err(outcomes[i].Err).
				Str("run_id", runID).
				Int("index", i).
				Str("customer", outcomes[i].Item.CustomerCode).
				Str("product", outcomes[i].Item.ProductCode).
				Msg("Line item pricing failed")
		case StatusCancelled:
			if outcomes[i].Err == nil {
				outcomes[i].Err = context.Cause(ctx)
			}
			result.Cancelled++
		}
	}

	span.SetAttributes(
		attribute.Int("pricing.succeeded", result.Succeeded),
		attribute.Int("pricing.failed", result.Failed),
		attribute.Int("pricing.cancelled", result.Cancelled),
	)
	b.metrics.RecordBatch(len(items), result.Succeeded, result.Failed, result.Cancelled, time.Since(start))

	b.logger.Info().
		Str("run_id", runID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("cancelled", result.Cancelled).
		Dur("duration", time.Since(start)).
		Msg("Batch pricing finished")

	return result
}
