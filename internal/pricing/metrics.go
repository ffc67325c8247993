package pricing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// calculations tracks priced line items by outcome.
	calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculations_total",
		Help: "Total number of line item price calculations by outcome",
	}, []string{"outcome"}) // outcome: priced, no_rule, error

	// calculationDuration tracks the time taken to price one line item.
	calculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_calculation_duration_seconds",
		Help:    "Time taken to price a single line item",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	// ruleApplications tracks applied rules by method.
	ruleApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rule_applications_total",
		Help: "Total number of rule applications by pricing method",
	}, []string{"method"})

	// ruleSkips tracks rules that matched but were not applied.
	ruleSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rule_skips_total",
		Help: "Total number of matching rules skipped by reason",
	}, []string{"reason"}) // reason: invalid, method_error

	// gpResolutions tracks GP resolutions by source and whether capping applied.
	gpResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_gp_resolutions_total",
		Help: "Total number of GP resolutions by source and capping",
	}, []string{"source", "capped"})

	// batchItems tracks batch line items by outcome.
	batchItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_batch_items_total",
		Help: "Total number of batch line items by outcome",
	}, []string{"outcome"}) // outcome: priced, failed, cancelled

	// batchDuration tracks the wall time of a batch.
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_batch_duration_seconds",
		Help:    "Time taken to price a batch of line items",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	// batchSize tracks the distribution of batch sizes.
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_batch_items_count",
		Help:    "Number of line items in batch pricing requests",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})
)

// MetricsRecorder provides methods to record pricing metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCalculation records one line item calculation.
func (m *MetricsRecorder) RecordCalculation(outcome string, duration time.Duration) {
	calculations.WithLabelValues(outcome).Inc()
	calculationDuration.Observe(duration.Seconds())
}

// RecordRuleApplication records a rule applied with the given method.
func (m *MetricsRecorder) RecordRuleApplication(method string) {
	ruleApplications.WithLabelValues(method).Inc()
}

// RecordRuleSkip records a matching rule that was skipped.
func (m *MetricsRecorder) RecordRuleSkip(reason string) {
	ruleSkips.WithLabelValues(reason).Inc()
}

// RecordGPResolution records a GP resolution.
func (m *MetricsRecorder) RecordGPResolution(source GPSource, capped bool) {
	c := "false"
	if capped {
		c = "true"
	}
	gpResolutions.WithLabelValues(string(source), c).Inc()
}

// RecordBatch records a finished batch.
func (m *MetricsRecorder) RecordBatch(size, succeeded, failed, cancelled int, duration time.Duration) {
	batchSize.Observe(float64(size))
	batchDuration.Observe(duration.Seconds())
	batchItems.WithLabelValues("priced").Add(float64(succeeded))
	batchItems.WithLabelValues("failed").Add(float64(failed))
	batchItems.WithLabelValues("cancelled").Add(float64(cancelled))
}
