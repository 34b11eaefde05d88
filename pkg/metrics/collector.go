package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_total",
			Help: "Total number of media downloads labeled by media type and status",
		},
		[]string{"type", "status"},
	)
	admissionDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_denied_total",
			Help: "Download requests denied by the admission guard, by reason",
		},
		[]string{"reason"},
	)
	paymentsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_ingested_total",
			Help: "Payment rows created by reconciliation, by validation outcome",
		},
		[]string{"validation"},
	)
	paymentsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_skipped_total",
			Help: "Feed records skipped during reconciliation, by dedup reason",
		},
		[]string{"reason"},
	)
	paymentTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Payment status transitions applied, labeled by target status",
		},
		[]string{"status"},
	)
	syncFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trakteer_sync_failures_total",
			Help: "Failed attempts to fetch the Trakteer transaction feed",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	activeVipUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_vip_users",
			Help: "Current number of users with an active VIP entitlement",
		},
	)
	pendingPayments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_payments",
			Help: "Current number of payment rows awaiting admin review",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordDownload tracks one delivered or failed media item.
func RecordDownload(mediaType, status string) {
	if mediaType == "" {
		mediaType = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	downloadsTotal.WithLabelValues(mediaType, status).Inc()
}

// RecordAdmissionDenied tracks a guard denial.
func RecordAdmissionDenied(reason string) {
	if reason == "" {
		reason = "unknown"
	}

	admissionDeniedTotal.WithLabelValues(reason).Inc()
}

// RecordPaymentIngested tracks a newly created pending payment row.
func RecordPaymentIngested(validationPassed bool) {
	label := "passed"
	if !validationPassed {
		label = "failed"
	}

	paymentsIngestedTotal.WithLabelValues(label).Inc()
}

// RecordPaymentSkipped tracks a feed record dropped by the dedup chain.
func RecordPaymentSkipped(reason string) {
	if reason == "" {
		reason = "unknown"
	}

	paymentsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordPaymentTransition tracks a status transition on the ledger.
func RecordPaymentTransition(status string) {
	if status == "" {
		status = "unknown"
	}

	paymentTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordSyncFailure tracks a failed feed fetch. This is the signal that
// separates "no new payments" from "the feed was unreachable".
func RecordSyncFailure() {
	syncFailuresTotal.Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// EntitlementSource exposes the aggregate counts the collector polls.
type EntitlementSource interface {
	UserStats(ctx context.Context) (Stats, error)
}

// Stats mirrors the aggregate snapshot used for gauge updates.
type Stats struct {
	ActiveVipCount  int64
	PendingPayments int64
}

// EntitlementCollector periodically gathers entitlement counts and
// emits gauge metrics.
type EntitlementCollector struct {
	source   EntitlementSource
	interval time.Duration
}

// NewEntitlementCollector builds a collector bound to the provided source.
func NewEntitlementCollector(source EntitlementSource) *EntitlementCollector {
	return &EntitlementCollector{source: source, interval: 30 * time.Second}
}

// Run polls the source on a fixed interval, updating entitlement gauges
// until ctx is cancelled.
func (c *EntitlementCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *EntitlementCollector) collect(ctx context.Context) error {
	stats, err := c.source.UserStats(ctx)
	if err != nil {
		return err
	}

	activeVipUsers.Set(float64(stats.ActiveVipCount))
	pendingPayments.Set(float64(stats.PendingPayments))

	return nil
}
