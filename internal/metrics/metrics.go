package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/prohmpiriya/entrygate/pkg/telemetry"
)

var (
	// Inventory counters
	HoldsCreated  *telemetry.Counter
	HoldsReleased *telemetry.Counter
	HoldsFailed   *telemetry.Counter
	HoldsSwept    *telemetry.Counter

	// Ticket counters
	TicketsIssued  *telemetry.Counter
	IssuanceFailed *telemetry.Counter

	// Entry counters
	ScansTotal *telemetry.Counter

	// Histograms
	ScanDuration    *telemetry.Histogram
	RequestDuration *telemetry.Histogram

	// Gauges
	ActiveHolds *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all engine metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	HoldsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "inventory_holds_total",
		Description: "Total number of reservations placed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsReleased, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "inventory_releases_total",
		Description: "Total number of reservations released",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "inventory_hold_failures_total",
		Description: "Total number of failed hold attempts",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsSwept, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "inventory_holds_swept_total",
		Description: "Total number of expired reservations removed by the sweeper",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketsIssued, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_issued_total",
		Description: "Total number of tickets issued",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	IssuanceFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_issuance_failures_total",
		Description: "Total number of failed issuance attempts",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ScansTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "entry_scans_total",
		Description: "Total number of scan attempts by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ScanDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "entry_scan_duration_seconds",
		Description: "Door scan verdict latency",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "entrygate_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	if err != nil {
		return err
	}

	ActiveHolds, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "inventory_active_holds",
		Description: "Current number of live reservations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordHold records a placed reservation
func RecordHold(ctx context.Context, ticketTypeID string, quantity int) {
	if HoldsCreated != nil {
		HoldsCreated.Inc(ctx,
			attribute.String("ticket_type_id", ticketTypeID),
			attribute.Int("quantity", quantity),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Inc(ctx)
	}
}

// RecordRelease records a released reservation
func RecordRelease(ctx context.Context, ticketTypeID string) {
	if HoldsReleased != nil {
		HoldsReleased.Inc(ctx, attribute.String("ticket_type_id", ticketTypeID))
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordHoldFailure records a failed hold attempt
func RecordHoldFailure(ctx context.Context, ticketTypeID, reason string) {
	if HoldsFailed != nil {
		HoldsFailed.Inc(ctx,
			attribute.String("ticket_type_id", ticketTypeID),
			attribute.String("reason", reason),
		)
	}
}

// RecordSweep records one sweeper pass
func RecordSweep(ctx context.Context, count int64) {
	if count == 0 {
		return
	}
	if HoldsSwept != nil {
		HoldsSwept.Add(ctx, count)
	}
	if ActiveHolds != nil {
		ActiveHolds.Add(ctx, -count)
	}
}

// RecordIssuance records tickets minted from a reservation
func RecordIssuance(ctx context.Context, ticketTypeID string, count int) {
	if TicketsIssued != nil {
		TicketsIssued.Add(ctx, int64(count), attribute.String("ticket_type_id", ticketTypeID))
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordIssuanceFailure records a failed issuance attempt
func RecordIssuanceFailure(ctx context.Context, reason string) {
	if IssuanceFailed != nil {
		IssuanceFailed.Inc(ctx, attribute.String("reason", reason))
	}
}

// RecordScan records a scan attempt with its outcome
func RecordScan(ctx context.Context, eventID, outcome string, durationSeconds float64) {
	if ScansTotal != nil {
		ScansTotal.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("outcome", outcome),
		)
	}
	if ScanDuration != nil {
		ScanDuration.Record(ctx, durationSeconds, attribute.String("outcome", outcome))
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds, attribute.String("operation", operation))
	}
}
