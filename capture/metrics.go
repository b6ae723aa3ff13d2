package capture

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/voicegate/observability"
)

type metrics struct {
	blocks   metric.Int64Counter
	dropped  metric.Int64Counter
	sessions metric.Int64Counter
}

// newMetrics creates the capture instruments on the global meter provider.
// Instrument errors leave the corresponding field on a no-op instrument.
func newMetrics() *metrics {
	m := observability.Meter("github.com/kbukum/voicegate/capture")
	blocks, _ := m.Int64Counter("capture.blocks",
		metric.WithDescription("Blocks processed by the controller, by kind"))
	dropped, _ := m.Int64Counter("capture.dropped_blocks",
		metric.WithDescription("Blocks dropped because the queue was full"))
	sessions, _ := m.Int64Counter("capture.sessions",
		metric.WithDescription("Finished recording sessions, by stop reason"))
	return &metrics{blocks: blocks, dropped: dropped, sessions: sessions}
}

func (m *metrics) block(ctx context.Context, kind BlockKind) {
	if m.blocks != nil {
		m.blocks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	}
}

func (m *metrics) session(ctx context.Context, rec *Recording) {
	if m.sessions != nil {
		m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("stop_reason", string(rec.StopReason))))
	}
	if m.dropped != nil && rec.Dropped > 0 {
		m.dropped.Add(ctx, rec.Dropped)
	}
}
