package transcription

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/observability"
)

type metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics() *metrics {
	m := observability.Meter("github.com/kbukum/voicegate/transcription")
	requests, _ := m.Int64Counter("transcription.requests",
		metric.WithDescription("Transcription requests by outcome"))
	duration, _ := m.Float64Histogram("transcription.duration",
		metric.WithDescription("Transcription latency"),
		metric.WithUnit("s"))
	return &metrics{requests: requests, duration: duration}
}

func (m *metrics) record(ctx context.Context, backend string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(errors.From(err).Code))
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("provider", backend),
	)
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
