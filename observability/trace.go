package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kbukum/voicegate"

// Span names.
const (
	SpanRecord     = "capture.record"
	SpanTranscribe = "transcription.transcribe"
	SpanArchive    = "archive.store"
)

// Attribute keys.
const (
	AttrRecordingID = "recording.id"
	AttrStopReason  = "recording.stop_reason"
	AttrBlocks      = "recording.blocks"
	AttrProvider    = "transcription.provider"
	AttrLanguage    = "transcription.language"
	AttrSegments    = "transcription.segments"
)

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a span on the module tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, name, opts...)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
