package logger

import (
	"context"
	"time"
)

// Standard field keys for structured logging.
const (
	FieldService     = "service"
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldRecordingID = "recording_id"
	FieldOperation   = "operation"
	FieldProvider    = "provider"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldPath        = "path"
	FieldState       = "state"
)

// Fields builds a field map from alternating key-value pairs.
//
//	log.Info("recording stopped", logger.Fields("reason", reason, "blocks", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	recordingIDKey
)

// ContextWithRequestID stores a request id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRecordingID stores a recording id for WithContext.
func ContextWithRecordingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordingIDKey, id)
}

// RecordingIDFromContext returns the recording id stored in ctx, if any.
func RecordingIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(recordingIDKey).(string)
	return id
}
