package observability

import (
	"context"
	"log"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server stops before
// shutting the providers down, so in-flight async emits can complete.
const ShutdownDrainDuration = emitTimeout

// AuditEvent records a security- or operations-relevant occurrence: viewer
// connects, command dispatches, liveness flips.
type AuditEvent struct {
	EventType string
	OrgID     string
	UserID    string
	DeviceID  string
	Source    string
	Detail    []byte
	CreatedAt time.Time
}

// EventEmitter sends audit events to the telemetry backend.
type EventEmitter interface {
	Emit(ctx context.Context, event *AuditEvent) error
}

// NewEventEmitter returns an emitter that sends events as OTel log records.
// A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("silowatch.audit")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *AuditEvent) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record. Best-effort.
func (e *otelEmitter) Emit(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(event.Detail) > 0 {
		rec.SetBody(otellog.BytesValue(event.Detail))
	}
	if event.EventType != "" {
		rec.AddAttributes(otellog.String("event_type", event.EventType))
	}
	if event.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", event.OrgID))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.DeviceID != "" {
		rec.AddAttributes(otellog.String("device_id", event.DeviceID))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

// EmitAsync runs Emit in a goroutine with a short timeout so request handlers
// are never blocked on telemetry. Uses a background context so request
// cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, event *AuditEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("observability: async emit failed: %v", err)
		}
	}()
}
