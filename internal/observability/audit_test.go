package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewEventEmitter_NilProviderIsNoop(t *testing.T) {
	e := NewEventEmitter(nil)
	if err := e.Emit(context.Background(), &AuditEvent{EventType: "viewer-connect"}); err != nil {
		t.Errorf("noop emit: %v", err)
	}
	if err := e.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop emit nil event: %v", err)
	}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*AuditEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, event *AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEmitAsync(t *testing.T) {
	rec := &recordingEmitter{}
	EmitAsync(rec, &AuditEvent{EventType: "command-dispatch", DeviceID: "sensor-7"})

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rec.count() != 1 {
		t.Fatal("async emit did not run")
	}

	// Nil emitter and nil event must not panic or spawn work.
	EmitAsync(nil, &AuditEvent{})
	EmitAsync(rec, nil)
}
