package relay

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"silowatch/internal/events"
)

func TestChannel(t *testing.T) {
	if got := Channel("sensor-7"); got != "device-updates:sensor-7" {
		t.Errorf("Channel = %q", got)
	}
}

func TestRepublish(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	r := NewRelay(nil, "silowatch-readings", "silowatch-relay", bus)
	r.republish(kafka.Message{Key: []byte("sensor-7"), Value: []byte(`{"temp":19}`)})

	select {
	case e := <-sub.C:
		if e.Kind != events.KindDeviceUpdate {
			t.Errorf("kind = %q", e.Kind)
		}
		if e.Channel != "device-updates:sensor-7" {
			t.Errorf("channel = %q", e.Channel)
		}
		if string(e.Payload) != `{"temp":19}` {
			t.Errorf("payload = %s", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("relayed message did not reach the bus")
	}
}

func TestRepublish_NoKeyDropped(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	r := NewRelay(nil, "silowatch-readings", "silowatch-relay", bus)
	r.republish(kafka.Message{Value: []byte("x")})

	select {
	case e := <-sub.C:
		t.Errorf("keyless message must be dropped, got %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStart_Idempotent(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	r := NewRelay([]string{"localhost:19092"}, "silowatch-readings", "silowatch-relay", bus)
	ctx := context.Background()

	r.Start(ctx)
	first := r.done
	r.Start(ctx) // second call must not spawn another consumer
	if r.done != first {
		t.Error("second Start replaced the running consumer")
	}
	r.Stop()
	r.Stop() // no-op after stop
}
