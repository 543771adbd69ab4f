package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

type fakeSink struct {
	mu  sync.Mutex
	got map[string][][]byte
}

func newFakeSink() *fakeSink {
	return &fakeSink{got: map[string][][]byte{}}
}

func (s *fakeSink) Publish(ctx context.Context, deviceID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got[deviceID] = append(s.got[deviceID], payload)
	return nil
}

func (s *fakeSink) payloads(deviceID string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.got[deviceID]
}

func TestMirror_ForwardsReadings(t *testing.T) {
	addr := startBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newFakeSink()
	mirror := NewMirror(addr, "silowatch-mirror-test", sink)
	go mirror.Run(ctx)

	// No SendCommand to probe with; give the session a moment to subscribe.
	pub := testClient(ctx, t, addr, "device-sim", nil)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := pub.Publish(ctx, &paho.Publish{
			Topic: "devices/sensor-7/data", QoS: 1, Payload: []byte(`{"temperature":21.5}`),
		}); err != nil {
			t.Fatalf("publish data: %v", err)
		}
		if len(sink.payloads("sensor-7")) > 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	got := sink.payloads("sensor-7")
	if len(got) == 0 {
		t.Fatal("reading did not reach the sink")
	}
	if string(got[0]) != `{"temperature":21.5}` {
		t.Errorf("payload = %s", got[0])
	}
}

func TestMirror_IgnoresHelloTopic(t *testing.T) {
	sink := newFakeSink()
	m := NewMirror("unused:1883", "id", sink)

	m.forward(context.Background(), "devices/sensor-7/hello", nil)
	m.forward(context.Background(), "not-a-device-topic", []byte("x"))

	if n := len(sink.payloads("sensor-7")); n != 0 {
		t.Errorf("sink received %d payloads, want 0", n)
	}
}
