package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"silowatch/internal/events"
)

// ChannelPrefix is the logical channel namespace relayed messages are tagged
// with; viewers stream a single device by filtering on its channel.
const ChannelPrefix = "device-updates:"

// Channel returns the relay channel name for a device.
func Channel(deviceID string) string {
	return ChannelPrefix + deviceID
}

// Relay consumes the shared telemetry topic and republishes each message onto
// the local event bus unchanged, tagged with its per-device channel.
type Relay struct {
	brokers []string
	topic   string
	groupID string
	bus     *events.Bus

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRelay returns a relay consuming topic via the given consumer group.
func NewRelay(brokers []string, topic, groupID string, bus *events.Bus) *Relay {
	return &Relay{brokers: brokers, topic: topic, groupID: groupID, bus: bus}
}

// Start begins consuming in a background goroutine. Idempotent: a second call
// while running is a no-op, so wiring code can call it unconditionally.
func (r *Relay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(runCtx)
}

// Stop cancels consumption and waits for the consumer loop to exit.
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        r.brokers,
		Topic:          r.topic,
		GroupID:        r.groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log.Printf("relay: consuming from %s (group %s)", r.topic, r.groupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("relay: stopped")
				return
			}
			log.Printf("relay: kafka read error: %v", err)
			continue
		}
		r.republish(msg)
	}
}

// republish pushes a relayed message onto the event bus as-is. The message key
// is the device id set by the producing process.
func (r *Relay) republish(msg kafka.Message) {
	deviceID := string(msg.Key)
	if deviceID == "" {
		log.Println("relay: dropping message with no device key")
		return
	}
	r.bus.Publish(events.Event{
		Kind:     events.KindDeviceUpdate,
		DeviceID: deviceID,
		Channel:  Channel(deviceID),
		Payload:  msg.Value,
		At:       time.Now().UTC(),
	})
}
