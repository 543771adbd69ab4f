package ingest

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

// ErrTransportUnavailable is returned when the broker cannot be reached for a
// synchronous publish (command dispatch). Ingestion reconnects on its own and
// never surfaces this.
var ErrTransportUnavailable = errors.New("mqtt transport unavailable")

const reconnectDelay = 2 * time.Second

// Bridge owns the MQTT session: it subscribes to the device data and hello
// topics, feeds received messages to the Handler, and exposes command publish
// over the same connection.
type Bridge struct {
	brokerURL string
	clientID  string
	handler   *Handler

	mu     sync.Mutex
	client *paho.Client
}

// NewBridge returns a bridge for the given broker. Run must be called before
// messages flow.
func NewBridge(brokerURL, clientID string, handler *Handler) *Bridge {
	return &Bridge{brokerURL: brokerURL, clientID: clientID, handler: handler}
}

// Run connects to the broker and processes messages until ctx is cancelled.
// Transport errors trigger automatic reconnect with a fixed delay; the
// subscriptions are re-established on every (re)connect.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		if err := b.connectAndServe(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("ingest: connection lost: %v (reconnecting in %s)", err, reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *Bridge) connectAndServe(ctx context.Context) error {
	conn, err := dialBroker(ctx, b.brokerURL)
	if err != nil {
		return err
	}

	disconnected := make(chan error, 1)
	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: b.clientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				b.handler.HandleMessage(ctx, pr.Packet.Topic, pr.Packet.Payload)
				return true, nil
			},
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			select {
			case disconnected <- errors.New("server disconnect"):
			default:
			}
		},
		OnClientError: func(err error) {
			select {
			case disconnected <- err:
			default:
			}
		},
	})

	if _, err := client.Connect(ctx, &paho.Connect{
		ClientID:   b.clientID,
		KeepAlive:  30,
		CleanStart: true,
	}); err != nil {
		conn.Close()
		return err
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: dataTopicFilter, QoS: 1},
			{Topic: helloTopicFilter, QoS: 1},
		},
	}); err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return err
	}

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()
	log.Printf("ingest: connected to %s, subscribed to device topics", b.brokerURL)

	defer func() {
		b.mu.Lock()
		b.client = nil
		b.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return ctx.Err()
	case err := <-disconnected:
		return err
	}
}

// SendCommand publishes an opaque command payload to the device's command
// topic. Returns ErrTransportUnavailable when the broker connection is down or
// the publish fails; callers surface this synchronously.
func (b *Bridge) SendCommand(ctx context.Context, deviceID string, payload []byte) error {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	if client == nil {
		return ErrTransportUnavailable
	}
	if _, err := client.Publish(ctx, &paho.Publish{
		Topic:   commandTopic(deviceID),
		QoS:     1,
		Payload: payload,
	}); err != nil {
		return errors.Join(ErrTransportUnavailable, err)
	}
	return nil
}

// HealthCheck reports whether the broker session is currently established.
func (b *Bridge) HealthCheck(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return ErrTransportUnavailable
	}
	return nil
}

// dialBroker opens a TCP connection to the broker. Accepts bare host:port or
// mqtt:// and tcp:// URLs.
func dialBroker(ctx context.Context, brokerURL string) (net.Conn, error) {
	addr := brokerURL
	for _, prefix := range []string{"mqtt://", "tcp://"} {
		addr = strings.TrimPrefix(addr, prefix)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
