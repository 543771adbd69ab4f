package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

// ReadingSink receives device readings pulled off the broker. The Kafka
// producer in internal/relay is the production implementation.
type ReadingSink interface {
	Publish(ctx context.Context, deviceID string, payload []byte) error
}

// Mirror subscribes to the device data topic and forwards every reading to a
// sink. It runs as its own process so readings cross host boundaries even when
// the API server sits elsewhere.
type Mirror struct {
	brokerURL string
	clientID  string
	sink      ReadingSink
}

// NewMirror returns a mirror for the given broker and sink.
func NewMirror(brokerURL, clientID string, sink ReadingSink) *Mirror {
	return &Mirror{brokerURL: brokerURL, clientID: clientID, sink: sink}
}

// Run connects and forwards readings until ctx is cancelled, reconnecting with
// a fixed delay on transport errors.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		if err := m.connectAndServe(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("mirror: connection lost: %v (reconnecting in %s)", err, reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (m *Mirror) connectAndServe(ctx context.Context) error {
	conn, err := dialBroker(ctx, m.brokerURL)
	if err != nil {
		return err
	}

	disconnected := make(chan error, 1)
	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: m.clientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				m.forward(ctx, pr.Packet.Topic, pr.Packet.Payload)
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
		ClientID:   m.clientID,
		KeepAlive:  30,
		CleanStart: true,
	}); err != nil {
		conn.Close()
		return err
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: dataTopicFilter, QoS: 1},
		},
	}); err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return err
	}
	log.Printf("mirror: connected to %s, subscribed to %s", m.brokerURL, dataTopicFilter)

	select {
	case <-ctx.Done():
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return ctx.Err()
	case err := <-disconnected:
		return err
	}
}

func (m *Mirror) forward(ctx context.Context, topic string, payload []byte) {
	deviceID, kind, ok := parseTopic(topic)
	if !ok || kind != msgData {
		return
	}
	if err := m.sink.Publish(ctx, deviceID, payload); err != nil {
		log.Printf("mirror: forward %s: %v", deviceID, err)
	}
}
