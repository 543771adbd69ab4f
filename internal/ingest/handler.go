package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	devicedomain "silowatch/internal/device/domain"
	"silowatch/internal/events"
	"silowatch/internal/history"
)

// DeviceRegistry is the slice of the device repository the bridge needs.
type DeviceRegistry interface {
	GetByID(ctx context.Context, id string) (*devicedomain.Device, error)
	SetOnline(ctx context.Context, id string, at time.Time) error
	OrgID(ctx context.Context, deviceID string) (string, error)
}

// Handler processes parsed device messages. It is transport-agnostic so the
// same logic serves the live MQTT subscription and tests.
type Handler struct {
	devices DeviceRegistry
	history history.Store
	bus     *events.Bus
}

// NewHandler returns a message handler.
func NewHandler(devices DeviceRegistry, store history.Store, bus *events.Bus) *Handler {
	return &Handler{devices: devices, history: store, bus: bus}
}

// HandleMessage routes a raw transport message by topic. Malformed topics and
// unknown message kinds are dropped with a log line, never an error, so one
// bad message cannot halt the subscription loop.
func (h *Handler) HandleMessage(ctx context.Context, topic string, payload []byte) {
	deviceID, kind, ok := parseTopic(topic)
	if !ok {
		log.Printf("ingest: dropping message on malformed topic %q", topic)
		return
	}
	switch kind {
	case msgHello:
		h.handleHello(ctx, deviceID, payload)
	case msgData:
		h.handleData(ctx, deviceID, payload)
	default:
		log.Printf("ingest: dropping message of unknown kind %q for device %s", kind, deviceID)
	}
}

// handleHello marks a registered device online and publishes a device-hello
// event to its organization. Hellos from unregistered devices are dropped.
func (h *Handler) handleHello(ctx context.Context, deviceID string, _ []byte) {
	device, err := h.devices.GetByID(ctx, deviceID)
	if err != nil {
		log.Printf("ingest: registry lookup for %s: %v", deviceID, err)
		return
	}
	if device == nil {
		log.Printf("ingest: dropping hello from unregistered device %s", deviceID)
		return
	}

	now := time.Now().UTC()
	if err := h.devices.SetOnline(ctx, deviceID, now); err != nil {
		log.Printf("ingest: mark %s online: %v", deviceID, err)
		return
	}

	orgID, err := h.devices.OrgID(ctx, deviceID)
	if err != nil {
		log.Printf("ingest: org lookup for %s: %v", deviceID, err)
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"deviceId": deviceID,
		"isOnline": true,
		"at":       now,
	})
	h.bus.Publish(events.Event{
		Kind:     events.KindDeviceHello,
		OrgID:    orgID,
		DeviceID: deviceID,
		Payload:  payload,
		At:       now,
	})
}

// handleData appends the reading to history and publishes a device-reading
// event. A reading that could not be retained is not fanned out, so viewers
// never observe a reading that history queries cannot return. Organization
// resolution is best-effort; events for unknown devices are dropped rather
// than misrouted.
func (h *Handler) handleData(ctx context.Context, deviceID string, payload []byte) {
	now := time.Now().UTC()
	if err := h.history.Append(ctx, deviceID, now, payload); err != nil {
		log.Printf("ingest: history append for %s: %v", deviceID, err)
		return
	}

	orgID, err := h.devices.OrgID(ctx, deviceID)
	if err != nil {
		log.Printf("ingest: org lookup for %s: %v", deviceID, err)
		return
	}
	if orgID == "" {
		log.Printf("ingest: dropping reading event for unowned device %s", deviceID)
		return
	}
	h.bus.Publish(events.Event{
		Kind:     events.KindDeviceReading,
		OrgID:    orgID,
		DeviceID: deviceID,
		Payload:  history.NormalizeValue(payload),
		At:       now,
	})
}
