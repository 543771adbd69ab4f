package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"silowatch/internal/events"
	"silowatch/internal/relay"
)

// DeviceOrgLookup resolves a device to its owning organization ("" when the
// device or its silo is unknown).
type DeviceOrgLookup interface {
	OrgID(ctx context.Context, deviceID string) (string, error)
}

// AccessPolicy decides whether a viewer may observe a device.
type AccessPolicy interface {
	AllowDeviceAccess(ctx context.Context, viewerOrgID, deviceOrgID string) (bool, error)
}

// StreamHandler serves a per-device update stream over SSE. It is the unicast
// projection of the event bus: only events for the requested device pass the
// filter, whether relayed from another process or produced locally.
type StreamHandler struct {
	bus      *events.Bus
	identity IdentityResolver
	devices  DeviceOrgLookup
	policy   AccessPolicy
}

// NewStreamHandler returns the SSE endpoint handler.
func NewStreamHandler(bus *events.Bus, identity IdentityResolver, devices DeviceOrgLookup, policy AccessPolicy) *StreamHandler {
	return &StreamHandler{bus: bus, identity: identity, devices: devices, policy: policy}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	if deviceID == "" {
		http.Error(w, "missing device id", http.StatusBadRequest)
		return
	}

	credential := BearerCredential(r)
	if credential == "" {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}
	_, viewerOrg, err := h.identity.Resolve(r.Context(), credential)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}
		http.Error(w, "identity resolution failed", http.StatusInternalServerError)
		return
	}

	deviceOrg, err := h.devices.OrgID(r.Context(), deviceID)
	if err != nil {
		http.Error(w, "registry unavailable", http.StatusBadGateway)
		return
	}
	allowed, err := h.policy.AllowDeviceAccess(r.Context(), viewerOrg, deviceOrg)
	if err != nil || !allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.bus.Subscribe()
	defer sub.Close()

	channel := relay.Channel(deviceID)
	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if !matchesDevice(e, deviceID, channel) {
				continue
			}
			msg := encodeFrame(e)
			if msg == nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesDevice keeps relayed device-update events on the device's channel and
// locally produced reading/hello/offline events for the same device.
func matchesDevice(e events.Event, deviceID, channel string) bool {
	if e.Kind == events.KindDeviceUpdate {
		return e.Channel == channel
	}
	return e.DeviceID == deviceID
}
