// Package events provides the in-process publish/subscribe bus that decouples
// telemetry producers (ingestion bridge, liveness monitor, domain writes, relay)
// from the realtime dispatcher.
package events

import (
	"encoding/json"
	"time"
)

// Kind identifies a live event variant.
type Kind string

const (
	// KindDeviceReading is emitted when the ingestion bridge accepts a data message.
	KindDeviceReading Kind = "device-reading"
	// KindDeviceHello is emitted when a registered device sends a hello message.
	KindDeviceHello Kind = "device-hello"
	// KindDeviceOffline is emitted when the liveness monitor demotes a stale device.
	KindDeviceOffline Kind = "device-offline"
	// KindDeviceUpdate is emitted by the cross-process relay for messages consumed
	// from the external channel. Channel carries the raw channel name.
	KindDeviceUpdate Kind = "device-update"
	// KindAlertCreated is emitted when an alert is created for a silo.
	KindAlertCreated Kind = "alert-created"
	// KindDataProcessed is emitted when a processing result is stored for a silo.
	KindDataProcessed Kind = "data-processed"
)

// Event is an ephemeral live notification. Events are never persisted; only
// subscribers registered at publish time observe them.
//
// OrgID is the owning-organization scope resolved before publication. It may be
// empty when the producer could not resolve it (e.g. an unregistered device);
// the dispatcher never delivers org-less events to viewer rooms.
type Event struct {
	Kind     Kind
	OrgID    string
	DeviceID string
	// Channel is the raw external channel name, set only for KindDeviceUpdate
	// (e.g. "device-updates:sensor-7").
	Channel string
	Payload json.RawMessage
	At      time.Time
}
