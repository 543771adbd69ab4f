// Package liveness flips devices offline when they stop sending hellos.
package liveness

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	devicedomain "silowatch/internal/device/domain"
	"silowatch/internal/events"
)

// Registry is the slice of the device repository the monitor needs.
type Registry interface {
	FindStale(ctx context.Context, cutoff time.Time) ([]*devicedomain.Device, error)
	// MarkOfflineIfUnseen flips the device offline only if its last_seen_at is
	// still the value read at sweep start, so a hello landing mid-sweep wins.
	MarkOfflineIfUnseen(ctx context.Context, id string, seenAt time.Time) (bool, error)
	OrgID(ctx context.Context, deviceID string) (string, error)
}

// Monitor periodically sweeps the registry for online devices whose last hello
// is older than the staleness threshold and marks them offline.
type Monitor struct {
	registry  Registry
	bus       *events.Bus
	period    time.Duration
	threshold time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor returns a monitor sweeping every period, flipping devices whose
// last hello is older than threshold. bus may be nil (no offline events).
func NewMonitor(registry Registry, bus *events.Bus, period, threshold time.Duration) *Monitor {
	return &Monitor{registry: registry, bus: bus, period: period, threshold: threshold}
}

// Start begins sweeping in a background goroutine. Idempotent.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx)
}

// Stop cancels sweeping and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one liveness pass. Failures are isolated per device: one failed
// write never aborts the rest of the sweep. Safe to call repeatedly; a device
// already offline is not re-flipped and produces no further event.
func (m *Monitor) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	stale, err := m.registry.FindStale(ctx, now.Add(-m.threshold))
	if err != nil {
		log.Printf("liveness: stale scan: %v", err)
		return
	}

	for _, d := range stale {
		if d.LastSeenAt == nil {
			// Online with no hello on record should not happen; leave it for
			// the registry invariant rather than guessing a timestamp.
			continue
		}
		flipped, err := m.registry.MarkOfflineIfUnseen(ctx, d.ID, *d.LastSeenAt)
		if err != nil {
			log.Printf("liveness: mark %s offline: %v", d.ID, err)
			continue
		}
		if !flipped {
			// A hello arrived between scan and write; the device stays online.
			continue
		}
		log.Printf("liveness: device %s offline (last seen %s)", d.ID, d.LastSeenAt.Format(time.RFC3339))
		m.publishOffline(ctx, d, now)
	}
}

func (m *Monitor) publishOffline(ctx context.Context, d *devicedomain.Device, at time.Time) {
	if m.bus == nil {
		return
	}
	orgID, err := m.registry.OrgID(ctx, d.ID)
	if err != nil {
		log.Printf("liveness: org lookup for %s: %v", d.ID, err)
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"deviceId":   d.ID,
		"isOnline":   false,
		"lastSeenAt": d.LastSeenAt,
	})
	m.bus.Publish(events.Event{
		Kind:     events.KindDeviceOffline,
		OrgID:    orgID,
		DeviceID: d.ID,
		Payload:  payload,
		At:       at,
	})
}
