package liveness

import (
	"context"
	"errors"
	"testing"
	"time"

	devicedomain "silowatch/internal/device/domain"
	"silowatch/internal/events"
)

type fakeRegistry struct {
	stale   []*devicedomain.Device
	orgs    map[string]string
	seenNow map[string]time.Time
	flipped map[string]time.Time
	failIDs map[string]bool
	online  map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		orgs:    map[string]string{},
		seenNow: map[string]time.Time{},
		flipped: map[string]time.Time{},
		failIDs: map[string]bool{},
		online:  map[string]bool{},
	}
}

func (f *fakeRegistry) FindStale(ctx context.Context, cutoff time.Time) ([]*devicedomain.Device, error) {
	var out []*devicedomain.Device
	for _, d := range f.stale {
		if f.online[d.ID] && d.LastSeenAt != nil && d.LastSeenAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRegistry) MarkOfflineIfUnseen(ctx context.Context, id string, seenAt time.Time) (bool, error) {
	if f.failIDs[id] {
		return false, errors.New("registry write failed")
	}
	if !f.online[id] || !f.seenNow[id].Equal(seenAt) {
		return false, nil
	}
	f.online[id] = false
	f.flipped[id] = seenAt
	return true, nil
}

func (f *fakeRegistry) OrgID(ctx context.Context, deviceID string) (string, error) {
	return f.orgs[deviceID], nil
}

func (f *fakeRegistry) addStale(id string, seen time.Time) {
	f.stale = append(f.stale, &devicedomain.Device{ID: id, IsOnline: true, LastSeenAt: &seen})
	f.online[id] = true
	f.seenNow[id] = seen
}

func TestSweep_MarksStaleOffline(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	reg := newFakeRegistry()
	reg.addStale("sensor-7", time.Now().Add(-time.Hour))
	reg.orgs["sensor-7"] = "org-1"

	m := NewMonitor(reg, bus, time.Minute, 2*time.Minute)
	m.Sweep(context.Background())

	if _, ok := reg.flipped["sensor-7"]; !ok {
		t.Error("stale device was not flipped offline")
	}
	select {
	case e := <-sub.C:
		if e.Kind != events.KindDeviceOffline || e.OrgID != "org-1" || e.DeviceID != "sensor-7" {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no device-offline event published")
	}
}

func TestSweep_SecondSweepIsIdempotent(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	reg := newFakeRegistry()
	reg.addStale("sensor-7", time.Now().Add(-time.Hour))
	reg.orgs["sensor-7"] = "org-1"

	m := NewMonitor(reg, bus, time.Minute, 2*time.Minute)
	m.Sweep(context.Background())
	m.Sweep(context.Background())

	var offline int
	for {
		select {
		case <-sub.C:
			offline++
		case <-time.After(100 * time.Millisecond):
			if offline != 1 {
				t.Errorf("got %d offline events, want exactly 1", offline)
			}
			return
		}
	}
}

func TestSweep_FailureIsolatedPerDevice(t *testing.T) {
	reg := newFakeRegistry()
	seen := time.Now().Add(-time.Hour)
	reg.addStale("bad-1", seen)
	reg.addStale("sensor-7", seen)
	reg.failIDs["bad-1"] = true

	m := NewMonitor(reg, nil, time.Minute, 2*time.Minute)
	m.Sweep(context.Background())

	if _, ok := reg.flipped["sensor-7"]; !ok {
		t.Error("failure on one device aborted the rest of the sweep")
	}
	if _, ok := reg.flipped["bad-1"]; ok {
		t.Error("failed device should not be recorded as flipped")
	}
}

func TestSweep_HelloDuringSweepWins(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	reg := newFakeRegistry()
	reg.addStale("sensor-7", time.Now().Add(-time.Hour))
	// A hello between scan and write shows up as the conditional update
	// matching nothing.
	reg.seenNow["sensor-7"] = time.Now()

	m := NewMonitor(reg, bus, time.Minute, 2*time.Minute)
	m.Sweep(context.Background())

	select {
	case e := <-sub.C:
		t.Errorf("clobbered hello: unexpected offline event %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}
