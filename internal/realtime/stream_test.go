package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"silowatch/internal/events"
)

type fakeOrgLookup struct {
	orgs map[string]string
}

func (f *fakeOrgLookup) OrgID(ctx context.Context, deviceID string) (string, error) {
	return f.orgs[deviceID], nil
}

type allowSameOrg struct{}

func (allowSameOrg) AllowDeviceAccess(ctx context.Context, viewerOrgID, deviceOrgID string) (bool, error) {
	return viewerOrgID != "" && viewerOrgID == deviceOrgID, nil
}

func streamServer(bus *events.Bus) *httptest.Server {
	lookup := &fakeOrgLookup{orgs: map[string]string{
		"sensor-7": "org-1",
		"other-9":  "org-2",
	}}
	h := NewStreamHandler(bus, newFakeIdentity(), lookup, allowSameOrg{})
	r := mux.NewRouter()
	r.Handle("/devices/{id}/updates", h)
	return httptest.NewServer(r)
}

func TestStream_CrossOrgForbidden(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	srv := streamServer(bus)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/devices/other-9/updates?token=good-token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestStream_Unauthorized(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	srv := streamServer(bus)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/devices/sensor-7/updates?token=bad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStream_FiltersToRequestedDevice(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	srv := streamServer(bus)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/devices/sensor-7/updates?token=good-token", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// Give the handler time to subscribe before publishing.
	time.Sleep(100 * time.Millisecond)

	// An update for another device must not appear on this stream.
	bus.Publish(events.Event{
		Kind:    events.KindDeviceUpdate,
		Channel: "device-updates:other-9",
		Payload: []byte(`{"temp":1}`),
	})
	bus.Publish(events.Event{
		Kind:    events.KindDeviceUpdate,
		Channel: "device-updates:sensor-7",
		Payload: []byte(`{"temp":22}`),
	})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			t.Fatalf("unexpected line %q", line)
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.Contains(data, "other-9") {
			t.Fatalf("stream leaked another device's update: %s", data)
		}
		if strings.Contains(data, `{"temp":22}`) || strings.Contains(data, "sensor-7") {
			return // got our device's update first, as expected
		}
		t.Fatalf("unexpected frame %s", data)
	}
	t.Fatal("stream ended without delivering the device's update")
}
