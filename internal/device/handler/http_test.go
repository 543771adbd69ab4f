package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"silowatch/internal/device/domain"
	"silowatch/internal/history"
	"silowatch/internal/server/middleware"
)

type fakeDeviceRepo struct {
	devices map[string]*domain.Device
	orgs    map[string]string
}

func (f *fakeDeviceRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	return f.devices[id], nil
}

func (f *fakeDeviceRepo) List(ctx context.Context) ([]*domain.Device, error) {
	var out []*domain.Device
	for _, d := range f.devices {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDeviceRepo) ListOnlineBySilo(ctx context.Context, siloID string) ([]*domain.Device, error) {
	return nil, nil
}

func (f *fakeDeviceRepo) Create(ctx context.Context, d *domain.Device) error {
	f.devices[d.ID] = d
	return nil
}

func (f *fakeDeviceRepo) Update(ctx context.Context, d *domain.Device) error {
	f.devices[d.ID] = d
	return nil
}

func (f *fakeDeviceRepo) Delete(ctx context.Context, id string) error {
	delete(f.devices, id)
	return nil
}

func (f *fakeDeviceRepo) SetOnline(ctx context.Context, id string, at time.Time) error { return nil }

func (f *fakeDeviceRepo) FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Device, error) {
	return nil, nil
}

func (f *fakeDeviceRepo) MarkOfflineIfUnseen(ctx context.Context, id string, seenAt time.Time) (bool, error) {
	return false, nil
}

func (f *fakeDeviceRepo) OrgID(ctx context.Context, deviceID string) (string, error) {
	return f.orgs[deviceID], nil
}

type fakeHistory struct {
	entries map[string][]history.Entry
}

func (f *fakeHistory) Append(ctx context.Context, deviceID string, ts time.Time, payload []byte) error {
	return nil
}

func (f *fakeHistory) Query(ctx context.Context, deviceID string) ([]history.Entry, error) {
	if f.entries[deviceID] == nil {
		return []history.Entry{}, nil
	}
	return f.entries[deviceID], nil
}

type fakeCommander struct {
	sent map[string][]byte
	err  error
}

func (f *fakeCommander) SendCommand(ctx context.Context, deviceID string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[string][]byte{}
	}
	f.sent[deviceID] = payload
	return nil
}

type allowSameOrg struct{}

func (allowSameOrg) AllowDeviceAccess(ctx context.Context, viewerOrgID, deviceOrgID string) (bool, error) {
	return viewerOrgID != "" && viewerOrgID == deviceOrgID, nil
}

func newTestHandler(commander Commander) (*HTTP, *fakeDeviceRepo) {
	repo := &fakeDeviceRepo{
		devices: map[string]*domain.Device{
			"sensor-7": {ID: "sensor-7", Name: "Sensor 7"},
		},
		orgs: map[string]string{"sensor-7": "org-1"},
	}
	h := NewHTTP(repo, &fakeHistory{}, commander, allowSameOrg{}, nil)
	return h, repo
}

func doRequest(h *HTTP, method, path, body, viewerOrg string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	h.Register(r)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.WithIdentity(req.Context(), "user-1", viewerOrg))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCommand_Accepted(t *testing.T) {
	commander := &fakeCommander{}
	h, _ := newTestHandler(commander)

	w := doRequest(h, http.MethodPost, "/devices/sensor-7/commands", `{"command":"restart"}`, "org-1")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", w.Code, w.Body)
	}
	if string(commander.sent["sensor-7"]) != "restart" {
		t.Errorf("command payload = %q", commander.sent["sensor-7"])
	}
}

func TestCommand_TransportDownIs502(t *testing.T) {
	h, _ := newTestHandler(&fakeCommander{err: errors.New("broker down")})

	w := doRequest(h, http.MethodPost, "/devices/sensor-7/commands", `{"command":"restart"}`, "org-1")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestCommand_CrossOrgForbidden(t *testing.T) {
	commander := &fakeCommander{}
	h, _ := newTestHandler(commander)

	w := doRequest(h, http.MethodPost, "/devices/sensor-7/commands", `{"command":"restart"}`, "org-2")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if len(commander.sent) != 0 {
		t.Error("command must not be sent across orgs")
	}
}

func TestCommand_UnknownDevice(t *testing.T) {
	h, _ := newTestHandler(&fakeCommander{})

	w := doRequest(h, http.MethodPost, "/devices/ghost-1/commands", `{"command":"x"}`, "org-1")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHistory_EmptyIsOKNotError(t *testing.T) {
	h, _ := newTestHandler(&fakeCommander{})

	w := doRequest(h, http.MethodGet, "/devices/sensor-7/history", "", "org-1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty array", got)
	}
}

func TestCRUD(t *testing.T) {
	h, repo := newTestHandler(&fakeCommander{})

	w := doRequest(h, http.MethodPost, "/devices", `{"id":"sensor-8","name":"Sensor 8"}`, "org-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	if repo.devices["sensor-8"] == nil {
		t.Fatal("device not created")
	}

	w = doRequest(h, http.MethodPut, "/devices/sensor-8", `{"name":"Renamed"}`, "org-1")
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	if repo.devices["sensor-8"].Name != "Renamed" {
		t.Errorf("name = %q", repo.devices["sensor-8"].Name)
	}

	w = doRequest(h, http.MethodDelete, "/devices/sensor-8", "", "org-1")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if repo.devices["sensor-8"] != nil {
		t.Error("device not deleted")
	}
}
