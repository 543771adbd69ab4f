package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	devicehandler "silowatch/internal/device/handler"
	"silowatch/internal/realtime"
)

type staticIdentity struct{}

func (staticIdentity) Resolve(ctx context.Context, credential string) (string, string, error) {
	if credential == "valid" {
		return "user-1", "org-1", nil
	}
	return "", "", realtime.ErrUnauthorized
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	r := NewRouter(Deps{
		Identity: staticIdentity{},
		Devices:  devicehandler.NewHTTP(nil, nil, nil, nil, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r := NewRouter(Deps{
		Identity: staticIdentity{},
		Health: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", w.Code)
	}
}
