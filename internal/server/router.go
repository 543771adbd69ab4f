// Package server assembles the HTTP surface: public auth and health routes,
// the realtime viewer endpoints, and the authenticated API.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	alerthandler "silowatch/internal/alert/handler"
	dphandler "silowatch/internal/dataprocess/handler"
	devicehandler "silowatch/internal/device/handler"
	identityhandler "silowatch/internal/identity/handler"
	orghandler "silowatch/internal/organization/handler"
	"silowatch/internal/realtime"
	"silowatch/internal/server/middleware"
	silohandler "silowatch/internal/silo/handler"
	userhandler "silowatch/internal/user/handler"
)

// Deps holds the handlers the router mounts.
type Deps struct {
	Identity realtime.IdentityResolver

	Auth          *identityhandler.HTTP
	Devices       *devicehandler.HTTP
	Silos         *silohandler.HTTP
	Organizations *orghandler.HTTP
	Users         *userhandler.HTTP
	Alerts        *alerthandler.HTTP
	DataProcesses *dphandler.HTTP

	Health http.Handler
	WS     http.Handler
	Stream http.Handler
}

// NewRouter wires all routes. The WebSocket and per-device stream endpoints
// authenticate their own credential (browsers cannot set headers on them), the
// rest of the API sits behind the bearer middleware.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	if d.Health != nil {
		r.Handle("/healthz", d.Health).Methods(http.MethodGet)
	}
	if d.WS != nil {
		r.Handle("/ws", d.WS).Methods(http.MethodGet)
	}

	public := r.PathPrefix("/api").Subrouter()
	if d.Auth != nil {
		d.Auth.Register(public)
	}
	if d.Stream != nil {
		public.Handle("/devices/{id}/updates", d.Stream).Methods(http.MethodGet)
	}

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuth(d.Identity))
	if d.Devices != nil {
		d.Devices.Register(protected)
	}
	if d.Silos != nil {
		d.Silos.Register(protected)
	}
	if d.Organizations != nil {
		d.Organizations.Register(protected)
	}
	if d.Users != nil {
		d.Users.Register(protected)
	}
	if d.Alerts != nil {
		d.Alerts.Register(protected)
	}
	if d.DataProcesses != nil {
		d.DataProcesses.Register(protected)
	}
	return r
}
