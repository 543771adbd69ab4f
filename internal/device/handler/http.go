// Package handler exposes the device registry over HTTP: CRUD, telemetry
// history, and command dispatch.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"silowatch/internal/device/domain"
	"silowatch/internal/device/repository"
	"silowatch/internal/history"
	"silowatch/internal/observability"
	"silowatch/internal/realtime"
	"silowatch/internal/server/middleware"
	"silowatch/internal/server/respond"
)

// Commander publishes operator commands to a device's command topic.
type Commander interface {
	SendCommand(ctx context.Context, deviceID string, payload []byte) error
}

// HTTP handles device registry requests.
type HTTP struct {
	devices   repository.Repository
	history   history.Store
	commander Commander
	policy    realtime.AccessPolicy
	audit     observability.EventEmitter
}

// NewHTTP returns the device handler. commander may be nil when the process
// has no broker connection (command submission then fails with 502).
func NewHTTP(devices repository.Repository, store history.Store, commander Commander, policy realtime.AccessPolicy, audit observability.EventEmitter) *HTTP {
	return &HTTP{devices: devices, history: store, commander: commander, policy: policy, audit: audit}
}

// Register mounts the device routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/devices", h.List).Methods(http.MethodGet)
	r.HandleFunc("/devices", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/devices/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/devices/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/devices/{id}/history", h.History).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/commands", h.Command).Methods(http.MethodPost)
}

type deviceDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SiloID     *string    `json:"siloId,omitempty"`
	IsOnline   bool       `json:"isOnline"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func toDTO(d *domain.Device) deviceDTO {
	return deviceDTO{
		ID:         d.ID,
		Name:       d.Name,
		SiloID:     d.SiloID,
		IsOnline:   d.IsOnline,
		LastSeenAt: d.LastSeenAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (h *HTTP) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list devices")
		return
	}
	out := make([]deviceDTO, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDTO(d))
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *HTTP) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.devices.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get device")
		return
	}
	if d == nil {
		respond.Error(w, http.StatusNotFound, "device not found")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(d))
}

func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		SiloID *string `json:"siloId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d := &domain.Device{
		ID:        in.ID,
		Name:      in.Name,
		SiloID:    in.SiloID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.devices.Create(r.Context(), d); err != nil {
		respond.Error(w, http.StatusInternalServerError, "create device")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(d))
}

func (h *HTTP) Update(w http.ResponseWriter, r *http.Request) {
	d, err := h.devices.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get device")
		return
	}
	if d == nil {
		respond.Error(w, http.StatusNotFound, "device not found")
		return
	}
	var in struct {
		Name   *string `json:"name"`
		SiloID *string `json:"siloId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.SiloID != nil {
		d.SiloID = in.SiloID
	}
	d.UpdatedAt = time.Now().UTC()
	if err := h.devices.Update(r.Context(), d); err != nil {
		respond.Error(w, http.StatusInternalServerError, "update device")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(d))
}

func (h *HTTP) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, http.StatusInternalServerError, "delete device")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// History returns the retained readings for a device in insertion order. A
// device with no history yields an empty array.
func (h *HTTP) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.Query(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, history.ErrStoreUnavailable) {
			respond.Error(w, http.StatusBadGateway, "history store unavailable")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "query history")
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

// Command publishes an opaque command to the device. Returns 202 once the
// transport accepts the publish locally; delivery to the device is not
// acknowledged. A broker outage is reported synchronously as 502.
func (h *HTTP) Command(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	var in struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Command == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}

	d, err := h.devices.GetByID(r.Context(), deviceID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get device")
		return
	}
	if d == nil {
		respond.Error(w, http.StatusNotFound, "device not found")
		return
	}

	viewerOrg, _ := middleware.GetOrgID(r.Context())
	deviceOrg, err := h.devices.OrgID(r.Context(), deviceID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "resolve device org")
		return
	}
	allowed, err := h.policy.AllowDeviceAccess(r.Context(), viewerOrg, deviceOrg)
	if err != nil || !allowed {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if h.commander == nil {
		respond.Error(w, http.StatusBadGateway, "transport unavailable")
		return
	}
	if err := h.commander.SendCommand(r.Context(), deviceID, []byte(in.Command)); err != nil {
		respond.Error(w, http.StatusBadGateway, "transport unavailable")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	observability.EmitAsync(h.audit, &observability.AuditEvent{
		EventType: "command-dispatch",
		OrgID:     viewerOrg,
		UserID:    userID,
		DeviceID:  deviceID,
		Source:    "api",
		CreatedAt: time.Now().UTC(),
	})
	respond.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
