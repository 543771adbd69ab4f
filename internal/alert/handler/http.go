// Package handler exposes alert recording and queries over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"silowatch/internal/alert/domain"
	"silowatch/internal/alert/service"
	"silowatch/internal/server/respond"
)

// HTTP handles alert requests.
type HTTP struct {
	alerts *service.Service
}

// NewHTTP returns the alert handler.
func NewHTTP(alerts *service.Service) *HTTP {
	return &HTTP{alerts: alerts}
}

// Register mounts the alert routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/silos/{id}/alerts", h.ListBySilo).Methods(http.MethodGet)
}

type alertDTO struct {
	ID           string    `json:"id"`
	SiloID       string    `json:"siloId"`
	Type         string    `json:"type"`
	Level        string    `json:"level"`
	CurrentValue *float64  `json:"currentValue,omitempty"`
	Message      string    `json:"message,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toDTO(a *domain.Alert) alertDTO {
	return alertDTO{
		ID: a.ID, SiloID: a.SiloID, Type: string(a.Type), Level: string(a.Level),
		CurrentValue: a.CurrentValue, Message: a.Message, CreatedAt: a.CreatedAt,
	}
}

// Create records an alert and fans it out to the silo's organization room.
func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in alertDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.SiloID == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	a, err := h.alerts.Create(r.Context(), &domain.Alert{
		SiloID:       in.SiloID,
		Type:         domain.Type(in.Type),
		Level:        domain.Level(in.Level),
		CurrentValue: in.CurrentValue,
		Message:      in.Message,
	})
	if err != nil {
		if errors.Is(err, service.ErrSiloNotFound) {
			respond.Error(w, http.StatusNotFound, "silo not found")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "create alert")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(a))
}

func (h *HTTP) ListBySilo(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListBySilo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list alerts")
		return
	}
	out := make([]alertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toDTO(a))
	}
	respond.JSON(w, http.StatusOK, out)
}
