// Package handler exposes silo CRUD over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"silowatch/internal/silo/domain"
	"silowatch/internal/silo/repository"
	"silowatch/internal/server/middleware"
	"silowatch/internal/server/respond"
)

// HTTP handles silo requests. Listing is scoped to the viewer's organization.
type HTTP struct {
	silos repository.Repository
}

// NewHTTP returns the silo handler.
func NewHTTP(silos repository.Repository) *HTTP {
	return &HTTP{silos: silos}
}

// Register mounts the silo routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/silos", h.List).Methods(http.MethodGet)
	r.HandleFunc("/silos", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/silos/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/silos/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/silos/{id}", h.Delete).Methods(http.MethodDelete)
}

type siloDTO struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"orgId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Grain          string    `json:"grain,omitempty"`
	InUse          bool      `json:"inUse"`
	MaxTemperature *float64  `json:"maxTemperature,omitempty"`
	MinTemperature *float64  `json:"minTemperature,omitempty"`
	MaxHumidity    *float64  `json:"maxHumidity,omitempty"`
	MinHumidity    *float64  `json:"minHumidity,omitempty"`
	MaxAirQuality  *float64  `json:"maxAirQuality,omitempty"`
	MinAirQuality  *float64  `json:"minAirQuality,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toDTO(s *domain.Silo) siloDTO {
	return siloDTO{
		ID: s.ID, OrgID: s.OrgID, Name: s.Name, Description: s.Description,
		Grain: s.Grain, InUse: s.InUse,
		MaxTemperature: s.MaxTemperature, MinTemperature: s.MinTemperature,
		MaxHumidity: s.MaxHumidity, MinHumidity: s.MinHumidity,
		MaxAirQuality: s.MaxAirQuality, MinAirQuality: s.MinAirQuality,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (h *HTTP) List(w http.ResponseWriter, r *http.Request) {
	orgID, _ := middleware.GetOrgID(r.Context())
	silos, err := h.silos.ListByOrg(r.Context(), orgID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list silos")
		return
	}
	out := make([]siloDTO, 0, len(silos))
	for _, s := range silos {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *HTTP) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.silos.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get silo")
		return
	}
	if s == nil {
		respond.Error(w, http.StatusNotFound, "silo not found")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(s))
}

func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in siloDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	orgID := in.OrgID
	if orgID == "" {
		orgID, _ = middleware.GetOrgID(r.Context())
	}
	now := time.Now().UTC()
	s := &domain.Silo{
		ID: uuid.New().String(), OrgID: orgID, Name: in.Name,
		Description: in.Description, Grain: in.Grain, InUse: in.InUse,
		MaxTemperature: in.MaxTemperature, MinTemperature: in.MinTemperature,
		MaxHumidity: in.MaxHumidity, MinHumidity: in.MinHumidity,
		MaxAirQuality: in.MaxAirQuality, MinAirQuality: in.MinAirQuality,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := h.silos.Create(r.Context(), s); err != nil {
		respond.Error(w, http.StatusInternalServerError, "create silo")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(s))
}

func (h *HTTP) Update(w http.ResponseWriter, r *http.Request) {
	s, err := h.silos.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get silo")
		return
	}
	if s == nil {
		respond.Error(w, http.StatusNotFound, "silo not found")
		return
	}
	var in struct {
		Name           *string  `json:"name"`
		Description    *string  `json:"description"`
		Grain          *string  `json:"grain"`
		InUse          *bool    `json:"inUse"`
		MaxTemperature *float64 `json:"maxTemperature"`
		MinTemperature *float64 `json:"minTemperature"`
		MaxHumidity    *float64 `json:"maxHumidity"`
		MinHumidity    *float64 `json:"minHumidity"`
		MaxAirQuality  *float64 `json:"maxAirQuality"`
		MinAirQuality  *float64 `json:"minAirQuality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Grain != nil {
		s.Grain = *in.Grain
	}
	if in.InUse != nil {
		s.InUse = *in.InUse
	}
	if in.MaxTemperature != nil {
		s.MaxTemperature = in.MaxTemperature
	}
	if in.MinTemperature != nil {
		s.MinTemperature = in.MinTemperature
	}
	if in.MaxHumidity != nil {
		s.MaxHumidity = in.MaxHumidity
	}
	if in.MinHumidity != nil {
		s.MinHumidity = in.MinHumidity
	}
	if in.MaxAirQuality != nil {
		s.MaxAirQuality = in.MaxAirQuality
	}
	if in.MinAirQuality != nil {
		s.MinAirQuality = in.MinAirQuality
	}
	s.UpdatedAt = time.Now().UTC()
	if err := h.silos.Update(r.Context(), s); err != nil {
		respond.Error(w, http.StatusInternalServerError, "update silo")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(s))
}

func (h *HTTP) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.silos.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, http.StatusInternalServerError, "delete silo")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
