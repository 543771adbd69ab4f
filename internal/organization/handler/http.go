// Package handler exposes organization CRUD over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"silowatch/internal/organization/domain"
	"silowatch/internal/organization/repository"
	"silowatch/internal/server/respond"
)

// HTTP handles organization requests.
type HTTP struct {
	orgs repository.Repository
}

// NewHTTP returns the organization handler.
func NewHTTP(orgs repository.Repository) *HTTP {
	return &HTTP{orgs: orgs}
}

// Register mounts the organization routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/organizations", h.List).Methods(http.MethodGet)
	r.HandleFunc("/organizations", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/organizations/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/organizations/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/organizations/{id}", h.Delete).Methods(http.MethodDelete)
}

type orgDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TaxID       string    `json:"taxId,omitempty"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toDTO(o *domain.Organization) orgDTO {
	return orgDTO{
		ID: o.ID, Name: o.Name, TaxID: o.TaxID,
		Description: o.Description, Address: o.Address,
		CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
}

func (h *HTTP) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list organizations")
		return
	}
	out := make([]orgDTO, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toDTO(o))
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *HTTP) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orgs.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get organization")
		return
	}
	if o == nil {
		respond.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(o))
}

func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in orgDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	now := time.Now().UTC()
	o := &domain.Organization{
		ID: uuid.New().String(), Name: in.Name, TaxID: in.TaxID,
		Description: in.Description, Address: in.Address,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := h.orgs.Create(r.Context(), o); err != nil {
		respond.Error(w, http.StatusInternalServerError, "create organization")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(o))
}

func (h *HTTP) Update(w http.ResponseWriter, r *http.Request) {
	o, err := h.orgs.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get organization")
		return
	}
	if o == nil {
		respond.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	var in struct {
		Name        *string `json:"name"`
		TaxID       *string `json:"taxId"`
		Description *string `json:"description"`
		Address     *string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Name != nil {
		o.Name = *in.Name
	}
	if in.TaxID != nil {
		o.TaxID = *in.TaxID
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Address != nil {
		o.Address = *in.Address
	}
	o.UpdatedAt = time.Now().UTC()
	if err := h.orgs.Update(r.Context(), o); err != nil {
		respond.Error(w, http.StatusInternalServerError, "update organization")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(o))
}

func (h *HTTP) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, http.StatusInternalServerError, "delete organization")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
