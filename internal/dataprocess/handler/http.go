// Package handler exposes data-process submission and queries over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"silowatch/internal/dataprocess/domain"
	"silowatch/internal/dataprocess/service"
	"silowatch/internal/server/respond"
)

// HTTP handles data-process requests.
type HTTP struct {
	results *service.Service
}

// NewHTTP returns the data-process handler.
func NewHTTP(results *service.Service) *HTTP {
	return &HTTP{results: results}
}

// Register mounts the data-process routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/data-processes", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/silos/{id}/data-processes", h.ListBySilo).Methods(http.MethodGet)
}

type resultDTO struct {
	ID                 string    `json:"id"`
	SiloID             string    `json:"siloId"`
	PeriodStart        time.Time `json:"periodStart"`
	PeriodEnd          time.Time `json:"periodEnd"`
	AverageTemperature *float64  `json:"averageTemperature,omitempty"`
	AverageHumidity    *float64  `json:"averageHumidity,omitempty"`
	AverageAirQuality  *float64  `json:"averageAirQuality,omitempty"`
	EnvironmentScore   *float64  `json:"environmentScore,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toDTO(d *domain.DataProcess) resultDTO {
	return resultDTO{
		ID: d.ID, SiloID: d.SiloID,
		PeriodStart: d.PeriodStart, PeriodEnd: d.PeriodEnd,
		AverageTemperature: d.AverageTemperature, AverageHumidity: d.AverageHumidity,
		AverageAirQuality: d.AverageAirQuality, EnvironmentScore: d.EnvironmentScore,
		CreatedAt: d.CreatedAt,
	}
}

// Create records a processing result and fans it out to the silo's
// organization room.
func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in resultDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.SiloID == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	d, err := h.results.Create(r.Context(), &domain.DataProcess{
		SiloID:             in.SiloID,
		PeriodStart:        in.PeriodStart,
		PeriodEnd:          in.PeriodEnd,
		AverageTemperature: in.AverageTemperature,
		AverageHumidity:    in.AverageHumidity,
		AverageAirQuality:  in.AverageAirQuality,
		EnvironmentScore:   in.EnvironmentScore,
	})
	if err != nil {
		if errors.Is(err, service.ErrSiloNotFound) {
			respond.Error(w, http.StatusNotFound, "silo not found")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "create data process")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(d))
}

func (h *HTTP) ListBySilo(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.ListBySilo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list data processes")
		return
	}
	out := make([]resultDTO, 0, len(results))
	for _, d := range results {
		out = append(out, toDTO(d))
	}
	respond.JSON(w, http.StatusOK, out)
}
