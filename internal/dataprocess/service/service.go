// Package service holds data-process business logic: submission resolves the
// owning organization and publishes a data-processed live event.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"silowatch/internal/dataprocess/domain"
	dprepo "silowatch/internal/dataprocess/repository"
	"silowatch/internal/events"
	silodomain "silowatch/internal/silo/domain"
)

// ErrSiloNotFound is returned when the result references an unknown silo.
var ErrSiloNotFound = errors.New("silo not found")

// SiloRepo is the minimal silo repository needed by the data-process service.
type SiloRepo interface {
	GetByID(ctx context.Context, id string) (*silodomain.Silo, error)
}

// Service records and queries data-process results.
type Service struct {
	results dprepo.Repository
	silos   SiloRepo
	bus     *events.Bus
}

// NewService returns a data-process service. bus may be nil (no realtime fan-out).
func NewService(results dprepo.Repository, silos SiloRepo, bus *events.Bus) *Service {
	return &Service{results: results, silos: silos, bus: bus}
}

// processedEvent is the live-event payload sent to viewer rooms.
type processedEvent struct {
	ID                 string    `json:"id"`
	SiloID             string    `json:"siloId"`
	SiloName           string    `json:"siloName"`
	PeriodStart        time.Time `json:"periodStart"`
	PeriodEnd          time.Time `json:"periodEnd"`
	AverageTemperature *float64  `json:"averageTemperature,omitempty"`
	AverageHumidity    *float64  `json:"averageHumidity,omitempty"`
	AverageAirQuality  *float64  `json:"averageAirQuality,omitempty"`
	EnvironmentScore   *float64  `json:"environmentScore,omitempty"`
}

// Create persists the result and publishes a data-processed event scoped to
// the silo's organization. Returns ErrSiloNotFound for unknown silos.
func (s *Service) Create(ctx context.Context, d *domain.DataProcess) (*domain.DataProcess, error) {
	silo, err := s.silos.GetByID(ctx, d.SiloID)
	if err != nil {
		return nil, err
	}
	if silo == nil {
		return nil, ErrSiloNotFound
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	if err := s.results.Create(ctx, d); err != nil {
		return nil, err
	}

	if s.bus != nil {
		payload, err := json.Marshal(processedEvent{
			ID: d.ID, SiloID: silo.ID, SiloName: silo.Name,
			PeriodStart: d.PeriodStart, PeriodEnd: d.PeriodEnd,
			AverageTemperature: d.AverageTemperature,
			AverageHumidity:    d.AverageHumidity,
			AverageAirQuality:  d.AverageAirQuality,
			EnvironmentScore:   d.EnvironmentScore,
		})
		if err == nil {
			s.bus.Publish(events.Event{
				Kind:    events.KindDataProcessed,
				OrgID:   silo.OrgID,
				Payload: payload,
				At:      d.CreatedAt,
			})
		}
	}
	return d, nil
}

// ListBySilo returns the results recorded for a silo.
func (s *Service) ListBySilo(ctx context.Context, siloID string) ([]*domain.DataProcess, error) {
	return s.results.ListBySilo(ctx, siloID)
}
