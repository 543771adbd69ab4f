// Package service holds alert business logic: creation resolves the owning
// organization and publishes an alert-created live event for realtime viewers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"silowatch/internal/alert/domain"
	alertrepo "silowatch/internal/alert/repository"
	"silowatch/internal/events"
	silodomain "silowatch/internal/silo/domain"
)

// ErrSiloNotFound is returned when the alert references an unknown silo.
var ErrSiloNotFound = errors.New("silo not found")

// SiloRepo is the minimal silo repository needed by the alert service.
type SiloRepo interface {
	GetByID(ctx context.Context, id string) (*silodomain.Silo, error)
}

// Service creates and queries alerts.
type Service struct {
	alerts alertrepo.Repository
	silos  SiloRepo
	bus    *events.Bus
}

// NewService returns an alert service. bus may be nil (no realtime fan-out).
func NewService(alerts alertrepo.Repository, silos SiloRepo, bus *events.Bus) *Service {
	return &Service{alerts: alerts, silos: silos, bus: bus}
}

// alertEvent is the live-event payload sent to viewer rooms.
type alertEvent struct {
	ID           string   `json:"id"`
	SiloID       string   `json:"siloId"`
	SiloName     string   `json:"siloName"`
	Type         string   `json:"type"`
	Level        string   `json:"level"`
	CurrentValue *float64 `json:"currentValue,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Create persists the alert and publishes an alert-created event scoped to the
// silo's organization. Returns ErrSiloNotFound for unknown silos.
func (s *Service) Create(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	silo, err := s.silos.GetByID(ctx, a.SiloID)
	if err != nil {
		return nil, err
	}
	if silo == nil {
		return nil, ErrSiloNotFound
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Level == "" {
		a.Level = domain.LevelInfo
	}
	a.CreatedAt = time.Now().UTC()
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}

	if s.bus != nil {
		payload, err := json.Marshal(alertEvent{
			ID: a.ID, SiloID: silo.ID, SiloName: silo.Name,
			Type: string(a.Type), Level: string(a.Level),
			CurrentValue: a.CurrentValue, Message: a.Message,
		})
		if err == nil {
			s.bus.Publish(events.Event{
				Kind:    events.KindAlertCreated,
				OrgID:   silo.OrgID,
				Payload: payload,
				At:      a.CreatedAt,
			})
		}
	}
	return a, nil
}

// ListBySilo returns the alerts recorded for a silo.
func (s *Service) ListBySilo(ctx context.Context, siloID string) ([]*domain.Alert, error) {
	return s.alerts.ListBySilo(ctx, siloID)
}
