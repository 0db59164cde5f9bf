package service

import (
	"context"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
)

// ModbusService serves the industrial-protocol event feed. The feed is not
// agent-scoped: it is an admin-only surface, but the disabled-account rule
// still applies before the role check.
type ModbusService struct {
	store telemetry.Store
}

func NewModbusService(store telemetry.Store) *ModbusService {
	return &ModbusService{store: store}
}

func (s *ModbusService) authorize(ident *models.Identity) error {
	if ident == nil {
		return authz.ErrUnauthorized
	}
	if ident.Disabled {
		return authz.ErrForbidden
	}
	if !ident.IsAdmin() {
		return authz.ErrForbidden
	}
	return nil
}

// Events lists modbus events inside the window.
func (s *ModbusService) Events(ctx context.Context, ident *models.Identity, window models.TimeWindow) ([]models.ModbusEvent, error) {
	if err := s.authorize(ident); err != nil {
		return nil, err
	}
	return s.store.ModbusEvents(ctx, window)
}

// Ingest stores one modbus event and returns its ID.
func (s *ModbusService) Ingest(ctx context.Context, ident *models.Identity, event *models.ModbusEvent) (string, error) {
	if err := s.authorize(ident); err != nil {
		return "", err
	}
	return s.store.InsertModbusEvent(ctx, event)
}
