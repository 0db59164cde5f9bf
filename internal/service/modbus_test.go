package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
)

func TestModbusRequiresAdmin(t *testing.T) {
	svc := NewModbusService(&fakeStore{})

	op := &models.Identity{ID: "op", Role: "operator"}
	if _, err := svc.Events(context.Background(), op, serviceWindow()); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("operator must be forbidden, got %v", err)
	}

	if _, err := svc.Events(context.Background(), nil, serviceWindow()); !errors.Is(err, authz.ErrUnauthorized) {
		t.Fatalf("nil identity must be unauthorized, got %v", err)
	}
}

func TestModbusDisabledAdminDenied(t *testing.T) {
	svc := NewModbusService(&fakeStore{})

	adm := &models.Identity{ID: "adm", Role: "admin", Disabled: true}
	if _, err := svc.Events(context.Background(), adm, serviceWindow()); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("disabled admin must be forbidden, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), adm, &models.ModbusEvent{}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("disabled admin must not ingest, got %v", err)
	}
}

func TestModbusAdminAllowed(t *testing.T) {
	svc := NewModbusService(&fakeStore{})

	adm := &models.Identity{ID: "adm", Role: "admin"}
	if _, err := svc.Events(context.Background(), adm, serviceWindow()); err != nil {
		t.Fatalf("admin must read the feed, got %v", err)
	}
}
