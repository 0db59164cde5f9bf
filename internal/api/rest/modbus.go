package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sentriq/sentriq-backend/internal/api/websocket"
	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/service"
)

const maxModbusBody = 1 << 20 // 1MB

// ModbusHandler serves the industrial-protocol event feed over REST and fans
// ingested events out to the live WebSocket hub.
type ModbusHandler struct {
	identities *identity.Resolver
	modbus     *service.ModbusService
	hub        *websocket.Hub
}

func NewModbusHandler(idents *identity.Resolver, modbus *service.ModbusService, hub *websocket.Hub) *ModbusHandler {
	return &ModbusHandler{identities: idents, modbus: modbus, hub: hub}
}

// RegisterRoutes registers modbus routes on the router.
func (h *ModbusHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/modbus/events", h.handleList).Methods("GET")
	r.HandleFunc("/modbus/events", h.handleIngest).Methods("POST")
}

func (h *ModbusHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	events, err := h.modbus.Events(r.Context(), ident, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Modbus events retrieved", events)
}

func (h *ModbusHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}

	var event models.ModbusEvent
	body := io.LimitReader(r.Body, maxModbusBody)
	if err := json.NewDecoder(body).Decode(&event); err != nil {
		reqID := logger.FromContext(r.Context())
		respondErrorWithCode(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Invalid event payload", reqID)
		return
	}

	id, err := h.modbus.Ingest(r.Context(), ident, &event)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	event.EventID = id

	if h.hub != nil {
		if err := h.hub.BroadcastModbusEvent(&event); err != nil {
			logger.StdLogger().Warn("modbus broadcast failed", "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: "Modbus event stored",
		Content: map[string]string{"event_id": id},
	})
}
