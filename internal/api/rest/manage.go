package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/service"
)

// ManageHandler serves the admin management surface. Role enforcement lives
// here; the service below it is mechanism only.
type ManageHandler struct {
	identities *identity.Resolver
	manage     *service.ManageService
}

func NewManageHandler(idents *identity.Resolver, manage *service.ManageService) *ManageHandler {
	return &ManageHandler{identities: idents, manage: manage}
}

// RegisterRoutes registers management routes on the router.
func (h *ManageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/manage/groups/emails", h.handleGroupEmails).Methods("GET")
	r.HandleFunc("/manage/identities", h.handleListIdentities).Methods("GET")
	r.HandleFunc("/manage/identities/{id}/disable", h.handleToggleDisabled).Methods("POST")
	r.HandleFunc("/manage/identities/{id}/license", h.handleUpdateLicense).Methods("PUT")
	r.HandleFunc("/manage/licenses/total", h.handleTotalLicenses).Methods("GET")
	r.HandleFunc("/manage/agents/active", h.handleTotalActiveAgents).Methods("GET")
}

// requireAdmin resolves the caller and enforces the admin role. A disabled
// admin is denied like any other disabled account.
func (h *ManageHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return nil, false
	}
	if ident.Disabled || !ident.IsAdmin() {
		reqID := logger.FromContext(r.Context())
		respondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Permission denied", reqID)
		return nil, false
	}
	return ident, true
}

func (h *ManageHandler) handleGroupEmails(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	emails, err := h.manage.GroupEmailMap(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Group email map retrieved", emails)
}

func (h *ManageHandler) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	idents, err := h.manage.ListIdentities(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Identities retrieved", idents)
}

func (h *ManageHandler) handleToggleDisabled(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id := mux.Vars(r)["id"]
	disabled, err := h.manage.ToggleDisabled(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Account state updated", map[string]bool{"disabled": disabled})
}

func (h *ManageHandler) handleUpdateLicense(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount < 0 {
		reqID := logger.FromContext(r.Context())
		respondStructuredError(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Invalid license amount", reqID, map[string]string{"field": "amount"})
		return
	}
	if err := h.manage.UpdateLicense(r.Context(), id, req.Amount); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "License updated", map[string]int{"amount": req.Amount})
}

func (h *ManageHandler) handleTotalLicenses(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	total, err := h.manage.TotalLicenses(r.Context(), r.URL.Query().Get("identity_id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "License total retrieved", map[string]int{"total": total})
}

func (h *ManageHandler) handleTotalActiveAgents(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	var groups []string
	if raw := r.URL.Query().Get("groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
	}
	total, err := h.manage.TotalActiveAgents(r.Context(), groups)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Active agent total retrieved", map[string]int{"total": total})
}
