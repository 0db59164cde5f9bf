package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/service"
)

// AgentDetailHandler serves per-agent telemetry rollups and the fleet
// overview.
type AgentDetailHandler struct {
	identities *identity.Resolver
	agents     *service.AgentDetailService
	overview   *service.OverviewService
}

func NewAgentDetailHandler(idents *identity.Resolver, agents *service.AgentDetailService, overview *service.OverviewService) *AgentDetailHandler {
	return &AgentDetailHandler{identities: idents, agents: agents, overview: overview}
}

// RegisterRoutes registers agent detail routes on the router.
func (h *AgentDetailHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/overview", h.handleOverview).Methods("GET")
	r.HandleFunc("/agents/{agent}", h.handleAgentInfo).Methods("GET")
	r.HandleFunc("/agents/{agent}/mitre", h.handleMitre).Methods("GET")
	r.HandleFunc("/agents/{agent}/ransomware", h.handleRansomware).Methods("GET")
	r.HandleFunc("/agents/{agent}/cve", h.handleCVE).Methods("GET")
	r.HandleFunc("/agents/{agent}/ioc", h.handleIoC).Methods("GET")
	r.HandleFunc("/agents/{agent}/compliance", h.handleCompliance).Methods("GET")
}

func (h *AgentDetailHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	summary, err := h.overview.Summary(r.Context(), ident, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Overview summary retrieved", summary)
}

func (h *AgentDetailHandler) handleAgentInfo(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	info, err := h.agents.AgentInfo(r.Context(), ident, ref)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Agent information retrieved", info)
}

func (h *AgentDetailHandler) handleMitre(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rollup, err := h.agents.Mitre(r.Context(), ident, ref, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "MITRE events retrieved", rollup)
}

func (h *AgentDetailHandler) handleRansomware(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rollup, err := h.agents.Ransomware(r.Context(), ident, ref, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Ransomware alerts retrieved", rollup)
}

func (h *AgentDetailHandler) handleCVE(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rollup, err := h.agents.CVE(r.Context(), ident, ref, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "CVE records retrieved", rollup)
}

func (h *AgentDetailHandler) handleIoC(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rollup, err := h.agents.IoC(r.Context(), ident, ref, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "IoC records retrieved", rollup)
}

func (h *AgentDetailHandler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	ref := mux.Vars(r)["agent"]
	if !parseAgentRef(w, r, ref) {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rollup, err := h.agents.Compliance(r.Context(), ident, ref, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondEnvelope(w, "Compliance findings retrieved", rollup)
}
