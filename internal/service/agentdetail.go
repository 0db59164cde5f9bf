// Package service wires the permission evaluator, the scoped dispatcher, and
// the aggregator into the per-request operations the API layer exposes.
package service

import (
	"context"
	"fmt"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/platform"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
)

// AgentDetailService serves per-agent telemetry rollups. Every operation runs
// the same pipeline: evaluate, then scoped fetch, then aggregate. A deny comes back as
// authz.ErrForbidden with no reason detail attached.
type AgentDetailService struct {
	evaluator  *authz.Evaluator
	dispatcher *Dispatcher
	platform   *platform.Client
}

func NewAgentDetailService(evaluator *authz.Evaluator, dispatcher *Dispatcher, client *platform.Client) *AgentDetailService {
	return &AgentDetailService{evaluator: evaluator, dispatcher: dispatcher, platform: client}
}

// evaluateAgent runs the decision engine for one specific agent and returns
// the decision alongside the canonical agent ID.
func (s *AgentDetailService) evaluateAgent(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) (authz.Decision, string, error) {
	decision, err := s.evaluator.Evaluate(ctx, ident, authz.TargetAgent(ref), window)
	if err != nil {
		return authz.Decision{}, "", err
	}
	if !decision.Allowed {
		return decision, "", authz.ErrForbidden
	}
	// For admins the scope is All and the ref still needs canonicalizing;
	// for operators the directory call is a cache hit from the evaluator.
	agentRef, err := s.platform.ResolveAgentRef(ctx, ref)
	if err != nil {
		return authz.Decision{}, "", fmt.Errorf("resolving agent: %w", err)
	}
	// A specific-agent request always queries exactly that agent, even under
	// the admin override.
	decision.Scope = authz.ScopeOf([]string{agentRef.AgentID})
	return decision, agentRef.AgentID, nil
}

// AgentInfo returns the directory detail for one agent.
func (s *AgentDetailService) AgentInfo(ctx context.Context, ident *models.Identity, ref string) (*models.AgentInfo, error) {
	_, agentID, err := s.evaluateAgent(ctx, ident, ref, models.DefaultWindow())
	if err != nil {
		return nil, err
	}
	return s.platform.AgentInfo(ctx, agentID)
}

// Mitre returns the MITRE tactic/technique histogram for one agent.
func (s *AgentDetailService) Mitre(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) ([]models.MitreRollup, error) {
	decision, _, err := s.evaluateAgent(ctx, ident, ref, window)
	if err != nil {
		return nil, err
	}
	events, err := s.dispatcher.MitreEvents(ctx, decision, window)
	if err != nil {
		return nil, err
	}
	return telemetry.SummarizeMitre(events), nil
}

// Ransomware returns name/count pairs of ransomware alerts for one agent.
func (s *AgentDetailService) Ransomware(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) ([]models.RansomwareRollup, error) {
	decision, _, err := s.evaluateAgent(ctx, ident, ref, window)
	if err != nil {
		return nil, err
	}
	alerts, err := s.dispatcher.RansomwareAlerts(ctx, decision, window)
	if err != nil {
		return nil, err
	}
	return telemetry.SummarizeRansomware(alerts), nil
}

// CVE returns the vulnerability rollup for one agent.
func (s *AgentDetailService) CVE(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) (models.CVERollup, error) {
	decision, _, err := s.evaluateAgent(ctx, ident, ref, window)
	if err != nil {
		return models.CVERollup{}, err
	}
	records, err := s.dispatcher.CVERecords(ctx, decision, window)
	if err != nil {
		return models.CVERollup{}, err
	}
	return telemetry.SummarizeCVE(records), nil
}

// IoC returns the indicator-of-compromise rollup for one agent.
func (s *AgentDetailService) IoC(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) ([]models.IoCRollup, error) {
	decision, _, err := s.evaluateAgent(ctx, ident, ref, window)
	if err != nil {
		return nil, err
	}
	records, err := s.dispatcher.IoCRecords(ctx, decision, window)
	if err != nil {
		return nil, err
	}
	return telemetry.SummarizeIoC(records), nil
}

// Compliance returns the compliance-control rollup for one agent.
func (s *AgentDetailService) Compliance(ctx context.Context, ident *models.Identity, ref string, window models.TimeWindow) (models.ComplianceRollup, error) {
	decision, _, err := s.evaluateAgent(ctx, ident, ref, window)
	if err != nil {
		return models.ComplianceRollup{}, err
	}
	findings, err := s.dispatcher.ComplianceFindings(ctx, decision, window)
	if err != nil {
		return models.ComplianceRollup{}, err
	}
	return telemetry.SummarizeCompliance(findings), nil
}
