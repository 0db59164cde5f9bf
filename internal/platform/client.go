// Package platform is the read-only client for the agent-management platform:
// the external system that owns agent records, group membership, and agent
// liveness. All scoping facts come from here, never from caller input.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/metrics"
)

const (
	directoryCacheSize = 1024
	directoryCacheTTL  = 30 * time.Second

	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

// Client talks to the platform's REST API with a bounded timeout and retry
// budget. Safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int

	// refCache caches name and id to canonical AgentRef resolutions. Short TTL:
	// agent renames are rare but decommissions must be seen quickly.
	refCache *expirable.LRU[string, models.AgentRef]

	breaker *breaker
}

// NewClient builds a platform client. timeout bounds each individual request;
// maxAttempts <= 0 selects the default retry budget.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxAttempts int) *Client {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		refCache:    expirable.NewLRU[string, models.AgentRef](directoryCacheSize, nil, directoryCacheTTL),
		breaker:     newBreaker(breakerFailureThreshold, breakerOpenDuration),
	}
}

// AgentsInGroups returns the member agent IDs of the given groups. The
// platform may report fewer agents than membership implies (decommissioned
// agents); that is a smaller scope, not an error.
func (c *Client) AgentsInGroups(ctx context.Context, groupNames []string) ([]string, error) {
	if len(groupNames) == 0 {
		return []string{}, nil
	}
	q := url.Values{}
	for _, g := range groupNames {
		q.Add("group", g)
	}
	var resp struct {
		AgentIDs []string `json:"agent_ids"`
	}
	if err := c.get(ctx, "/v1/groups/agents?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.AgentIDs, nil
}

// ResolveAgentRef resolves a caller-supplied id or display name to the
// canonical agent record via the authoritative directory.
func (c *Client) ResolveAgentRef(ctx context.Context, ref string) (models.AgentRef, error) {
	if cached, ok := c.refCache.Get(ref); ok {
		metrics.DirectoryCacheHitsTotal.Inc()
		return cached, nil
	}
	metrics.DirectoryCacheMissesTotal.Inc()

	var resp models.AgentRef
	err := c.get(ctx, "/v1/agents/resolve?ref="+url.QueryEscape(ref), &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return models.AgentRef{}, authz.ErrAgentNotFound
		}
		return models.AgentRef{}, err
	}
	c.refCache.Add(ref, resp)
	return resp, nil
}

// AgentInfo fetches the directory detail record for a canonical agent ID.
func (c *Client) AgentInfo(ctx context.Context, agentID string) (*models.AgentInfo, error) {
	var resp models.AgentInfo
	err := c.get(ctx, "/v1/agents/"+url.PathEscape(agentID), &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return nil, authz.ErrAgentNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// AgentsActiveBetween lists agents with activity inside the window, optionally
// restricted to the given groups (nil means platform-wide, admin use only).
func (c *Client) AgentsActiveBetween(ctx context.Context, window models.TimeWindow, groupNames []string) ([]models.AgentRef, error) {
	q := url.Values{}
	q.Set("start", window.Start.UTC().Format(time.RFC3339))
	q.Set("end", window.End.UTC().Format(time.RFC3339))
	for _, g := range groupNames {
		q.Add("group", g)
	}
	var resp struct {
		Agents []models.AgentRef `json:"agents"`
	}
	if err := c.get(ctx, "/v1/agents/active?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// get issues one GET with the retry budget and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if !c.breaker.allow() {
		return fmt.Errorf("%w: %v", authz.ErrPlatformUnavailable, ErrBreakerOpen)
	}
	body, err := doWithRetryValue(ctx, c.maxAttempts, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{
				status: resp.StatusCode,
				msg:    fmt.Sprintf("platform returned %d for %s", resp.StatusCode, path),
			}
		}
		return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	})
	c.breaker.record(err)
	if err != nil {
		// 404 is a lookup result, not an outage.
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return err
		}
		return fmt.Errorf("%w: %v", authz.ErrPlatformUnavailable, err)
	}
	return json.Unmarshal(body, out)
}
