package models

import (
	"errors"
	"time"
)

// AgentRef identifies the agent a request targets. AgentName is a display
// label, not a membership key: scoping decisions must go through the canonical
// AgentID resolved by the agent directory.
type AgentRef struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// AgentInfo is the directory's detail record for one agent.
type AgentInfo struct {
	AgentID       string     `json:"agent_id"`
	AgentName     string     `json:"agent_name"`
	IP            string     `json:"ip"`
	OS            string     `json:"os"`
	OSVersion     string     `json:"os_version"`
	Status        string     `json:"agent_status"`
	LastKeepAlive *time.Time `json:"last_keep_alive,omitempty"`
}

// DefaultWindowDays is the lookback applied when a caller gives no window.
const DefaultWindowDays = 30

// TimeWindow bounds a telemetry query. Start must not be after End.
type TimeWindow struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

var ErrInvalidWindow = errors.New("start_time is after end_time")

// DefaultWindow returns the last 30 days ending now.
func DefaultWindow() TimeWindow {
	end := time.Now().UTC()
	return TimeWindow{Start: end.AddDate(0, 0, -DefaultWindowDays), End: end}
}

// Validate returns ErrInvalidWindow when the window is inverted.
func (w TimeWindow) Validate() error {
	if w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// IsZero reports whether the caller supplied no window at all.
func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
