// Package validate provides input validation for API query and path parameters.
package validate

import (
	"regexp"
	"time"

	"github.com/sentriq/sentriq-backend/internal/models"
)

// AgentRefMaxLen bounds caller-supplied agent ids and names.
const AgentRefMaxLen = 128

// Agent names follow the platform convention: alphanumeric plus '-', '_', '.'.
var agentRefRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// AgentRef validates a caller-supplied agent id or name. This is a syntax
// check only; canonical resolution happens in the agent directory.
func AgentRef(ref string) bool {
	if ref == "" || len(ref) > AgentRefMaxLen {
		return false
	}
	return agentRefRe.MatchString(ref)
}

// GroupName validates a group name with the same syntax as agent refs.
func GroupName(name string) bool {
	return AgentRef(name)
}

// timeFormats accepted for start_time/end_time query params.
var timeFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime parses a query timestamp in one of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Window builds a TimeWindow from optional query params. Both empty means the
// default 30-day window. Returns the offending field name when invalid.
func Window(startStr, endStr string) (models.TimeWindow, string) {
	if startStr == "" && endStr == "" {
		return models.DefaultWindow(), ""
	}
	w := models.DefaultWindow()
	if startStr != "" {
		t, ok := ParseTime(startStr)
		if !ok {
			return models.TimeWindow{}, "start_time"
		}
		w.Start = t
	}
	if endStr != "" {
		t, ok := ParseTime(endStr)
		if !ok {
			return models.TimeWindow{}, "end_time"
		}
		w.End = t
	}
	if err := w.Validate(); err != nil {
		return models.TimeWindow{}, "start_time"
	}
	return w, ""
}
