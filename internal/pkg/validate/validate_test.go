package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/sentriq/sentriq-backend/internal/models"
)

func TestAgentRef(t *testing.T) {
	valid := []string{"a1", "web-server-01", "agent.prod_7", "X"}
	for _, ref := range valid {
		if !AgentRef(ref) {
			t.Errorf("expected %q to be valid", ref)
		}
	}
	invalid := []string{"", "-leading", ".leading", "has space", "semi;colon", "q'uote", strings.Repeat("a", AgentRefMaxLen+1)}
	for _, ref := range invalid {
		if AgentRef(ref) {
			t.Errorf("expected %q to be rejected", ref)
		}
	}
}

func TestParseTimeLayouts(t *testing.T) {
	cases := []string{"2026-08-10T12:00:00Z", "2026-08-10T12:00:00", "2026-08-10"}
	for _, s := range cases {
		if _, ok := ParseTime(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	if _, ok := ParseTime("10/08/2026"); ok {
		t.Error("slash format must not parse")
	}
}

func TestWindowDefaults(t *testing.T) {
	w, bad := Window("", "")
	if bad != "" {
		t.Fatalf("empty params must default, got field %q", bad)
	}
	span := w.End.Sub(w.Start)
	if span < 29*24*time.Hour || span > 31*24*time.Hour {
		t.Fatalf("default window must span ~%d days, got %v", models.DefaultWindowDays, span)
	}
}

func TestWindowExplicit(t *testing.T) {
	w, bad := Window("2026-08-01", "2026-08-10")
	if bad != "" {
		t.Fatalf("valid window rejected: field %q", bad)
	}
	if !w.Start.Before(w.End) {
		t.Fatalf("window not ordered: %+v", w)
	}
}

func TestWindowBadField(t *testing.T) {
	if _, bad := Window("garbage", ""); bad != "start_time" {
		t.Fatalf("expected start_time, got %q", bad)
	}
	if _, bad := Window("", "garbage"); bad != "end_time" {
		t.Fatalf("expected end_time, got %q", bad)
	}
	// Inverted bounds.
	if _, bad := Window("2026-08-10", "2026-08-01"); bad == "" {
		t.Fatal("inverted window must be rejected")
	}
}
