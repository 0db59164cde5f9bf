package authz

import (
	"reflect"
	"testing"
)

func TestScopeOfDedupesAndSorts(t *testing.T) {
	s := ScopeOf([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(s.Agents, []string{"a", "b", "c"}) {
		t.Fatalf("expected [a b c], got %v", s.Agents)
	}
	if s.All {
		t.Fatal("ScopeOf must produce a restricted scope")
	}
}

func TestScopeContains(t *testing.T) {
	s := ScopeOf([]string{"a1", "a2"})
	if !s.Contains("a1") || s.Contains("a3") {
		t.Fatalf("membership check wrong for %v", s.Agents)
	}
	if !ScopeAll().Contains("anything") {
		t.Fatal("unrestricted scope must contain every agent")
	}
}

func TestScopeEmpty(t *testing.T) {
	if !ScopeOf(nil).Empty() {
		t.Fatal("zero-agent restricted scope must be empty")
	}
	if ScopeAll().Empty() {
		t.Fatal("unrestricted scope is never empty")
	}
	if ScopeOf([]string{"a1"}).Empty() {
		t.Fatal("non-empty scope reported empty")
	}
}
