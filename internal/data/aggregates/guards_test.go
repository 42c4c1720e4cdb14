package aggregates

import "testing"

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("Draft", "Draft"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed(" published ", "Published"); err != nil {
		t.Fatalf("status match should ignore case and spaces: %v", err)
	}
	if err := RequireStatusAllowed("Published", "Draft"); err == nil {
		t.Fatalf("expected conflict error")
	}
	if err := RequireStatusAllowed("Draft"); err == nil {
		t.Fatalf("expected validation error for empty allowed list")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}
