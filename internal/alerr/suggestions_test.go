package alerr

import "testing"

func TestNewUnknownRelationError(t *testing.T) {
	err := NewUnknownRelationError("users", "post", []string{"profile", "posts"})

	if err.GetCode() != ErrUnknownRelation {
		t.Fatalf("code = %v, want %v", err.GetCode(), ErrUnknownRelation)
	}
	ctx := err.GetContext()
	if ctx["table"] != "users" || ctx["relation"] != "post" {
		t.Errorf("context = %v", ctx)
	}
	if ctx["relations"] != "posts, profile" {
		t.Errorf("relations = %v, want sorted list", ctx["relations"])
	}
	if helps := err.Helps(); len(helps) != 1 || helps[0] != "did you mean 'posts'?" {
		t.Errorf("helps = %v", helps)
	}
}

func TestNewUnknownColumnError(t *testing.T) {
	err := NewUnknownColumnError("users", "zzzzzzzz", nil)
	if err.GetCode() != ErrUnknownColumn {
		t.Fatalf("code = %v", err.GetCode())
	}
	if len(err.Helps()) != 0 {
		t.Errorf("expected no suggestion, got %v", err.Helps())
	}
	if _, ok := err.GetContext()["columns"]; ok {
		t.Error("columns should be omitted when none are known")
	}
}

func TestNewNotImplementedError(t *testing.T) {
	err := NewNotImplementedError("model filter in where")
	if err.GetCode() != ErrNotImplemented {
		t.Fatalf("code = %v", err.GetCode())
	}
	if err.GetMessage() != "model filter in where is not implemented" {
		t.Errorf("message = %q", err.GetMessage())
	}
}
