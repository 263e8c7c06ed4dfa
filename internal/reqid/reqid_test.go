package reqid

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	if id == "" {
		t.Fatal("expected a non-empty id")
	}
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("expected %q from context, got %q ok=%v", id, got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("unexpected id in empty context")
	}
}

func TestIDsAreUnique(t *testing.T) {
	_, a := NewContext(context.Background())
	_, b := NewContext(context.Background())
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
