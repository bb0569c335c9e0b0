package validate

import (
	"strings"
	"testing"

	"github.com/weaviate/weaviate/entities/schema"

	"github.com/mindmirror/mindmirror/internal/model"
)

func TestUserID(t *testing.T) {
	for _, ok := range []string{"default_user", "alice", "Bob-2", strings.Repeat("x", 64)} {
		if err := UserID(ok); err != nil {
			t.Fatalf("expected %q valid, got %v", ok, err)
		}
	}
	for _, bad := range []string{"", "has space", "semi;colon", "alice@example.com", "first.last", strings.Repeat("x", 65)} {
		if err := UserID(bad); err == nil {
			t.Fatalf("expected %q invalid", bad)
		}
	}
}

// Accepted user ids are used verbatim as Weaviate tenant names.
func TestUserIDIsTenantSafe(t *testing.T) {
	candidates := []string{
		"default_user", "alice", "Bob-2", "a_b-c", "e2e-1712345678",
		"alice@example.com", "first.last", "has space", "ümlaut",
		strings.Repeat("x", 64), strings.Repeat("y", 65), strings.Repeat("z", 72),
	}
	for _, id := range candidates {
		if UserID(id) != nil {
			continue
		}
		if err := schema.ValidateTenantName(id); err != nil {
			t.Fatalf("%q accepted by UserID but rejected as tenant: %v", id, err)
		}
	}
}

func TestDays(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"0", 0, false},
		{"30", 30, false},
		{"3650", 3650, false},
		{"-1", 0, true},
		{"3651", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		got, err := Days(tt.raw, 7)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Days(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("Days(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestLimit(t *testing.T) {
	if n, err := Limit("", 5, 50); err != nil || n != 5 {
		t.Fatalf("default limit: %d %v", n, err)
	}
	if _, err := Limit("0", 5, 50); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := Limit("51", 5, 50); err == nil {
		t.Fatalf("expected error above max")
	}
}

func TestReflectionRequest(t *testing.T) {
	if err := ReflectionRequest(model.ReflectionRequest{}); err == nil || err.Error() != "current_mood is required" {
		t.Fatalf("expected required error, got %v", err)
	}
	long := strings.Repeat("f", 501)
	if err := ReflectionRequest(model.ReflectionRequest{CurrentMood: "sad", FocusArea: &long}); err == nil {
		t.Fatalf("expected focus_area length error")
	}
	if err := ReflectionRequest(model.ReflectionRequest{CurrentMood: "sad"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSimilarQuery(t *testing.T) {
	if err := SimilarQuery(""); err == nil {
		t.Fatalf("expected error for empty query")
	}
	if err := SimilarQuery(strings.Repeat("q", 1001)); err == nil {
		t.Fatalf("expected error for long query")
	}
}
