package ticket

import (
	"strings"
	"testing"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

func TestSignerIsKeyedAndStable(t *testing.T) {
	d, _ := clock.ParseDate("2024-01-15")
	a := NewSigner("secret").Sign("t-1", 1, d)

	if len(a) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %d chars", len(a))
	}
	if a != NewSigner("secret").Sign("t-1", 1, d) {
		t.Fatalf("digest not stable")
	}
	if a == NewSigner("other").Sign("t-1", 1, d) {
		t.Fatalf("digest ignores key")
	}
	if a == NewSigner("secret").Sign("t-1", 2, d) {
		t.Fatalf("digest ignores student")
	}

	long := NewSigner(strings.Repeat("k", 100)).Sign("t-1", 1, d)
	if len(long) != 64 {
		t.Fatalf("long keys must be accepted")
	}
}
