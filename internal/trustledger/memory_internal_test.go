package trustledger

import (
	"context"
	"testing"
)

func TestVerify_detectsTampering(t *testing.T) {
	ctx := context.Background()
	l := New()
	_, _ = l.Append(ctx, "bob", ActionAttest, "alice", map[string]int{"score": 8})
	_, _ = l.Append(ctx, "bob", ActionUpdateAttestation, "alice", map[string]int{"score": 10})

	l.entries[1].Actor = "mallory"
	if err := l.Verify(ctx); err == nil {
		t.Fatal("expected Verify to detect a rewritten entry")
	}

	l = New()
	_, _ = l.Append(ctx, "bob", ActionAttest, "alice", nil)
	_, _ = l.Append(ctx, "bob", ActionAttest, "carol", nil)
	l.entries[2].PrevHash = GenesisHash
	if err := l.Verify(ctx); err == nil {
		t.Fatal("expected Verify to detect a broken link")
	}
}
