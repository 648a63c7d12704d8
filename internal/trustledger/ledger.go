package trustledger

import "context"

// Ledger is the append-only audit chain.
type Ledger interface {
	// Append adds a new entry chained to the previous one. payload is
	// JSON-marshalled and its SHA-256 is stored as DataHash.
	Append(ctx context.Context, subject string, action Action, actor string, payload any) (*Entry, error)

	// Get returns the entry at the given zero-based index.
	Get(ctx context.Context, index int) (*Entry, error)

	// List returns up to limit entries starting at offset, oldest first.
	List(ctx context.Context, offset, limit int) ([]*Entry, error)

	// Len returns the number of entries, genesis included.
	Len(ctx context.Context) (int, error)

	// Verify walks the chain and returns nil if every link is intact.
	Verify(ctx context.Context) error

	// Root returns the hash of the chain tip.
	Root(ctx context.Context) (string, error)
}
