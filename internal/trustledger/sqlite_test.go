package trustledger_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmerrifield20/trustweb/internal/trustledger"
	"github.com/jmerrifield20/trustweb/migrations"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(migrations.SQLiteSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestSQLiteLedger_genesisEntry(t *testing.T) {
	db := openSQLite(t, ":memory:")
	defer db.Close()
	l := trustledger.NewSQLiteLedger(db, zap.NewNop())

	n, err := l.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 genesis entry, got %d", n)
	}
	entry, err := l.Get(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Action != trustledger.ActionGenesis || entry.Hash != trustledger.GenesisHash {
		t.Errorf("unexpected genesis entry: %+v", entry)
	}
	root, err := l.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if root != trustledger.GenesisHash {
		t.Errorf("root: got %q, want GenesisHash", root)
	}
}

func TestSQLiteLedger_chainsAndVerifies(t *testing.T) {
	db := openSQLite(t, ":memory:")
	defer db.Close()
	l := trustledger.NewSQLiteLedger(db, zap.NewNop())

	e1, err := l.Append(ctx, "alice", trustledger.ActionRegister, "alice", map[string]uint64{"id": 1})
	if err != nil {
		t.Fatal(err)
	}
	e2, err := l.Append(ctx, "bob", trustledger.ActionAttest, "alice", map[string]uint64{"score": 7})
	if err != nil {
		t.Fatal(err)
	}
	if e1.Index != 1 || e2.Index != 2 {
		t.Errorf("indexes: got %d, %d", e1.Index, e2.Index)
	}
	if e1.PrevHash != trustledger.GenesisHash || e2.PrevHash != e1.Hash {
		t.Error("entries are not linked")
	}

	got, err := l.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != e2.Hash || !got.Timestamp.Equal(e2.Timestamp) || got.Subject != "bob" {
		t.Errorf("round trip: got %+v, want %+v", got, e2)
	}
	if err := l.Verify(ctx); err != nil {
		t.Errorf("Verify: %v", err)
	}

	page, err := l.List(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Index != 1 {
		t.Errorf("List(1, 1): got %+v", page)
	}
}

func TestSQLiteLedger_detectsTampering(t *testing.T) {
	db := openSQLite(t, ":memory:")
	defer db.Close()
	l := trustledger.NewSQLiteLedger(db, zap.NewNop())

	if _, err := l.Append(ctx, "alice", trustledger.ActionRegister, "alice", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append(ctx, "bob", trustledger.ActionRegister, "bob", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE trust_ledger SET actor = 'mallory' WHERE idx = 1`); err != nil {
		t.Fatal(err)
	}
	if err := l.Verify(ctx); err == nil {
		t.Error("expected Verify to fail after tampering")
	}
}

func TestSQLiteLedger_survivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	db := openSQLite(t, path)
	l := trustledger.NewSQLiteLedger(db, zap.NewNop())
	e1, err := l.Append(ctx, "alice", trustledger.ActionRegister, "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	// Reapplying the schema must not reset the chain.
	db = openSQLite(t, path)
	defer db.Close()
	l = trustledger.NewSQLiteLedger(db, zap.NewNop())

	root, err := l.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if root != e1.Hash {
		t.Fatalf("root after reopen: got %q, want %q", root, e1.Hash)
	}
	e2, err := l.Append(ctx, "bob", trustledger.ActionRegister, "bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	if e2.Index != 2 || e2.PrevHash != e1.Hash {
		t.Errorf("append after reopen: index %d prev %q", e2.Index, e2.PrevHash)
	}
	if err := l.Verify(ctx); err != nil {
		t.Errorf("Verify after reopen: %v", err)
	}
}
