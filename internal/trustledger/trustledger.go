// Package trustledger implements the hash-chained audit log of applied
// reputation transitions.
//
// The chain begins with a well-known genesis entry whose Hash equals
// GenesisHash (64 hex zeros). Every subsequent entry records the SHA-256 of
// its predecessor, making tampering detectable via Verify. Entries are
// appended after the state transaction commits, so the n-th applied
// transition normally lands at index n.
//
// Three implementations of the Ledger interface are provided:
//   - MemoryLedger: in-process, for testing and development.
//   - PostgresLedger: durable, for production use.
//   - SQLiteLedger: durable, next to the SQLite state store.
package trustledger
