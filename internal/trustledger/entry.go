package trustledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the canonical hash of the genesis entry and the trust anchor
// of the chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SystemActor is recorded as the actor of entries not caused by a principal.
const SystemActor = "trustweb-system"

// Action names a transition kind recorded in the chain.
type Action string

const (
	ActionGenesis           Action = "genesis"
	ActionSetAdmin          Action = "set-admin"
	ActionSetThreshold      Action = "set-threshold"
	ActionRegister          Action = "register"
	ActionAttest            Action = "attest"
	ActionUpdateAttestation Action = "update-attestation"
	ActionEndorse           Action = "endorse"
)

// Entry is a single audit record.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"` // principal the transition is about
	Action    Action    `json:"action"`
	Actor     string    `json:"actor"`     // calling principal
	DataHash  string    `json:"data_hash"` // SHA-256 of the JSON payload
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// hashEntry computes the SHA-256 over an entry's fields. It must never be
// called on the genesis entry.
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.Subject, e.Action, e.Actor, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// checkLink validates curr against its predecessor.
func checkLink(prev, curr *Entry) error {
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at index %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
