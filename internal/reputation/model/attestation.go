package model

import "encoding/json"

// Attestation is a directed, scored endorsement from one registered identity
// to another. At most one exists per (Attester, Attestee) pair.
type Attestation struct {
	Attester  Principal `json:"attester"  db:"attester"`
	Attestee  Principal `json:"attestee"  db:"attestee"`
	Score     uint64    `json:"score"     db:"score"`
	Timestamp uint64    `json:"timestamp" db:"timestamp"` // height at last write
	Context   string    `json:"context"   db:"context"`
	// Valid is reserved for revocation and is always true.
	Valid bool `json:"valid" db:"valid"`
}

// AttestRequest is the payload for creating an attestation.
type AttestRequest struct {
	Attestee Principal   `json:"attestee" binding:"required"`
	Score    json.Number `json:"score"`
	Context  string      `json:"context"`
}

// UpdateAttestationRequest is the payload for rewriting an existing attestation.
type UpdateAttestationRequest struct {
	Score   json.Number `json:"score"`
	Context string      `json:"context"`
}
