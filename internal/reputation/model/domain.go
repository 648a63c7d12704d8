package model

import "encoding/json"

// DomainReputation is the accumulated endorsement score for an identity
// within a named domain. Records are created lazily on first endorsement.
type DomainReputation struct {
	Identity         Principal `json:"identity"          db:"identity"`
	Domain           string    `json:"domain"            db:"domain"`
	Score            uint64    `json:"score"             db:"score"`
	LastUpdated      uint64    `json:"last_updated"      db:"last_updated"`
	EndorsementCount uint64    `json:"endorsement_count" db:"endorsement_count"`
}

// EndorseRequest is the payload for a domain endorsement.
type EndorseRequest struct {
	Identity Principal   `json:"identity" binding:"required"`
	Score    json.Number `json:"score"`
}
