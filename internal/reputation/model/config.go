package model

// DefaultVerificationThreshold is the threshold written at genesis.
const DefaultVerificationThreshold uint64 = 3

// AdminConfig is the ledger-wide singleton owned by the admin controller.
type AdminConfig struct {
	Admin                 Principal `json:"admin"                  db:"admin"`
	VerificationThreshold uint64    `json:"verification_threshold" db:"verification_threshold"`
	NextIdentityID        uint64    `json:"next_identity_id"       db:"next_identity_id"`
	// Height is the block height of the last applied transition; 0 until
	// the first one.
	Height uint64 `json:"height" db:"height"`
}

// Genesis returns the initial configuration for a ledger deployed by deployer.
// A zero threshold selects DefaultVerificationThreshold.
func Genesis(deployer Principal, threshold uint64) AdminConfig {
	if threshold == 0 {
		threshold = DefaultVerificationThreshold
	}
	return AdminConfig{
		Admin:                 deployer,
		VerificationThreshold: threshold,
		NextIdentityID:        1,
	}
}

// SetAdminRequest is the payload for transferring the admin role.
type SetAdminRequest struct {
	Admin Principal `json:"admin" binding:"required"`
}

// SetThresholdRequest is the payload for changing the verification threshold.
type SetThresholdRequest struct {
	Threshold *uint64 `json:"threshold" binding:"required"`
}
