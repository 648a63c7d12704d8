package model

// Principal is an opaque caller identity supplied by the hosting environment.
type Principal string

// String implements fmt.Stringer.
func (p Principal) String() string { return string(p) }

// Identity is a registered principal's reputation record.
//
// VerificationScore always equals the sum of Score over every attestation
// whose attestee is this principal. Verified is monotonic: once true it is
// never reset.
type Identity struct {
	Principal          Principal `json:"principal"           db:"principal"`
	ID                 uint64    `json:"id"                  db:"id"`
	RegistrationHeight uint64    `json:"registration_height" db:"registration_height"`
	VerificationScore  uint64    `json:"verification_score"  db:"verification_score"`
	AttestationCount   uint64    `json:"attestation_count"   db:"attestation_count"`
	Verified           bool      `json:"verified"            db:"verified"`
}
