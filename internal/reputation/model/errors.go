package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Rejections. Every one of these is detected before any state is written.
var (
	ErrNotAuthorized       = errors.New("caller is not the ledger admin")
	ErrAlreadyRegistered   = errors.New("identity already registered")
	ErrNotRegistered       = errors.New("identity not registered")
	ErrSelfAttestation     = errors.New("cannot attest to own identity")
	ErrAttestationExists   = errors.New("attestation already exists")
	ErrAttestationNotFound = errors.New("attestation not found")
	ErrInvalidScore        = errors.New("score must be between 1 and 10")
)

// Bounds on caller-supplied values.
const (
	MinScore         uint64 = 1
	MaxScore         uint64 = 10
	MaxContextLength        = 100
	MaxDomainLength         = 20
)

// ErrValidation is returned by service methods when the caller supplies a
// value outside its declared bounds. Handlers convert it to HTTP 400.
type ErrValidation struct{ Msg string }

func (e *ErrValidation) Error() string { return e.Msg }

// Code returns the stable tag for a rejection, or "" for anything else.
func Code(err error) string {
	var valErr *ErrValidation
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "NotAuthorized"
	case errors.Is(err, ErrAlreadyRegistered):
		return "AlreadyRegistered"
	case errors.Is(err, ErrNotRegistered):
		return "NotRegistered"
	case errors.Is(err, ErrSelfAttestation):
		return "SelfAttestation"
	case errors.Is(err, ErrAttestationExists):
		return "AttestationExists"
	case errors.Is(err, ErrAttestationNotFound):
		return "AttestationNotFound"
	case errors.Is(err, ErrInvalidScore):
		return "InvalidScore"
	case errors.As(err, &valErr):
		return "InvalidArgument"
	}
	return ""
}

// ValidScore reports whether s lies in [MinScore, MaxScore].
func ValidScore(s uint64) bool {
	return s >= MinScore && s <= MaxScore
}

// ScoreFromJSON converts a decoded JSON score. Anything that is not an
// integral value in [MinScore, MaxScore], including negatives, fractions and
// a missing score, maps to 0 so that ValidScore rejects it.
func ScoreFromJSON(n json.Number) uint64 {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0
	}
	if f < float64(MinScore) || f > float64(MaxScore) {
		return 0
	}
	return uint64(f)
}

// ValidateContext checks the attestation rationale length.
func ValidateContext(ctx string) error {
	if n := utf8.RuneCountInString(ctx); n > MaxContextLength {
		return &ErrValidation{Msg: fmt.Sprintf("context must be at most %d characters (got %d)", MaxContextLength, n)}
	}
	return nil
}

// ValidateDomain checks a reputation domain name.
func ValidateDomain(domain string) error {
	n := utf8.RuneCountInString(domain)
	if n == 0 {
		return &ErrValidation{Msg: "domain is required"}
	}
	if n > MaxDomainLength {
		return &ErrValidation{Msg: fmt.Sprintf("domain must be at most %d characters (got %d)", MaxDomainLength, n)}
	}
	return nil
}

// ValidatePrincipal rejects empty principals.
func ValidatePrincipal(field string, p Principal) error {
	if p == "" {
		return &ErrValidation{Msg: field + " is required"}
	}
	return nil
}
