package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PrincipalHeader carries the caller for servers running without token auth.
const PrincipalHeader = "X-Principal"

// Rejection codes returned in APIError.Code.
const (
	CodeNotAuthorized       = "NotAuthorized"
	CodeAlreadyRegistered   = "AlreadyRegistered"
	CodeNotRegistered       = "NotRegistered"
	CodeSelfAttestation     = "SelfAttestation"
	CodeAttestationExists   = "AttestationExists"
	CodeAttestationNotFound = "AttestationNotFound"
	CodeInvalidScore        = "InvalidScore"
	CodeInvalidArgument     = "InvalidArgument"
	CodeNotFound            = "NotFound"
)

// ErrNotFound matches every APIError with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrNotFound and this is a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// AdminConfig is the ledger-wide configuration.
type AdminConfig struct {
	Admin                 string `json:"admin"`
	VerificationThreshold uint64 `json:"verification_threshold"`
	NextIdentityID        uint64 `json:"next_identity_id"`
	Height                uint64 `json:"height"`
}

// Identity is a registered principal's reputation record.
type Identity struct {
	Principal          string `json:"principal"`
	ID                 uint64 `json:"id"`
	RegistrationHeight uint64 `json:"registration_height"`
	VerificationScore  uint64 `json:"verification_score"`
	AttestationCount   uint64 `json:"attestation_count"`
	Verified           bool   `json:"verified"`
}

// Attestation is a scored endorsement from Attester to Attestee.
type Attestation struct {
	Attester  string `json:"attester"`
	Attestee  string `json:"attestee"`
	Score     uint64 `json:"score"`
	Timestamp uint64 `json:"timestamp"`
	Context   string `json:"context"`
	Valid     bool   `json:"valid"`
}

// DomainReputation is an identity's accumulated score within a domain.
type DomainReputation struct {
	Identity         string `json:"identity"`
	Domain           string `json:"domain"`
	Score            uint64 `json:"score"`
	LastUpdated      uint64 `json:"last_updated"`
	EndorsementCount uint64 `json:"endorsement_count"`
}

// LedgerOverview summarises the audit chain.
type LedgerOverview struct {
	Entries int    `json:"entries"`
	Height  int    `json:"height"`
	Root    string `json:"root"`
}

// LedgerEntry is one audit chain record.
type LedgerEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// Client talks to a reputation ledger server.
type Client struct {
	base        string
	httpClient  *http.Client
	bearerToken string
	principal   string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a principal token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithPrincipal sends X-Principal on every request. Only development
// servers honour it.
func WithPrincipal(principal string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(principal) == "" {
			return errors.New("principal must not be empty")
		}
		c.principal = principal
		return nil
	}
}

// New creates a Client for the server at base, e.g. "http://localhost:8080".
func New(base string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// ── Admin ────────────────────────────────────────────────────────────────

// Config returns the current ledger configuration.
func (c *Client) Config(ctx context.Context) (*AdminConfig, error) {
	var out AdminConfig
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/admin", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAdmin transfers the admin role. The caller must be the current admin.
func (c *Client) SetAdmin(ctx context.Context, admin string) (*AdminConfig, error) {
	var out AdminConfig
	body := map[string]string{"admin": admin}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/admin/owner", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetVerificationThreshold changes the attestation count required for
// verification. The caller must be the admin.
func (c *Client) SetVerificationThreshold(ctx context.Context, threshold uint64) (*AdminConfig, error) {
	var out AdminConfig
	body := map[string]uint64{"threshold": threshold}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/admin/threshold", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Identities ───────────────────────────────────────────────────────────

// RegisterIdentity registers the calling principal.
func (c *Client) RegisterIdentity(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/identities", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIdentity looks up principal's identity record.
func (c *Client) GetIdentity(ctx context.Context, principal string) (*Identity, error) {
	var out Identity
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/identities/"+url.PathEscape(principal), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Attestations ─────────────────────────────────────────────────────────

// Attest records the caller's attestation of attestee.
func (c *Client) Attest(ctx context.Context, attestee string, score uint64, rationale string) (*Attestation, error) {
	var out Attestation
	body := map[string]any{"attestee": attestee, "score": score, "context": rationale}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/attestations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAttestation rewrites the caller's existing attestation of attestee.
func (c *Client) UpdateAttestation(ctx context.Context, attestee string, score uint64, rationale string) (*Attestation, error) {
	var out Attestation
	body := map[string]any{"score": score, "context": rationale}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/attestations/"+url.PathEscape(attestee), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAttestation looks up the attestation from attester to attestee.
func (c *Client) GetAttestation(ctx context.Context, attester, attestee string) (*Attestation, error) {
	var out Attestation
	path := "/api/v1/attestations/" + url.PathEscape(attester) + "/" + url.PathEscape(attestee)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Domain reputation ────────────────────────────────────────────────────

// Endorse adds score to identity's reputation in domain.
func (c *Client) Endorse(ctx context.Context, identity, domain string, score uint64) (*DomainReputation, error) {
	var out DomainReputation
	body := map[string]any{"identity": identity, "score": score}
	path := "/api/v1/domains/" + url.PathEscape(domain) + "/endorsements"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDomainReputation looks up identity's reputation in domain.
func (c *Client) GetDomainReputation(ctx context.Context, identity, domain string) (*DomainReputation, error) {
	var out DomainReputation
	path := "/api/v1/domains/" + url.PathEscape(domain) + "/reputation/" + url.PathEscape(identity)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Audit chain ──────────────────────────────────────────────────────────

// LedgerOverview returns the audit chain length and root hash.
func (c *Client) LedgerOverview(ctx context.Context) (*LedgerOverview, error) {
	var out LedgerOverview
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/ledger", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLedger asks the server to walk the audit chain. A broken chain is
// reported as valid=false with the server's reason, not as an error.
func (c *Client) VerifyLedger(ctx context.Context) (valid bool, reason string, err error) {
	var out struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/ledger/verify", nil, &out); err != nil {
		return false, "", err
	}
	return out.Valid, out.Error, nil
}

// ListLedgerEntries pages through the audit chain, oldest first.
func (c *Client) ListLedgerEntries(ctx context.Context, offset, limit int) ([]LedgerEntry, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out struct {
		Entries []LedgerEntry `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/ledger/entries?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// doJSON sends in as the JSON body (if non-nil) and decodes a 2xx response
// into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	if c.principal != "" {
		req.Header.Set(PrincipalHeader, c.principal)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Code = e.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
