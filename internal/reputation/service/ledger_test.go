package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/reputation/service"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
	"go.uber.org/zap"
)

var ctx = context.Background()

const (
	deployer model.Principal = "deployer"
	address1 model.Principal = "address1"
	address2 model.Principal = "address2"
	address3 model.Principal = "address3"
	address4 model.Principal = "address4"
)

type fakeMetrics struct {
	transitions map[string]int
	verified    int
}

func (m *fakeMetrics) RecordTransition(op, result string) {
	if m.transitions == nil {
		m.transitions = make(map[string]int)
	}
	m.transitions[op+":"+result]++
}

func (m *fakeMetrics) RecordVerified() { m.verified++ }

type fixture struct {
	svc     *service.LedgerService
	audit   *trustledger.MemoryLedger
	metrics *fakeMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	audit := trustledger.New()
	svc := service.NewLedgerService(repository.NewMemoryStore(), nil, audit, zap.NewNop())
	m := &fakeMetrics{}
	svc.SetMetricsRecorder(m)
	if _, err := svc.Genesis(ctx, model.Genesis(deployer, 0)); err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	return &fixture{svc: svc, audit: audit, metrics: m}
}

func (f *fixture) register(t *testing.T, principals ...model.Principal) {
	t.Helper()
	for _, p := range principals {
		if _, err := f.svc.RegisterIdentity(ctx, p); err != nil {
			t.Fatalf("RegisterIdentity(%s): %v", p, err)
		}
	}
}

func (f *fixture) identity(t *testing.T, p model.Principal) *model.Identity {
	t.Helper()
	id, err := f.svc.GetIdentity(ctx, p)
	if err != nil {
		t.Fatalf("GetIdentity(%s): %v", p, err)
	}
	return id
}

func (f *fixture) auditLen(t *testing.T) int {
	t.Helper()
	n, err := f.audit.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// ── Genesis and admin ────────────────────────────────────────────────────────

func TestGenesis_idempotent(t *testing.T) {
	f := newFixture(t)

	cfg, err := f.svc.Genesis(ctx, model.Genesis("someone-else", 9))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Admin != deployer {
		t.Errorf("admin: got %q, want %q", cfg.Admin, deployer)
	}
	if cfg.VerificationThreshold != model.DefaultVerificationThreshold {
		t.Errorf("threshold: got %d, want %d", cfg.VerificationThreshold, model.DefaultVerificationThreshold)
	}
	if n := f.auditLen(t); n != 1 {
		t.Errorf("genesis must not append audit entries, len=%d", n)
	}
}

func TestGenesis_requiresDeployer(t *testing.T) {
	svc := service.NewLedgerService(repository.NewMemoryStore(), nil, nil, zap.NewNop())
	_, err := svc.Genesis(ctx, model.Genesis("", 0))
	if model.Code(err) != "InvalidArgument" {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestNotInitialized(t *testing.T) {
	svc := service.NewLedgerService(repository.NewMemoryStore(), nil, nil, zap.NewNop())

	if _, err := svc.RegisterIdentity(ctx, address1); !errors.Is(err, service.ErrNotInitialized) {
		t.Errorf("RegisterIdentity: expected ErrNotInitialized, got %v", err)
	}
	if _, err := svc.Config(ctx); !errors.Is(err, service.ErrNotInitialized) {
		t.Errorf("Config: expected ErrNotInitialized, got %v", err)
	}
}

func TestSetAdmin(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.SetAdmin(ctx, address1, address1); !errors.Is(err, model.ErrNotAuthorized) {
		t.Fatalf("non-admin SetAdmin: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := f.svc.SetAdmin(ctx, deployer, address1); err != nil {
		t.Fatal(err)
	}
	cfg, err := f.svc.Config(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Admin != address1 {
		t.Errorf("admin: got %q, want %q", cfg.Admin, address1)
	}
	// The old admin lost the role.
	if _, err := f.svc.SetVerificationThreshold(ctx, deployer, 1); !errors.Is(err, model.ErrNotAuthorized) {
		t.Errorf("former admin: expected ErrNotAuthorized, got %v", err)
	}
	if f.metrics.transitions["set_admin:NotAuthorized"] != 1 || f.metrics.transitions["set_admin:ok"] != 1 {
		t.Errorf("unexpected metrics: %v", f.metrics.transitions)
	}
}

func TestSetAdmin_emptyRejected(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.SetAdmin(ctx, deployer, ""); model.Code(err) != "InvalidArgument" {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestSetVerificationThreshold(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.SetVerificationThreshold(ctx, address2, 5); !errors.Is(err, model.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.svc.SetVerificationThreshold(ctx, deployer, 5); err != nil {
			t.Fatal(err)
		}
	}
	cfg, _ := f.svc.Config(ctx)
	if cfg.VerificationThreshold != 5 {
		t.Errorf("threshold: got %d, want 5", cfg.VerificationThreshold)
	}
}

// ── Identity registry ────────────────────────────────────────────────────────

func TestRegisterIdentity_sequentialIDs(t *testing.T) {
	f := newFixture(t)

	for want, p := range []model.Principal{address1, address2, address3} {
		rec, err := f.svc.RegisterIdentity(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if rec.ID != uint64(want+1) {
			t.Errorf("%s: got id %d, want %d", p, rec.ID, want+1)
		}
	}
}

func TestRegisterIdentity_twice(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address2, address1, 4, ""); err != nil {
		t.Fatal(err)
	}
	before := f.identity(t, address1)

	_, err := f.svc.RegisterIdentity(ctx, address1)
	if !errors.Is(err, model.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if after := f.identity(t, address1); *after != *before {
		t.Errorf("record changed: before %+v, after %+v", before, after)
	}

	// The rejected call must not burn an id.
	rec, err := f.svc.RegisterIdentity(ctx, address3)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != 3 {
		t.Errorf("next id: got %d, want 3", rec.ID)
	}
}

func TestRegisterIdentity_fields(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1)

	rec := f.identity(t, address1)
	if rec.ID != 1 || rec.AttestationCount != 0 || rec.VerificationScore != 0 || rec.Verified {
		t.Errorf("unexpected fresh record: %+v", rec)
	}
	// The first transition after genesis runs at height 1.
	if rec.RegistrationHeight != 1 {
		t.Errorf("registration height: got %d, want 1", rec.RegistrationHeight)
	}
}

func TestGetIdentity_absent(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetIdentity(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ── Attestation ledger ───────────────────────────────────────────────────────

func TestAttest_basicScenario(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2, address3)

	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 8, "x"); err != nil {
		t.Fatal(err)
	}
	a, err := f.svc.GetAttestation(ctx, address1, address2)
	if err != nil {
		t.Fatal(err)
	}
	if a.Score != 8 || a.Context != "x" || !a.Valid {
		t.Errorf("unexpected attestation: %+v", a)
	}
	rec := f.identity(t, address2)
	if rec.VerificationScore != 8 || rec.AttestationCount != 1 {
		t.Errorf("identity: got score=%d count=%d, want 8/1", rec.VerificationScore, rec.AttestationCount)
	}
}

func TestAttest_thresholdVerification(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2, address3)
	if _, err := f.svc.SetVerificationThreshold(ctx, deployer, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.AttestToIdentity(ctx, address1, address3, 5, ""); err != nil {
		t.Fatal(err)
	}
	if f.identity(t, address3).Verified {
		t.Fatal("verified after one attestation with threshold 2")
	}
	if _, err := f.svc.AttestToIdentity(ctx, address2, address3, 7, ""); err != nil {
		t.Fatal(err)
	}
	rec := f.identity(t, address3)
	if !rec.Verified {
		t.Error("expected verified after second attestation")
	}
	if rec.VerificationScore != 12 {
		t.Errorf("verification score: got %d, want 12", rec.VerificationScore)
	}
	if f.metrics.verified != 1 {
		t.Errorf("verified metric: got %d, want 1", f.metrics.verified)
	}
}

func TestAttest_verifiedIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2, address3)
	if _, err := f.svc.SetVerificationThreshold(ctx, deployer, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AttestToIdentity(ctx, address1, address3, 5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SetVerificationThreshold(ctx, deployer, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AttestToIdentity(ctx, address2, address3, 1, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateAttestation(ctx, address1, address3, 1, ""); err != nil {
		t.Fatal(err)
	}
	if !f.identity(t, address3).Verified {
		t.Error("verified flag was reset")
	}
	if f.metrics.verified != 1 {
		t.Errorf("verified metric: got %d, want 1", f.metrics.verified)
	}
}

func TestAttest_precedence(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 3, ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		caller   model.Principal
		attestee model.Principal
		score    uint64
		want     error
	}{
		{"self unregistered", address4, address4, 0, model.ErrSelfAttestation},
		{"self registered", address1, address1, 5, model.ErrSelfAttestation},
		{"caller unregistered", address4, address1, 0, model.ErrNotRegistered},
		{"attestee unregistered", address1, address4, 0, model.ErrNotRegistered},
		{"duplicate before bad score", address1, address2, 0, model.ErrAttestationExists},
		{"score zero", address2, address1, 0, model.ErrInvalidScore},
		{"score eleven", address2, address1, 11, model.ErrInvalidScore},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AttestToIdentity(ctx, tc.caller, tc.attestee, tc.score, "")
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAttest_contextBound(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)

	long := strings.Repeat("é", model.MaxContextLength+1)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 5, long); model.Code(err) != "InvalidArgument" {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	exact := strings.Repeat("é", model.MaxContextLength)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 5, exact); err != nil {
		t.Fatalf("100-character context rejected: %v", err)
	}
}

func TestAttest_failureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	before := f.identity(t, address2)
	lenBefore := f.auditLen(t)

	for _, score := range []uint64{0, 11, 1000} {
		if _, err := f.svc.AttestToIdentity(ctx, address1, address2, score, ""); !errors.Is(err, model.ErrInvalidScore) {
			t.Fatalf("score %d: expected ErrInvalidScore, got %v", score, err)
		}
	}
	if _, err := f.svc.GetAttestation(ctx, address1, address2); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("attestation stored despite rejection: %v", err)
	}
	if after := f.identity(t, address2); *after != *before {
		t.Errorf("identity mutated: before %+v, after %+v", before, after)
	}
	if n := f.auditLen(t); n != lenBefore {
		t.Errorf("audit chain grew on rejection: %d -> %d", lenBefore, n)
	}
	if f.metrics.transitions["attest:InvalidScore"] != 3 {
		t.Errorf("unexpected metrics: %v", f.metrics.transitions)
	}
}

func TestUpdateAttestation(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2, address3)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 8, "x"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateAttestation(ctx, address1, address2, 10, "y"); err != nil {
		t.Fatal(err)
	}
	rec := f.identity(t, address2)
	if rec.VerificationScore != 10 || rec.AttestationCount != 1 {
		t.Errorf("identity: got score=%d count=%d, want 10/1", rec.VerificationScore, rec.AttestationCount)
	}
	a, _ := f.svc.GetAttestation(ctx, address1, address2)
	if a.Score != 10 || a.Context != "y" {
		t.Errorf("attestation: %+v", a)
	}

	// Lowering the score subtracts.
	if _, err := f.svc.UpdateAttestation(ctx, address1, address2, 1, ""); err != nil {
		t.Fatal(err)
	}
	if got := f.identity(t, address2).VerificationScore; got != 1 {
		t.Errorf("verification score after lowering: got %d, want 1", got)
	}
}

func TestUpdateAttestation_rejections(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 6, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateAttestation(ctx, address2, address1, 0, ""); !errors.Is(err, model.ErrAttestationNotFound) {
		t.Errorf("missing attestation: got %v", err)
	}
	if _, err := f.svc.UpdateAttestation(ctx, address1, address2, 11, ""); !errors.Is(err, model.ErrInvalidScore) {
		t.Errorf("bad score: got %v", err)
	}
	if _, err := f.svc.UpdateAttestation(ctx, address1, address2, 5, strings.Repeat("a", 101)); model.Code(err) != "InvalidArgument" {
		t.Errorf("long context: got %v", err)
	}
	if got := f.identity(t, address2).VerificationScore; got != 6 {
		t.Errorf("score changed by rejected updates: %d", got)
	}
}

// ── Domain reputation ledger ─────────────────────────────────────────────────

func TestEndorseForDomain_accumulates(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address2, address1, 7, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.EndorseForDomain(ctx, address2, address1, "blockchain", 9); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.EndorseForDomain(ctx, address2, address1, "blockchain", 7); err != nil {
		t.Fatal(err)
	}
	rep, err := f.svc.GetDomainReputation(ctx, address1, "blockchain")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Score != 16 || rep.EndorsementCount != 2 {
		t.Errorf("got score=%d count=%d, want 16/2", rep.Score, rep.EndorsementCount)
	}
	if rep.LastUpdated == 0 {
		t.Error("last updated not stamped")
	}
	if _, err := f.svc.GetDomainReputation(ctx, address1, "cooking"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("other domain: expected ErrNotFound, got %v", err)
	}
}

func TestEndorseForDomain_rejections(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address2, address1, 7, ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		caller   model.Principal
		identity model.Principal
		domain   string
		score    uint64
		wantCode string
	}{
		{"no attestation", address1, address2, "blockchain", 5, "AttestationNotFound"},
		{"no attestation bad score", address1, address2, "", 0, "AttestationNotFound"},
		{"score zero", address2, address1, "blockchain", 0, "InvalidScore"},
		{"score eleven", address2, address1, "blockchain", 11, "InvalidScore"},
		{"empty domain", address2, address1, "", 5, "InvalidArgument"},
		{"long domain", address2, address1, strings.Repeat("d", model.MaxDomainLength+1), 5, "InvalidArgument"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.EndorseForDomain(ctx, tc.caller, tc.identity, tc.domain, tc.score)
			if got := model.Code(err); got != tc.wantCode {
				t.Errorf("got %q (%v), want %q", got, err, tc.wantCode)
			}
		})
	}
	if _, err := f.svc.GetDomainReputation(ctx, address1, "blockchain"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("rejected endorsements created a record: %v", err)
	}
}

// ── Audit chain and heights ──────────────────────────────────────────────────

func TestAuditChain_recordsTransitions(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)
	if _, err := f.svc.AttestToIdentity(ctx, address1, address2, 8, "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.EndorseForDomain(ctx, address1, address2, "rust", 3); err != nil {
		t.Fatal(err)
	}
	_, _ = f.svc.AttestToIdentity(ctx, address1, address1, 8, "x") // rejected

	entries, err := f.audit.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []trustledger.Action{
		trustledger.ActionGenesis,
		trustledger.ActionRegister,
		trustledger.ActionRegister,
		trustledger.ActionAttest,
		trustledger.ActionEndorse,
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Action != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, e.Action, want[i])
		}
	}
	if entries[3].Actor != address1.String() || entries[3].Subject != address2.String() {
		t.Errorf("attest entry: actor=%q subject=%q", entries[3].Actor, entries[3].Subject)
	}
	if err := f.audit.Verify(ctx); err != nil {
		t.Errorf("chain does not verify: %v", err)
	}

	// Each record is stamped with the index of the entry that describes it.
	a, _ := f.svc.GetAttestation(ctx, address1, address2)
	if a.Timestamp != uint64(entries[3].Index) {
		t.Errorf("attestation timestamp %d, audit index %d", a.Timestamp, entries[3].Index)
	}
	rep, _ := f.svc.GetDomainReputation(ctx, address2, "rust")
	if rep.LastUpdated != uint64(entries[4].Index) {
		t.Errorf("domain last updated %d, audit index %d", rep.LastUpdated, entries[4].Index)
	}
}

func TestHeightSource_injected(t *testing.T) {
	height := uint64(41)
	heights := service.HeightFunc(func(context.Context) (uint64, error) {
		height++
		return height, nil
	})
	svc := service.NewLedgerService(repository.NewMemoryStore(), heights, nil, zap.NewNop())
	if _, err := svc.Genesis(ctx, model.Genesis(deployer, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterIdentity(ctx, address1); err != nil {
		t.Fatal(err)
	}
	rec, _ := svc.GetIdentity(ctx, address1)
	if rec.RegistrationHeight != 42 {
		t.Errorf("registration height: got %d, want 42", rec.RegistrationHeight)
	}
}

func TestHeightSource_error(t *testing.T) {
	boom := errors.New("boom")
	heights := service.HeightFunc(func(context.Context) (uint64, error) { return 0, boom })
	svc := service.NewLedgerService(repository.NewMemoryStore(), heights, nil, zap.NewNop())
	if _, err := svc.Genesis(ctx, model.Genesis(deployer, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterIdentity(ctx, address1); !errors.Is(err, boom) {
		t.Errorf("expected height error, got %v", err)
	}
}

func TestHeightSource_regressionRejected(t *testing.T) {
	heights := []uint64{10, 7}
	src := service.HeightFunc(func(context.Context) (uint64, error) {
		h := heights[0]
		heights = heights[1:]
		return h, nil
	})
	svc := service.NewLedgerService(repository.NewMemoryStore(), src, nil, zap.NewNop())
	if _, err := svc.Genesis(ctx, model.Genesis(deployer, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterIdentity(ctx, address1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterIdentity(ctx, address2); !errors.Is(err, service.ErrHeightRegressed) {
		t.Fatalf("expected ErrHeightRegressed, got %v", err)
	}
	if _, err := svc.GetIdentity(ctx, address2); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("regressed call was applied: %v", err)
	}
	cfg, _ := svc.Config(ctx)
	if cfg.Height != 10 {
		t.Errorf("stored height: got %d, want 10", cfg.Height)
	}
}

func TestHeight_rejectionDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	f.register(t, address1, address2)

	if _, err := f.svc.AttestToIdentity(ctx, address1, address1, 5, ""); err == nil {
		t.Fatal("self attestation accepted")
	}
	if _, err := f.svc.SetVerificationThreshold(ctx, address1, 3); err == nil {
		t.Fatal("non-admin threshold change accepted")
	}
	cfg, err := f.svc.Config(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Height != 2 {
		t.Errorf("height after rejections: got %d, want 2", cfg.Height)
	}

	a, err := f.svc.AttestToIdentity(ctx, address1, address2, 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Timestamp != 3 {
		t.Errorf("attestation height: got %d, want 3", a.Timestamp)
	}
}

func TestMutations_returnStoredRecords(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.RegisterIdentity(ctx, address1)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.identity(t, address1); *got != *reg {
		t.Errorf("register: returned %+v, stored %+v", reg, got)
	}
	f.register(t, address2)

	att, err := f.svc.AttestToIdentity(ctx, address2, address1, 6, "met at conf")
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := f.svc.GetAttestation(ctx, address2, address1)
	if *stored != *att {
		t.Errorf("attest: returned %+v, stored %+v", att, stored)
	}

	upd, err := f.svc.UpdateAttestation(ctx, address2, address1, 9, "")
	if err != nil {
		t.Fatal(err)
	}
	stored, _ = f.svc.GetAttestation(ctx, address2, address1)
	if *stored != *upd {
		t.Errorf("update: returned %+v, stored %+v", upd, stored)
	}

	rep, err := f.svc.EndorseForDomain(ctx, address2, address1, "go", 4)
	if err != nil {
		t.Fatal(err)
	}
	storedRep, _ := f.svc.GetDomainReputation(ctx, address1, "go")
	if *storedRep != *rep {
		t.Errorf("endorse: returned %+v, stored %+v", rep, storedRep)
	}

	cfg, err := f.svc.SetVerificationThreshold(ctx, deployer, 7)
	if err != nil {
		t.Fatal(err)
	}
	storedCfg, _ := f.svc.Config(ctx)
	if *storedCfg != *cfg {
		t.Errorf("threshold: returned %+v, stored %+v", cfg, storedCfg)
	}
	if cfg.Height != rep.LastUpdated+1 {
		t.Errorf("config height %d, want %d", cfg.Height, rep.LastUpdated+1)
	}
}

func TestMutation_requiresCaller(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.RegisterIdentity(ctx, ""); model.Code(err) != "InvalidArgument" {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
