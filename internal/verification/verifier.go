package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/credmesh/credmesh/internal/credential"
	"github.com/credmesh/credmesh/internal/metrics"
	"github.com/credmesh/credmesh/internal/verifylog"
)

const (
	msgValid    = "Credential is valid and has been issued"
	msgMismatch = "Credential data does not match issued credential"
	msgNotFound = "Credential not found in issuance records"
)

// Result captures a verification decision. Verified=false with a not-found or
// mismatch message is a normal outcome, not an error.
type Result struct {
	Verified   bool
	Message    string
	Credential *credential.Credential
	IssuedBy   string
	IssuedAt   string
}

// Service checks presented credentials against the issuance authority and
// appends every decided attempt to the verification log.
type Service struct {
	authority Authority
	log       verifylog.Store
	workerID  string
	logger    *slog.Logger
}

// NewService builds the verifier. The authority is injected so tests can
// substitute a fake for the HTTP client.
func NewService(authority Authority, log verifylog.Store, workerID string, logger *slog.Logger) *Service {
	return &Service{authority: authority, log: log, workerID: workerID, logger: logger}
}

// Verify validates the presented credential, fetches the authoritative record
// and compares field by field. Exactly one log entry is appended before a
// decided result is returned; structural-validation failures and authority
// faults never reach the verification log.
func (s *Service) Verify(ctx context.Context, presented credential.Credential) (Result, error) {
	if err := presented.Validate(); err != nil {
		metrics.RecordVerification(metrics.OutcomeInvalid)
		return Result{}, err
	}

	issued, err := s.authority.Lookup(ctx, presented.ID)
	if err != nil {
		if errors.Is(err, ErrNotIssued) {
			return s.decide(ctx, presented, Result{Verified: false, Message: msgNotFound}, metrics.OutcomeNotFound)
		}
		metrics.RecordVerification(metrics.OutcomeFault)
		s.logger.Error("issuance authority lookup failed",
			slog.String("credential_id", presented.ID),
			slog.Any("error", err),
		)
		return Result{}, fmt.Errorf("failed to verify credential: %w", err)
	}

	if !matches(presented, issued.Credential) {
		return s.decide(ctx, presented, Result{Verified: false, Message: msgMismatch}, metrics.OutcomeMismatch)
	}

	return s.decide(ctx, presented, Result{
		Verified:   true,
		Message:    msgValid,
		Credential: &issued.Credential,
		IssuedBy:   issued.IssuedBy,
		IssuedAt:   issued.IssuedAt,
	}, metrics.OutcomeVerified)
}

// VerifyBatch verifies each candidate independently and returns one result
// per candidate, in input order. A bad candidate never aborts the rest;
// validation failures and faults surface as unverified results carrying the
// failure message.
func (s *Service) VerifyBatch(ctx context.Context, candidates []credential.Credential) []Result {
	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		res, err := s.Verify(ctx, candidate)
		if err != nil {
			res = Result{Verified: false, Message: err.Error()}
		}
		results = append(results, res)
	}
	return results
}

// decide appends the log entry for a decided attempt and hands the result
// back. A log write failure is a storage fault for this request: the decision
// must not be reported without its audit record.
func (s *Service) decide(ctx context.Context, presented credential.Credential, res Result, outcome string) (Result, error) {
	entry := verifylog.Entry{
		CredentialID: presented.ID,
		Verified:     res.Verified,
		Message:      res.Message,
		IssuedBy:     res.IssuedBy,
		IssuedAt:     res.IssuedAt,
		WorkerID:     s.workerID,
	}
	if _, err := s.log.Append(ctx, entry); err != nil {
		metrics.RecordVerification(metrics.OutcomeError)
		s.logger.Error("append verification log entry",
			slog.String("credential_id", presented.ID),
			slog.Any("error", err),
		)
		return Result{}, fmt.Errorf("record verification attempt: %w", err)
	}
	metrics.RecordVerification(outcome)
	return res, nil
}

// matches compares the presented credential against the issued record. The
// expiryDate of the presented credential is only compared when it is set: a
// presented credential omitting it still matches an issued one that has it,
// but not the other way around.
func matches(presented, issued credential.Credential) bool {
	if presented.ID != issued.ID {
		return false
	}
	if presented.HolderName != issued.HolderName {
		return false
	}
	if presented.CredentialType != issued.CredentialType {
		return false
	}
	if presented.IssueDate != issued.IssueDate {
		return false
	}
	if presented.ExpiryDate != "" && presented.ExpiryDate != issued.ExpiryDate {
		return false
	}
	return true
}
