package credential

import (
	"context"
	"fmt"
	"time"
)

// Outcome describes the disposition of an issuance attempt. A duplicate is a
// normal outcome (Success=false, IsNew=false), not an error: retries and
// replays of the same credential id are expected traffic.
type Outcome struct {
	Success bool
	IsNew   bool
	Message string
	Record  Record
}

// Service owns the authoritative create-once record of issued credentials.
type Service struct {
	store    Store
	workerID string
}

// NewService builds the issuance service. workerID is the immutable instance
// identity stamped on every record.
func NewService(store Store, workerID string) *Service {
	return &Service{store: store, workerID: workerID}
}

// Issue validates the candidate and records it once. The store's atomic
// insert arbitrates concurrent attempts on the same id; the service never
// does a check-then-write.
func (s *Service) Issue(ctx context.Context, candidate Credential) (Outcome, error) {
	if err := candidate.Validate(); err != nil {
		return Outcome{}, err
	}

	rec := Record{
		Credential: candidate,
		WorkerID:   s.workerID,
		IssuedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	created, err := s.store.Put(ctx, rec)
	if err != nil {
		return Outcome{}, fmt.Errorf("store credential: %w", err)
	}

	if !created {
		return Outcome{
			Success: false,
			IsNew:   false,
			Message: "Credential already issued",
		}, nil
	}

	return Outcome{
		Success: true,
		IsNew:   true,
		Message: fmt.Sprintf("Credential issued by worker-%s", s.workerID),
		Record:  rec,
	}, nil
}

// GetByID returns the issuance record for one credential id.
func (s *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return s.store.GetByID(ctx, id)
}

// GetAll returns every issuance record.
func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	return s.store.GetAll(ctx)
}
