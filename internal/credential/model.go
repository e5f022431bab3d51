package credential

import (
	"errors"
	"fmt"
)

// ErrInvalid marks a structurally invalid credential. Handlers translate it
// into a 400 response; it never reaches a store.
var ErrInvalid = errors.New("invalid credential")

// ErrNotFound is returned by stores when no record exists for an id.
var ErrNotFound = errors.New("credential not found")

// Credential is the holder-identifying record being issued and verified.
// The id is caller-chosen and globally unique.
type Credential struct {
	ID             string `json:"id"`
	HolderName     string `json:"holderName"`
	CredentialType string `json:"credentialType"`
	IssueDate      string `json:"issueDate"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
}

// Validate checks the structural requirements shared by issuance and
// verification: id, holderName, credentialType and issueDate must be present.
// expiryDate stays optional.
func (c Credential) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: credential must have a valid id", ErrInvalid)
	}
	if c.HolderName == "" {
		return fmt.Errorf("%w: credential must have a valid holderName", ErrInvalid)
	}
	if c.CredentialType == "" {
		return fmt.Errorf("%w: credential must have a valid credentialType", ErrInvalid)
	}
	if c.IssueDate == "" {
		return fmt.Errorf("%w: credential must have a valid issueDate", ErrInvalid)
	}
	return nil
}

// Record is an issued credential together with its provenance: which worker
// recorded it and when. Records are created exactly once per credential id
// and never mutated afterwards.
type Record struct {
	Credential
	WorkerID string `json:"workerId"`
	IssuedAt string `json:"timestamp"`
}
