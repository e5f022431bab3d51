package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/credmesh/credmesh/internal/credential"
)

// ErrAuthorityUnavailable marks a transport-level failure talking to the
// issuance service. It is a service fault, never a verification outcome.
var ErrAuthorityUnavailable = errors.New("unable to contact issuance service")

// ErrNotIssued is returned by Authority.Lookup when the issuance service has
// no record for the credential id.
var ErrNotIssued = errors.New("credential not found in issuance records")

// Issued is the authoritative record as reported by the issuance service:
// the credential plus who issued it and when.
type Issued struct {
	Credential credential.Credential
	IssuedBy   string
	IssuedAt   string
}

// Authority is the boundary the verifier depends on to resolve the
// authoritative record for a credential id. Implementations must not cache
// results across calls; every verification fetches fresh state.
type Authority interface {
	Lookup(ctx context.Context, id string) (Issued, error)
}

// HTTPAuthority resolves records over the issuance service's HTTP API.
type HTTPAuthority struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAuthority builds the HTTP authority client. The timeout is a hard
// cutoff for the whole request; on expiry Lookup reports a fault.
func NewHTTPAuthority(baseURL string, timeout time.Duration) *HTTPAuthority {
	return &HTTPAuthority{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Success    bool                  `json:"success"`
	Credential credential.Credential `json:"credential"`
	WorkerID   string                `json:"workerId"`
	Timestamp  string                `json:"timestamp"`
}

// Lookup fetches the issuance record for id. A 404 maps to ErrNotIssued; any
// other non-200 status or transport failure maps to ErrAuthorityUnavailable.
func (a *HTTPAuthority) Lookup(ctx context.Context, id string) (Issued, error) {
	endpoint := fmt.Sprintf("%s/api/credentials/%s", a.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Issued{}, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Issued{}, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Issued{}, ErrNotIssued
	case resp.StatusCode != http.StatusOK:
		return Issued{}, fmt.Errorf("%w: unexpected status %d", ErrAuthorityUnavailable, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Issued{}, fmt.Errorf("%w: decode response: %v", ErrAuthorityUnavailable, err)
	}
	if !body.Success {
		return Issued{}, ErrNotIssued
	}

	return Issued{
		Credential: body.Credential,
		IssuedBy:   body.WorkerID,
		IssuedAt:   body.Timestamp,
	}, nil
}
