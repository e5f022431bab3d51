package verifylog

import (
	"context"
	"time"
)

// stampLayout pads fractional seconds to full width. Entries are ordered by
// the logged_at TEXT column, so the rendered timestamps must sort
// lexicographically in time order; RFC3339Nano drops trailing zeros and
// breaks that.
const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// Entry is one immutable verification attempt record. Entries are appended
// once and never updated or removed.
type Entry struct {
	ID           string `json:"id"`
	CredentialID string `json:"credentialId"`
	Verified     bool   `json:"verified"`
	Message      string `json:"message"`
	IssuedBy     string `json:"issuedBy,omitempty"`
	IssuedAt     string `json:"issuedAt,omitempty"`
	WorkerID     string `json:"workerId"`
	Timestamp    string `json:"timestamp"`
}

// Stats aggregates the log. Verified+Failed always equals Total.
type Stats struct {
	Total    int64 `json:"total"`
	Verified int64 `json:"verified"`
	Failed   int64 `json:"failed"`
}

// Store is the append-only verification log. Append assigns the entry id and
// timestamp, persists the entry and returns it as stored. Appends have no
// uniqueness constraint and are safe under unordered concurrent writes; only
// the generated id must be unique.
type Store interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ByCredentialID(ctx context.Context, credentialID string) ([]Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Stats(ctx context.Context) (Stats, error)
}
