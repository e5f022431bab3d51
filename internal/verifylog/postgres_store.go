package verifylog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ordering note: logged_at is TEXT, so Recent and ByCredentialID rely on the
// fixed-width stamp layout for their most-recent-first ORDER BY.

// PostgresStore persists verification log entries in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed verification log.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the verification_logs table and its lookup indexes if
// they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS verification_logs (
        id UUID PRIMARY KEY,
        credential_id TEXT NOT NULL,
        verified BOOLEAN NOT NULL,
        message TEXT NOT NULL,
        issued_by TEXT,
        issued_at TEXT,
        worker_id TEXT NOT NULL,
        logged_at TEXT NOT NULL
    )`)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_verification_logs_credential_id
        ON verification_logs (credential_id)`); err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_verification_logs_logged_at
        ON verification_logs (logged_at)`)
	return err
}

// Append assigns id and timestamp and durably persists the entry.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) (Entry, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = stamp(time.Now())

	_, err := s.db.Exec(ctx, `INSERT INTO verification_logs
        (id, credential_id, verified, message, issued_by, issued_at, worker_id, logged_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.CredentialID, entry.Verified, entry.Message,
		nullable(entry.IssuedBy), nullable(entry.IssuedAt), entry.WorkerID, entry.Timestamp)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ByCredentialID returns every attempt for one credential, most-recent first.
func (s *PostgresStore) ByCredentialID(ctx context.Context, credentialID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT id, credential_id, verified, message, issued_by, issued_at, worker_id, logged_at
        FROM verification_logs WHERE credential_id = $1 ORDER BY logged_at DESC`, credentialID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// Recent returns up to limit entries, most-recent first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, credential_id, verified, message, issued_by, issued_at, worker_id, logged_at
        FROM verification_logs ORDER BY logged_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// Stats aggregates outcome counts over the whole log.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRow(ctx, `SELECT
        COUNT(*),
        COUNT(*) FILTER (WHERE verified),
        COUNT(*) FILTER (WHERE NOT verified)
        FROM verification_logs`)
	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Verified, &stats.Failed); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var issuedBy, issuedAt *string
		if err := rows.Scan(&e.ID, &e.CredentialID, &e.Verified, &e.Message, &issuedBy, &issuedAt, &e.WorkerID, &e.Timestamp); err != nil {
			return nil, err
		}
		if issuedBy != nil {
			e.IssuedBy = *issuedBy
		}
		if issuedAt != nil {
			e.IssuedAt = *issuedAt
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
