package credential

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists issuance records keyed by credential id. Put must be atomic:
// when concurrent calls race on the same id, exactly one observes
// created=true and the stored record is never overwritten.
type Store interface {
	Put(ctx context.Context, rec Record) (created bool, err error)
	GetByID(ctx context.Context, id string) (Record, error)
	GetAll(ctx context.Context) ([]Record, error)
}

// PostgresStore implements Store using PostgreSQL. The primary key on the
// credentials table enforces the create-once contract.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed credential store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the credentials table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS credentials (
        id TEXT PRIMARY KEY,
        holder_name TEXT NOT NULL,
        credential_type TEXT NOT NULL,
        issue_date TEXT NOT NULL,
        expiry_date TEXT,
        worker_id TEXT NOT NULL,
        issued_at TEXT NOT NULL
    )`)
	return err
}

// Put inserts the record unless the id is already taken. The unique
// constraint resolves concurrent inserts; ON CONFLICT DO NOTHING reports a
// duplicate as zero affected rows without touching the existing record.
func (s *PostgresStore) Put(ctx context.Context, rec Record) (bool, error) {
	cmd, err := s.db.Exec(ctx, `INSERT INTO credentials
        (id, holder_name, credential_type, issue_date, expiry_date, worker_id, issued_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.HolderName, rec.CredentialType, rec.IssueDate, nullable(rec.ExpiryDate), rec.WorkerID, rec.IssuedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// GetByID fetches a single issuance record.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRow(ctx, `SELECT id, holder_name, credential_type, issue_date, expiry_date, worker_id, issued_at
        FROM credentials WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// GetAll returns every issuance record. Iteration order is an implementation
// detail; callers must not depend on it.
func (s *PostgresStore) GetAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT id, holder_name, credential_type, issue_date, expiry_date, worker_id, issued_at
        FROM credentials`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var expiry *string
	if err := row.Scan(&rec.ID, &rec.HolderName, &rec.CredentialType, &rec.IssueDate, &expiry, &rec.WorkerID, &rec.IssuedAt); err != nil {
		return Record{}, err
	}
	if expiry != nil {
		rec.ExpiryDate = *expiry
	}
	return rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
