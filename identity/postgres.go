package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/feldspar-io/authcore"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore is an authcore.IdentityStore backed by Postgres via the
// pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the users table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate users table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// FindByEmail returns the identity registered under email, or
// authcore.ErrUserNotFound.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*authcore.Identity, error) {
	return s.findBy(ctx, `
		SELECT id, email, name, is_admin, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)
}

// FindByID returns the identity with the given ID, or
// authcore.ErrUserNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	return s.findBy(ctx, `
		SELECT id, email, name, is_admin, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (s *PostgresStore) findBy(ctx context.Context, query, arg string) (*authcore.Identity, error) {
	var identity authcore.Identity
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.IsAdmin,
		&identity.PasswordHash,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &identity, nil
}

// Create inserts a new identity and returns it with its assigned ID and
// creation time. An email collision surfaces as authcore.ErrDuplicateUser
// regardless of who won the race.
func (s *PostgresStore) Create(ctx context.Context, identity *authcore.Identity) (*authcore.Identity, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	created := *identity
	created.ID = id.String()
	created.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, is_admin, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, created.ID, created.Email, created.Name, created.IsAdmin, created.PasswordHash, created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, authcore.ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &created, nil
}
