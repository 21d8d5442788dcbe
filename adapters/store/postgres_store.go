package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// PostgresStore is a pgx implementation of the UserStore interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var usersTable = `create table if not exists users (
	id             uuid primary key,
	email          varchar UNIQUE,
	password_hash  varchar,
	wallet_address varchar UNIQUE,
	role           varchar NOT NULL,
	created_at     timestamptz NOT NULL,
	updated_at     timestamptz NOT NULL)`

// NewPostgresStore creates the store and ensures the users table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, usersTable); err != nil {
		return nil, fmt.Errorf("failed to ensure users table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

var _ ports.UserStore = (*PostgresStore)(nil)

const userColumns = `id, email, password_hash, wallet_address, role, created_at, updated_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var (
		u             core.User
		email         *string
		passwordHash  *string
		walletAddress *string
		role          string
	)

	err := row.Scan(&u.ID, &email, &passwordHash, &walletAddress, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if email != nil {
		u.Email = *email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if walletAddress != nil {
		u.WalletAddress = *walletAddress
	}
	u.Role = core.Role(role)

	return &u, nil
}

// FindByEmail looks up a user by email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

// FindByID looks up a user by id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

// FindByWallet looks up a user by wallet address, case-insensitively.
func (s *PostgresStore) FindByWallet(ctx context.Context, walletAddress string) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`select `+userColumns+` from users where lower(wallet_address) = lower($1)`, walletAddress)
	return scanUser(row)
}

// Create inserts a new user record. Empty email/wallet fields persist
// as NULL so the unique constraints only bind present values.
func (s *PostgresStore) Create(ctx context.Context, user *core.User) error {
	var (
		email         *string
		passwordHash  *string
		walletAddress *string
	)
	if user.Email != "" {
		email = &user.Email
	}
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}
	if user.WalletAddress != "" {
		walletAddress = &user.WalletAddress
	}

	_, err := s.pool.Exec(ctx,
		`insert into users (`+userColumns+`) values ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, email, passwordHash, walletAddress, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateRole sets the role of an existing user.
func (s *PostgresStore) UpdateRole(ctx context.Context, id string, role core.Role) (*core.User, error) {
	row := s.pool.QueryRow(ctx,
		`update users set role = $2, updated_at = now() where id = $1 returning `+userColumns,
		id, string(role))
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]core.User, error) {
	rows, err := s.pool.Query(ctx,
		`select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete removes a user record.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
