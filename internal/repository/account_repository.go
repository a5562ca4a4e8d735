package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credential-auth/internal/domain"
)

// ErrEmailTaken reports the unique-email constraint firing on insert. The
// constraint is the sole guard against the concurrent-registration race.
var ErrEmailTaken = errors.New("email already taken")

const uniqueViolationCode = "23505"

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (role_id, first_name, last_name, email, phone, address, avatar, password_hash, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.RoleID,
		account.FirstName,
		account.LastName,
		account.Email,
		account.Phone,
		account.Address,
		account.Avatar,
		account.PasswordHash,
		account.Status,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = accountSelect + ` WHERE a.id=$1`
	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = accountSelect + ` WHERE a.email=$1`
	return r.scanAccount(ctx, query, email)
}

const accountSelect = `
        SELECT a.id, a.role_id, a.first_name, a.last_name, a.email, a.phone, a.address, a.avatar,
               a.password_hash, a.status, a.created_at, a.updated_at,
               r.id, r.name, r.description
        FROM accounts a
        JOIN roles r ON r.id = a.role_id`

func (r *accountRepository) scanAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var (
		account domain.Account
		role    domain.Role
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.RoleID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.Phone,
		&account.Address,
		&account.Avatar,
		&account.PasswordHash,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
		&role.ID,
		&role.Name,
		&role.Description,
	); err != nil {
		return nil, err
	}
	account.Role = &role
	return &account, nil
}
