package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credential-auth/internal/domain"
)

// RoleRepository provides read access to roles. Roles are referenced, never
// mutated, by this service.
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	const query = `SELECT id, name, description FROM roles WHERE id=$1`

	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	const query = `SELECT id, name, description FROM roles ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
