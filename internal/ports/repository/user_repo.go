package repository

import (
	"context"
	"database/sql"

	"timetrack.service/internal/core/model"
)

// PostgresUserRepository is a read-only view over the provisioned users table.
type PostgresUserRepository struct {
	DB *sql.DB
}

// NewUserRepository create new instance
func NewUserRepository(db *sql.DB) UserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetUser fetches one user, or nil when no such user exists.
func (r *PostgresUserRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, email, role, supervisor_id, manager_id FROM users WHERE id = $1`

	u := &model.User{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Role, &u.SupervisorID, &u.ManagerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUsers fetches a set of users keyed by id. Missing ids are simply absent
// from the result map.
func (r *PostgresUserRepository) GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	if len(ids) == 0 {
		return map[int64]model.User{}, nil
	}

	query := `SELECT id, email, role, supervisor_id, manager_id FROM users WHERE id IN (` + inPlaceholders(1, len(ids)) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[int64]model.User, len(ids))
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.SupervisorID, &u.ManagerID); err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}
