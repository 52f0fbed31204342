package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// User represents an application user
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoleID       *int64    `db:"role_id" json:"role_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserDetail is a user joined with their role name
type UserDetail struct {
	User
	RoleName *string `db:"role_name" json:"role_name,omitempty"`
}

// Role is read-only reference data
type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, password_hash, role_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		u.Username, u.PasswordHash, u.RoleID,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*UserDetail, error) {
	var u UserDetail
	query := `
		SELECT u.*, r.name AS role_name
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// GetByUsername gets a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*UserDetail, error) {
	var u UserDetail
	query := `
		SELECT u.*, r.name AS role_name
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.username = $1
	`
	if err := r.db.GetContext(ctx, &u, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// List lists users with their role names
func (r *UserRepository) List(ctx context.Context) ([]*UserDetail, error) {
	var users []*UserDetail
	query := `
		SELECT u.*, r.name AS role_name
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		ORDER BY u.username
	`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

// ListRoles lists all roles
func (r *UserRepository) ListRoles(ctx context.Context) ([]*Role, error) {
	var roles []*Role
	query := `SELECT * FROM roles ORDER BY id`
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, err
	}
	return roles, nil
}
