// Package repositories implements the data access layer (repository pattern) for the member portal.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/member-portal/member-portal/internal/db/models"
)

// UserRepository handles user and role database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user together with their role tag and an empty
// profile in a single transaction, so a half-created account can never exist.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User, role, fullName string) error {
	user.ID = uuid.New().String()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, assigned_by, assigned_at)
		VALUES ($1, $2, NULL, $3)
	`, user.ID, role, time.Now())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
	`, user.ID, fullName, time.Now())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUser updates a user's mutable fields
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = $2, password_hash = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.UpdatedAt,
	)

	return err
}

// DeleteUser deletes a user (cascades to profile, role, queries, registrations)
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// ListUsers retrieves a paginated list of users joined with role and name
func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) ([]*models.UserWithRole, int, error) {
	// Get total count
	var total int
	countQuery := `SELECT COUNT(*) FROM users`
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT u.id, u.email, u.is_active, u.created_at, u.updated_at,
		       COALESCE(ur.role, '') AS role,
		       COALESCE(p.full_name, '') AS full_name
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.UserWithRole, 0)
	for rows.Next() {
		u := &models.UserWithRole{}
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.Role,
			&u.FullName,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}

	return users, total, rows.Err()
}

// SearchUsers searches users by email or profile name
func (r *UserRepository) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.UserWithRole, error) {
	searchQuery := `
		SELECT u.id, u.email, u.is_active, u.created_at, u.updated_at,
		       COALESCE(ur.role, '') AS role,
		       COALESCE(p.full_name, '') AS full_name
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.email ILIKE $1 OR p.full_name ILIKE $1
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3
	`

	searchPattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, searchQuery, searchPattern, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.UserWithRole, 0)
	for rows.Next() {
		u := &models.UserWithRole{}
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.Role,
			&u.FullName,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetUserRole retrieves the role tag for a user
func (r *UserRepository) GetUserRole(ctx context.Context, userID string) (*models.UserRole, error) {
	query := `
		SELECT user_id, role, assigned_by, assigned_at
		FROM user_roles
		WHERE user_id = $1
	`

	ur := &models.UserRole{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&ur.UserID,
		&ur.Role,
		&ur.AssignedBy,
		&ur.AssignedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ur, nil
}

// AssignRole sets a user's role tag, recording who assigned it and when.
// Users have exactly one role, so this is an upsert on user_id.
func (r *UserRepository) AssignRole(ctx context.Context, userID, role, assignedBy string) error {
	query := `
		INSERT INTO user_roles (user_id, role, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET role = EXCLUDED.role, assigned_by = EXCLUDED.assigned_by, assigned_at = EXCLUDED.assigned_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, role, assignedBy, time.Now())
	return err
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM users`
	err := r.db.QueryRowContext(ctx, query).Scan(&total)
	return total, err
}
