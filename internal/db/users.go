package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coinview/exchange/internal/models"
)

// UserRepository owns the read/write path to the users table.
type UserRepository struct {
	pool Querier
}

// NewUserRepository creates a new user repository over a shared pool.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user with a generated id and returns the persisted
// row. A duplicate email surfaces as a unique violation; see
// IsUniqueViolation.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, email, password_hash, created_at, updated_at`,
		uuid.New(), email, passwordHash, now, now).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email. Returns (nil, nil) when no user
// exists, which is a valid outcome distinct from a storage failure.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by id. Returns (nil, nil) when no user exists.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`,
		id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}
