package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coinview/exchange/internal/models"
)

// BalanceRepository owns the read/write path to the balances table. Every
// write enforces 0 <= reserved <= total; no caller guarantees it.
type BalanceRepository struct {
	pool Querier
}

// NewBalanceRepository creates a new balance repository over a shared pool.
func NewBalanceRepository(pool Querier) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// Create inserts a new balance row for a user and asset. Reserved starts at
// zero.
func (r *BalanceRepository) Create(ctx context.Context, userID uuid.UUID, asset string, total decimal.Decimal) (*models.Balance, error) {
	if total.IsNegative() {
		return nil, ErrInvalidAmounts
	}

	balance := &models.Balance{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO balances (id, asset, total, reserved, user_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, asset, total, reserved, user_id, updated_at`,
		uuid.New(), asset, total, decimal.Zero, userID, time.Now().UTC()).Scan(
		&balance.ID, &balance.Asset, &balance.Total, &balance.Reserved, &balance.UserID, &balance.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}
	return balance, nil
}

// FindByUserAndAsset retrieves a user's balance for one asset. Returns
// (nil, nil) when no row exists.
func (r *BalanceRepository) FindByUserAndAsset(ctx context.Context, userID uuid.UUID, asset string) (*models.Balance, error) {
	balance := &models.Balance{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, asset, total, reserved, user_id, updated_at FROM balances WHERE user_id = $1 AND asset = $2`,
		userID, asset).Scan(
		&balance.ID, &balance.Asset, &balance.Total, &balance.Reserved, &balance.UserID, &balance.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// FindByUser retrieves all balances held by a user.
func (r *BalanceRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Balance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, asset, total, reserved, user_id, updated_at FROM balances WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user balances: %w", err)
	}
	defer rows.Close()

	var balances []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.ID, &b.Asset, &b.Total, &b.Reserved, &b.UserID, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}
	return balances, nil
}

// UpdateAmounts sets a balance's total and reserved amounts and returns the
// updated row. Returns ErrNotFound if the id matched no row.
func (r *BalanceRepository) UpdateAmounts(ctx context.Context, id uuid.UUID, total, reserved decimal.Decimal) (*models.Balance, error) {
	if reserved.IsNegative() || reserved.GreaterThan(total) {
		return nil, ErrInvalidAmounts
	}

	balance := &models.Balance{}
	err := r.pool.QueryRow(ctx,
		`UPDATE balances SET total = $1, reserved = $2, updated_at = $3
		 WHERE id = $4
		 RETURNING id, asset, total, reserved, user_id, updated_at`,
		total, reserved, time.Now().UTC(), id).Scan(
		&balance.ID, &balance.Asset, &balance.Total, &balance.Reserved, &balance.UserID, &balance.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("balance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return balance, nil
}
