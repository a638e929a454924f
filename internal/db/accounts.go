package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/profile-sourcer/internal/credits"
	"github.com/jonathan/profile-sourcer/internal/types"
)

// GetSnapshot reads an account's tier and balance.
func (db *DB) GetSnapshot(ctx context.Context, accountID uuid.UUID) (*credits.Snapshot, error) {
	var tier string
	var balance float64
	err := db.pool.QueryRow(ctx,
		`SELECT subscription_tier, credits_remaining FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&tier, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credits.ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &credits.Snapshot{Tier: types.ParseTier(tier), CreditsRemaining: balance}, nil
}

// ChargeOneUnit decrements the balance by one search only if it covers it.
// The condition and the decrement are one statement, so two concurrent
// charges against a balance of one unit affect one row between them.
func (db *DB) ChargeOneUnit(ctx context.Context, accountID uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE accounts
		 SET credits_remaining = credits_remaining - $2, updated_at = NOW()
		 WHERE id = $1 AND credits_remaining >= $2`,
		accountID, credits.SearchCost,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to charge account %s: %w", accountID, err)
	}
	return tag.RowsAffected(), nil
}

// CreateAccount inserts an account and returns its ID.
func (db *DB) CreateAccount(ctx context.Context, email string, tier types.Tier, balance float64) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, subscription_tier, credits_remaining)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		email, string(tier), balance,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}
