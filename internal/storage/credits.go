package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// HasCredits reports whether the user's balance covers amount.
func (db *DB) HasCredits(ctx context.Context, userID int64, amount float64) (bool, error) {
	var balance float64

	err := db.Pool.QueryRow(ctx, `SELECT balance::float8 FROM user_credits WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return amount <= 0, nil
	}

	if err != nil {
		return false, fmt.Errorf("get credit balance: %w", err)
	}

	return balance >= amount, nil
}

// DeductCredits charges amount, never going below zero.
func (db *DB) DeductCredits(ctx context.Context, userID int64, amount float64) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE user_credits SET balance = GREATEST(balance - $2::numeric, 0)
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("deduct credits: %w", err)
	}

	return nil
}
