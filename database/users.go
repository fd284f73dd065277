package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitecraft/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, api_key, credits, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, name string, credits int) (*models.User, error) {
	query := `
		INSERT INTO users (name, api_key, credits)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(db.Pool.QueryRow(ctx, query, name, generateAPIKey(), credits))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("Created user: %s (ID: %s)", user.Name, user.ID)
	return user, nil
}

func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, apiKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invalid API key: %w", models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// DebitCredits subtracts amount from the user's balance only if the
// balance covers it. The check and the write are one statement, so two
// concurrent debits can never both pass on the same funds.
func (db *DB) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	query := `
		UPDATE users
		SET credits = credits - $2, updated_at = NOW()
		WHERE id = $1 AND credits >= $2
	`

	result, err := db.Pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}
	if result.RowsAffected() == 1 {
		log.Printf("DebitCredits: user=%s amount=%d", userID, amount)
		return nil
	}

	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return models.ErrUserNotFound
	}
	return models.ErrInsufficientBalance
}

func (db *DB) RefundCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := db.Pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to refund credits: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}

	log.Printf("RefundCredits: user=%s amount=%d", userID, amount)
	return nil
}

func generateAPIKey() string {
	return fmt.Sprintf("sc_%s", uuid.New().String())
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.APIKey,
		&user.Credits,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
