package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/dailybrief/models"
	"github.com/google/uuid"
)

type DeliveryAttemptRepository struct {
	db *sql.DB
}

func NewDeliveryAttemptRepository(db *sql.DB) *DeliveryAttemptRepository {
	return &DeliveryAttemptRepository{db: db}
}

func (r *DeliveryAttemptRepository) CreateAttempt(ctx context.Context, attempt *models.DeliveryAttempt) error {
	if _, err := uuid.Parse(attempt.ID); err != nil {
		return fmt.Errorf("invalid attempt ID format: %w", err)
	}

	query := `
		INSERT INTO delivery_attempts (id, email, created_at, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		attempt.ID, attempt.Email, attempt.CreatedAt, string(attempt.Status), attempt.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery attempt: %w", err)
	}
	return nil
}

// GetRecentAttempts returns the most recent attempts for a subscriber,
// newest first. Used by the diagnostics endpoint.
func (r *DeliveryAttemptRepository) GetRecentAttempts(ctx context.Context, email string, limit int) ([]models.DeliveryAttempt, error) {
	query := `
		SELECT id, email, created_at, status, error_message
		FROM delivery_attempts
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.DeliveryAttempt
	for rows.Next() {
		var a models.DeliveryAttempt
		var status string
		if err := rows.Scan(&a.ID, &a.Email, &a.CreatedAt, &status, &a.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan delivery attempt row: %w", err)
		}
		a.Status = models.DeliveryStatus(status)
		attempts = append(attempts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery attempt rows: %w", err)
	}
	return attempts, nil
}
