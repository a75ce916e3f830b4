package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coreybb/dailybrief/models"
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("not found")

type SubscriptionRepository struct {
	db *sql.DB // The actual database connection pool
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Get retrieves a subscription by its email key.
func (r *SubscriptionRepository) Get(ctx context.Context, email string) (*models.Subscription, error) {
	query := `
		SELECT email, created_at, delivery_hour, delivery_minute, time_set,
		       timezone, sources, stage, pending_url, last_digest_sent_at
		FROM subscriptions
		WHERE email = $1
	`
	row := r.db.QueryRowContext(ctx, query, email)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription %s: %w", email, err)
	}
	return sub, nil
}

// Upsert writes the full record in one statement. Mutations are always
// all-or-nothing row replacements, never partial field writes.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	sourcesJSON, err := json.Marshal(sub.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources for %s: %w", sub.Email, err)
	}

	query := `
		INSERT INTO subscriptions
			(email, created_at, delivery_hour, delivery_minute, time_set,
			 timezone, sources, stage, pending_url, last_digest_sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE SET
			delivery_hour = EXCLUDED.delivery_hour,
			delivery_minute = EXCLUDED.delivery_minute,
			time_set = EXCLUDED.time_set,
			timezone = EXCLUDED.timezone,
			sources = EXCLUDED.sources,
			stage = EXCLUDED.stage,
			pending_url = EXCLUDED.pending_url,
			last_digest_sent_at = EXCLUDED.last_digest_sent_at
	`
	_, err = r.db.ExecContext(ctx, query,
		sub.Email, sub.CreatedAt, sub.DeliveryHour, sub.DeliveryMinute, sub.TimeSet,
		sub.Timezone, sourcesJSON, string(sub.Stage), sub.PendingURL, nullableTime(sub.LastDigestSentAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", sub.Email, err)
	}
	return nil
}

// Delete removes a subscription entirely.
func (r *SubscriptionRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", email, err)
	}
	return nil
}

// GetActive returns every fully-onboarded subscription, for scheduler sweeps.
func (r *SubscriptionRepository) GetActive(ctx context.Context) ([]models.Subscription, error) {
	query := `
		SELECT email, created_at, delivery_hour, delivery_minute, time_set,
		       timezone, sources, stage, pending_url, last_digest_sent_at
		FROM subscriptions
		WHERE stage = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, string(models.StageActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

// MarkDigestSent stamps the delivery-window marker. This is the only field
// written outside a full-row upsert; it is owned exclusively by the
// scheduler, so no concurrent writer can observe a partial record.
func (r *SubscriptionRepository) MarkDigestSent(ctx context.Context, email string, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET last_digest_sent_at = $1 WHERE email = $2`,
		sentAt, email,
	)
	if err != nil {
		return fmt.Errorf("failed to mark digest sent for %s: %w", email, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub         models.Subscription
		stage       string
		sourcesJSON []byte
		lastSent    sql.NullTime
	)
	err := row.Scan(
		&sub.Email, &sub.CreatedAt, &sub.DeliveryHour, &sub.DeliveryMinute, &sub.TimeSet,
		&sub.Timezone, &sourcesJSON, &stage, &sub.PendingURL, &lastSent,
	)
	if err != nil {
		return nil, err
	}

	sub.Stage = models.OnboardingStage(stage)
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &sub.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources: %w", err)
		}
	}
	if lastSent.Valid {
		t := lastSent.Time.UTC()
		sub.LastDigestSentAt = &t
	}
	return &sub, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
