package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// AddSubscription stores (user, author). The CHECK constraint rejects a
// self-subscription even if a caller skips the service-level check.
func (db *DB) AddSubscription(ctx context.Context, userID, authorID string) error {
	if userID == authorID {
		return apperror.SelfReference("you cannot subscribe to yourself")
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, author_id, created_at) VALUES (?, ?, ?)`,
		userID, authorID, time.Now().UTC(),
	)
	if err != nil {
		if terr := translate(err,
			"you are already subscribed to this author",
			"cannot subscribe to this author",
		); terr != err {
			return terr
		}
		return fmt.Errorf("sqlite: adding subscription: %w", err)
	}
	return nil
}

func (db *DB) RemoveSubscription(ctx context.Context, userID, authorID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?`, userID, authorID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("you are not subscribed to user %s", authorID),
		}
	}
	return nil
}

func (db *DB) HasSubscription(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = ? AND author_id = ?)`,
		userID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking subscription: %w", err)
	}
	return exists, nil
}

// ListSubscriptions returns the authors userID follows, most recent
// subscription first, and the total count.
func (db *DB) ListSubscriptions(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting subscriptions: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
			u.github_id, u.is_superuser, u.created_at, u.updated_at
		 FROM subscriptions s JOIN users u ON u.id = s.author_id
		 WHERE s.user_id = ?
		 ORDER BY s.created_at DESC, u.id
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing subscriptions: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
