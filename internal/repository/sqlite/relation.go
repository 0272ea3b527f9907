package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
)

// AddRecipeRelation stores (kind, user, recipe). The primary key makes a
// concurrent second insert fail; that failure is reported as DuplicateError.
func (db *DB) AddRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO recipe_relations (kind, user_id, recipe_id, created_at) VALUES (?, ?, ?, ?)`,
		string(kind), userID, recipeID, time.Now().UTC(),
	)
	if err != nil {
		if terr := translate(err,
			fmt.Sprintf("recipe %s is already in your %s", recipeID, kind.Label()),
			fmt.Sprintf("cannot add recipe %s to %s", recipeID, kind.Label()),
		); terr != err {
			return terr
		}
		return fmt.Errorf("sqlite: adding %s relation: %w", kind, err)
	}
	return nil
}

// RemoveRecipeRelation deletes the caller's own row only.
func (db *DB) RemoveRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM recipe_relations WHERE kind = ? AND user_id = ? AND recipe_id = ?`,
		string(kind), userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing %s relation: %w", kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("recipe %s is not in your %s", recipeID, kind.Label()),
		}
	}
	return nil
}

func (db *DB) HasRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipe_relations WHERE kind = ? AND user_id = ? AND recipe_id = ?)`,
		string(kind), userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s relation: %w", kind, err)
	}
	return exists, nil
}
