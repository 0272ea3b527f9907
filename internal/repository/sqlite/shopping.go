package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/foodgram/internal/model"
)

// BuyListRows returns the junction rows of every recipe in the user's buy
// list, ordered by ingredient id so repeated calls see the same sequence.
func (db *DB) BuyListRows(ctx context.Context, userID string) ([]model.ShoppingRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_relations rr
		 JOIN recipe_ingredients ri ON ri.recipe_id = rr.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE rr.kind = ? AND rr.user_id = ?
		 ORDER BY i.id, rr.recipe_id`,
		string(model.RelationBuyList), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading buy list of %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.ShoppingRow{}
	for rows.Next() {
		var r model.ShoppingRow
		if err := rows.Scan(&r.IngredientID, &r.Name, &r.MeasurementUnit, &r.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning buy list row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating buy list: %w", err)
	}
	return out, nil
}
