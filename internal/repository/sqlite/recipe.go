package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.cooking_time, r.image, r.created_at`

func scanRecipe(row interface{ Scan(...any) error }, r *model.Recipe) error {
	return row.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.CookingTime, &r.Image, &r.CreatedAt)
}

// CreateRecipe inserts the recipe row, its tag links and its junction rows
// in one transaction. Either all of them are stored or none is.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	recipe.ID = xid.New().String()
	recipe.CreatedAt = time.Now().UTC()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, author_id, name, text, cooking_time, image, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipe.ID, recipe.AuthorID, recipe.Name, recipe.Text,
			recipe.CookingTime, recipe.Image, recipe.CreatedAt,
		)
		if err != nil {
			return recipeWriteError("creating recipe", err)
		}
		if err := insertRecipeTags(ctx, tx, recipe.ID, recipe.Tags); err != nil {
			return err
		}
		return insertRecipeIngredients(ctx, tx, recipe.ID, recipe.Ingredients)
	})
	if err != nil {
		recipe.ID = ""
		return err
	}
	return nil
}

// GetRecipe returns the recipe with its tags and ingredients resolved.
func (db *DB) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var r model.Recipe
	row := db.conn.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`, id)
	if err := scanRecipe(row, &r); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}

	recipes := []model.Recipe{r}
	if err := loadAssociations(ctx, db.conn, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// UpdateRecipe writes the scalar fields and, as requested, replaces the tag
// set and the ingredient list. Replacement deletes every old row and inserts
// the new set inside the same transaction, so a failure leaves the previous
// set untouched.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe, upd repository.RecipeUpdate) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, text = ?, cooking_time = ?, image = ? WHERE id = ?`,
			recipe.Name, recipe.Text, recipe.CookingTime, recipe.Image, recipe.ID,
		)
		if err != nil {
			return recipeWriteError("updating recipe", err)
		}
		if err := requireAffected(result, "recipe", recipe.ID); err != nil {
			return err
		}

		if upd.ReplaceTags {
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
				return fmt.Errorf("sqlite: clearing tags of recipe %s: %w", recipe.ID, err)
			}
			if err := insertRecipeTags(ctx, tx, recipe.ID, recipe.Tags); err != nil {
				return err
			}
		}

		if upd.ReplaceIngredients {
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
				return fmt.Errorf("sqlite: clearing ingredients of recipe %s: %w", recipe.ID, err)
			}
			if err := insertRecipeIngredients(ctx, tx, recipe.ID, recipe.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRecipe removes the recipe and everything that references it.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM recipe_relations WHERE recipe_id = ?`,
			`DELETE FROM recipe_ingredients WHERE recipe_id = ?`,
			`DELETE FROM recipe_tags WHERE recipe_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("sqlite: deleting children of recipe %s: %w", id, err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
		}
		return requireAffected(result, "recipe", id)
	})
}

// ListRecipes returns one page of recipes matching filter, newest first,
// and the total number of matches.
//
// Each filter is an EXISTS sub-query, so a recipe carrying two of the
// requested tags still appears once.
func (db *DB) ListRecipes(ctx context.Context, filter model.RecipeFilter, opts repository.ListOptions) ([]model.Recipe, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != "" {
		where = append(where, `r.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders(len(filter.TagSlugs))+`))`)
		args = append(args, stringArgs(filter.TagSlugs)...)
	}
	if filter.FavoritedBy != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_relations rr
			WHERE rr.recipe_id = r.id AND rr.kind = ? AND rr.user_id = ?)`)
		args = append(args, string(model.RelationFavorite), filter.FavoritedBy)
	}
	if filter.InShoppingCartOf != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_relations rr
			WHERE rr.recipe_id = r.id AND rr.kind = ? AND rr.user_id = ?)`)
		args = append(args, string(model.RelationBuyList), filter.InShoppingCartOf)
	}

	clause := ""
	if len(where) > 0 {
		clause = ` WHERE ` + strings.Join(where, ` AND `)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting recipes: %w", err)
	}

	pageArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r`+clause+`
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := loadAssociations(ctx, db.conn, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (db *DB) ListRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.Recipe, error) {
	if limit < 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r
		 WHERE r.author_id = ?
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT ?`,
		authorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes of %s: %w", authorID, err)
	}
	return collectRecipes(rows)
}

func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes of %s: %w", authorID, err)
	}
	return n, nil
}

func (db *DB) AuthorHasRecipe(ctx context.Context, authorID, name string, tagIDs []string, excludeID string) (bool, error) {
	if len(tagIDs) == 0 {
		return false, nil
	}
	args := []any{authorID, name, excludeID}
	args = append(args, stringArgs(tagIDs)...)

	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM recipes r JOIN recipe_tags rt ON rt.recipe_id = r.id
			WHERE r.author_id = ? AND r.name = ? AND r.id <> ?
			  AND rt.tag_id IN (`+placeholders(len(tagIDs))+`))`,
		args...,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking duplicate recipe: %w", err)
	}
	return exists, nil
}

// ===== ASSOCIATIONS =====

func insertRecipeTags(ctx context.Context, tx *sql.Tx, recipeID string, tags []model.Tag) error {
	for _, t := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`, recipeID, t.ID,
		); err != nil {
			return recipeWriteError("linking tag "+t.ID, err)
		}
	}
	return nil
}

// insertRecipeIngredients writes the junction rows as one multi-row INSERT.
func insertRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID string, items []model.RecipeIngredient) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*4)
	for i, item := range items {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, recipeID, item.Ingredient.ID, item.Amount, i)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position) VALUES `+
			strings.Join(values, ", "),
		args...,
	)
	if err != nil {
		return recipeWriteError("inserting recipe ingredients", err)
	}
	return nil
}

func recipeWriteError(action string, err error) error {
	if terr := translate(err,
		"an ingredient or tag is listed more than once",
		"recipe references an unknown tag or ingredient, or has an out-of-range value",
	); terr != err {
		return terr
	}
	return fmt.Errorf("sqlite: %s: %w", action, err)
}

// loadAssociations fills Tags and Ingredients of every recipe in place.
func loadAssociations(ctx context.Context, q querier, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	index := make(map[string]int, len(recipes))
	ids := make([]string, len(recipes))
	for i, r := range recipes {
		index[r.ID] = i
		ids[i] = r.ID
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.RecipeIngredient{}
	}

	rows, err := q.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+placeholders(len(ids))+`)
		 ORDER BY t.name, t.id`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe tags: %w", err)
	}
	for rows.Next() {
		var recipeID string
		var t model.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning recipe tag: %w", err)
		}
		i := index[recipeID]
		recipes[i].Tags = append(recipes[i].Tags, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (`+placeholders(len(ids))+`)
		 ORDER BY ri.position`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID string
		var ri model.RecipeIngredient
		if err := rows.Scan(&recipeID, &ri.Ingredient.ID, &ri.Ingredient.Name,
			&ri.Ingredient.MeasurementUnit, &ri.Amount); err != nil {
			return fmt.Errorf("sqlite: scanning recipe ingredient: %w", err)
		}
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ri)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}
	return nil
}

func collectRecipes(rows *sql.Rows) ([]model.Recipe, error) {
	defer rows.Close()
	recipes := []model.Recipe{}
	for rows.Next() {
		var r model.Recipe
		if err := scanRecipe(rows, &r); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return recipes, nil
}
