package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
)

// ===== INGREDIENTS =====

// ListIngredients returns ingredients whose name starts with namePrefix,
// ignoring case. An empty prefix lists everything.
func (db *DB) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	var args []any
	if p := strings.TrimSpace(namePrefix); p != "" {
		query += ` WHERE search_name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(strings.ToLower(p))+"%")
	}
	query += ` ORDER BY search_name, measurement_unit, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	return collectIngredients(rows)
}

func (db *DB) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %s: %w", id, err)
	}
	return &ing, nil
}

// FindIngredients returns the ingredients among ids that exist. Missing
// ids are simply absent from the result.
func (db *DB) FindIngredients(ctx context.Context, ids []string) ([]model.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding ingredients: %w", err)
	}
	return collectIngredients(rows)
}

// CreateIngredients bulk-inserts items in one transaction, skipping any
// (name, unit) pair that already exists. Returns how many rows were added.
func (db *DB) CreateIngredients(ctx context.Context, items []model.Ingredient) (int, error) {
	inserted := 0
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ingredients (id, name, search_name, measurement_unit)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (name, measurement_unit) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("sqlite: preparing ingredient insert: %w", err)
		}
		defer stmt.Close()

		for i := range items {
			items[i].ID = xid.New().String()
			res, err := stmt.ExecContext(ctx,
				items[i].ID, items[i].Name, strings.ToLower(items[i].Name), items[i].MeasurementUnit)
			if err != nil {
				return fmt.Errorf("sqlite: inserting ingredient %q: %w", items[i].Name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			} else {
				items[i].ID = ""
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func collectIngredients(rows *sql.Rows) ([]model.Ingredient, error) {
	defer rows.Close()
	items := []model.Ingredient{}
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}
	return items, nil
}

// ===== TAGS =====

func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	return collectTags(rows)
}

func (db *DB) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return &t, nil
}

func (db *DB) FindTags(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding tags: %w", err)
	}
	return collectTags(rows)
}

// CreateTag inserts a tag. A name or slug clash is a DuplicateError.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, slug) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Color, tag.Slug,
	)
	if err != nil {
		if terr := translate(err, fmt.Sprintf("tag %q or slug %q already exists", tag.Name, tag.Slug), "invalid tag"); terr != err {
			return terr
		}
		return fmt.Errorf("sqlite: creating tag: %w", err)
	}
	return nil
}

func collectTags(rows *sql.Rows) ([]model.Tag, error) {
	defer rows.Close()
	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// ===== QUERY HELPERS =====

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
