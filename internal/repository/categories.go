package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateCategory inserts a category. A taken name fails with ErrDuplicate.
func (q *queries) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	c := &model.Category{Name: name}
	err := q.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&c.ID)
	if err != nil {
		return nil, translate(err, "insert category")
	}
	return c, nil
}

// GetCategory returns a single category or ErrNotFound.
func (q *queries) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := q.db.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, translate(err, "get category")
	}
	return &c, nil
}

// ListCategories returns one page of categories ordered by id.
func (q *queries) ListCategories(ctx context.Context, page filter.Page) ([]model.Category, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name FROM categories ORDER BY id LIMIT $1 OFFSET $2`,
		page.Size, page.From,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategory renames a category.
func (q *queries) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	c := &model.Category{ID: id}
	err := q.db.QueryRow(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1 RETURNING name`,
		id, name,
	).Scan(&c.Name)
	if err != nil {
		return nil, translate(err, "update category")
	}
	return c, nil
}

// DeleteCategory removes a category. One still used by events fails with
// ErrReferenced.
func (q *queries) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete category")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryInUse reports whether any event belongs to the category.
func (q *queries) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE category_id = $1)`,
		id,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	return used, nil
}
